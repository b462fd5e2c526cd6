package collection

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/hpungsan/sift/internal/errors"
)

// Card is one scheduled instance of a note in a deck.
type Card struct {
	ID        CardID
	NoteID    NoteID
	DeckID    DeckID
	Queue     Queue
	OrigQueue Queue
	Position  int
	Flag      int
	CreatedAt int64
	UpdatedAt int64
}

// Note holds the user-authored content shared by its cards.
type Note struct {
	ID        NoteID
	Front     string
	Back      string
	Tags      []string
	CreatedAt int64
	UpdatedAt int64
}

// Marked reports whether the note carries the marked tag.
func (n *Note) Marked() bool {
	for _, t := range n.Tags {
		if strings.EqualFold(t, MarkedTag) {
			return true
		}
	}
	return false
}

// GetCard loads a single card.
func (c *Collection) GetCard(ctx context.Context, id CardID) (*Card, error) {
	var card Card
	err := c.db.QueryRowContext(ctx,
		`SELECT id, note_id, deck_id, queue, orig_queue, position, flag, created_at, updated_at
		 FROM cards WHERE id = ?`, int64(id)).
		Scan(&card.ID, &card.NoteID, &card.DeckID, &card.Queue, &card.OrigQueue,
			&card.Position, &card.Flag, &card.CreatedAt, &card.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("card", int64(id))
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return &card, nil
}

// GetNote loads a single note.
func (c *Collection) GetNote(ctx context.Context, id NoteID) (*Note, error) {
	var note Note
	var tags string
	err := c.db.QueryRowContext(ctx,
		`SELECT id, front, back, tags, created_at, updated_at FROM notes WHERE id = ?`, int64(id)).
		Scan(&note.ID, &note.Front, &note.Back, &tags, &note.CreatedAt, &note.UpdatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("note", int64(id))
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	note.Tags = splitTags(tags)
	return &note, nil
}

// AllCardsInQueues reports whether every card in ids that still exists is in
// one of the given queues. Stale ids are skipped; an empty or fully stale
// selection reports true for zero existing cards.
func (c *Collection) AllCardsInQueues(ctx context.Context, ids []CardID, queues ...Queue) (bool, error) {
	n, err := c.countCardsOutsideQueues(ctx, ids, queues)
	return n == 0, err
}

// CountCardsOutsideQueues counts the cards in ids whose queue is not one of
// the given queues. Used for the reposition precondition.
func (c *Collection) CountCardsOutsideQueues(ctx context.Context, ids []CardID, queues ...Queue) (int, error) {
	return c.countCardsOutsideQueues(ctx, ids, queues)
}

func (c *Collection) countCardsOutsideQueues(ctx context.Context, ids []CardID, queues []Queue) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	qs := make([]string, len(queues))
	for i, q := range queues {
		qs[i] = fmt.Sprintf("%d", q)
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}

	sqlQuery := "SELECT COUNT(*) FROM cards WHERE id IN (" + placeholders(len(ids)) + ")" +
		" AND queue NOT IN (" + strings.Join(qs, ", ") + ")"

	var n int
	if err := c.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cards outside queues: %w", err)
	}
	return n, nil
}

// AllNotesHaveTag reports whether every note in ids that still exists carries
// the given tag.
func (c *Collection) AllNotesHaveTag(ctx context.Context, ids []NoteID, tag string) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}

	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, int64(id))
	}
	args = append(args, strings.ToLower(tag))

	sqlQuery := "SELECT COUNT(*) FROM notes WHERE id IN (" + placeholders(len(ids)) + ")" +
		" AND instr(' ' || lower(tags) || ' ', ' ' || ? || ' ') = 0"

	var n int
	if err := c.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("check note tags: %w", err)
	}
	return n == 0, nil
}

// splitTags splits the stored space-separated tag string.
func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}

// joinTags normalizes a tag list back into its stored representation.
func joinTags(tags []string) string {
	return strings.Join(tags, " ")
}
