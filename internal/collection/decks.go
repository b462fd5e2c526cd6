package collection

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/hpungsan/sift/internal/errors"
)

// Deck is a named container of cards. Subdecks are encoded in the name with
// "::" separators, as in "Spanish::Verbs".
type Deck struct {
	ID   DeckID `json:"id"`
	Name string `json:"name"`
}

// AddDeck creates a deck, or returns the existing one with the same name.
func (c *Collection) AddDeck(ctx context.Context, name string) (DeckID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.NewInvalidRequest("deck name must not be empty")
	}

	if id, err := c.DeckIDByName(ctx, name); err == nil {
		return id, nil
	} else if !errors.Is(err, errors.ErrNotFound) {
		return 0, err
	}

	res, err := c.db.ExecContext(ctx, `INSERT INTO decks (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("add deck: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add deck: %w", err)
	}
	return DeckID(id), nil
}

// DeckIDByName resolves a deck name to its id.
func (c *Collection) DeckIDByName(ctx context.Context, name string) (DeckID, error) {
	var id DeckID
	err := c.db.QueryRowContext(ctx, `SELECT id FROM decks WHERE name = ? COLLATE NOCASE`, name).Scan(&id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, errors.NewNotFound("deck", name)
	}
	if err != nil {
		return 0, fmt.Errorf("deck by name: %w", err)
	}
	return id, nil
}

// DeckName resolves a deck id to its name.
func (c *Collection) DeckName(ctx context.Context, id DeckID) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx, `SELECT name FROM decks WHERE id = ?`, int64(id)).Scan(&name)
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", errors.NewNotFound("deck", int64(id))
	}
	if err != nil {
		return "", fmt.Errorf("deck name: %w", err)
	}
	return name, nil
}

// Decks lists all decks by name.
func (c *Collection) Decks(ctx context.Context) ([]Deck, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name FROM decks ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	var decks []Deck
	for rows.Next() {
		var d Deck
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// NoteInput contains parameters for AddNote.
type NoteInput struct {
	Deck  string // deck name, created if missing; empty means Default
	Front string // required
	Back  string
	Tags  []string
}

// AddNote creates a note and its card in one undoable step.
// The card lands in the new queue at the end of the position order.
func (c *Collection) AddNote(ctx context.Context, input NoteInput) (NoteID, CardID, error) {
	if strings.TrimSpace(input.Front) == "" {
		return 0, 0, errors.NewInvalidRequest("front field must not be empty")
	}
	for _, t := range input.Tags {
		if err := validTag(t); err != nil {
			return 0, 0, err
		}
	}

	deckName := strings.TrimSpace(input.Deck)
	if deckName == "" {
		deckName = "Default"
	}
	deckID, err := c.AddDeck(ctx, deckName)
	if err != nil {
		return 0, 0, err
	}

	var noteID NoteID
	var cardID CardID
	_, err = c.undoable(ctx, "add note", Changes{Note: true, Card: true}, func(tx *sql.Tx) (int, error) {
		ts := now()

		res, err := tx.ExecContext(ctx,
			`INSERT INTO notes (front, back, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			input.Front, input.Back, joinTags(input.Tags), ts, ts)
		if err != nil {
			return 0, fmt.Errorf("add note: %w", err)
		}
		nid, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		noteID = NoteID(nid)

		var maxPos sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(position) FROM cards`).Scan(&maxPos); err != nil {
			return 0, err
		}

		res, err = tx.ExecContext(ctx,
			`INSERT INTO cards (note_id, deck_id, queue, position, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			nid, int64(deckID), int(QueueNew), maxPos.Int64+1, ts, ts)
		if err != nil {
			return 0, fmt.Errorf("add card: %w", err)
		}
		cid, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		cardID = CardID(cid)

		return 1, nil
	})
	if err != nil {
		return 0, 0, err
	}
	return noteID, cardID, nil
}
