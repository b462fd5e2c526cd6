package collection

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/hpungsan/sift/internal/errors"
)

func now() int64 {
	return time.Now().UnixMilli()
}

func cardArgs(ids []CardID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	return args
}

func noteArgs(ids []NoteID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	return args
}

// emptyOp reports a mutation that had no targets. Nothing is written and no
// undo step is recorded.
func emptyOp(label string, ch Changes) *OpResult {
	return &OpResult{Label: label, Count: 0, Changes: ch}
}

func validTag(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return errors.NewInvalidRequest("tag must not be empty")
	}
	if strings.ContainsAny(tag, " \t\n") {
		return errors.NewInvalidRequest("tag must not contain whitespace")
	}
	return nil
}

// BulkAddTag adds a tag to every note in ids that does not already carry it.
func (c *Collection) BulkAddTag(ctx context.Context, ids []NoteID, tag string) (*OpResult, error) {
	if err := validTag(tag); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return emptyOp("add tag", Changes{Note: true}), nil
	}

	return c.undoable(ctx, "add tag", Changes{Note: true}, func(tx *sql.Tx) (int, error) {
		args := append([]any{tag, now()}, noteArgs(ids)...)
		args = append(args, strings.ToLower(tag))
		res, err := tx.ExecContext(ctx,
			`UPDATE notes SET tags = trim(tags || ' ' || ?), updated_at = ?
			 WHERE id IN (`+placeholders(len(ids))+`)
			 AND instr(' ' || lower(tags) || ' ', ' ' || ? || ' ') = 0`, args...)
		if err != nil {
			return 0, fmt.Errorf("add tag: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	})
}

// BulkRemoveTag removes a tag from every note in ids that carries it.
func (c *Collection) BulkRemoveTag(ctx context.Context, ids []NoteID, tag string) (*OpResult, error) {
	if err := validTag(tag); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return emptyOp("remove tag", Changes{Note: true}), nil
	}

	return c.undoable(ctx, "remove tag", Changes{Note: true}, func(tx *sql.Tx) (int, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, tags FROM notes WHERE id IN (`+placeholders(len(ids))+`)`, noteArgs(ids)...)
		if err != nil {
			return 0, fmt.Errorf("remove tag: %w", err)
		}

		type pending struct {
			id   NoteID
			tags string
		}
		var updates []pending
		for rows.Next() {
			var id NoteID
			var tags string
			if err := rows.Scan(&id, &tags); err != nil {
				rows.Close()
				return 0, err
			}
			all := splitTags(tags)
			kept := all[:0]
			removed := false
			for _, t := range all {
				if strings.EqualFold(t, tag) {
					removed = true
					continue
				}
				kept = append(kept, t)
			}
			if removed {
				updates = append(updates, pending{id, joinTags(kept)})
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return 0, err
		}

		ts := now()
		for _, u := range updates {
			if _, err := tx.ExecContext(ctx,
				`UPDATE notes SET tags = ?, updated_at = ? WHERE id = ?`, u.tags, ts, int64(u.id)); err != nil {
				return 0, fmt.Errorf("remove tag: %w", err)
			}
		}
		return len(updates), nil
	})
}

// SuspendCards moves cards to the suspended queue, remembering the previous
// queue so unsuspending can restore it. Already-suspended cards are untouched.
func (c *Collection) SuspendCards(ctx context.Context, ids []CardID) (*OpResult, error) {
	if len(ids) == 0 {
		return emptyOp("suspend", Changes{Card: true}), nil
	}
	return c.undoable(ctx, "suspend", Changes{Card: true}, func(tx *sql.Tx) (int, error) {
		args := append([]any{now()}, cardArgs(ids)...)
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE cards SET orig_queue = queue, queue = %d, updated_at = ?
			 WHERE id IN (%s) AND queue != %d`, QueueSuspended, placeholders(len(ids)), QueueSuspended),
			args...)
		if err != nil {
			return 0, fmt.Errorf("suspend: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	})
}

// UnsuspendCards restores suspended cards to their remembered queue.
func (c *Collection) UnsuspendCards(ctx context.Context, ids []CardID) (*OpResult, error) {
	if len(ids) == 0 {
		return emptyOp("unsuspend", Changes{Card: true}), nil
	}
	return c.undoable(ctx, "unsuspend", Changes{Card: true}, func(tx *sql.Tx) (int, error) {
		args := append([]any{now()}, cardArgs(ids)...)
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE cards SET queue = CASE WHEN orig_queue < 0 THEN %d ELSE orig_queue END, updated_at = ?
			 WHERE id IN (%s) AND queue = %d`, QueueNew, placeholders(len(ids)), QueueSuspended),
			args...)
		if err != nil {
			return 0, fmt.Errorf("unsuspend: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	})
}

// BuryCards hides cards from the study queue until unburied. Suspended or
// already-buried cards are untouched.
func (c *Collection) BuryCards(ctx context.Context, ids []CardID) (*OpResult, error) {
	if len(ids) == 0 {
		return emptyOp("bury", Changes{Card: true}), nil
	}
	return c.undoable(ctx, "bury", Changes{Card: true}, func(tx *sql.Tx) (int, error) {
		args := append([]any{now()}, cardArgs(ids)...)
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE cards SET orig_queue = queue, queue = %d, updated_at = ?
			 WHERE id IN (%s) AND queue >= 0`, QueueUserBuried, placeholders(len(ids))),
			args...)
		if err != nil {
			return 0, fmt.Errorf("bury: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	})
}

// UnburyCards restores cards buried for any reason to their remembered queue.
func (c *Collection) UnburyCards(ctx context.Context, ids []CardID) (*OpResult, error) {
	if len(ids) == 0 {
		return emptyOp("unbury", Changes{Card: true}), nil
	}
	return c.undoable(ctx, "unbury", Changes{Card: true}, func(tx *sql.Tx) (int, error) {
		args := append([]any{now()}, cardArgs(ids)...)
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf(`UPDATE cards SET queue = CASE WHEN orig_queue < 0 THEN %d ELSE orig_queue END, updated_at = ?
			 WHERE id IN (%s) AND queue IN (%d, %d)`,
				QueueNew, placeholders(len(ids)), QueueUserBuried, QueueSchedBuried),
			args...)
		if err != nil {
			return 0, fmt.Errorf("unbury: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	})
}

// SetDeck moves cards to another deck.
func (c *Collection) SetDeck(ctx context.Context, ids []CardID, deck DeckID) (*OpResult, error) {
	if len(ids) == 0 {
		return emptyOp("move to deck", Changes{Card: true}), nil
	}
	var exists int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decks WHERE id = ?`, int64(deck)).Scan(&exists); err != nil {
		return nil, fmt.Errorf("set deck: %w", err)
	}
	if exists == 0 {
		return nil, errors.NewNotFound("deck", int64(deck))
	}

	return c.undoable(ctx, "move to deck", Changes{Card: true}, func(tx *sql.Tx) (int, error) {
		args := append([]any{int64(deck), now()}, cardArgs(ids)...)
		res, err := tx.ExecContext(ctx,
			`UPDATE cards SET deck_id = ?, updated_at = ? WHERE id IN (`+placeholders(len(ids))+`)`,
			args...)
		if err != nil {
			return 0, fmt.Errorf("set deck: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	})
}

// SetUserFlag sets the user flag (0 clears) on cards.
func (c *Collection) SetUserFlag(ctx context.Context, ids []CardID, flag int) (*OpResult, error) {
	if flag < 0 || flag > 7 {
		return nil, errors.NewInvalidRequest("flag must be 0-7")
	}
	if len(ids) == 0 {
		return emptyOp("set flag", Changes{Card: true}), nil
	}

	return c.undoable(ctx, "set flag", Changes{Card: true}, func(tx *sql.Tx) (int, error) {
		args := append([]any{flag, now()}, cardArgs(ids)...)
		res, err := tx.ExecContext(ctx,
			`UPDATE cards SET flag = ?, updated_at = ? WHERE id IN (`+placeholders(len(ids))+`) AND flag != ?`,
			append(args, flag)...)
		if err != nil {
			return 0, fmt.Errorf("set flag: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	})
}

// RemoveNotes deletes notes and, through the cascade, all their cards.
func (c *Collection) RemoveNotes(ctx context.Context, ids []NoteID) (*OpResult, error) {
	if len(ids) == 0 {
		return emptyOp("delete notes", Changes{Note: true, Card: true}), nil
	}
	return c.undoable(ctx, "delete notes", Changes{Note: true, Card: true}, func(tx *sql.Tx) (int, error) {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM notes WHERE id IN (`+placeholders(len(ids))+`)`, noteArgs(ids)...)
		if err != nil {
			return 0, fmt.Errorf("delete notes: %w", err)
		}
		n, _ := res.RowsAffected()
		return int(n), nil
	})
}

// SortCards repositions cards in the new queue starting at start with the
// given step. With shuffle the assignment order is randomized; with shift,
// existing cards at or after start are pushed out of the way first.
func (c *Collection) SortCards(ctx context.Context, ids []CardID, start, step int, shuffle, shift bool) (*OpResult, error) {
	if step < 1 {
		return nil, errors.NewInvalidRequest("step must be at least 1")
	}
	if start < 0 {
		return nil, errors.NewInvalidRequest("start position must not be negative")
	}
	if len(ids) == 0 {
		return emptyOp("reposition", Changes{Card: true}), nil
	}

	order := make([]CardID, len(ids))
	copy(order, ids)
	if shuffle {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	return c.undoable(ctx, "reposition", Changes{Card: true}, func(tx *sql.Tx) (int, error) {
		ts := now()

		if shift && len(order) > 0 {
			shiftBy := len(order) * step
			args := append([]any{shiftBy, ts, start}, cardArgs(order)...)
			_, err := tx.ExecContext(ctx,
				`UPDATE cards SET position = position + ?, updated_at = ?
				 WHERE position >= ? AND id NOT IN (`+placeholders(len(order))+`)`, args...)
			if err != nil {
				return 0, fmt.Errorf("reposition shift: %w", err)
			}
		}

		moved := 0
		for i, id := range order {
			res, err := tx.ExecContext(ctx,
				`UPDATE cards SET position = ?, updated_at = ? WHERE id = ?`,
				start+i*step, ts, int64(id))
			if err != nil {
				return 0, fmt.Errorf("reposition: %w", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				moved++
			}
		}
		return moved, nil
	})
}

// FindReplace replaces every occurrence of search in the front and back
// fields of the given notes. Returns the number of notes changed.
func (c *Collection) FindReplace(ctx context.Context, ids []NoteID, search, replacement string) (*OpResult, error) {
	if search == "" {
		return nil, errors.NewInvalidRequest("search text must not be empty")
	}
	if len(ids) == 0 {
		return emptyOp("find and replace", Changes{Note: true}), nil
	}

	return c.undoable(ctx, "find and replace", Changes{Note: true}, func(tx *sql.Tx) (int, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, front, back FROM notes WHERE id IN (`+placeholders(len(ids))+`)`, noteArgs(ids)...)
		if err != nil {
			return 0, fmt.Errorf("find and replace: %w", err)
		}

		type pending struct {
			id          NoteID
			front, back string
		}
		var updates []pending
		for rows.Next() {
			var id NoteID
			var front, back string
			if err := rows.Scan(&id, &front, &back); err != nil {
				rows.Close()
				return 0, err
			}
			newFront := strings.ReplaceAll(front, search, replacement)
			newBack := strings.ReplaceAll(back, search, replacement)
			if newFront != front || newBack != back {
				updates = append(updates, pending{id, newFront, newBack})
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return 0, err
		}

		ts := now()
		for _, u := range updates {
			if _, err := tx.ExecContext(ctx,
				`UPDATE notes SET front = ?, back = ?, updated_at = ? WHERE id = ?`,
				u.front, u.back, ts, int64(u.id)); err != nil {
				return 0, fmt.Errorf("find and replace: %w", err)
			}
		}
		return len(updates), nil
	})
}
