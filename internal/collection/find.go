package collection

import (
	"context"
	"fmt"
	"strings"
)

const searchJoin = "FROM cards c JOIN notes n ON n.id = c.note_id JOIN decks d ON d.id = c.deck_id"

// FindCardIDs executes a search expression and returns matching card ids in
// the requested order. The query itself may be cancelled through ctx.
func (c *Collection) FindCardIDs(ctx context.Context, query string, order SortOrder, descending bool) ([]CardID, error) {
	where, args, err := buildSearch(query)
	if err != nil {
		return nil, err
	}
	col, err := orderColumn(order)
	if err != nil {
		return nil, err
	}

	sqlQuery := "SELECT c.id " + searchJoin + " WHERE " + where
	if col != "" {
		dir := ""
		if descending {
			dir = " DESC"
		}
		sqlQuery += " ORDER BY " + col + dir + ", c.id"
	} else {
		sqlQuery += " ORDER BY c.id"
	}

	rows, err := c.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("find cards: %w", err)
	}
	defer rows.Close()

	var ids []CardID
	for rows.Next() {
		var id CardID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FindNoteIDs executes a search expression and returns matching note ids,
// deduplicated to one entry per note, in the requested order.
func (c *Collection) FindNoteIDs(ctx context.Context, query string, order SortOrder, descending bool) ([]NoteID, error) {
	where, args, err := buildSearch(query)
	if err != nil {
		return nil, err
	}
	col, err := orderColumn(order)
	if err != nil {
		return nil, err
	}

	sqlQuery := "SELECT n.id " + searchJoin + " WHERE " + where + " GROUP BY n.id"
	if col != "" {
		dir := ""
		if descending {
			dir = " DESC"
		}
		sqlQuery += " ORDER BY MIN(" + col + ")" + dir + ", n.id"
	} else {
		sqlQuery += " ORDER BY n.id"
	}

	rows, err := c.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	defer rows.Close()

	var ids []NoteID
	for rows.Next() {
		var id NoteID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CardIDsOfNotes expands note ids to all their card ids, preserving the note
// order. Ids that no longer exist are skipped.
func (c *Collection) CardIDsOfNotes(ctx context.Context, ids []NoteID) ([]CardID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	byNote := make(map[NoteID][]CardID, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}

	sqlQuery := "SELECT id, note_id FROM cards WHERE note_id IN (" + placeholders(len(ids)) + ") ORDER BY id"
	rows, err := c.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("cards of notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid CardID
		var nid NoteID
		if err := rows.Scan(&cid, &nid); err != nil {
			return nil, err
		}
		byNote[nid] = append(byNote[nid], cid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []CardID
	for _, nid := range ids {
		out = append(out, byNote[nid]...)
	}
	return out, nil
}

// NotesOfCards returns the distinct note ids of the given cards, in order of
// first appearance. Ids that no longer exist are skipped.
func (c *Collection) NotesOfCards(ctx context.Context, ids []CardID) ([]NoteID, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	noteOf := make(map[CardID]NoteID, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}

	sqlQuery := "SELECT id, note_id FROM cards WHERE id IN (" + placeholders(len(ids)) + ")"
	rows, err := c.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("notes of cards: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid CardID
		var nid NoteID
		if err := rows.Scan(&cid, &nid); err != nil {
			return nil, err
		}
		noteOf[cid] = nid
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	seen := make(map[NoteID]bool, len(ids))
	var out []NoteID
	for _, cid := range ids {
		nid, ok := noteOf[cid]
		if !ok || seen[nid] {
			continue
		}
		seen[nid] = true
		out = append(out, nid)
	}
	return out, nil
}

// placeholders returns "?, ?, ..." with n entries.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
