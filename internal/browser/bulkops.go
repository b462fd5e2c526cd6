package browser

import (
	"context"

	"github.com/hpungsan/sift/internal/collection"
	"github.com/hpungsan/sift/internal/errors"
)

// BulkOutcome reports the result of one bulk operation on the selection.
type BulkOutcome struct {
	Action  string             `json:"action"`
	Count   int                `json:"count"`
	OpID    string             `json:"op_id,omitempty"`
	Changes collection.Changes `json:"changes"`
}

func outcomeOf(action string, op *collection.OpResult) *BulkOutcome {
	return &BulkOutcome{Action: action, Count: op.Count, OpID: op.OpID, Changes: op.Changes}
}

// requireSelection snapshots the selection for a bulk operation, or reports
// the nothing-selected outcome.
func (e *Engine) requireSelection() ([]RowID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.sel.hasSelection() {
		return nil, errors.NewNothingSelected()
	}
	return e.sel.snapshot(), nil
}

// rowsToCardIDs resolves rows to concrete card ids. Note-mode rows take a
// backend round-trip; ids deleted since selection are silently skipped.
func (e *Engine) rowsToCardIDs(ctx context.Context, rows []RowID) ([]collection.CardID, error) {
	var cardIDs []collection.CardID
	var noteIDs []collection.NoteID
	for _, row := range rows {
		switch row.Mode {
		case ModeCards:
			cardIDs = append(cardIDs, collection.CardID(row.ID))
		case ModeNotes:
			noteIDs = append(noteIDs, collection.NoteID(row.ID))
		}
	}
	if len(noteIDs) > 0 {
		expanded, err := e.backend.CardIDsOfNotes(ctx, noteIDs)
		if err != nil {
			return nil, err
		}
		cardIDs = append(cardIDs, expanded...)
	}
	return cardIDs, nil
}

// rowsToNoteIDs resolves rows to concrete note ids, deduplicated.
func (e *Engine) rowsToNoteIDs(ctx context.Context, rows []RowID) ([]collection.NoteID, error) {
	var cardIDs []collection.CardID
	var noteIDs []collection.NoteID
	for _, row := range rows {
		switch row.Mode {
		case ModeCards:
			cardIDs = append(cardIDs, collection.CardID(row.ID))
		case ModeNotes:
			noteIDs = append(noteIDs, collection.NoteID(row.ID))
		}
	}
	if len(cardIDs) > 0 {
		resolved, err := e.backend.NotesOfCards(ctx, cardIDs)
		if err != nil {
			return nil, err
		}
		noteIDs = append(noteIDs, resolved...)
	}
	return noteIDs, nil
}

// SelectedCardIDs resolves the current selection to concrete card ids.
func (e *Engine) SelectedCardIDs(ctx context.Context) ([]collection.CardID, error) {
	e.mu.Lock()
	rows := e.sel.snapshot()
	e.mu.Unlock()
	return e.rowsToCardIDs(ctx, rows)
}

// ToggleMark marks every selected note, unless all of them already carry the
// mark, in which case it is removed from all. Any unmarked note present
// forces "mark all"; the toggle is never per-item.
func (e *Engine) ToggleMark(ctx context.Context) (*BulkOutcome, error) {
	rows, err := e.requireSelection()
	if err != nil {
		return nil, err
	}
	noteIDs, err := e.rowsToNoteIDs(ctx, rows)
	if err != nil {
		return nil, err
	}

	allMarked, err := e.backend.AllNotesHaveTag(ctx, noteIDs, collection.MarkedTag)
	if err != nil {
		return nil, err
	}

	// State-bit only: rows are patched on next render, no requery needed.
	if allMarked {
		op, err := e.backend.BulkRemoveTag(ctx, noteIDs, collection.MarkedTag)
		if err != nil {
			return nil, err
		}
		return outcomeOf("unmarked", op), nil
	}
	op, err := e.backend.BulkAddTag(ctx, noteIDs, collection.MarkedTag)
	if err != nil {
		return nil, err
	}
	return outcomeOf("marked", op), nil
}

// ToggleSuspend suspends every selected card, unless all of them are already
// suspended, in which case all are unsuspended.
func (e *Engine) ToggleSuspend(ctx context.Context) (*BulkOutcome, error) {
	rows, err := e.requireSelection()
	if err != nil {
		return nil, err
	}
	cardIDs, err := e.rowsToCardIDs(ctx, rows)
	if err != nil {
		return nil, err
	}

	allSuspended, err := e.backend.AllCardsInQueues(ctx, cardIDs, collection.QueueSuspended)
	if err != nil {
		return nil, err
	}

	var op *collection.OpResult
	action := "suspended"
	if allSuspended {
		action = "unsuspended"
		op, err = e.backend.UnsuspendCards(ctx, cardIDs)
	} else {
		op, err = e.backend.SuspendCards(ctx, cardIDs)
	}
	if err != nil {
		return nil, err
	}

	e.RefreshSearch()
	return outcomeOf(action, op), nil
}

// ToggleBury buries every selected card, unless all of them are already
// buried (by any burial reason), in which case all are unburied.
func (e *Engine) ToggleBury(ctx context.Context) (*BulkOutcome, error) {
	rows, err := e.requireSelection()
	if err != nil {
		return nil, err
	}
	cardIDs, err := e.rowsToCardIDs(ctx, rows)
	if err != nil {
		return nil, err
	}

	allBuried, err := e.backend.AllCardsInQueues(ctx, cardIDs,
		collection.QueueUserBuried, collection.QueueSchedBuried)
	if err != nil {
		return nil, err
	}

	var op *collection.OpResult
	action := "buried"
	if allBuried {
		action = "unburied"
		op, err = e.backend.UnburyCards(ctx, cardIDs)
	} else {
		op, err = e.backend.BuryCards(ctx, cardIDs)
	}
	if err != nil {
		return nil, err
	}

	e.RefreshSearch()
	return outcomeOf(action, op), nil
}

// SetFlag sets the user flag (0 clears) on every selected card.
func (e *Engine) SetFlag(ctx context.Context, flag int) (*BulkOutcome, error) {
	rows, err := e.requireSelection()
	if err != nil {
		return nil, err
	}
	cardIDs, err := e.rowsToCardIDs(ctx, rows)
	if err != nil {
		return nil, err
	}

	op, err := e.backend.SetUserFlag(ctx, cardIDs, flag)
	if err != nil {
		return nil, err
	}
	return outcomeOf("flagged", op), nil
}

// AddTag adds a tag to every selected note.
func (e *Engine) AddTag(ctx context.Context, tag string) (*BulkOutcome, error) {
	rows, err := e.requireSelection()
	if err != nil {
		return nil, err
	}
	noteIDs, err := e.rowsToNoteIDs(ctx, rows)
	if err != nil {
		return nil, err
	}

	op, err := e.backend.BulkAddTag(ctx, noteIDs, tag)
	if err != nil {
		return nil, err
	}

	e.RefreshSearch()
	return outcomeOf("tagged", op), nil
}

// RemoveTag removes a tag from every selected note.
func (e *Engine) RemoveTag(ctx context.Context, tag string) (*BulkOutcome, error) {
	rows, err := e.requireSelection()
	if err != nil {
		return nil, err
	}
	noteIDs, err := e.rowsToNoteIDs(ctx, rows)
	if err != nil {
		return nil, err
	}

	op, err := e.backend.BulkRemoveTag(ctx, noteIDs, tag)
	if err != nil {
		return nil, err
	}

	e.RefreshSearch()
	return outcomeOf("untagged", op), nil
}

// PrepareToReposition validates the reposition precondition: every selected
// card must be in the new queue. Returns CONTAINS_NON_NEW_CARDS without
// touching the backend otherwise.
func (e *Engine) PrepareToReposition(ctx context.Context) error {
	rows, err := e.requireSelection()
	if err != nil {
		return err
	}
	cardIDs, err := e.rowsToCardIDs(ctx, rows)
	if err != nil {
		return err
	}

	nonNew, err := e.backend.CountCardsOutsideQueues(ctx, cardIDs, collection.QueueNew)
	if err != nil {
		return err
	}
	if nonNew > 0 {
		return errors.NewContainsNonNewCards(nonNew)
	}
	return nil
}

// Reposition re-sorts the selected new cards starting at start with the
// given step.
func (e *Engine) Reposition(ctx context.Context, start, step int, shuffle, shift bool) (*BulkOutcome, error) {
	if err := e.PrepareToReposition(ctx); err != nil {
		return nil, err
	}

	rows, err := e.requireSelection()
	if err != nil {
		return nil, err
	}
	cardIDs, err := e.rowsToCardIDs(ctx, rows)
	if err != nil {
		return nil, err
	}

	op, err := e.backend.SortCards(ctx, cardIDs, start, step, shuffle, shift)
	if err != nil {
		return nil, err
	}

	e.RefreshSearch()
	return outcomeOf("repositioned", op), nil
}

// MoveToDeck moves every selected card to the given deck.
func (e *Engine) MoveToDeck(ctx context.Context, deck collection.DeckID) (*BulkOutcome, error) {
	rows, err := e.requireSelection()
	if err != nil {
		return nil, err
	}
	cardIDs, err := e.rowsToCardIDs(ctx, rows)
	if err != nil {
		return nil, err
	}

	op, err := e.backend.SetDeck(ctx, cardIDs, deck)
	if err != nil {
		return nil, err
	}

	e.RefreshSearch()
	return outcomeOf("moved", op), nil
}

// DeleteSelectedNotes deletes the selected notes and all their cards, then
// clears the selection and re-runs the search.
func (e *Engine) DeleteSelectedNotes(ctx context.Context) (*BulkOutcome, error) {
	rows, err := e.requireSelection()
	if err != nil {
		return nil, err
	}
	noteIDs, err := e.rowsToNoteIDs(ctx, rows)
	if err != nil {
		return nil, err
	}

	op, err := e.backend.RemoveNotes(ctx, noteIDs)
	if err != nil {
		return nil, err
	}

	e.EndMultiSelect(EndDestructiveOp)
	e.RefreshSearch()
	return outcomeOf("deleted", op), nil
}

// FindReplaceSelected replaces text across the fields of the selected notes.
func (e *Engine) FindReplaceSelected(ctx context.Context, search, replacement string) (*BulkOutcome, error) {
	rows, err := e.requireSelection()
	if err != nil {
		return nil, err
	}
	noteIDs, err := e.rowsToNoteIDs(ctx, rows)
	if err != nil {
		return nil, err
	}

	op, err := e.backend.FindReplace(ctx, noteIDs, search, replacement)
	if err != nil {
		return nil, err
	}

	e.RefreshSearch()
	return outcomeOf("replaced", op), nil
}

// ExportSelected writes the selected notes as TSV. Returns the path written
// and the number of notes exported.
func (e *Engine) ExportSelected(ctx context.Context, path string) (string, int, error) {
	rows, err := e.requireSelection()
	if err != nil {
		return "", 0, err
	}
	noteIDs, err := e.rowsToNoteIDs(ctx, rows)
	if err != nil {
		return "", 0, err
	}
	return e.backend.ExportNotes(ctx, noteIDs, path)
}
