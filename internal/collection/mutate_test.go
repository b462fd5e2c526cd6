package collection

import (
	"context"
	"testing"

	"github.com/hpungsan/sift/internal/errors"
)

func mustCard(t *testing.T, col *Collection, id CardID) *Card {
	t.Helper()
	card, err := col.GetCard(context.Background(), id)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	return card
}

func mustNote(t *testing.T, col *Collection, id NoteID) *Note {
	t.Helper()
	note, err := col.GetNote(context.Background(), id)
	if err != nil {
		t.Fatalf("GetNote failed: %v", err)
	}
	return note
}

func TestSuspendRestoresOriginalQueue(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	_, cardID := addNote(t, col, "Spanish", "hola", "hello")

	res, err := col.SuspendCards(ctx, []CardID{cardID})
	if err != nil {
		t.Fatalf("SuspendCards failed: %v", err)
	}
	if res.Count != 1 {
		t.Errorf("Count = %d, want 1", res.Count)
	}
	if q := mustCard(t, col, cardID).Queue; q != QueueSuspended {
		t.Errorf("queue = %d, want suspended", q)
	}

	// Suspending again is a no-op.
	res, err = col.SuspendCards(ctx, []CardID{cardID})
	if err != nil {
		t.Fatalf("SuspendCards failed: %v", err)
	}
	if res.Count != 0 {
		t.Errorf("re-suspend Count = %d, want 0", res.Count)
	}

	if _, err := col.UnsuspendCards(ctx, []CardID{cardID}); err != nil {
		t.Fatalf("UnsuspendCards failed: %v", err)
	}
	if q := mustCard(t, col, cardID).Queue; q != QueueNew {
		t.Errorf("queue after unsuspend = %d, want new", q)
	}
}

func TestBuryAndUnbury(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	_, cardID := addNote(t, col, "Spanish", "hola", "hello")

	if _, err := col.BuryCards(ctx, []CardID{cardID}); err != nil {
		t.Fatalf("BuryCards failed: %v", err)
	}
	card := mustCard(t, col, cardID)
	if !card.Queue.Buried() {
		t.Errorf("queue = %d, want buried", card.Queue)
	}

	// Burying a suspended card leaves it suspended.
	_, otherCard := addNote(t, col, "Spanish", "adios", "bye")
	if _, err := col.SuspendCards(ctx, []CardID{otherCard}); err != nil {
		t.Fatalf("SuspendCards failed: %v", err)
	}
	res, err := col.BuryCards(ctx, []CardID{otherCard})
	if err != nil {
		t.Fatalf("BuryCards failed: %v", err)
	}
	if res.Count != 0 {
		t.Errorf("burying suspended card touched %d cards, want 0", res.Count)
	}

	if _, err := col.UnburyCards(ctx, []CardID{cardID}); err != nil {
		t.Fatalf("UnburyCards failed: %v", err)
	}
	if q := mustCard(t, col, cardID).Queue; q != QueueNew {
		t.Errorf("queue after unbury = %d, want new", q)
	}
}

func TestBulkTags(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	n1, _ := addNote(t, col, "Spanish", "hola", "hello", "greeting")
	n2, _ := addNote(t, col, "Spanish", "adios", "bye")

	res, err := col.BulkAddTag(ctx, []NoteID{n1, n2}, "common")
	if err != nil {
		t.Fatalf("BulkAddTag failed: %v", err)
	}
	if res.Count != 2 {
		t.Errorf("Count = %d, want 2", res.Count)
	}
	if tags := mustNote(t, col, n1).Tags; len(tags) != 2 {
		t.Errorf("n1 tags = %v, want [greeting common]", tags)
	}

	// Adding again changes nothing; the instr guard matches case-insensitively.
	res, err = col.BulkAddTag(ctx, []NoteID{n1, n2}, "COMMON")
	if err != nil {
		t.Fatalf("BulkAddTag failed: %v", err)
	}
	if res.Count != 0 {
		t.Errorf("duplicate add Count = %d, want 0", res.Count)
	}

	res, err = col.BulkRemoveTag(ctx, []NoteID{n1, n2}, "Common")
	if err != nil {
		t.Fatalf("BulkRemoveTag failed: %v", err)
	}
	if res.Count != 2 {
		t.Errorf("remove Count = %d, want 2", res.Count)
	}
	if tags := mustNote(t, col, n2).Tags; len(tags) != 0 {
		t.Errorf("n2 tags = %v, want none", tags)
	}
	if tags := mustNote(t, col, n1).Tags; len(tags) != 1 || tags[0] != "greeting" {
		t.Errorf("n1 tags = %v, want [greeting]", tags)
	}

	if _, err := col.BulkAddTag(ctx, []NoteID{n1}, "bad tag"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("tag with space should be INVALID_REQUEST, got %v", err)
	}
}

func TestAllNotesHaveTag(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	n1, _ := addNote(t, col, "Spanish", "hola", "hello", MarkedTag)
	n2, _ := addNote(t, col, "Spanish", "adios", "bye")

	all, err := col.AllNotesHaveTag(ctx, []NoteID{n1}, MarkedTag)
	if err != nil {
		t.Fatalf("AllNotesHaveTag failed: %v", err)
	}
	if !all {
		t.Error("n1 carries the tag, want true")
	}

	all, err = col.AllNotesHaveTag(ctx, []NoteID{n1, n2}, MarkedTag)
	if err != nil {
		t.Fatalf("AllNotesHaveTag failed: %v", err)
	}
	if all {
		t.Error("n2 lacks the tag, want false")
	}
}

func TestSetDeck(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	_, cardID := addNote(t, col, "Spanish", "hola", "hello")

	deckID, err := col.AddDeck(ctx, "Archive")
	if err != nil {
		t.Fatalf("AddDeck failed: %v", err)
	}
	if _, err := col.SetDeck(ctx, []CardID{cardID}, deckID); err != nil {
		t.Fatalf("SetDeck failed: %v", err)
	}
	if got := mustCard(t, col, cardID).DeckID; got != deckID {
		t.Errorf("DeckID = %d, want %d", got, deckID)
	}

	if _, err := col.SetDeck(ctx, []CardID{cardID}, 99999); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing deck should be NOT_FOUND, got %v", err)
	}
}

func TestSetUserFlag(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	_, cardID := addNote(t, col, "Spanish", "hola", "hello")

	if _, err := col.SetUserFlag(ctx, []CardID{cardID}, 8); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("flag 8 should be INVALID_REQUEST, got %v", err)
	}

	if _, err := col.SetUserFlag(ctx, []CardID{cardID}, 5); err != nil {
		t.Fatalf("SetUserFlag failed: %v", err)
	}
	if got := mustCard(t, col, cardID).Flag; got != 5 {
		t.Errorf("Flag = %d, want 5", got)
	}

	// Clearing back to 0.
	if _, err := col.SetUserFlag(ctx, []CardID{cardID}, 0); err != nil {
		t.Fatalf("SetUserFlag failed: %v", err)
	}
	if got := mustCard(t, col, cardID).Flag; got != 0 {
		t.Errorf("Flag = %d, want 0", got)
	}
}

func TestRemoveNotesCascades(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	noteID, cardID := addNote(t, col, "Spanish", "hola", "hello")
	keepNote, keepCard := addNote(t, col, "Spanish", "adios", "bye")

	res, err := col.RemoveNotes(ctx, []NoteID{noteID})
	if err != nil {
		t.Fatalf("RemoveNotes failed: %v", err)
	}
	if res.Count != 1 {
		t.Errorf("Count = %d, want 1", res.Count)
	}

	if _, err := col.GetNote(ctx, noteID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("deleted note should be NOT_FOUND, got %v", err)
	}
	if _, err := col.GetCard(ctx, cardID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("cascaded card should be NOT_FOUND, got %v", err)
	}
	if _, err := col.GetNote(ctx, keepNote); err != nil {
		t.Errorf("unrelated note should survive: %v", err)
	}
	if _, err := col.GetCard(ctx, keepCard); err != nil {
		t.Errorf("unrelated card should survive: %v", err)
	}
}

func TestSortCards(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	_, c1 := addNote(t, col, "Spanish", "uno", "one")
	_, c2 := addNote(t, col, "Spanish", "dos", "two")
	_, c3 := addNote(t, col, "Spanish", "tres", "three")

	if _, err := col.SortCards(ctx, []CardID{c3, c1}, 10, 2, false, false); err != nil {
		t.Fatalf("SortCards failed: %v", err)
	}
	if got := mustCard(t, col, c3).Position; got != 10 {
		t.Errorf("c3 position = %d, want 10", got)
	}
	if got := mustCard(t, col, c1).Position; got != 12 {
		t.Errorf("c1 position = %d, want 12", got)
	}

	// Shift pushes cards already at or after the start position out of the way.
	if _, err := col.SortCards(ctx, []CardID{c2}, 10, 1, false, true); err != nil {
		t.Fatalf("SortCards with shift failed: %v", err)
	}
	if got := mustCard(t, col, c2).Position; got != 10 {
		t.Errorf("c2 position = %d, want 10", got)
	}
	if got := mustCard(t, col, c3).Position; got != 11 {
		t.Errorf("c3 position after shift = %d, want 11", got)
	}
	if got := mustCard(t, col, c1).Position; got != 13 {
		t.Errorf("c1 position after shift = %d, want 13", got)
	}

	if _, err := col.SortCards(ctx, []CardID{c1}, 0, 0, false, false); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("step 0 should be INVALID_REQUEST, got %v", err)
	}
	if _, err := col.SortCards(ctx, []CardID{c1}, -1, 1, false, false); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("negative start should be INVALID_REQUEST, got %v", err)
	}
}

func TestCountCardsOutsideQueues(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	_, c1 := addNote(t, col, "Spanish", "uno", "one")
	_, c2 := addNote(t, col, "Spanish", "dos", "two")

	n, err := col.CountCardsOutsideQueues(ctx, []CardID{c1, c2}, QueueNew)
	if err != nil {
		t.Fatalf("CountCardsOutsideQueues failed: %v", err)
	}
	if n != 0 {
		t.Errorf("all new, count = %d, want 0", n)
	}

	if _, err := col.SuspendCards(ctx, []CardID{c2}); err != nil {
		t.Fatalf("SuspendCards failed: %v", err)
	}
	n, err = col.CountCardsOutsideQueues(ctx, []CardID{c1, c2}, QueueNew)
	if err != nil {
		t.Fatalf("CountCardsOutsideQueues failed: %v", err)
	}
	if n != 1 {
		t.Errorf("one suspended, count = %d, want 1", n)
	}
}

func TestFindReplace(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	n1, _ := addNote(t, col, "Spanish", "the colour red", "colour")
	n2, _ := addNote(t, col, "Spanish", "unrelated", "text")

	res, err := col.FindReplace(ctx, []NoteID{n1, n2}, "colour", "color")
	if err != nil {
		t.Fatalf("FindReplace failed: %v", err)
	}
	if res.Count != 1 {
		t.Errorf("Count = %d, want 1 changed note", res.Count)
	}
	note := mustNote(t, col, n1)
	if note.Front != "the color red" || note.Back != "color" {
		t.Errorf("note = %q/%q", note.Front, note.Back)
	}

	if _, err := col.FindReplace(ctx, []NoteID{n1}, "", "x"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("empty search should be INVALID_REQUEST, got %v", err)
	}
}

func TestOpsLogRecordsMutations(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()
	n1, c1 := addNote(t, col, "Spanish", "hola", "hello")

	before, err := col.OpCount(ctx)
	if err != nil {
		t.Fatalf("OpCount failed: %v", err)
	}

	if _, err := col.SuspendCards(ctx, []CardID{c1}); err != nil {
		t.Fatalf("SuspendCards failed: %v", err)
	}
	if _, err := col.BulkAddTag(ctx, []NoteID{n1}, "later"); err != nil {
		t.Fatalf("BulkAddTag failed: %v", err)
	}

	after, err := col.OpCount(ctx)
	if err != nil {
		t.Fatalf("OpCount failed: %v", err)
	}
	if after != before+2 {
		t.Errorf("op count went %d -> %d, want one row per mutation", before, after)
	}

	last, err := col.LastOp(ctx)
	if err != nil {
		t.Fatalf("LastOp failed: %v", err)
	}
	if last.Label != "add tag" {
		t.Errorf("last op label = %q, want %q", last.Label, "add tag")
	}
	if !last.Changes.Note {
		t.Errorf("last op changes = %+v, want Note set", last.Changes)
	}
}

func TestEmptyIDListsWriteNothing(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()

	before, err := col.OpCount(ctx)
	if err != nil {
		t.Fatalf("OpCount failed: %v", err)
	}

	if res, err := col.SuspendCards(ctx, nil); err != nil || res.Count != 0 {
		t.Errorf("SuspendCards(nil) = %v, %v", res, err)
	}
	if res, err := col.BulkAddTag(ctx, nil, "tag"); err != nil || res.Count != 0 {
		t.Errorf("BulkAddTag(nil) = %v, %v", res, err)
	}
	if res, err := col.RemoveNotes(ctx, nil); err != nil || res.Count != 0 {
		t.Errorf("RemoveNotes(nil) = %v, %v", res, err)
	}

	after, err := col.OpCount(ctx)
	if err != nil {
		t.Fatalf("OpCount failed: %v", err)
	}
	if after != before {
		t.Errorf("empty mutations recorded ops: %d -> %d", before, after)
	}
}
