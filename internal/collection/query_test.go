package collection

import (
	"context"
	"testing"

	"github.com/hpungsan/sift/internal/errors"
)

// seedSearchFixture builds a small collection covering decks, subdecks,
// tags, queues and flags, and returns the card ids keyed by front text.
func seedSearchFixture(t *testing.T) (*Collection, map[string]CardID) {
	t.Helper()
	col := newTestCollection(t)
	ctx := context.Background()

	cards := map[string]CardID{}
	add := func(deck, front, back string, tags ...string) {
		_, cardID := addNote(t, col, deck, front, back, tags...)
		cards[front] = cardID
	}

	add("Spanish", "hola", "hello", "greeting")
	add("Spanish::Verbs", "correr", "to run", "verb")
	add("French", "bonjour", "hello", "greeting")
	add("Default", "untagged", "no tags here")

	if _, err := col.SuspendCards(ctx, []CardID{cards["bonjour"]}); err != nil {
		t.Fatalf("SuspendCards failed: %v", err)
	}
	if _, err := col.SetUserFlag(ctx, []CardID{cards["correr"]}, 3); err != nil {
		t.Fatalf("SetUserFlag failed: %v", err)
	}
	return col, cards
}

func findFronts(t *testing.T, col *Collection, query string) []string {
	t.Helper()
	ids, err := col.FindCardIDs(context.Background(), query, SortField, false)
	if err != nil {
		t.Fatalf("FindCardIDs(%q) failed: %v", query, err)
	}
	fronts := make([]string, 0, len(ids))
	for _, id := range ids {
		card, err := col.GetCard(context.Background(), id)
		if err != nil {
			t.Fatalf("GetCard failed: %v", err)
		}
		note, err := col.GetNote(context.Background(), card.NoteID)
		if err != nil {
			t.Fatalf("GetNote failed: %v", err)
		}
		fronts = append(fronts, note.Front)
	}
	return fronts
}

func TestSearch_Queries(t *testing.T) {
	col, _ := seedSearchFixture(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"bonjour", "correr", "hola", "untagged"}},
		{"hola", []string{"hola"}},
		{"HELLO", []string{"bonjour", "hola"}}, // case-insensitive, matches back
		{"hello -bonjour", []string{"hola"}},
		{`"to run"`, []string{"correr"}},
		{"deck:Spanish", []string{"correr", "hola"}}, // subdeck included
		{"deck:Spanish::Verbs", []string{"correr"}},
		{"deck:spanish", []string{"correr", "hola"}}, // deck names compare case-insensitively
		{"tag:greeting", []string{"bonjour", "hola"}},
		{"tag:none", []string{"untagged"}},
		{"-tag:none", []string{"bonjour", "correr", "hola"}},
		{"is:suspended", []string{"bonjour"}},
		{"is:new", []string{"correr", "hola", "untagged"}},
		{"flag:3", []string{"correr"}},
		{"flag:0", []string{"bonjour", "hola", "untagged"}},
		{"front:hola", []string{"hola"}},
		{"back:hello", []string{"bonjour", "hola"}},
		{"deck:Spanish tag:verb", []string{"correr"}}, // terms AND together
		{"nomatchanywhere", nil},
	}
	for _, tt := range tests {
		got := findFronts(t, col, tt.query)
		if len(got) != len(tt.want) {
			t.Errorf("query %q: got %v, want %v", tt.query, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("query %q: got %v, want %v", tt.query, got, tt.want)
				break
			}
		}
	}
}

func TestSearch_QuotedDeckName(t *testing.T) {
	col := newTestCollection(t)
	addNote(t, col, "My Deck", "front text", "back")

	fronts := findFronts(t, col, `deck:"My Deck"`)
	if len(fronts) != 1 || fronts[0] != "front text" {
		t.Errorf("got %v, want [front text]", fronts)
	}
}

func TestSearch_EscapedQuoteInDeckName(t *testing.T) {
	col := newTestCollection(t)
	addNote(t, col, `the "best" deck`, "front text", "back")

	fronts := findFronts(t, col, `deck:"the \"best\" deck"`)
	if len(fronts) != 1 {
		t.Errorf("got %v, want one row", fronts)
	}
}

func TestSearch_InvalidSyntax(t *testing.T) {
	col := newTestCollection(t)

	for _, query := range []string{
		`"unterminated`,
		"unknownkey:value",
		"is:nonsense",
		"flag:9",
		"flag:abc",
	} {
		_, err := col.FindCardIDs(context.Background(), query, SortNone, false)
		if !errors.Is(err, errors.ErrInvalidSearch) {
			t.Errorf("query %q: want INVALID_SEARCH, got %v", query, err)
		}
	}
}

func TestSearch_SortOrders(t *testing.T) {
	col, cards := seedSearchFixture(t)
	ctx := context.Background()

	// Position order follows insertion order in the fixture.
	ids, err := col.FindCardIDs(ctx, "", SortPosition, false)
	if err != nil {
		t.Fatalf("FindCardIDs failed: %v", err)
	}
	if len(ids) != 4 || ids[0] != cards["hola"] || ids[3] != cards["untagged"] {
		t.Errorf("position order = %v", ids)
	}

	desc, err := col.FindCardIDs(ctx, "", SortPosition, true)
	if err != nil {
		t.Fatalf("FindCardIDs failed: %v", err)
	}
	if desc[0] != ids[3] || desc[3] != ids[0] {
		t.Errorf("descending should reverse: %v vs %v", desc, ids)
	}

	_, err = col.FindCardIDs(ctx, "", SortOrder("bogus"), false)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("bogus sort order: want INVALID_REQUEST, got %v", err)
	}
}

func TestFindNoteIDs_Deduplicates(t *testing.T) {
	col := newTestCollection(t)
	noteID, _ := addNote(t, col, "Spanish", "hola", "hello")

	ids, err := col.FindNoteIDs(context.Background(), "hola", SortNone, false)
	if err != nil {
		t.Fatalf("FindNoteIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != noteID {
		t.Errorf("ids = %v, want [%d]", ids, noteID)
	}
}

func TestCardsNotesConversion(t *testing.T) {
	col := newTestCollection(t)
	ctx := context.Background()

	n1, c1 := addNote(t, col, "Spanish", "uno", "one")
	n2, c2 := addNote(t, col, "Spanish", "dos", "two")

	cardIDs, err := col.CardIDsOfNotes(ctx, []NoteID{n2, n1})
	if err != nil {
		t.Fatalf("CardIDsOfNotes failed: %v", err)
	}
	if len(cardIDs) != 2 || cardIDs[0] != c2 || cardIDs[1] != c1 {
		t.Errorf("cardIDs = %v, want note order preserved [%d %d]", cardIDs, c2, c1)
	}

	// Stale ids are skipped, not an error.
	cardIDs, err = col.CardIDsOfNotes(ctx, []NoteID{n1, 99999})
	if err != nil {
		t.Fatalf("CardIDsOfNotes with stale id failed: %v", err)
	}
	if len(cardIDs) != 1 || cardIDs[0] != c1 {
		t.Errorf("cardIDs = %v, want [%d]", cardIDs, c1)
	}

	noteIDs, err := col.NotesOfCards(ctx, []CardID{c1, c2, c1})
	if err != nil {
		t.Fatalf("NotesOfCards failed: %v", err)
	}
	if len(noteIDs) != 2 || noteIDs[0] != n1 || noteIDs[1] != n2 {
		t.Errorf("noteIDs = %v, want distinct [%d %d]", noteIDs, n1, n2)
	}
}
