package browser

import (
	"context"
	"testing"

	"github.com/hpungsan/sift/internal/collection"
)

func TestChangeSort(t *testing.T) {
	m := newSortManager()

	// Picking a type re-queries, ascending.
	if got := m.changeSort(collection.SortDeck); got != SortRequery {
		t.Errorf("new type outcome = %v, want requery", got)
	}
	if m.spec.Type != collection.SortDeck || m.spec.Descending {
		t.Errorf("spec = %+v, want ascending deck", m.spec)
	}

	// Re-selecting the active type flips direction without a requery.
	if got := m.changeSort(collection.SortDeck); got != SortReversed {
		t.Errorf("same type outcome = %v, want reversed", got)
	}
	if !m.spec.Descending {
		t.Error("direction should have flipped to descending")
	}
	if got := m.changeSort(collection.SortDeck); got != SortReversed {
		t.Errorf("flip back outcome = %v, want reversed", got)
	}
	if m.spec.Descending {
		t.Error("direction should have flipped back to ascending")
	}

	// Switching type resets direction to ascending.
	m.changeSort(collection.SortDeck) // descending again
	if got := m.changeSort(collection.SortCreated); got != SortRequery {
		t.Errorf("type switch outcome = %v, want requery", got)
	}
	if m.spec.Descending {
		t.Error("type switch should reset to ascending")
	}

	// The no-sort sentinel never toggles a direction.
	m.changeSort(collection.SortNone)
	if got := m.changeSort(collection.SortNone); got != SortUnchanged {
		t.Errorf("none twice outcome = %v, want unchanged", got)
	}
}

func TestSortPersistence(t *testing.T) {
	col := newTestBackend(t)
	ctx := context.Background()

	m := newSortManager()
	m.spec = SortSpec{Type: collection.SortPosition, Descending: true}
	m.persist(ctx, col, m.spec)

	loaded := newSortManager()
	loaded.load(ctx, col)
	if loaded.spec != m.spec {
		t.Errorf("loaded = %+v, want %+v", loaded.spec, m.spec)
	}
}

func TestSortLoad_MissingKeyKeepsDefault(t *testing.T) {
	col := newTestBackend(t)

	m := newSortManager()
	m.load(context.Background(), col)
	if m.spec.Type != collection.SortNone || m.spec.Descending {
		t.Errorf("spec = %+v, want the no-sort default", m.spec)
	}
}
