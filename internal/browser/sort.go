package browser

import (
	"context"

	"github.com/hpungsan/sift/internal/collection"
)

// sortConfigKey is the collection-config key the sort spec persists under.
const sortConfigKey = "browser.sortSpec"

// SortSpec is the active sort order of the result set.
type SortSpec struct {
	Type       collection.SortOrder `json:"type"`
	Descending bool                 `json:"descending"`
}

// SortOutcome tells the engine what a sort change requires.
type SortOutcome int

const (
	// SortUnchanged: nothing to do.
	SortUnchanged SortOutcome = iota
	// SortRequery: the sort column changed; the backend must be re-queried.
	SortRequery
	// SortReversed: only the direction flipped; the existing row order is
	// reversed locally without hitting the backend.
	SortReversed
)

// SortManager owns sort-type and direction state and persists it to the
// collection's configuration.
type SortManager struct {
	spec SortSpec
}

func newSortManager() *SortManager {
	return &SortManager{spec: SortSpec{Type: collection.SortNone}}
}

// changeSort applies a sort-type selection. Picking a new type resets the
// direction to ascending and requires a requery; re-selecting the current
// type (other than the no-sort sentinel) just toggles the direction.
func (m *SortManager) changeSort(newType collection.SortOrder) SortOutcome {
	if newType != m.spec.Type {
		m.spec = SortSpec{Type: newType, Descending: false}
		return SortRequery
	}
	if newType == collection.SortNone {
		return SortUnchanged
	}
	m.spec.Descending = !m.spec.Descending
	return SortReversed
}

// load reads the persisted spec; a missing key keeps the default.
func (m *SortManager) load(ctx context.Context, b Backend) {
	var spec SortSpec
	if err := b.GetConfig(ctx, sortConfigKey, &spec); err == nil && spec.Type != "" {
		m.spec = spec
	}
}

// persist writes the sort spec to collection config. Called fire-and-forget by
// the engine so the UI-visible reversal is never blocked on it.
func (m *SortManager) persist(ctx context.Context, b Backend, spec SortSpec) {
	_ = b.SetConfig(ctx, sortConfigKey, spec)
}
