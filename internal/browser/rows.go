package browser

import (
	"fmt"

	"github.com/hpungsan/sift/internal/errors"
)

// RowCollection is the ordered result set of the current search. All rows
// share the collection's mode. It is replaced wholesale when a search
// completes and reversed in place on a sort-direction toggle; rows are never
// inserted or removed individually.
//
// Not safe for concurrent use; the engine serializes access.
type RowCollection struct {
	mode  Mode
	ids   []RowID
	index map[RowID]int
}

func newRowCollection() *RowCollection {
	return &RowCollection{index: make(map[RowID]int)}
}

// replaceWith atomically swaps mode and contents. The incoming ids must be
// homogeneous in the declared mode.
func (r *RowCollection) replaceWith(mode Mode, ids []RowID) error {
	for _, id := range ids {
		if id.Mode != mode {
			return errors.NewInternal(fmt.Errorf("row %v does not match collection mode %v", id, mode))
		}
	}

	r.mode = mode
	r.ids = ids
	r.index = make(map[RowID]int, len(ids))
	for i, id := range ids {
		r.index[id] = i
	}
	return nil
}

// reverse flips the row order in place. Used by the sort-direction toggle to
// avoid a requery.
func (r *RowCollection) reverse() {
	for i, j := 0, len(r.ids)-1; i < j; i, j = i+1, j-1 {
		r.ids[i], r.ids[j] = r.ids[j], r.ids[i]
	}
	for i, id := range r.ids {
		r.index[id] = i
	}
}

func (r *RowCollection) len() int {
	return len(r.ids)
}

func (r *RowCollection) contains(id RowID) bool {
	_, ok := r.index[id]
	return ok
}

func (r *RowCollection) indexOf(id RowID) (int, bool) {
	i, ok := r.index[id]
	return i, ok
}

func (r *RowCollection) at(i int) RowID {
	return r.ids[i]
}

// snapshot returns a copy safe to hand to observers.
func (r *RowCollection) snapshot() []RowID {
	out := make([]RowID, len(r.ids))
	copy(out, r.ids)
	return out
}
