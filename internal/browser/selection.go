package browser

import (
	"fmt"

	"github.com/hpungsan/sift/internal/errors"
)

// SelectionManager owns the mutable selection set and the multi-select mode
// flag. Selection mutation is pure in-memory state manipulation and cannot
// fail; resolving the selection to concrete card ids is the bulk-operation
// facade's concern.
//
// Methods are called with the engine lock held and return what the engine
// publishes afterwards: a post-mutation snapshot (nil when the call was a
// no-op) and a mode transition (nil when the mode tag did not change).
type SelectionManager struct {
	rows         *RowCollection
	set          map[RowID]struct{}
	lastSelected *RowID
	state        MultiSelectState
}

func newSelectionManager(rows *RowCollection) *SelectionManager {
	return &SelectionManager{
		rows: rows,
		set:  make(map[RowID]struct{}),
	}
}

// toggle adds or removes one row. It always records the row as the last
// selected one, for subsequent range selection.
func (s *SelectionManager) toggle(id RowID) (snapshot []RowID, trans *MultiSelectState) {
	last := id
	s.lastSelected = &last

	if _, ok := s.set[id]; ok {
		delete(s.set, id)
		if len(s.set) == 0 && s.state.Active {
			s.state = MultiSelectState{Active: false, Cause: RowDeselected{Row: id}}
			trans = &s.state
		}
	} else {
		s.set[id] = struct{}{}
		if !s.state.Active {
			s.state = MultiSelectState{Active: true, Cause: RowSelected{Row: id}}
			trans = &s.state
		}
	}

	return s.snapshot(), trans
}

// selectAll puts every current row in the selection. No-op when the
// selection already covers all rows.
func (s *SelectionManager) selectAll() (snapshot []RowID, trans *MultiSelectState) {
	if len(s.set) == s.rows.len() {
		return nil, nil
	}

	for _, id := range s.rows.snapshot() {
		s.set[id] = struct{}{}
	}
	if !s.state.Active && len(s.set) > 0 {
		s.state = MultiSelectState{Active: true, Cause: AllSelected{}}
		trans = &s.state
	}
	return s.snapshot(), trans
}

// selectNone clears the selection. No-op when already empty.
func (s *SelectionManager) selectNone() (snapshot []RowID, trans *MultiSelectState) {
	if len(s.set) == 0 {
		return nil, nil
	}
	return s.endMultiSelect(EndDeselectedAll)
}

// selectRange adds every row in the inclusive index span between the two
// ids. Both must be present in the current row collection.
func (s *SelectionManager) selectRange(startID, endID RowID) (snapshot []RowID, trans *MultiSelectState, err error) {
	start, ok := s.rows.indexOf(startID)
	if !ok {
		return nil, nil, errors.NewNotFound("row", fmt.Sprint(startID))
	}
	end, ok := s.rows.indexOf(endID)
	if !ok {
		return nil, nil, errors.NewNotFound("row", fmt.Sprint(endID))
	}
	if start > end {
		start, end = end, start
	}

	for i := start; i <= end; i++ {
		s.set[s.rows.at(i)] = struct{}{}
	}
	if !s.state.Active {
		s.state = MultiSelectState{Active: true, Cause: RowSelected{Row: endID}}
		trans = &s.state
	}
	return s.snapshot(), trans, nil
}

// selectUnvalidated adds the subset of ids present in the current row
// collection. Stale ids from a previous session are silently dropped. Used
// for restoration after process recreation and after a completed search.
func (s *SelectionManager) selectUnvalidated(ids []RowID) (snapshot []RowID, trans *MultiSelectState) {
	var applied []RowID
	for _, id := range ids {
		if !s.rows.contains(id) {
			continue
		}
		if _, already := s.set[id]; already {
			continue
		}
		s.set[id] = struct{}{}
		applied = append(applied, id)
	}
	if len(applied) == 0 {
		return nil, nil
	}

	if !s.state.Active {
		s.state = MultiSelectState{Active: true, Cause: SelectionRestored{Rows: applied}}
		trans = &s.state
	}
	return s.snapshot(), trans
}

// endMultiSelect clears the set and forces single-select mode, recording the
// previously selected ids on the cause for observers.
func (s *SelectionManager) endMultiSelect(trigger EndTrigger) (snapshot []RowID, trans *MultiSelectState) {
	previous := s.snapshot()
	s.set = make(map[RowID]struct{})
	s.state = MultiSelectState{Active: false, Cause: MultiSelectEnded{Trigger: trigger, Previous: previous}}
	trans = &s.state
	return s.snapshot(), trans
}

// snapshot returns the selection in row order, with any members not in the
// current row collection (possible mid-restore) appended at the end.
func (s *SelectionManager) snapshot() []RowID {
	out := make([]RowID, 0, len(s.set))
	for _, id := range s.rows.snapshot() {
		if _, ok := s.set[id]; ok {
			out = append(out, id)
		}
	}
	if len(out) < len(s.set) {
		for id := range s.set {
			if !s.rows.contains(id) {
				out = append(out, id)
			}
		}
	}
	return out
}

func (s *SelectionManager) has(id RowID) bool {
	_, ok := s.set[id]
	return ok
}

func (s *SelectionManager) count() int {
	return len(s.set)
}

func (s *SelectionManager) hasSelection() bool {
	return len(s.set) > 0
}
