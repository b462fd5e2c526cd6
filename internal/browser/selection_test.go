package browser

import (
	"testing"

	"github.com/hpungsan/sift/internal/errors"
)

func newTestSelection(t *testing.T, ids ...int64) (*RowCollection, *SelectionManager) {
	t.Helper()
	rc := newRowCollection()
	if err := rc.replaceWith(ModeCards, cardRows(ids...)); err != nil {
		t.Fatalf("replaceWith failed: %v", err)
	}
	return rc, newSelectionManager(rc)
}

func row(id int64) RowID {
	return RowID{ID: id, Mode: ModeCards}
}

func TestToggle_ModeTransitionsPairUp(t *testing.T) {
	_, sel := newTestSelection(t, 1, 2, 3)

	// First selection activates multi-select.
	snap, trans := sel.toggle(row(1))
	if len(snap) != 1 {
		t.Fatalf("snapshot = %v", snap)
	}
	if trans == nil || !trans.Active {
		t.Fatalf("first toggle should activate multi-select, got %v", trans)
	}
	if cause, ok := trans.Cause.(RowSelected); !ok || cause.Row != row(1) {
		t.Errorf("cause = %#v, want RowSelected{1}", trans.Cause)
	}

	// Growing the selection emits no transition.
	if _, trans = sel.toggle(row(2)); trans != nil {
		t.Errorf("second selection emitted a transition: %v", trans)
	}

	// Shrinking while rows remain selected emits no transition either.
	if _, trans = sel.toggle(row(1)); trans != nil {
		t.Errorf("partial deselection emitted a transition: %v", trans)
	}
	if !sel.state.Active {
		t.Error("multi-select must stay active while the selection is non-empty")
	}

	// Removing the last row deactivates.
	snap, trans = sel.toggle(row(2))
	if len(snap) != 0 {
		t.Errorf("snapshot = %v, want empty", snap)
	}
	if trans == nil || trans.Active {
		t.Fatalf("emptying toggle should deactivate, got %v", trans)
	}
	if cause, ok := trans.Cause.(RowDeselected); !ok || cause.Row != row(2) {
		t.Errorf("cause = %#v, want RowDeselected{2}", trans.Cause)
	}
}

func TestSelectAll(t *testing.T) {
	_, sel := newTestSelection(t, 1, 2, 3)

	snap, trans := sel.selectAll()
	if len(snap) != 3 {
		t.Errorf("snapshot = %v, want all rows", snap)
	}
	if trans == nil || !trans.Active {
		t.Fatalf("selectAll should activate, got %v", trans)
	}
	if _, ok := trans.Cause.(AllSelected); !ok {
		t.Errorf("cause = %#v, want AllSelected", trans.Cause)
	}

	// Already-full selection is a no-op with no emission.
	snap, trans = sel.selectAll()
	if snap != nil || trans != nil {
		t.Errorf("repeat selectAll = %v, %v, want no-op", snap, trans)
	}
}

func TestSelectAll_EmptyRowsIsNoop(t *testing.T) {
	_, sel := newTestSelection(t)

	// No rows means there is nothing to select and nothing to observe.
	snap, trans := sel.selectAll()
	if snap != nil || trans != nil {
		t.Errorf("selectAll on empty rows = %v, %v, want no-op", snap, trans)
	}
	if sel.state.Active {
		t.Error("multi-select must not activate with no rows")
	}
}

func TestSelectNone(t *testing.T) {
	_, sel := newTestSelection(t, 1, 2)

	// Empty selection: nothing to emit.
	if snap, trans := sel.selectNone(); snap != nil || trans != nil {
		t.Errorf("selectNone on empty = %v, %v, want no-op", snap, trans)
	}

	sel.toggle(row(1))
	sel.toggle(row(2))
	snap, trans := sel.selectNone()
	if len(snap) != 0 {
		t.Errorf("snapshot = %v, want empty", snap)
	}
	if trans == nil || trans.Active {
		t.Fatalf("selectNone should deactivate, got %v", trans)
	}
	cause, ok := trans.Cause.(MultiSelectEnded)
	if !ok {
		t.Fatalf("cause = %#v, want MultiSelectEnded", trans.Cause)
	}
	if cause.Trigger != EndDeselectedAll {
		t.Errorf("trigger = %v, want deselected all", cause.Trigger)
	}
	if len(cause.Previous) != 2 {
		t.Errorf("Previous = %v, want the two cleared rows", cause.Previous)
	}
}

func TestSelectRange(t *testing.T) {
	_, sel := newTestSelection(t, 10, 20, 30, 40, 50)

	snap, trans, err := sel.selectRange(row(20), row(40))
	if err != nil {
		t.Fatalf("selectRange failed: %v", err)
	}
	if len(snap) != 3 {
		t.Errorf("snapshot = %v, want rows 20..40", snap)
	}
	if trans == nil || !trans.Active {
		t.Errorf("range into empty selection should activate, got %v", trans)
	}

	// Endpoints may come in either order.
	snap, _, err = sel.selectRange(row(50), row(40))
	if err != nil {
		t.Fatalf("selectRange failed: %v", err)
	}
	if len(snap) != 5 {
		t.Errorf("snapshot = %v, want all five", snap)
	}

	// Both endpoints must exist.
	_, _, err = sel.selectRange(row(10), row(99))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing endpoint should be NOT_FOUND, got %v", err)
	}
}

func TestSelectUnvalidated(t *testing.T) {
	_, sel := newTestSelection(t, 1, 2, 3)

	// Stale ids are dropped silently.
	snap, trans := sel.selectUnvalidated([]RowID{row(2), row(99), row(3)})
	if len(snap) != 2 {
		t.Errorf("snapshot = %v, want rows 2 and 3", snap)
	}
	if trans == nil || !trans.Active {
		t.Fatalf("restore should activate, got %v", trans)
	}
	cause, ok := trans.Cause.(SelectionRestored)
	if !ok {
		t.Fatalf("cause = %#v, want SelectionRestored", trans.Cause)
	}
	if len(cause.Rows) != 2 {
		t.Errorf("cause.Rows = %v, want the two applied rows", cause.Rows)
	}

	// Nothing survives validation: no-op, no emission.
	snap, trans = sel.selectUnvalidated([]RowID{row(98), row(99)})
	if snap != nil || trans != nil {
		t.Errorf("all-stale restore = %v, %v, want no-op", snap, trans)
	}
}

func TestSnapshotFollowsRowOrder(t *testing.T) {
	_, sel := newTestSelection(t, 30, 10, 20)

	sel.toggle(row(20))
	sel.toggle(row(30))
	snap := sel.snapshot()
	if len(snap) != 2 || snap[0] != row(30) || snap[1] != row(20) {
		t.Errorf("snapshot = %v, want row order [30 20]", snap)
	}
}

func TestEndMultiSelectRecordsPrevious(t *testing.T) {
	_, sel := newTestSelection(t, 1, 2)
	sel.toggle(row(1))

	snap, trans := sel.endMultiSelect(EndDestructiveOp)
	if len(snap) != 0 {
		t.Errorf("snapshot = %v, want empty", snap)
	}
	cause, ok := trans.Cause.(MultiSelectEnded)
	if !ok {
		t.Fatalf("cause = %#v", trans.Cause)
	}
	if cause.Trigger != EndDestructiveOp {
		t.Errorf("trigger = %v", cause.Trigger)
	}
	if len(cause.Previous) != 1 || cause.Previous[0] != row(1) {
		t.Errorf("Previous = %v, want [1]", cause.Previous)
	}
}
