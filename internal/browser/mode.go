// Package browser implements the search/selection engine behind the card
// browsing surface: query composition and single-flight search execution,
// the ordered result row set, the mutable selection and its multi-select
// mode transitions, sort and column state, and the bulk operations that act
// on a selection.
package browser

import "fmt"

// Mode fixes how a row id must be interpreted: one row per card, or rows
// deduplicated to one per note.
type Mode int

const (
	ModeCards Mode = iota
	ModeNotes
)

func (m Mode) String() string {
	switch m {
	case ModeCards:
		return "cards"
	case ModeNotes:
		return "notes"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts the persisted string form back to a Mode.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "cards":
		return ModeCards, true
	case "notes":
		return ModeNotes, true
	default:
		return ModeCards, false
	}
}

// RowID identifies one row of the result set. The Mode tag is part of the
// identity: a card-mode id never compares equal to a note-mode id even when
// the numeric values coincide.
type RowID struct {
	ID   int64
	Mode Mode
}

func (r RowID) String() string {
	return fmt.Sprintf("%s/%d", r.Mode, r.ID)
}
