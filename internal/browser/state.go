package browser

// SearchPhase is the lifecycle stage of the current search cycle.
type SearchPhase int

const (
	SearchInitializing SearchPhase = iota
	SearchSearching
	SearchCompleted
	SearchError
)

func (p SearchPhase) String() string {
	switch p {
	case SearchInitializing:
		return "initializing"
	case SearchSearching:
		return "searching"
	case SearchCompleted:
		return "completed"
	case SearchError:
		return "error"
	default:
		return "unknown"
	}
}

// SearchState is the observable state of the search cycle. Message is set
// only in the SearchError phase. A superseded search discards its result
// without emitting an error.
type SearchState struct {
	Phase   SearchPhase
	Message string
}

// SelectCause records why a multi-select-mode transition happened, so
// observers can react differently to different causes (a side panel closes
// on navigation but not on a plain deselect). Causes carry the payload the
// observer needs, not just a tag.
type SelectCause interface {
	selectCause()
}

// RowSelected: a row tap added the row to the selection.
type RowSelected struct{ Row RowID }

// RowDeselected: a row tap removed the row and emptied the selection.
type RowDeselected struct{ Row RowID }

// AllSelected: select-all put every row in the selection.
type AllSelected struct{}

// SelectionRestored: a saved selection was reapplied after a completed
// search. Rows holds the ids that survived validation.
type SelectionRestored struct{ Rows []RowID }

// MultiSelectEnded: the selection was cleared as a whole. Previous holds the
// ids that were selected, for observers that animate the transition.
type MultiSelectEnded struct {
	Trigger  EndTrigger
	Previous []RowID
}

func (RowSelected) selectCause()       {}
func (RowDeselected) selectCause()     {}
func (AllSelected) selectCause()       {}
func (SelectionRestored) selectCause() {}
func (MultiSelectEnded) selectCause()  {}

// EndTrigger distinguishes why multi-select mode ended.
type EndTrigger int

const (
	EndDeselectedAll EndTrigger = iota
	EndNavigatedBack
	EndDeckChanged
	EndModeChanged
	EndSearchReset
	EndDestructiveOp
)

func (t EndTrigger) String() string {
	switch t {
	case EndDeselectedAll:
		return "deselected all"
	case EndNavigatedBack:
		return "navigated back"
	case EndDeckChanged:
		return "deck changed"
	case EndModeChanged:
		return "mode changed"
	case EndSearchReset:
		return "search reset"
	case EndDestructiveOp:
		return "destructive operation"
	default:
		return "unknown"
	}
}

// MultiSelectState is the observable selection-mode state. Active is the
// authoritative multi-select predicate; during a restore race the selection
// set can transiently be non-empty while Active is still false, so observers
// must consult the tag, not set cardinality.
type MultiSelectState struct {
	Active bool
	Cause  SelectCause
}
