package browser

import (
	"context"
	"sync"

	"github.com/hpungsan/sift/internal/collection"
	"github.com/hpungsan/sift/internal/errors"
)

// Engine composes the search coordinator, row collection, selection, sort,
// and column state behind a single façade. User intents come in through its
// methods; observable state goes out through the streams.
//
// All state is guarded by one mutex. Search execution happens on a separate
// goroutine; at most one search task is outstanding, and a superseded task
// discards its results at the commit point instead of overwriting newer
// ones. Stream observers are invoked after the lock is released and must not
// call back into the engine synchronously.
type Engine struct {
	mu      sync.Mutex
	backend Backend

	rows   *RowCollection
	sel    *SelectionManager
	sorter *SortManager
	cols   *ColumnManager
	coord  *SearchCoordinator

	state   SearchState
	lastErr error

	// pending selection restore, captured on process recreation. Consumed by
	// the next completed search but deliberately never cleared, so multiple
	// overlapping initialization-time searches cannot drop it. The cost is a
	// small window where a restore can reapply to a later unrelated search.
	pending []RowID

	rowsStream  *Stream[[]RowID]
	selStream   *Stream[[]RowID]
	modeStream  *Stream[MultiSelectState]
	stateStream *Stream[SearchState]
}

// New creates an engine over the injected backend. The search state starts
// at Initializing until the first search is launched.
func New(backend Backend) *Engine {
	rows := newRowCollection()
	return &Engine{
		backend:     backend,
		rows:        rows,
		sel:         newSelectionManager(rows),
		sorter:      newSortManager(),
		cols:        newColumnManager(),
		coord:       newSearchCoordinator(),
		state:       SearchState{Phase: SearchInitializing},
		rowsStream:  NewStream[[]RowID](),
		selStream:   NewStream[[]RowID](),
		modeStream:  NewStream[MultiSelectState](),
		stateStream: NewStream[SearchState](),
	}
}

// Init loads persisted sort and column state and launches the initial
// search. Also the reinit intent: a second call performs a full reset.
func (e *Engine) Init(ctx context.Context) {
	e.mu.Lock()
	e.sorter.load(ctx, e.backend)
	e.cols.load(ctx, e.backend)
	emits := e.launchSearchLocked(nil)
	e.mu.Unlock()
	runEmits(emits)
}

// Observable streams.

func (e *Engine) SubscribeRows(fn func([]RowID)) func()               { return e.rowsStream.Subscribe(fn) }
func (e *Engine) SubscribeSelection(fn func([]RowID)) func()          { return e.selStream.Subscribe(fn) }
func (e *Engine) SubscribeMultiSelect(fn func(MultiSelectState)) func() {
	return e.modeStream.Subscribe(fn)
}
func (e *Engine) SubscribeSearchState(fn func(SearchState)) func() {
	return e.stateStream.Subscribe(fn)
}

// Synchronous accessors.

// Rows returns an immutable snapshot of the current result rows.
func (e *Engine) Rows() []RowID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows.snapshot()
}

func (e *Engine) RowCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows.len()
}

// SelectedRows returns an immutable snapshot of the selection, in row order.
func (e *Engine) SelectedRows() []RowID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.snapshot()
}

func (e *Engine) SelectedRowCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.count()
}

func (e *Engine) HasSelectedAnyRows() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.hasSelection()
}

func (e *Engine) IsSelected(id RowID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.has(id)
}

func (e *Engine) MultiSelect() MultiSelectState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sel.state
}

func (e *Engine) SearchState() SearchState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.coord.mode
}

func (e *Engine) Sort() SortSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sorter.spec
}

// Query returns the effective query string of the current search inputs.
func (e *Engine) Query() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.coord.effectiveQuery()
}

// Search intents.

// SetSearchText records new free text and re-executes the search.
func (e *Engine) SetSearchText(text string) {
	e.mu.Lock()
	e.coord.freeText = text
	emits := e.launchSearchLocked(nil)
	e.mu.Unlock()
	runEmits(emits)
}

// SetDeck scopes the search to one deck (empty name means all decks). A deck
// change is a full reset: the selection is cleared and the search re-runs.
func (e *Engine) SetDeck(deckName string) {
	e.mu.Lock()
	e.coord.deckRestriction = DeckRestriction(deckName)
	emits := e.resetSelectionLocked(EndDeckChanged)
	emits = append(emits, e.launchSearchLocked(nil)...)
	e.mu.Unlock()
	runEmits(emits)
}

// SetMode switches between card and note rows. A mode change is a full
// reset, like a deck change.
func (e *Engine) SetMode(mode Mode) {
	e.mu.Lock()
	if mode == e.coord.mode {
		e.mu.Unlock()
		return
	}
	e.coord.mode = mode
	emits := e.resetSelectionLocked(EndModeChanged)
	emits = append(emits, e.launchSearchLocked(nil)...)
	e.mu.Unlock()
	runEmits(emits)
}

// SetSort replaces the whole sort spec and re-executes the search.
func (e *Engine) SetSort(spec SortSpec) {
	e.mu.Lock()
	e.sorter.spec = spec
	emits := e.launchSearchLocked(nil)
	e.mu.Unlock()
	runEmits(emits)
	e.persistSortAsync(spec)
}

// ChangeSort applies a sort-type selection. Re-selecting the active type
// flips the direction and reverses the rows locally, without a requery; a
// different type resets to ascending and re-queries the backend.
func (e *Engine) ChangeSort(newType collection.SortOrder) {
	e.mu.Lock()
	outcome := e.sorter.changeSort(newType)
	spec := e.sorter.spec

	var emits []func()
	switch outcome {
	case SortRequery:
		emits = e.launchSearchLocked(nil)
	case SortReversed:
		e.rows.reverse()
		snap := e.rows.snapshot()
		emits = append(emits, func() { e.rowsStream.publish(snap) })
	case SortUnchanged:
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	runEmits(emits)
	e.persistSortAsync(spec)
}

// persistSortAsync saves the sort spec fire-and-forget; persistence must not
// block the UI-visible reversal.
func (e *Engine) persistSortAsync(spec SortSpec) {
	go e.sorter.persist(context.Background(), e.backend, spec)
}

// RefreshSearch re-runs the last query, preserving the current selection
// across the requery via the explicit-selection fallback.
func (e *Engine) RefreshSearch() {
	e.mu.Lock()
	keep := e.sel.snapshot()
	emits := e.launchSearchLocked(keep)
	e.mu.Unlock()
	runEmits(emits)
}

// AwaitSearch blocks until the most recently launched search task finishes,
// whether it committed or was superseded.
func (e *Engine) AwaitSearch() {
	e.mu.Lock()
	done := e.coord.done
	e.mu.Unlock()
	<-done
}

// Selection intents.

// ToggleRow adds or removes one row from the selection.
func (e *Engine) ToggleRow(id RowID) {
	e.mu.Lock()
	snap, trans := e.sel.toggle(id)
	e.mu.Unlock()
	e.emitSelection(snap, trans)
}

// SelectAll selects every row of the current result set.
func (e *Engine) SelectAll() {
	e.mu.Lock()
	snap, trans := e.sel.selectAll()
	e.mu.Unlock()
	e.emitSelection(snap, trans)
}

// SelectNone clears the selection.
func (e *Engine) SelectNone() {
	e.mu.Lock()
	snap, trans := e.sel.selectNone()
	e.mu.Unlock()
	e.emitSelection(snap, trans)
}

// SelectRange selects every row between the two ids, inclusive.
func (e *Engine) SelectRange(startID, endID RowID) error {
	e.mu.Lock()
	snap, trans, err := e.sel.selectRange(startID, endID)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.emitSelection(snap, trans)
	return nil
}

// SelectUnvalidated adds the subset of ids present in the current rows.
func (e *Engine) SelectUnvalidated(ids []RowID) {
	e.mu.Lock()
	snap, trans := e.sel.selectUnvalidated(ids)
	e.mu.Unlock()
	e.emitSelection(snap, trans)
}

// EndMultiSelect clears the selection and forces single-select mode.
func (e *Engine) EndMultiSelect(trigger EndTrigger) {
	e.mu.Lock()
	var snap []RowID
	var trans *MultiSelectState
	if e.sel.hasSelection() || e.sel.state.Active {
		snap, trans = e.sel.endMultiSelect(trigger)
	}
	e.mu.Unlock()
	e.emitSelection(snap, trans)
}

// SetPendingSelection captures a selection to be restored by the next
// completed search. It is consumed without being cleared; see the field
// comment for the accepted race window.
func (e *Engine) SetPendingSelection(ids []RowID) {
	e.mu.Lock()
	e.pending = append([]RowID(nil), ids...)
	e.mu.Unlock()
}

// Column intents.

// Columns returns the active display columns for a mode.
func (e *Engine) Columns(mode Mode) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cols.columns(mode)
}

// SetColumns replaces the active display columns for a mode and persists
// them fire-and-forget.
func (e *Engine) SetColumns(mode Mode, keys []string) error {
	e.mu.Lock()
	err := e.cols.setColumns(mode, keys, e.backend)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	go e.cols.persist(context.Background(), e.backend, mode)
	return nil
}

// ColumnMetadata returns the backend's available column descriptions.
func (e *Engine) ColumnMetadata() []collection.ColumnMeta {
	return e.backend.BrowserColumns()
}

// RenderRows materializes the presentation payload for one page of rows.
// Note-mode rows are converted to their first card lazily, per page.
func (e *Engine) RenderRows(ctx context.Context, offset, limit int) ([]*collection.RowData, error) {
	e.mu.Lock()
	rows := e.rows.snapshot()
	mode := e.rows.mode
	e.mu.Unlock()

	if offset < 0 || offset >= len(rows) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(rows) {
		end = len(rows)
	}
	page := rows[offset:end]

	if mode == ModeCards {
		out := make([]*collection.RowData, 0, len(page))
		for _, row := range page {
			data, err := e.backend.RenderBrowserRow(ctx, collection.CardID(row.ID))
			if err != nil {
				if errors.Is(err, errors.ErrNotFound) {
					continue // deleted under the view; skip
				}
				return nil, err
			}
			out = append(out, data)
		}
		return out, nil
	}

	noteIDs := make([]collection.NoteID, len(page))
	for i, row := range page {
		noteIDs[i] = collection.NoteID(row.ID)
	}
	cardIDs, err := e.backend.CardIDsOfNotes(ctx, noteIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[collection.NoteID]bool, len(page))
	out := make([]*collection.RowData, 0, len(page))
	for _, cid := range cardIDs {
		data, err := e.backend.RenderBrowserRow(ctx, cid)
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if seen[data.NoteID] {
			continue // one row per note
		}
		seen[data.NoteID] = true
		out = append(out, data)
	}
	return out, nil
}

// Internal search machinery.

// launchSearchLocked supersedes any in-flight search and starts a new task.
// Caller holds the lock; the returned emits run after it is released.
//
// When a pending restore exists the displayed rows are cleared but the
// selection is left untouched, so a still-pending restore is not wiped by a
// re-entrant search. Without one, the stale rows stay visible until the new
// result commits (or the search fails), and the selection resets.
func (e *Engine) launchSearchLocked(selectAfter []RowID) []func() {
	gen, ctx, done := e.coord.supersede()
	query := e.coord.effectiveQuery()
	mode := e.coord.mode
	spec := e.sorter.spec

	var emits []func()
	if e.pending != nil {
		_ = e.rows.replaceWith(mode, nil)
		snap := e.rows.snapshot()
		emits = append(emits, func() { e.rowsStream.publish(snap) })
	} else {
		emits = append(emits, e.resetSelectionLocked(EndSearchReset)...)
	}

	e.state = SearchState{Phase: SearchSearching}
	state := e.state
	emits = append(emits, func() { e.stateStream.publish(state) })

	go e.performSearch(ctx, gen, query, mode, spec, selectAfter, done)
	return emits
}

// resetSelectionLocked clears the selection if there is anything to clear.
func (e *Engine) resetSelectionLocked(trigger EndTrigger) []func() {
	if !e.sel.hasSelection() && !e.sel.state.Active {
		return nil
	}
	snap, trans := e.sel.endMultiSelect(trigger)
	t := *trans
	return []func(){
		func() { e.selStream.publish(snap) },
		func() { e.modeStream.publish(t) },
	}
}

// performSearch runs one search task. It re-checks that it is still the
// current generation immediately before every observable side effect; a
// superseded task discards its result silently.
func (e *Engine) performSearch(ctx context.Context, gen uint64, query string, mode Mode, spec SortSpec, selectAfter []RowID, done chan struct{}) {
	defer close(done)

	var ids []RowID
	var findErr error
	switch mode {
	case ModeCards:
		cardIDs, err := e.backend.FindCardIDs(ctx, query, spec.Type, spec.Descending)
		findErr = err
		ids = make([]RowID, len(cardIDs))
		for i, id := range cardIDs {
			ids[i] = RowID{ID: int64(id), Mode: ModeCards}
		}
	case ModeNotes:
		noteIDs, err := e.backend.FindNoteIDs(ctx, query, spec.Type, spec.Descending)
		findErr = err
		ids = make([]RowID, len(noteIDs))
		for i, id := range noteIDs {
			ids[i] = RowID{ID: int64(id), Mode: ModeNotes}
		}
	}

	e.mu.Lock()
	if ctx.Err() != nil || !e.coord.current(gen) {
		e.mu.Unlock()
		return // superseded; cancellation is not an error
	}

	var emits []func()
	if findErr != nil {
		// Query errors keep the previous result set visible.
		e.lastErr = findErr
		msg := findErr.Error()
		if sErr, ok := findErr.(*errors.SiftError); ok {
			msg = sErr.Message
		}
		e.state = SearchState{Phase: SearchError, Message: msg}
		state := e.state
		emits = append(emits, func() { e.stateStream.publish(state) })
		e.mu.Unlock()
		runEmits(emits)
		return
	}

	e.lastErr = nil
	_ = e.rows.replaceWith(mode, ids)
	rowsSnap := e.rows.snapshot()
	emits = append(emits, func() { e.rowsStream.publish(rowsSnap) })

	restore := e.pending
	if restore == nil {
		restore = selectAfter
	}
	if len(restore) > 0 {
		if snap, trans := e.sel.selectUnvalidated(restore); snap != nil {
			t := trans
			emits = append(emits, func() { e.selStream.publish(snap) })
			if t != nil {
				tv := *t
				emits = append(emits, func() { e.modeStream.publish(tv) })
			}
		}
	}

	e.state = SearchState{Phase: SearchCompleted}
	state := e.state
	emits = append(emits, func() { e.stateStream.publish(state) })
	e.mu.Unlock()
	runEmits(emits)
}

// LastSearchError returns the error of the most recent failed search, or nil
// after a success.
func (e *Engine) LastSearchError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *Engine) emitSelection(snap []RowID, trans *MultiSelectState) {
	if snap != nil {
		e.selStream.publish(snap)
	}
	if trans != nil {
		e.modeStream.publish(*trans)
	}
}

func runEmits(emits []func()) {
	for _, f := range emits {
		f()
	}
}
