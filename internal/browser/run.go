package browser

import "context"

// RunQuery is the one-shot entry point used by the CLI and MCP surfaces: it
// builds an engine over the backend, executes a single search, and waits for
// it to commit. Query errors are returned instead of being left in the
// observable state.
func RunQuery(ctx context.Context, backend Backend, query string, mode Mode, spec SortSpec) (*Engine, error) {
	e := New(backend)
	e.mu.Lock()
	e.coord.mode = mode
	e.coord.freeText = query
	e.sorter.spec = spec
	emits := e.launchSearchLocked(nil)
	e.mu.Unlock()
	runEmits(emits)

	e.AwaitSearch()
	if err := e.LastSearchError(); err != nil {
		return nil, err
	}
	return e, nil
}
