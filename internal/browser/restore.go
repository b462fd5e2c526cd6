package browser

import (
	"encoding/json"
	"os"

	"github.com/hpungsan/sift/internal/errors"
)

// selectionSnapshot is the serialized form of a selection, written by the
// host environment before the process is destroyed and consumed through
// SetPendingSelection after recreation.
type selectionSnapshot struct {
	Mode string  `json:"mode"`
	IDs  []int64 `json:"ids"`
}

// SaveSelection writes the current selection to path as JSON. Called by the
// host when the process may be destroyed.
func (e *Engine) SaveSelection(path string) error {
	e.mu.Lock()
	rows := e.sel.snapshot()
	mode := e.coord.mode
	e.mu.Unlock()

	snap := selectionSnapshot{Mode: mode.String(), IDs: make([]int64, len(rows))}
	for i, row := range rows {
		snap.IDs[i] = row.ID
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// LoadSelection reads a saved selection from path and queues it as the
// pending restore for the next completed search. A missing file is a no-op.
// Stale ids are dropped later, by validation against the result rows.
func (e *Engine) LoadSelection(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.NewInternal(err)
	}

	var snap selectionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errors.NewInternal(err)
	}
	mode, ok := ParseMode(snap.Mode)
	if !ok {
		return errors.NewInvalidRequest("unknown mode in saved selection")
	}

	ids := make([]RowID, len(snap.IDs))
	for i, id := range snap.IDs {
		ids[i] = RowID{ID: id, Mode: mode}
	}
	e.SetPendingSelection(ids)
	return nil
}
