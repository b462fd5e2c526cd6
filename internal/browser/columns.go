package browser

import (
	"context"
	"fmt"

	"github.com/hpungsan/sift/internal/errors"
)

// Per-mode collection-config keys for the active display columns.
const (
	cardColumnsConfigKey = "browser.activeColumns.cards"
	noteColumnsConfigKey = "browser.activeColumns.notes"
)

// defaultColumns is the active column set before any user configuration.
var defaultColumns = map[Mode][]string{
	ModeCards: {"question", "answer", "deck"},
	ModeNotes: {"question", "answer", "tags"},
}

// ColumnManager owns the active display-column configuration per mode,
// validated against the backend's column metadata.
type ColumnManager struct {
	active map[Mode][]string
}

func newColumnManager() *ColumnManager {
	return &ColumnManager{
		active: map[Mode][]string{
			ModeCards: defaultColumns[ModeCards],
			ModeNotes: defaultColumns[ModeNotes],
		},
	}
}

func columnsConfigKey(mode Mode) string {
	if mode == ModeNotes {
		return noteColumnsConfigKey
	}
	return cardColumnsConfigKey
}

// load reads the persisted column sets; missing keys keep the defaults.
func (m *ColumnManager) load(ctx context.Context, b Backend) {
	for _, mode := range []Mode{ModeCards, ModeNotes} {
		var keys []string
		if err := b.GetConfig(ctx, columnsConfigKey(mode), &keys); err == nil && len(keys) > 0 {
			m.active[mode] = keys
		}
	}
}

// setColumns replaces the active set for a mode. Every key must exist in the
// backend's column metadata.
func (m *ColumnManager) setColumns(mode Mode, keys []string, b Backend) error {
	if len(keys) == 0 {
		return errors.NewInvalidRequest("at least one column is required")
	}

	known := make(map[string]bool)
	for _, meta := range b.BrowserColumns() {
		known[meta.Key] = true
	}
	for _, key := range keys {
		if !known[key] {
			return errors.NewInvalidRequest(fmt.Sprintf("unknown column %q", key))
		}
	}

	m.active[mode] = append([]string(nil), keys...)
	return nil
}

// columns returns a copy of the active set for a mode.
func (m *ColumnManager) columns(mode Mode) []string {
	return append([]string(nil), m.active[mode]...)
}

// persist writes one mode's column set to collection config.
func (m *ColumnManager) persist(ctx context.Context, b Backend, mode Mode) {
	_ = b.SetConfig(ctx, columnsConfigKey(mode), m.active[mode])
}
