package collection

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/hpungsan/sift/internal/errors"
)

// GetConfig reads a JSON value from the collection's configuration table into
// out. Returns NOT_FOUND if the key has never been written.
func (c *Collection) GetConfig(ctx context.Context, key string, out any) error {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFound("config key", key)
	}
	if err != nil {
		return fmt.Errorf("get config %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// SetConfig writes a JSON value to the collection's configuration table.
func (c *Collection) SetConfig(ctx context.Context, key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO config (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, string(value))
	if err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	return nil
}
