package collection

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/sift/internal/errors"
)

// Changes describes which entity kinds a recorded operation touched. The
// engine uses it to decide whether a completed mutation requires a requery.
type Changes struct {
	Card   bool `json:"card,omitempty"`
	Note   bool `json:"note,omitempty"`
	Deck   bool `json:"deck,omitempty"`
	Config bool `json:"config,omitempty"`
}

// OpResult reports one recorded undoable operation.
type OpResult struct {
	OpID    string  `json:"op_id"`
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Changes Changes `json:"changes"`
}

// Op is one entry of the operation log.
type Op struct {
	ID        string
	Label     string
	Changes   Changes
	CreatedAt int64
}

// undoable runs fn inside a transaction and records exactly one operation in
// the ops log, even when fn spans multiple statements. fn returns the number
// of affected entities for reporting.
func (c *Collection) undoable(ctx context.Context, label string, ch Changes, fn func(tx *sql.Tx) (int, error)) (*OpResult, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin %s: %w", label, err)
	}

	count, err := fn(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	opID, err := newOpID()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	changesJSON, err := json.Marshal(ch)
	if err != nil {
		tx.Rollback()
		return nil, errors.NewInternal(err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO ops (id, label, changes, created_at) VALUES (?, ?, ?, ?)`,
		opID, label, string(changesJSON), time.Now().UnixMilli())
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("record op %s: %w", label, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit %s: %w", label, err)
	}

	return &OpResult{OpID: opID, Label: label, Count: count, Changes: ch}, nil
}

// newOpID generates a ULID for an operation-log entry.
func newOpID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return id.String(), nil
}

// LastOp returns the most recently recorded operation.
func (c *Collection) LastOp(ctx context.Context) (*Op, error) {
	var op Op
	var changes string
	err := c.db.QueryRowContext(ctx,
		`SELECT id, label, changes, created_at FROM ops ORDER BY created_at DESC, id DESC LIMIT 1`).
		Scan(&op.ID, &op.Label, &changes, &op.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound("op", "latest")
	}
	if err != nil {
		return nil, fmt.Errorf("last op: %w", err)
	}
	if err := json.Unmarshal([]byte(changes), &op.Changes); err != nil {
		return nil, errors.NewInternal(err)
	}
	return &op, nil
}

// OpCount returns the number of recorded operations.
func (c *Collection) OpCount(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ops`).Scan(&n); err != nil {
		return 0, fmt.Errorf("op count: %w", err)
	}
	return n, nil
}
