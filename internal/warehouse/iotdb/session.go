package iotdb

import "context"

// DataType identifies the storage type of a tablet column.
type DataType int

// Tablet column types used by the store. IoTDB supports more, but metric
// samples only ever land as one of these two.
const (
	TypeDouble DataType = iota
	TypeText
)

// RowRecord is one decoded result row: a timestamp plus one value per
// selected column. A nil entry in Values means the column was null for
// that row.
type RowRecord struct {
	Timestamp int64
	Values    []any
}

// ResultSet streams rows from a finished query. Implementations own backend
// resources, so Close must be called exactly once, even after an error from
// Next.
type ResultSet interface {
	// Next advances to the next row, returning false when the set is
	// exhausted or a decode error occurred.
	Next() bool

	// Record returns the current row. Only valid after Next returned true.
	Record() RowRecord

	// Columns returns the selected column names, excluding the timestamp.
	Columns() []string

	// Err returns the first error encountered while iterating, if any.
	Err() error

	// Close releases the result's backend resources.
	Close() error
}

// SessionPool is the narrow surface the store needs from an IoTDB client.
// It hides connection management so the store can be tested against a fake.
type SessionPool interface {
	// Ping verifies the backend is reachable and credentials are valid.
	Ping(ctx context.Context) error

	// ExecuteStatement runs a DDL or administrative statement.
	ExecuteStatement(ctx context.Context, sql string) error

	// ExecuteQuery runs a read statement and returns its result set.
	ExecuteQuery(ctx context.Context, sql string) (ResultSet, error)

	// InsertTablet writes one batch of aligned rows for a single device.
	InsertTablet(ctx context.Context, t *Tablet) error

	// Close tears down all pooled sessions.
	Close() error
}
