package monitor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines persistence operations for monitors.
type Repository interface {
	// Create inserts a new monitor.
	Create(ctx context.Context, m *Monitor) error
	// GetByID retrieves a monitor by ID.
	GetByID(ctx context.Context, id int64) (*Monitor, error)
	// List retrieves all monitors, optionally filtered by app.
	List(ctx context.Context, app string) ([]Monitor, error)
	// Delete removes a monitor by ID.
	Delete(ctx context.Context, id int64) error
	// MarkSeen records a snapshot arrival, registering the monitor first
	// if it has never been seen.
	MarkSeen(ctx context.Context, id int64, app string, up bool, at time.Time) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed monitor repository.
//
// Parameters:
//   - db: Open SQLite connection used for monitor queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
//
// Security: Uses parameterised SQL queries to prevent injection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new monitor.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - m: Monitor definition to persist
//
// Returns:
//   - error: nil on success, ErrExists on id conflict, otherwise a database error
func (r *SQLiteRepository) Create(ctx context.Context, m *Monitor) error {
	if m == nil {
		return fmt.Errorf("monitor is required")
	}
	if m.ID <= 0 {
		return fmt.Errorf("monitor id is required")
	}
	if m.App == "" {
		return fmt.Errorf("monitor app is required")
	}
	if m.Name == "" {
		m.Name = fmt.Sprintf("%s-%d", m.App, m.ID)
	}

	query := `INSERT INTO monitors (id, name, app, host, status) VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, m.ID, m.Name, m.App, m.Host, m.Status)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrExists
		}
		return fmt.Errorf("inserting monitor: %w", err)
	}

	return nil
}

// GetByID retrieves a monitor by ID.
//
// Returns:
//   - *Monitor: Monitor definition when found
//   - error: ErrNotFound if missing, otherwise the underlying query error
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Monitor, error) {
	query := `SELECT id, name, app, host, status, created_at, updated_at, last_seen
		FROM monitors WHERE id = ?`

	m, err := scanMonitorRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying monitor: %w", err)
	}
	return m, nil
}

// List retrieves all monitors ordered by app then name. A non-empty app
// narrows the result to that category.
func (r *SQLiteRepository) List(ctx context.Context, app string) ([]Monitor, error) {
	query := `SELECT id, name, app, host, status, created_at, updated_at, last_seen
		FROM monitors`
	var args []any
	if app != "" {
		query += ` WHERE app = ?`
		args = append(args, app)
	}
	query += ` ORDER BY app, name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying monitors: %w", err)
	}
	defer rows.Close()

	var monitors []Monitor
	for rows.Next() {
		m, err := scanMonitorRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning monitor: %w", err)
		}
		monitors = append(monitors, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating monitors: %w", err)
	}

	return monitors, nil
}

// Delete removes a monitor by ID.
//
// Returns:
//   - error: ErrNotFound if missing, otherwise the underlying database error
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM monitors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting monitor: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkSeen records a snapshot arrival for a monitor, creating a skeleton
// registration when the id is unknown. Collectors are the source of truth
// for monitor existence, so ingest auto-registers rather than dropping
// snapshots from unregistered monitors.
func (r *SQLiteRepository) MarkSeen(ctx context.Context, id int64, app string, up bool, at time.Time) error {
	status := StatusDown
	if up {
		status = StatusUp
	}

	query := `INSERT INTO monitors (id, name, app, host, status, last_seen)
		VALUES (?, ?, ?, '', ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			last_seen = excluded.last_seen,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`

	_, err := r.db.ExecContext(ctx, query,
		id, fmt.Sprintf("%s-%d", app, id), app, status, at.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording monitor activity: %w", err)
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMonitorRow scans a monitor from a row scanner.
func scanMonitorRow(scanner rowScanner) (*Monitor, error) {
	var m Monitor
	var createdAt, updatedAt string
	var lastSeen sql.NullString

	err := scanner.Scan(&m.ID, &m.Name, &m.App, &m.Host, &m.Status,
		&createdAt, &updatedAt, &lastSeen)
	if err != nil {
		return nil, err
	}

	m.CreatedAt, err = parseTimestamp(createdAt)
	if err != nil {
		return nil, err
	}
	m.UpdatedAt, err = parseTimestamp(updatedAt)
	if err != nil {
		return nil, err
	}
	if lastSeen.Valid && lastSeen.String != "" {
		t, err := parseTimestamp(lastSeen.String)
		if err != nil {
			return nil, err
		}
		m.LastSeen = &t
	}

	return &m, nil
}

// parseTimestamp parses a timestamp stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05Z", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing timestamp: %w", err)
}

// isUniqueConstraintError reports whether err is a SQLite unique or
// primary key violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}
