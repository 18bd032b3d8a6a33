package warehouse

import (
	"context"

	"github.com/ferritewatch/ferrite-core/internal/metrics"
)

// HistoryQuery identifies one metric series (or family of labeled sibling
// instances) for a history read.
type HistoryQuery struct {
	// MonitorID is the numeric identifier of the owning monitor.
	MonitorID int64

	// App is the application/category the monitor belongs to.
	App string

	// Metrics is the metric-set name.
	Metrics string

	// Metric is the column to read within the metric set.
	Metric string

	// Label selects one labeled instance. Nil queries all instances
	// (the store discovers siblings); a non-nil value, including the
	// empty string, pins the query to that instance.
	Label *string

	// Lookback is the backend-native history window expression measured
	// back from now (e.g., "6h", "7d"). Passed through unparsed.
	Lookback string
}

// HistoryStore persists metric snapshots and serves history queries.
//
// Implementations must be safe for concurrent use. See the package
// documentation for the error policy: none of the data-path methods
// return errors.
type HistoryStore interface {
	// Available reports whether the store reached its operational state
	// during initialisation. An unavailable store treats every data-path
	// call as a logged no-op.
	Available() bool

	// SaveData persists one snapshot. Fire-and-forget: failures are
	// logged, never returned. Snapshots with a non-success status or no
	// rows are skipped.
	SaveData(ctx context.Context, snapshot *metrics.Snapshot)

	// GetHistory returns raw history points per instance, most recent
	// first. The map is empty (never nil) when nothing matched or the
	// store is unavailable.
	GetHistory(ctx context.Context, q HistoryQuery) metrics.InstanceValues

	// GetHistoryInterval returns 4-hour-bucketed first/avg/min/max
	// aggregates per instance.
	GetHistoryInterval(ctx context.Context, q HistoryQuery) metrics.InstanceValues

	// Close releases the store's backend connection. Idempotent.
	Close() error
}
