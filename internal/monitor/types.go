package monitor

import "time"

// Monitor status values.
const (
	// StatusUnknown means no snapshot has been seen yet.
	StatusUnknown = 0

	// StatusUp means the most recent snapshot collected successfully.
	StatusUp = 1

	// StatusDown means the most recent snapshot reported a failure.
	StatusDown = 2
)

// Monitor is one registered monitored entity.
type Monitor struct {
	// ID is the numeric identifier collectors stamp on every snapshot.
	ID int64 `json:"id"`

	// Name is the human-readable monitor name.
	Name string `json:"name"`

	// App is the application/category the monitor belongs to (e.g., "linux").
	App string `json:"app"`

	// Host is the collection target, informational only.
	Host string `json:"host"`

	// Status is the last known collection state.
	Status int `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LastSeen is when the most recent snapshot arrived, nil before the
	// first one.
	LastSeen *time.Time `json:"last_seen,omitempty"`
}
