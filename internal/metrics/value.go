package metrics

// Value is a single history point returned by a history query.
//
// Raw history populates Origin only. Interval history populates all four
// formatted aggregates for one 4-hour bucket.
type Value struct {
	// Origin is the raw (or first-in-bucket) value, formatted to at most
	// four decimal places with trailing zeros stripped.
	Origin string `json:"origin"`

	// Mean is the bucket average (interval history only).
	Mean string `json:"mean,omitempty"`

	// Min is the bucket minimum (interval history only).
	Min string `json:"min,omitempty"`

	// Max is the bucket maximum (interval history only).
	Max string `json:"max,omitempty"`

	// Time is the point timestamp in milliseconds since the Unix epoch.
	Time int64 `json:"time"`
}

// InstanceValues maps an instance label to its ordered history points.
//
// The empty-string key holds points for the single unlabeled instance. Raw
// history is ordered most recent first; interval history follows bucket order
// as returned by the backend.
type InstanceValues map[string][]Value
