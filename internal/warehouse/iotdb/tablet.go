package iotdb

// Tablet accumulates rows for a single device between flushes. Values are
// held column-major to match the backend's insert format, with nil marking
// a null cell.
//
// A tablet is reused across snapshots for the lifetime of the store, so
// Reset must run after every flush attempt, successful or not.
type Tablet struct {
	Device       string
	Measurements []string
	Types        []DataType
	Timestamps   []int64
	Values       [][]any
}

// NewTablet creates an empty tablet for the given device schema. The
// measurement and type slices must be the same length.
func NewTablet(device string, measurements []string, types []DataType) *Tablet {
	return &Tablet{
		Device:       device,
		Measurements: measurements,
		Types:        types,
		Values:       make([][]any, len(measurements)),
	}
}

// AddRow appends one row at the given timestamp with every cell null.
// Cells are filled in afterwards with Set, which keeps sparse rows cheap.
func (t *Tablet) AddRow(timestamp int64) {
	t.Timestamps = append(t.Timestamps, timestamp)
	for i := range t.Values {
		t.Values[i] = append(t.Values[i], nil)
	}
}

// Set assigns the value for one measurement column in the most recently
// added row.
func (t *Tablet) Set(column int, value any) {
	row := len(t.Timestamps) - 1
	t.Values[column][row] = value
}

// RowCount reports the number of buffered rows.
func (t *Tablet) RowCount() int {
	return len(t.Timestamps)
}

// LastTimestamp returns the timestamp of the most recently added row, or 0
// when the tablet is empty.
func (t *Tablet) LastTimestamp() int64 {
	if len(t.Timestamps) == 0 {
		return 0
	}
	return t.Timestamps[len(t.Timestamps)-1]
}

// Reset drops all buffered rows while keeping the device schema, returning
// the tablet to its freshly created state.
func (t *Tablet) Reset() {
	t.Timestamps = t.Timestamps[:0]
	for i := range t.Values {
		t.Values[i] = t.Values[i][:0]
	}
}
