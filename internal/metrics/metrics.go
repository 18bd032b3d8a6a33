package metrics

import "encoding/json"

// Snapshot status codes.
const (
	// CodeSuccess marks a successful collection; only successful snapshots
	// are persisted.
	CodeSuccess = 0

	// CodeFail marks a failed collection. The snapshot may still carry a
	// diagnostic message but no usable rows.
	CodeFail = 1
)

// NullValue is the sentinel marking an absent column value inside a row.
//
// The sentinel is part of the wire contract with collectors and must not
// change: stores compare column values against it to decide between a real
// value and an explicit null.
const NullValue = "&nbsp;"

// FieldType identifies how a field's column values are typed.
type FieldType int

// Field type tags.
const (
	// TypeNumber marks a numeric field (stored as a floating-point column).
	TypeNumber FieldType = 0

	// TypeString marks a text field (stored as a string column).
	TypeString FieldType = 1
)

// Field describes one column of a metric set.
type Field struct {
	// Name is the metric column name (e.g., "usage", "available").
	Name string `json:"name"`

	// Type tags the column as numeric or text.
	Type FieldType `json:"type"`

	// Label marks the field as an instance label. Label values contribute
	// to the entity identifier rather than to the value columns.
	Label bool `json:"label"`
}

// Row is an ordered sequence of column values aligned positionally with the
// snapshot's field list. An absent value is represented by NullValue.
type Row struct {
	Columns []string `json:"columns"`
}

// Snapshot is one collection result for one monitored entity.
type Snapshot struct {
	// Code is the collection status (CodeSuccess or CodeFail).
	Code int `json:"code"`

	// ID is the numeric identifier of the owning monitor.
	ID int64 `json:"id"`

	// App is the application/category the monitor belongs to (e.g., "linux").
	App string `json:"app"`

	// Metrics is the metric-set name (e.g., "cpu", "disk").
	Metrics string `json:"metrics"`

	// Fields is the ordered column schema for Rows.
	Fields []Field `json:"fields"`

	// Rows holds the collected values, one row per instance observation.
	Rows []Row `json:"rows"`
}

// Persistable reports whether the snapshot should be written to a history
// store: a success status and at least one row.
func (s *Snapshot) Persistable() bool {
	return s != nil && s.Code == CodeSuccess && len(s.Rows) > 0
}

// LabelSignature returns the canonical instance signature for one row: the
// JSON object of its non-empty label values.
//
// encoding/json sorts map keys, so equal label sets always produce equal
// signatures regardless of field order. A row with no label values yields
// "" rather than "{}", which stores read as "not a labeled instance".
func LabelSignature(fields []Field, row Row) string {
	labels := make(map[string]string)
	for i, field := range fields {
		if !field.Label || i >= len(row.Columns) {
			continue
		}
		if v := row.Columns[i]; v != "" && v != NullValue {
			labels[field.Name] = v
		}
	}
	if len(labels) == 0 {
		return ""
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return ""
	}
	return string(data)
}
