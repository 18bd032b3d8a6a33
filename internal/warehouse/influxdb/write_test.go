package influxdb

import (
	"testing"
	"time"

	"github.com/ferritewatch/ferrite-core/internal/infrastructure/logging"
	"github.com/ferritewatch/ferrite-core/internal/metrics"
)

func newTestStore() *Store {
	return &Store{logger: logging.Default(), available: true}
}

// TestBuildPoint verifies row-to-point mapping: tags, typed fields, and
// sentinel handling.
func TestBuildPoint(t *testing.T) {
	store := newTestStore()
	snap := &metrics.Snapshot{
		Code:    metrics.CodeSuccess,
		ID:      412,
		App:     "linux",
		Metrics: "cpu",
		Fields: []metrics.Field{
			{Name: "core", Type: metrics.TypeString, Label: true},
			{Name: "usage", Type: metrics.TypeNumber},
			{Name: "state", Type: metrics.TypeString},
			{Name: "temp", Type: metrics.TypeNumber},
		},
	}
	row := metrics.Row{Columns: []string{"0", "42.5", "ok", "&nbsp;"}}

	ts := time.Unix(1700000000, 0)
	point := store.buildPoint(snap, row, ts)
	if point == nil {
		t.Fatal("buildPoint() = nil, want point")
	}

	if point.Name() != "linux_cpu" {
		t.Errorf("measurement = %q, want linux_cpu", point.Name())
	}
	if !point.Time().Equal(ts) {
		t.Errorf("time = %v, want %v", point.Time(), ts)
	}

	tags := make(map[string]string)
	for _, tag := range point.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags[tagMonitor] != "412" {
		t.Errorf("monitor tag = %q, want 412", tags[tagMonitor])
	}
	if tags[tagInstance] != `{"core":"0"}` {
		t.Errorf("instance tag = %q, want label signature", tags[tagInstance])
	}

	fields := make(map[string]any)
	for _, field := range point.FieldList() {
		fields[field.Key] = field.Value
	}
	if fields["usage"] != 42.5 {
		t.Errorf("usage = %v, want 42.5", fields["usage"])
	}
	if fields["state"] != "ok" {
		t.Errorf("state = %v, want ok", fields["state"])
	}
	if _, ok := fields["temp"]; ok {
		t.Error("null sentinel produced a field")
	}
	if _, ok := fields["core"]; ok {
		t.Error("label value leaked into fields")
	}
}

// TestBuildPoint_NoUsableValues verifies rows with nothing to store map to
// no point at all.
func TestBuildPoint_NoUsableValues(t *testing.T) {
	store := newTestStore()
	snap := &metrics.Snapshot{
		ID:      1,
		App:     "linux",
		Metrics: "cpu",
		Fields: []metrics.Field{
			{Name: "usage", Type: metrics.TypeNumber},
		},
	}

	for _, row := range []metrics.Row{
		{Columns: []string{"&nbsp;"}},
		{Columns: []string{""}},
		{Columns: []string{"not-a-number"}},
	} {
		if point := store.buildPoint(snap, row, time.Now()); point != nil {
			t.Errorf("buildPoint(%v) = %v, want nil", row.Columns, point)
		}
	}
}
