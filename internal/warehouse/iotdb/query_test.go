package iotdb

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ferritewatch/ferrite-core/internal/warehouse"
)

func historyQuery(label *string) warehouse.HistoryQuery {
	return warehouse.HistoryQuery{
		MonitorID: 412,
		App:       "linux",
		Metrics:   "cpu",
		Metric:    "usage",
		Label:     label,
		Lookback:  "6h",
	}
}

// TestGetHistory_FanOut verifies a nil label expands to one series per
// discovered instance.
func TestGetHistory_FanOut(t *testing.T) {
	pool := newFakePool()
	base := "root.ferrite.`linux`.`cpu`.`412`"
	instA := base + ".`instA`"
	instB := base + ".`instB`"

	pool.on("SHOW DEVICES", []RowRecord{
		{Values: []any{instA}},
		{Values: []any{instB}},
	})
	pool.on(instA, []RowRecord{{Timestamp: 2000, Values: []any{50.5}}})
	pool.on(instB, []RowRecord{
		{Timestamp: 2000, Values: []any{70.0}},
		{Timestamp: 1000, Values: []any{60.0}},
	})

	store := newTestStore(pool)
	got := store.GetHistory(context.Background(), historyQuery(nil))

	if len(got) != 2 {
		t.Fatalf("instances = %d, want 2: %v", len(got), got)
	}
	if len(got["`instA`"]) != 1 || got["`instA`"][0].Origin != "50.5" {
		t.Errorf("instA = %+v, want one sample 50.5", got["`instA`"])
	}
	if len(got["`instB`"]) != 2 {
		t.Fatalf("instB = %+v, want two samples", got["`instB`"])
	}
	if got["`instB`"][0].Origin != "70" || got["`instB`"][0].Time != 2000 {
		t.Errorf("instB[0] = %+v, want 70 at 2000", got["`instB`"][0])
	}
	if !pool.allClosed() {
		t.Error("result sets left open")
	}
}

// TestGetHistory_NoInstances verifies a monitor without labeled children
// falls back to its bare device under the empty key.
func TestGetHistory_NoInstances(t *testing.T) {
	pool := newFakePool()
	pool.on("SHOW DEVICES", nil)
	pool.on("WHERE Time", []RowRecord{{Timestamp: 1500, Values: []any{12.345}}})

	store := newTestStore(pool)
	got := store.GetHistory(context.Background(), historyQuery(nil))

	if len(got) != 1 {
		t.Fatalf("instances = %d, want 1: %v", len(got), got)
	}
	vals, ok := got[""]
	if !ok {
		t.Fatalf("missing empty instance key, got %v", got)
	}
	if len(vals) != 1 || vals[0].Origin != "12.345" || vals[0].Time != 1500 {
		t.Errorf("values = %+v, want 12.345 at 1500", vals)
	}

	// The fallback read must hit the fully quoted device so reserved-word
	// app and metric-set names survive parsing.
	want := "FROM root.ferrite.`linux`.`cpu`.`412` "
	var found bool
	for _, sql := range pool.queries {
		if strings.Contains(sql, want) {
			found = true
		}
	}
	if !found {
		t.Errorf("queries %v missing quoted fallback device %q", pool.queries, want)
	}
}

// TestGetHistory_PinnedLabel verifies a non-nil label skips discovery and
// queries that instance directly.
func TestGetHistory_PinnedLabel(t *testing.T) {
	pool := newFakePool()
	pool.on("WHERE Time", []RowRecord{{Timestamp: 500, Values: []any{1.0}}})

	label := `{"core":"0"}`
	store := newTestStore(pool)
	got := store.GetHistory(context.Background(), historyQuery(&label))

	device := "root.ferrite.`linux`.`cpu`.`412`.`" + label + "`"
	var pinned bool
	for _, sql := range pool.queries {
		if strings.Contains(sql, "SHOW DEVICES") {
			t.Error("pinned label triggered device discovery")
		}
		if strings.Contains(sql, device) {
			pinned = true
		}
	}
	if !pinned {
		t.Errorf("queries %v missing quoted pinned device %q", pool.queries, device)
	}
	if len(got[label]) != 1 || got[label][0].Origin != "1" {
		t.Errorf("got[%q] = %+v, want one sample 1", label, got[label])
	}
}

// TestGetHistory_SkipsNullsAndAbortsOnBadType verifies null samples drop
// individually while an undecodable sample abandons the rest of that series.
func TestGetHistory_SkipsNullsAndAbortsOnBadType(t *testing.T) {
	pool := newFakePool()
	pool.on("SHOW DEVICES", nil)
	pool.on("WHERE Time", []RowRecord{
		{Timestamp: 400, Values: []any{4.0}},
		{Timestamp: 300, Values: []any{nil}},
		{Timestamp: 200, Values: []any{2.0}},
		{Timestamp: 100, Values: []any{map[string]any{"bad": true}}},
		{Timestamp: 50, Values: []any{0.5}},
	})

	store := newTestStore(pool)
	got := store.GetHistory(context.Background(), historyQuery(nil))

	vals := got[""]
	if len(vals) != 2 {
		t.Fatalf("values = %+v, want the two rows before the bad sample", vals)
	}
	if vals[0].Origin != "4" || vals[1].Origin != "2" {
		t.Errorf("values = %+v, want 4 then 2", vals)
	}
}

// TestGetHistory_PartialOnInstanceFailure verifies one failing instance
// query leaves the other instances in the result.
func TestGetHistory_PartialOnInstanceFailure(t *testing.T) {
	pool := newFakePool()
	base := "root.ferrite.`linux`.`cpu`.`412`"
	instA := base + ".`instA`"
	instB := base + ".`instB`"

	pool.on("SHOW DEVICES", []RowRecord{
		{Values: []any{instA}},
		{Values: []any{instB}},
	})
	pool.failOn(instA, errors.New("read timeout"))
	pool.on(instB, []RowRecord{{Timestamp: 100, Values: []any{9.0}}})

	store := newTestStore(pool)
	got := store.GetHistory(context.Background(), historyQuery(nil))

	if _, ok := got["`instA`"]; ok && len(got["`instA`"]) > 0 {
		t.Errorf("failed instance carries values: %+v", got["`instA`"])
	}
	if len(got["`instB`"]) != 1 {
		t.Errorf("surviving instance = %+v, want one sample", got["`instB`"])
	}
}

// TestGetHistory_Unavailable verifies the unavailable store returns an
// empty map without touching the backend.
func TestGetHistory_Unavailable(t *testing.T) {
	pool := newFakePool()
	store := newTestStore(pool)
	store.available = false

	got := store.GetHistory(context.Background(), historyQuery(nil))

	if len(got) != 0 {
		t.Errorf("result = %v, want empty", got)
	}
	if len(pool.queries) != 0 {
		t.Error("unavailable store reached the backend")
	}
}

// TestGetHistoryInterval_Buckets verifies aggregate rows map onto the four
// value fields and incomplete buckets drop whole.
func TestGetHistoryInterval_Buckets(t *testing.T) {
	pool := newFakePool()
	pool.on("SHOW DEVICES", nil)
	pool.on("GROUP BY", []RowRecord{
		{Timestamp: 1000, Values: []any{10.0, 12.5, 8.0, 20.0}},
		{Timestamp: 2000, Values: []any{nil, 12.5, 8.0, 20.0}},
		{Timestamp: 3000, Values: []any{10.0, nil, 8.0, 20.0}},
		{Timestamp: 4000, Values: []any{30.0, 31.25, 30.0, 33.0}},
	})

	store := newTestStore(pool)
	got := store.GetHistoryInterval(context.Background(), historyQuery(nil))

	vals := got[""]
	if len(vals) != 2 {
		t.Fatalf("buckets = %+v, want the two complete rows", vals)
	}
	first := vals[0]
	if first.Origin != "10" || first.Mean != "12.5" || first.Min != "8" || first.Max != "20" {
		t.Errorf("bucket = %+v, want first=10 mean=12.5 min=8 max=20", first)
	}
	if first.Time != 1000 {
		t.Errorf("bucket time = %d, want 1000", first.Time)
	}
}

// TestGetHistoryInterval_QueryShape verifies the aggregate statement names
// all four functions over the quoted metric.
func TestGetHistoryInterval_QueryShape(t *testing.T) {
	pool := newFakePool()
	pool.on("SHOW DEVICES", nil)

	store := newTestStore(pool)
	store.GetHistoryInterval(context.Background(), historyQuery(nil))

	var aggSQL string
	for _, sql := range pool.queries {
		if strings.Contains(sql, "GROUP BY") {
			aggSQL = sql
		}
	}
	if aggSQL == "" {
		t.Fatal("no aggregate query issued")
	}
	for _, fn := range []string{"FIRST_VALUE(`usage`)", "AVG(`usage`)", "MIN_VALUE(`usage`)", "MAX_VALUE(`usage`)"} {
		if !strings.Contains(aggSQL, fn) {
			t.Errorf("aggregate query %q missing %s", aggSQL, fn)
		}
	}
	if !strings.Contains(aggSQL, "4h)") {
		t.Errorf("aggregate query %q missing 4h bucket width", aggSQL)
	}
}
