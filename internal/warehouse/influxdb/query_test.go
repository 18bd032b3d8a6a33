package influxdb

import (
	"strings"
	"testing"

	"github.com/ferritewatch/ferrite-core/internal/warehouse"
)

func testQuery(label *string) warehouse.HistoryQuery {
	return warehouse.HistoryQuery{
		MonitorID: 412,
		App:       "linux",
		Metrics:   "cpu",
		Metric:    "usage",
		Label:     label,
		Lookback:  "6h",
	}
}

// TestFluxHistory verifies the raw-sample statement shape.
func TestFluxHistory(t *testing.T) {
	flux := fluxHistory("ferrite", testQuery(nil), "6h")

	for _, want := range []string{
		`from(bucket: "ferrite")`,
		`range(start: -6h)`,
		`r._measurement == "linux_cpu"`,
		`r._field == "usage"`,
		`r.monitor == "412"`,
		`sort(columns: ["_time"], desc: true)`,
	} {
		if !strings.Contains(flux, want) {
			t.Errorf("flux %q missing %q", flux, want)
		}
	}
	if strings.Contains(flux, "r.instance") {
		t.Errorf("nil label produced an instance filter: %q", flux)
	}
}

// TestFluxHistory_PinnedLabel verifies instance filtering for pinned and
// empty labels.
func TestFluxHistory_PinnedLabel(t *testing.T) {
	label := `{"core":"0"}`
	flux := fluxHistory("ferrite", testQuery(&label), "6h")
	if !strings.Contains(flux, `r.instance == "{\"core\":\"0\"}"`) {
		t.Errorf("flux %q missing pinned instance filter", flux)
	}

	empty := ""
	flux = fluxHistory("ferrite", testQuery(&empty), "6h")
	if !strings.Contains(flux, "not exists r.instance") {
		t.Errorf("flux %q missing unlabeled-series filter", flux)
	}
}

// TestFluxHistoryInterval verifies the aggregate statement shape.
func TestFluxHistoryInterval(t *testing.T) {
	flux := fluxHistoryInterval("ferrite", testQuery(nil), "30d", "mean")

	for _, want := range []string{
		`range(start: -30d)`,
		`aggregateWindow(every: 4h, fn: mean, createEmpty: false)`,
	} {
		if !strings.Contains(flux, want) {
			t.Errorf("flux %q missing %q", flux, want)
		}
	}
}

// TestFormatSample verifies numeric rendering and text passthrough.
func TestFormatSample(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    string
		wantErr bool
	}{
		{"float trimmed", 12.34500, "12.345", false},
		{"whole number", 7.0, "7", false},
		{"integer", int64(3), "3", false},
		{"text passthrough", "degraded", "degraded", false},
		{"unexpected type", []string{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatSample(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("formatSample(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("formatSample(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestNormaliseLookback verifies malformed windows collapse to the default.
func TestNormaliseLookback(t *testing.T) {
	if got := normaliseLookback("30d"); got != "30d" {
		t.Errorf("normaliseLookback(30d) = %q", got)
	}
	if got := normaliseLookback("never"); got != defaultLookback {
		t.Errorf("normaliseLookback(never) = %q, want default", got)
	}
}
