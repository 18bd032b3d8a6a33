package iotdb

import (
	"context"
	"strconv"
	"time"

	"github.com/ferritewatch/ferrite-core/internal/metrics"
)

// SaveData persists one metric snapshot.
//
// Rows are grouped into per-device tablets by their label signature, so a
// snapshot carrying several labeled instances produces one batch insert per
// instance. Timestamps within a device batch are forced strictly increasing
// so rows collected in the same millisecond are never collapsed by the
// backend.
//
// Failures never propagate to the caller: unparseable numeric samples are
// stored as null, and a rejected batch is logged while the remaining
// batches still go out. Tablets are reset after every call regardless of
// outcome.
func (s *Store) SaveData(ctx context.Context, snapshot *metrics.Snapshot) {
	if !s.Available() {
		s.logger.Error(unavailableDiagnostic)
		return
	}
	if snapshot == nil || snapshot.Code != metrics.CodeSuccess {
		return
	}
	if len(snapshot.Rows) == 0 {
		s.logger.Info("snapshot carries no rows, ignored",
			"app", snapshot.App, "metrics", snapshot.Metrics, "monitor_id", snapshot.ID)
		return
	}

	// Schema covers the non-label fields only; label values become part of
	// the device path instead of measurements.
	var (
		measurements []string
		types        []DataType
		columns      []int
	)
	for i, field := range snapshot.Fields {
		if field.Label {
			continue
		}
		measurements = append(measurements, Quote(field.Name))
		if field.Type == metrics.TypeNumber {
			types = append(types, TypeDouble)
		} else {
			types = append(types, TypeText)
		}
		columns = append(columns, i)
	}
	if len(measurements) == 0 {
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tablets := make(map[string]*Tablet)
	now := time.Now().UnixMilli()

	for _, row := range snapshot.Rows {
		if len(row.Columns) != len(snapshot.Fields) {
			s.logger.Warn("row column count does not match field count, row skipped",
				"app", snapshot.App, "metrics", snapshot.Metrics,
				"columns", len(row.Columns), "fields", len(snapshot.Fields))
			continue
		}

		signature := metrics.LabelSignature(snapshot.Fields, row)

		device := DevicePath(s.version, snapshot.App, snapshot.Metrics, snapshot.ID, signature, false)
		tablet, ok := tablets[device]
		if !ok {
			tablet = NewTablet(device, measurements, types)
			tablets[device] = tablet
		}

		// Two rows with the same signature in one snapshot would otherwise
		// land on the same millisecond and the later overwrite the earlier.
		ts := now
		if last := tablet.LastTimestamp(); ts <= last {
			ts = last + 1
		}
		now = ts

		tablet.AddRow(ts)
		for col, fieldIdx := range columns {
			raw := row.Columns[fieldIdx]
			if raw == "" || raw == metrics.NullValue {
				continue
			}
			if types[col] == TypeDouble {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					s.logger.Warn("non-numeric sample stored as null",
						"field", snapshot.Fields[fieldIdx].Name, "value", raw)
					continue
				}
				tablet.Set(col, v)
			} else {
				tablet.Set(col, raw)
			}
		}
	}

	for device, tablet := range tablets {
		if tablet.RowCount() == 0 {
			continue
		}
		if err := s.pool.InsertTablet(ctx, tablet); err != nil {
			s.logger.Error("tablet insert failed",
				"device", device, "rows", tablet.RowCount(), "error", err)
		}
		tablet.Reset()
	}
}
