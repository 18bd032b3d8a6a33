package influxdb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/ferritewatch/ferrite-core/internal/metrics"
)

// Tag keys on every stored point.
const (
	tagMonitor  = "monitor"
	tagInstance = "instance"
)

// SaveData persists one metric snapshot as a batch of points.
//
// Each row becomes one point in the "{app}_{metrics}" measurement, tagged
// with the monitor id and the row's instance signature. Rows collected in
// the same call are spread one millisecond apart so same-instance rows
// never collapse. Writes are handed to the batching write API and never
// block; failures surface through the error drain, not the caller.
func (s *Store) SaveData(ctx context.Context, snapshot *metrics.Snapshot) {
	if !s.Available() {
		s.logger.Error(unavailableDiagnostic)
		return
	}
	if !snapshot.Persistable() {
		return
	}

	now := time.Now()
	for i, row := range snapshot.Rows {
		point := s.buildPoint(snapshot, row, now.Add(time.Duration(i)*time.Millisecond))
		if point != nil {
			s.writeAPI.WritePoint(point)
		}
	}
}

// buildPoint maps one snapshot row onto a point, or nil when the row
// carries no usable values.
func (s *Store) buildPoint(snapshot *metrics.Snapshot, row metrics.Row, ts time.Time) *write.Point {
	point := influxdb2.NewPointWithMeasurement(fmt.Sprintf("%s_%s", snapshot.App, snapshot.Metrics)).
		AddTag(tagMonitor, strconv.FormatInt(snapshot.ID, 10)).
		SetTime(ts)

	if signature := metrics.LabelSignature(snapshot.Fields, row); signature != "" {
		point.AddTag(tagInstance, signature)
	}

	fields := 0
	for i, field := range snapshot.Fields {
		if field.Label || i >= len(row.Columns) {
			continue
		}
		raw := row.Columns[i]
		if raw == "" || raw == metrics.NullValue {
			continue
		}
		if field.Type == metrics.TypeNumber {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				s.logger.Warn("non-numeric sample dropped",
					"field", field.Name, "value", raw)
				continue
			}
			point.AddField(field.Name, v)
		} else {
			point.AddField(field.Name, raw)
		}
		fields++
	}
	if fields == 0 {
		return nil
	}
	return point
}
