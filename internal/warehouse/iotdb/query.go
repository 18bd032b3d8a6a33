package iotdb

import (
	"context"
	"fmt"
	"regexp"

	"github.com/ferritewatch/ferrite-core/internal/metrics"
	"github.com/ferritewatch/ferrite-core/internal/warehouse"
)

// SQL templates for history reads and namespace administration. The
// lookback placeholder takes a duration literal such as "6h" or "30d".
const (
	sqlQueryHistory         = "SELECT %s FROM %s WHERE Time >= now() - %s order by Time desc"
	sqlQueryHistoryInterval = "SELECT FIRST_VALUE(%s), AVG(%s), MIN_VALUE(%s), MAX_VALUE(%s) FROM %s GROUP BY ([now() - %s, now()), 4h)"
	sqlShowDevices          = "SHOW DEVICES %s"
	sqlShowDatabases        = "show databases"
	sqlCreateDatabase       = "CREATE DATABASE %s"
	sqlSetTTL               = "set ttl to %s %s"
	sqlUnsetTTL             = "unset ttl to %s"
)

// defaultLookback is substituted when the caller's window is missing or
// not a valid duration literal.
const defaultLookback = "6h"

var lookbackPattern = regexp.MustCompile(`^[0-9]+(ms|s|m|h|d|w|mo|y)$`)

// normaliseLookback validates a query window, falling back to the default
// rather than letting malformed input reach the SQL layer.
func normaliseLookback(lookback string) string {
	if !lookbackPattern.MatchString(lookback) {
		return defaultLookback
	}
	return lookback
}

// GetHistory returns raw samples for one metric over the given lookback
// window, newest first, grouped by instance label.
//
// A nil query label fans out across every labeled instance discovered
// under the monitor's device path; a monitor without labeled instances
// lands under the "" key. A non-nil label, including the empty string,
// pins the query to that single instance.
//
// Failures are absorbed: a failed discovery or read leaves the affected
// instance out of the map and the rest intact. An unavailable store
// returns an empty map.
func (s *Store) GetHistory(ctx context.Context, q warehouse.HistoryQuery) metrics.InstanceValues {
	result := metrics.InstanceValues{}
	if !s.Available() {
		s.logger.Error(unavailableDiagnostic)
		return result
	}

	lookback := normaliseLookback(q.Lookback)

	if q.Label != nil {
		device := DevicePath(s.version, q.App, q.Metrics, q.MonitorID, *q.Label, true)
		s.queryRawHistory(ctx, device, q.Metric, lookback, *q.Label, result)
		return result
	}

	base := DevicePath(s.version, q.App, q.Metrics, q.MonitorID, "", true)
	children := s.queryAllDevices(ctx, base)
	if len(children) == 0 {
		s.queryRawHistory(ctx, base, q.Metric, lookback, "", result)
		return result
	}

	for _, child := range children {
		s.queryRawHistory(ctx, child, q.Metric, lookback, DeriveInstanceLabel(base, child), result)
	}
	return result
}

// GetHistoryInterval returns 4-hour aggregate buckets (first, mean, min,
// max) for one metric over the given lookback window, grouped by instance
// label. Fan-out and error policy match GetHistory; a bucket missing any
// of its four aggregates is dropped whole.
func (s *Store) GetHistoryInterval(ctx context.Context, q warehouse.HistoryQuery) metrics.InstanceValues {
	result := metrics.InstanceValues{}
	if !s.Available() {
		s.logger.Error(unavailableDiagnostic)
		return result
	}

	lookback := normaliseLookback(q.Lookback)

	if q.Label != nil {
		device := DevicePath(s.version, q.App, q.Metrics, q.MonitorID, *q.Label, true)
		s.queryIntervalHistory(ctx, device, q.Metric, lookback, *q.Label, result)
		return result
	}

	base := DevicePath(s.version, q.App, q.Metrics, q.MonitorID, "", true)
	children := s.queryAllDevices(ctx, base)
	if len(children) == 0 {
		s.queryIntervalHistory(ctx, base, q.Metric, lookback, "", result)
		return result
	}

	for _, child := range children {
		s.queryIntervalHistory(ctx, child, q.Metric, lookback, DeriveInstanceLabel(base, child), result)
	}
	return result
}

// queryAllDevices lists the labeled child devices directly under base.
// Discovery failures are logged and reported as no children, which sends
// the caller down the single-device path.
func (s *Store) queryAllDevices(ctx context.Context, base string) []string {
	sql := fmt.Sprintf(sqlShowDevices, base+".*")
	rs, err := s.pool.ExecuteQuery(ctx, sql)
	if err != nil {
		s.logger.Warn("device discovery failed", "sql", sql, "error", err)
		return nil
	}
	defer rs.Close()

	var devices []string
	for rs.Next() {
		rec := rs.Record()
		if len(rec.Values) == 0 {
			continue
		}
		if name, ok := rec.Values[0].(string); ok && name != "" {
			devices = append(devices, name)
		}
	}
	if rs.Err() != nil {
		s.logger.Warn("device discovery failed", "sql", sql, "error", rs.Err())
		return nil
	}
	return devices
}

// queryRawHistory reads raw samples for one device and appends them under
// the given instance key. Null samples are skipped individually; a sample
// of an unexpected type abandons the remaining rows of this device while
// keeping what was already decoded.
func (s *Store) queryRawHistory(ctx context.Context, device, metric, lookback, instance string, out metrics.InstanceValues) {
	sql := fmt.Sprintf(sqlQueryHistory, Quote(metric), device, lookback)
	rs, err := s.pool.ExecuteQuery(ctx, sql)
	if err != nil {
		s.logger.Warn("history query failed", "sql", sql, "error", err)
		return
	}
	defer rs.Close()

	values := out[instance]
	for rs.Next() {
		rec := rs.Record()
		if len(rec.Values) == 0 || rec.Values[0] == nil {
			continue
		}
		origin, err := formatValue(rec.Values[0])
		if err != nil {
			s.logger.Warn("history row decode failed, remaining rows dropped",
				"sql", sql, "error", err)
			break
		}
		values = append(values, metrics.Value{Origin: origin, Time: rec.Timestamp})
	}
	if rs.Err() != nil {
		s.logger.Warn("history query failed", "sql", sql, "error", rs.Err())
	}
	out[instance] = values
}

// queryIntervalHistory reads aggregate buckets for one device and appends
// them under the given instance key.
func (s *Store) queryIntervalHistory(ctx context.Context, device, metric, lookback, instance string, out metrics.InstanceValues) {
	quoted := Quote(metric)
	sql := fmt.Sprintf(sqlQueryHistoryInterval, quoted, quoted, quoted, quoted, device, lookback)
	rs, err := s.pool.ExecuteQuery(ctx, sql)
	if err != nil {
		s.logger.Warn("interval history query failed", "sql", sql, "error", err)
		return
	}
	defer rs.Close()

	values := out[instance]
	for rs.Next() {
		rec := rs.Record()
		if len(rec.Values) < 4 {
			continue
		}
		bucket, ok := decodeBucket(rec)
		if !ok {
			continue
		}
		values = append(values, bucket)
	}
	if rs.Err() != nil {
		s.logger.Warn("interval history query failed", "sql", sql, "error", rs.Err())
	}
	out[instance] = values
}
