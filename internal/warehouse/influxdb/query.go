package influxdb

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ferritewatch/ferrite-core/internal/metrics"
	"github.com/ferritewatch/ferrite-core/internal/warehouse"
)

// defaultLookback is substituted when the caller's window is missing or
// not a valid duration literal.
const defaultLookback = "6h"

var lookbackPattern = regexp.MustCompile(`^[0-9]+(ms|s|m|h|d|w|mo|y)$`)

func normaliseLookback(lookback string) string {
	if !lookbackPattern.MatchString(lookback) {
		return defaultLookback
	}
	return lookback
}

// GetHistory returns raw samples for one metric over the given lookback
// window, newest first, grouped by instance signature.
//
// A nil query label returns every instance the monitor has written; a
// non-nil label filters to that instance, with "" meaning the unlabeled
// series. Failures are logged and yield whatever was decoded so far.
func (s *Store) GetHistory(ctx context.Context, q warehouse.HistoryQuery) metrics.InstanceValues {
	result := metrics.InstanceValues{}
	if !s.Available() {
		s.logger.Error(unavailableDiagnostic)
		return result
	}

	flux := fluxHistory(s.bucket, q, normaliseLookback(q.Lookback))

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	res, err := s.queryAPI.Query(queryCtx, flux)
	if err != nil {
		s.logger.Warn("history query failed", "flux", flux, "error", err)
		return result
	}
	defer res.Close()

	for res.Next() {
		rec := res.Record()
		origin, err := formatSample(rec.Value())
		if err != nil {
			continue
		}
		instance := instanceKey(rec.ValueByKey(tagInstance))
		result[instance] = append(result[instance], metrics.Value{
			Origin: origin,
			Time:   rec.Time().UnixMilli(),
		})
	}
	if res.Err() != nil {
		s.logger.Warn("history query failed", "flux", flux, "error", res.Err())
	}
	return result
}

// GetHistoryInterval returns 4-hour aggregate buckets (first, mean, min,
// max) for one metric, grouped by instance signature. Buckets missing any
// aggregate are dropped whole, matching the primary store's behaviour.
func (s *Store) GetHistoryInterval(ctx context.Context, q warehouse.HistoryQuery) metrics.InstanceValues {
	result := metrics.InstanceValues{}
	if !s.Available() {
		s.logger.Error(unavailableDiagnostic)
		return result
	}

	lookback := normaliseLookback(q.Lookback)

	// One aggregateWindow pass per function, merged on (instance, bucket).
	type bucket struct {
		value metrics.Value
		seen  int
	}
	buckets := make(map[string]map[int64]*bucket)

	aggregates := []struct {
		fn    string
		apply func(v *metrics.Value, s string)
	}{
		{"first", func(v *metrics.Value, s string) { v.Origin = s }},
		{"mean", func(v *metrics.Value, s string) { v.Mean = s }},
		{"min", func(v *metrics.Value, s string) { v.Min = s }},
		{"max", func(v *metrics.Value, s string) { v.Max = s }},
	}

	for _, agg := range aggregates {
		flux := fluxHistoryInterval(s.bucket, q, lookback, agg.fn)

		queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
		res, err := s.queryAPI.Query(queryCtx, flux)
		if err != nil {
			cancel()
			s.logger.Warn("interval history query failed", "flux", flux, "error", err)
			return result
		}

		for res.Next() {
			rec := res.Record()
			sample, err := formatSample(rec.Value())
			if err != nil {
				continue
			}
			instance := instanceKey(rec.ValueByKey(tagInstance))
			ts := rec.Time().UnixMilli()

			if buckets[instance] == nil {
				buckets[instance] = make(map[int64]*bucket)
			}
			b := buckets[instance][ts]
			if b == nil {
				b = &bucket{value: metrics.Value{Time: ts}}
				buckets[instance][ts] = b
			}
			agg.apply(&b.value, sample)
			b.seen++
		}
		if res.Err() != nil {
			s.logger.Warn("interval history query failed", "flux", flux, "error", res.Err())
		}
		res.Close()
		cancel()
	}

	for instance, byTime := range buckets {
		times := make([]int64, 0, len(byTime))
		for ts, b := range byTime {
			if b.seen == len(aggregates) {
				times = append(times, ts)
			}
		}
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
		for _, ts := range times {
			result[instance] = append(result[instance], byTime[ts].value)
		}
	}
	return result
}

// fluxHistory builds the raw-sample Flux statement.
func fluxHistory(bucket string, q warehouse.HistoryQuery, lookback string) string {
	flux := fmt.Sprintf(
		`from(bucket: %q) |> range(start: -%s) |> filter(fn: (r) => r._measurement == %q and r._field == %q and r.%s == %q)`,
		bucket, lookback,
		fmt.Sprintf("%s_%s", q.App, q.Metrics), q.Metric,
		tagMonitor, strconv.FormatInt(q.MonitorID, 10),
	)
	flux += instanceFilter(q.Label)
	flux += ` |> sort(columns: ["_time"], desc: true)`
	return flux
}

// fluxHistoryInterval builds one aggregateWindow Flux statement.
func fluxHistoryInterval(bucket string, q warehouse.HistoryQuery, lookback, fn string) string {
	flux := fmt.Sprintf(
		`from(bucket: %q) |> range(start: -%s) |> filter(fn: (r) => r._measurement == %q and r._field == %q and r.%s == %q)`,
		bucket, lookback,
		fmt.Sprintf("%s_%s", q.App, q.Metrics), q.Metric,
		tagMonitor, strconv.FormatInt(q.MonitorID, 10),
	)
	flux += instanceFilter(q.Label)
	flux += fmt.Sprintf(` |> aggregateWindow(every: 4h, fn: %s, createEmpty: false)`, fn)
	return flux
}

// instanceFilter narrows a statement to one instance when the label is
// pinned. An empty pinned label selects the unlabeled series.
func instanceFilter(label *string) string {
	if label == nil {
		return ""
	}
	if *label == "" {
		return fmt.Sprintf(` |> filter(fn: (r) => not exists r.%s)`, tagInstance)
	}
	return fmt.Sprintf(` |> filter(fn: (r) => r.%s == %q)`, tagInstance, *label)
}

// instanceKey extracts the instance tag from a record, with the unlabeled
// series landing under "".
func instanceKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// formatSample renders one sample value: numbers rounded half-up to four
// decimal places with trailing zeros trimmed, text passed through.
func formatSample(v any) (string, error) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val).Round(4).String(), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unexpected sample type %T", v)
	}
}
