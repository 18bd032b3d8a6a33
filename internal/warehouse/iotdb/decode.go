package iotdb

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ferritewatch/ferrite-core/internal/metrics"
)

// formatValue renders one sample for the history API.
//
// Numeric samples are rounded half-up to four decimal places with trailing
// zeros trimmed, so 12.34500 comes back as "12.345" and 2.0 as "2". Text
// samples that happen to be numeric get the same treatment; other text
// passes through untouched. Unexpected types are a decode error.
func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case float64:
		return formatFloat(val), nil
	case float32:
		return formatFloat(float64(val)), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int:
		return strconv.Itoa(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return formatFloat(f), nil
		}
		return val, nil
	default:
		return "", fmt.Errorf("%w: unexpected sample type %T", ErrNonNumericValue, v)
	}
}

// formatFloat applies the canonical numeric rendering: round half-up to
// four decimals, trim trailing zeros.
func formatFloat(f float64) string {
	return decimal.NewFromFloat(f).Round(4).String()
}

// decodeBucket maps one aggregate row (first, mean, min, max) onto a
// Value. A bucket missing any aggregate is reported as not ok and the
// caller drops it whole.
func decodeBucket(rec RowRecord) (metrics.Value, bool) {
	fields := make([]string, 4)
	for i := 0; i < 4; i++ {
		if rec.Values[i] == nil {
			return metrics.Value{}, false
		}
		s, err := formatValue(rec.Values[i])
		if err != nil {
			return metrics.Value{}, false
		}
		fields[i] = s
	}
	return metrics.Value{
		Origin: fields[0],
		Mean:   fields[1],
		Min:    fields[2],
		Max:    fields[3],
		Time:   rec.Timestamp,
	}, true
}
