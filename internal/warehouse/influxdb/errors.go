package influxdb

import "errors"

// Sentinel errors returned by the InfluxDB warehouse store.
var (
	// ErrDisabled indicates the InfluxDB backend is switched off in config.
	ErrDisabled = errors.New("influxdb backend is disabled")
)

// unavailableDiagnostic is the single log line emitted when a data-path
// operation is skipped because the store never became available.
const unavailableDiagnostic = "\n\t[warehouse influxdb]: the influxdb store is unavailable, check your config and backend status"
