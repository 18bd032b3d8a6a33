package iotdb

import "errors"

// Sentinel errors returned by the IoTDB warehouse store. Callers can test
// for these with errors.Is regardless of the wrapped detail.
var (
	// ErrDisabled indicates the IoTDB backend is switched off in config.
	ErrDisabled = errors.New("iotdb backend is disabled")

	// ErrConnectionFailed indicates the backend could not be reached
	// during the startup probe.
	ErrConnectionFailed = errors.New("iotdb connection failed")

	// ErrWriteFailed indicates a tablet insert was rejected by the backend.
	ErrWriteFailed = errors.New("iotdb write failed")

	// ErrQueryFailed indicates a read query was rejected by the backend.
	ErrQueryFailed = errors.New("iotdb query failed")

	// ErrNonNumericValue indicates a sample could not be parsed as a
	// number for a numeric series.
	ErrNonNumericValue = errors.New("value is not numeric")
)

// unavailableDiagnostic is the single log line emitted when a data-path
// operation is skipped because the store never became available. Kept
// constant so operators can alert on it.
const unavailableDiagnostic = "\n\t[warehouse iotdb]: the iotdb store is unavailable, check your config and backend status"
