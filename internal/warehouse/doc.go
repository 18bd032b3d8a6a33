// Package warehouse defines the history store abstraction that ingestion and
// the API program against.
//
// A history store persists metric snapshots and answers raw and
// interval-aggregated history queries. Concrete backends live in
// subpackages (iotdb, influxdb); exactly one is active per deployment,
// selected by warehouse.store in config.yaml.
//
// # Error Policy
//
// Stores are a telemetry side-path: losing one write or one query must never
// destabilise the primary monitoring pipeline. SaveData and the history
// getters therefore never return errors - every failure degrades to a log
// line plus a no-op or an empty result. Callers that need to know whether a
// store is usable at all consult Available().
package warehouse
