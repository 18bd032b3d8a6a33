// Package influxdb persists metric snapshots into InfluxDB v2 and serves
// history queries from it.
//
// It is the alternative warehouse backend: the same HistoryStore surface
// as the IoTDB store, mapped onto a flat measurement model instead of a
// path hierarchy. Each snapshot row becomes one point in the configured
// bucket, named "{app}_{metrics}", tagged with the monitor id and, when
// the row carries labels, the instance signature. History reads are Flux
// queries grouped by the instance tag.
//
// The error policy matches the rest of the warehouse layer: data-path
// methods never return errors, failures are logged and the caller gets
// whatever partial result was assembled.
package influxdb
