// Package iotdb implements the Apache IoTDB history store for Ferrite Core.
//
// IoTDB organises series under hierarchical dot-separated paths and has no
// native notion of a labeled instance, so the store folds everything into a
// device path:
//
//	root.ferrite.{app}.{metrics}.{monitor_id}[.{labels_json}]
//
// Snapshots are grouped into per-labelset tablets and written in one batch
// call per labelset. History reads reverse the mapping: when no label is
// given, SHOW DEVICES discovers the labeled siblings under the monitor path
// and one query is issued per instance.
//
// # Readiness
//
// Connect probes the server, ensures the storage group exists, and applies
// the retention TTL best-effort. If probing or setup fails, the store comes
// up unavailable: every write and query is then a logged no-op returning
// empty results until the service is restarted. There is no self-healing.
//
// # Error Policy
//
// The data-path methods never return errors; see the warehouse package
// documentation. Sentinel errors in errors.go are used internally and by
// tests to classify failures.
package iotdb
