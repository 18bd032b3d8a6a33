// Package ingest consumes collector snapshots off the MQTT broker and
// fans them out to the configured history stores.
//
// Collectors publish one JSON snapshot per collection cycle to
// ferrite/metrics/{app}/{monitor_id}. The consumer subscribes to the
// whole metrics namespace, decodes each payload, refreshes the monitor
// registry's last-seen bookkeeping, and hands the snapshot to every
// store. Store failures never propagate back to the broker: a snapshot
// is acknowledged once decoded, and persistence problems are the
// warehouse layer's to log.
package ingest
