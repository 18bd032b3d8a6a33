// Package metrics defines the self-describing metric snapshot model shared
// between ingestion and the warehouse stores.
//
// A Snapshot carries one collection result for one monitored entity: the
// metric-set name, an ordered field list, and rows of column values aligned
// positionally with that list. Fields flagged as labels distinguish sibling
// instances (per-disk, per-interface) and do not become time-series columns.
//
// The model is deliberately transport-agnostic; ingestion decodes snapshots
// from JSON and the warehouse stores map them onto backend-specific schemas.
package metrics
