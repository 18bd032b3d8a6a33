// Package monitor holds the registry of monitored entities.
//
// A monitor is the identity side of the system: a numeric id, a name, the
// app category it belongs to, and liveness bookkeeping. The actual metric
// history lives in the warehouse; this package only answers "which
// monitors exist" for the API layer and keeps last-seen timestamps fresh
// as snapshots arrive off the broker.
//
// Persistence is SQLite through the shared database layer. The schema is
// owned by the migrations directory, not this package.
package monitor
