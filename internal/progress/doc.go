// Package progress persists goal progress observations.
//
// The host task service has no field for a percentage, so progress lives in
// a separate append-only store keyed by goal ID. Each observation is a
// Record; the latest record is the goal's current progress and the full
// series feeds progress history and reports.
//
// Three backends are provided: an in-process MemoryStore, a SQLiteStore for
// single-node durability and a RedisStore for shared deployments. Open
// selects one from configuration.
package progress
