// Package store provides SQLite-backed durable storage for incidents, the
// records of uncaught throwables.
//
// Each incident row holds the head throwable, its trace as canonical JSON,
// the rendered trace text and the fatal-error diagnostic. Older links of
// the cause chain live in incident_causes, one row per depth.
//
// Ordering uses the logical seq column, never timestamps. All list queries
// order by seq ASC, id ASC COLLATE BINARY so results are deterministic.
//
// Connections run in WAL mode with foreign keys enforced and a busy
// timeout (DefaultBusyTimeout, overridable with WithBusyTimeout). The
// schema is versioned through PRAGMA user_version and migrated on Open.
package store
