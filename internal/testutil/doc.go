// Package testutil provides deterministic collaborators for runtime tests:
// sequential incident IDs, an in-memory incident sink and a log capture.
package testutil
