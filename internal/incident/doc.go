// Package incident defines the record kept for an uncaught throwable.
//
// An Incident is a flattened, persistable view of a throwable and its
// cause chain: the head's class, message, code, site and trace, one Cause
// per older link, and the rendered fatal-error diagnostic. Incidents carry
// a logical seq, never wall-clock time, and a content fingerprint that
// groups repeated occurrences of the same failure.
package incident
