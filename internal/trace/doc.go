// Package trace captures call-stack snapshots for throwables.
//
// A CallStack is owned by one runtime and mutated only by the evaluator as
// calls are entered and left. Snapshot returns an independent deep copy,
// newest frame first; that order is used by every renderer in this package.
package trace
