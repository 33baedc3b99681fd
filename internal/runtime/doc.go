// Package runtime provides the raise and catch plumbing an evaluator
// drives around the exception kernel.
//
// A Runtime owns the call stack. Raise runs the raise-time hook on a
// throwable (site plus stack snapshot) before any catch logic can see it,
// and hands back a Go error carrying the throwable. Catch selects a handler
// by class using the registry. Uncaught renders the fatal diagnostic,
// logs it, and records an incident.
//
// A Runtime belongs to one evaluator goroutine. Throwables it finalizes are
// safe to share once Raise returns.
package runtime
