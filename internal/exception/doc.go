// Package exception implements the runtime's canonical Throwable.
//
// Construction is split in two steps. New captures message, code and cause;
// Finalize is the raise-time hook that fills the source location and trace
// and materializes the rendered string. Finalize publishes all of these in
// a single atomic store, so once any goroutine observes a finalized
// Exception it observes the complete value. An Exception is never copied:
// rethrowing passes the same pointer.
package exception
