// Package values provides the runtime value model the object kernel is built on.
//
// Scalars (Null, Bool, Int, Float, Str) are immutable Go values. Arrays are
// ordered hash maps with PHP key normalization, and Object is the base
// "plain object" (stdClass) other runtime features attach properties to.
//
// Value is deliberately an open interface: runtime and user-defined object
// types report ObjectType and may additionally satisfy the capability
// interfaces in package contracts.
//
// Key design constraints:
//   - Array iteration order is insertion order, never map order
//   - Object identity is pointer identity; ID() is a stable handle for display
//   - Canonical JSON is the only serialization used for persistence
package values
