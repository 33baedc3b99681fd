// Package collections provides reference implementations of the capability
// contracts over native arrays: ArrayIterator, a self-cursoring iterator,
// and ArrayObject, an aggregate that hands out independent ArrayIterators.
//
// Both serialize their storage as order-preserving JSON. Nested objects
// come back as arrays.
package collections
