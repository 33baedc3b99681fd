// Package contracts defines the capability interfaces of the object kernel
// and the dispatch helpers the evaluator calls at foreach, subscript, count
// and string-coercion sites.
//
// A value opts into a capability by implementing the matching Go interface;
// dispatch is always an interface assertion, never inspection of concrete
// types. A value may satisfy any number of contracts at once.
//
// Dispatch order:
//
//	foreach      Iterator, then IteratorAggregate, then native array, then object properties
//	v[k]         ArrayAccess, then native array, then string offsets
//	count(v)     Countable, then native array
//	(string) v   Stringable, then scalar conversion
package contracts
