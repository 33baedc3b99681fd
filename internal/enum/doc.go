// Package enum provides pure (unit) enumerated types. Each case is a
// singleton object; Cases lists them in declaration order.
package enum
