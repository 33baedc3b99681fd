package values

import (
	"math"
	"strconv"
	"strings"
)

// Type identifies the runtime type of a Value.
type Type int

const (
	NullType Type = iota
	BoolType
	IntType
	FloatType
	StringType
	ArrayType
	ObjectType
)

// String returns the type name as reported by gettype-like builtins.
func (t Type) String() string {
	switch t {
	case NullType:
		return "null"
	case BoolType:
		return "bool"
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case StringType:
		return "string"
	case ArrayType:
		return "array"
	case ObjectType:
		return "object"
	default:
		return "unknown"
	}
}

// Value is any runtime value.
type Value interface {
	Type() Type
}

// ClassNamer is implemented by object values that carry a class name.
type ClassNamer interface {
	ClassName() string
}

// Null is the null value.
type Null struct{}

func (Null) Type() Type { return NullType }

// Bool is a boolean value.
type Bool bool

func (Bool) Type() Type { return BoolType }

// Int is a 64-bit signed integer value.
type Int int64

func (Int) Type() Type { return IntType }

// Float is a double precision value.
type Float float64

func (Float) Type() Type { return FloatType }

// Str is a byte string value.
type Str string

func (Str) Type() Type { return StringType }

// FloatPrecision is the number of significant digits string conversion
// keeps, PHP's default precision setting.
const FloatPrecision = 14

// FormatFloat renders a float the way string conversion does: at most
// FloatPrecision significant digits, trailing zeros dropped, and
// exponent form ("1.0E+25", "1.0E-5") when the decimal exponent is below
// -4 or not below FloatPrecision. Infinities and NaN become "INF", "-INF"
// and "NAN".
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}

	// d.ddddddddddddde±XX
	sci := strconv.FormatFloat(f, 'e', FloatPrecision-1, 64)
	sign := ""
	if sci[0] == '-' {
		sign, sci = "-", sci[1:]
	}
	mantissa, exp, _ := strings.Cut(sci, "e")
	e, _ := strconv.Atoi(exp)
	digits := strings.TrimRight(strings.Replace(mantissa, ".", "", 1), "0")
	if digits == "" {
		return sign + "0"
	}

	decpt := e + 1
	if decpt < -3 || decpt > FloatPrecision {
		frac := digits[1:]
		if frac == "" {
			frac = "0"
		}
		esign := "+"
		if e < 0 {
			esign, e = "-", -e
		}
		return sign + digits[:1] + "." + frac + "E" + esign + strconv.Itoa(e)
	}

	switch {
	case decpt <= 0:
		return sign + "0." + strings.Repeat("0", -decpt) + digits
	case decpt >= len(digits):
		return sign + digits + strings.Repeat("0", decpt-len(digits))
	default:
		return sign + digits[:decpt] + "." + digits[decpt:]
	}
}

// TypeName returns the user-visible type name of v. Objects report their
// class name when they carry one.
func TypeName(v Value) string {
	if v == nil {
		return NullType.String()
	}
	if v.Type() == ObjectType {
		if cn, ok := v.(ClassNamer); ok {
			return cn.ClassName()
		}
	}
	return v.Type().String()
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	return v.Type() == NullType
}
