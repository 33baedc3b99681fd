package values

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for v.
//
// Differences from Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. Strings are NFC normalized
//
// Lists (keys 0..n-1 in order) become JSON arrays, every other array and
// every *Object becomes a JSON object. NaN and infinities are rejected.
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, true); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Marshal produces JSON for v preserving insertion order of keys. Floats
// always carry a fraction or exponent, so Unmarshal restores their type.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v, false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jsonMember struct {
	key   string
	value Value
}

func encodeValue(buf *bytes.Buffer, v Value, canonical bool) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case Float:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("cannot encode %v as JSON", f)
		}
		text := strconv.FormatFloat(f, 'g', -1, 64)
		if !canonical && !strings.ContainsAny(text, ".eE") {
			// keep the float type through Unmarshal
			text += ".0"
		}
		buf.WriteString(text)
	case Str:
		writeString(buf, string(val), canonical)
	case *Array:
		if val.IsList() {
			buf.WriteByte('[')
			for i, elem := range val.Values() {
				if i > 0 {
					buf.WriteByte(',')
				}
				if err := encodeValue(buf, elem, canonical); err != nil {
					return fmt.Errorf("array[%d]: %w", i, err)
				}
			}
			buf.WriteByte(']')
			return nil
		}
		members := make([]jsonMember, 0, val.Len())
		val.Each(func(k, elem Value) bool {
			members = append(members, jsonMember{key: keyString(k), value: elem})
			return true
		})
		return encodeMembers(buf, members, canonical)
	case *Object:
		members := make([]jsonMember, 0, len(val.names))
		for _, n := range val.names {
			members = append(members, jsonMember{key: n, value: val.props[n]})
		}
		return encodeMembers(buf, members, canonical)
	default:
		return fmt.Errorf("unsupported value for JSON: %s", TypeName(v))
	}
	return nil
}

func encodeMembers(buf *bytes.Buffer, members []jsonMember, canonical bool) error {
	if canonical {
		slices.SortFunc(members, func(a, b jsonMember) int {
			return compareKeysRFC8785(a.key, b.key)
		})
	}
	buf.WriteByte('{')
	for i, m := range members {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, m.key, canonical)
		buf.WriteByte(':')
		if err := encodeValue(buf, m.value, canonical); err != nil {
			return fmt.Errorf("key %q: %w", m.key, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func keyString(k Value) string {
	if i, ok := k.(Int); ok {
		return strconv.FormatInt(int64(i), 10)
	}
	return string(k.(Str))
}

// writeString escapes only quote, backslash and control characters, so no
// HTML escaping and no U+2028/U+2029 escaping takes place.
func writeString(buf *bytes.Buffer, s string, canonical bool) {
	if canonical {
		s = norm.NFC.String(s)
	}
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.WriteString("\ufffd")
			i++
			continue
		}
		switch {
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(buf, `\u%04x`, r)
		default:
			buf.WriteString(s[i : i+size])
		}
		i += size
	}
	buf.WriteByte('"')
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785. Go's string comparison orders by UTF-8 bytes,
// which differs for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// Unmarshal decodes JSON into a Value. Objects become arrays with keys in
// document order; numbers without fraction or exponent become Int.
func Unmarshal(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case json.Number:
		s := string(t)
		if !strings.ContainsAny(s, ".eE") {
			if n, err := t.Int64(); err == nil {
				return Int(n), nil
			}
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", s, err)
		}
		return Float(f), nil
	case json.Delim:
		arr := NewArray()
		switch t {
		case '[':
			for dec.More() {
				elem, err := decodeValue(dec)
				if err != nil {
					return nil, fmt.Errorf("array[%d]: %w", arr.Len(), err)
				}
				arr.Append(elem)
			}
		case '{':
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, _ := keyTok.(string)
				elem, err := decodeValue(dec)
				if err != nil {
					return nil, fmt.Errorf("object[%q]: %w", key, err)
				}
				if err := arr.Set(Str(key), elem); err != nil {
					return nil, err
				}
			}
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
		// consume closing delimiter
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}
