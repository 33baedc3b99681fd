package trace

import (
	"fmt"
	"strings"

	"github.com/roach88/objkernel/internal/values"
)

// Call types for method frames.
const (
	CallInstance = "->"
	CallStatic   = "::"
)

// maxArgLen is how many bytes of a string argument are shown in a frame.
const maxArgLen = 15

// Location is a source position.
type Location struct {
	File string
	Line int
}

// String renders "file:line".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Frame is one entry of a call stack: the called function and the place
// it was called from. The JSON form uses the getTrace() record keys;
// arguments are left out of it and appear only in the rendered trace.
type Frame struct {
	Function string         `json:"function"`
	Class    string         `json:"class,omitempty"`
	CallType string         `json:"type,omitempty"`
	File     string         `json:"file,omitempty"`
	Line     int            `json:"line,omitempty"`
	Args     []values.Value `json:"-"`
}

// Callee renders the called function, e.g. "Cart->add" or "strlen".
func (f Frame) Callee() string {
	if f.Class == "" {
		return f.Function
	}
	callType := f.CallType
	if callType == "" {
		callType = CallInstance
	}
	return f.Class + callType + f.Function
}

// Render renders the frame at position index.
//
//	#0 /app/cart.php(12): Cart->add('widget', 3)
//	#1 [internal function]: array_map(Object(Closure), Array)
func (f Frame) Render(index int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d ", index)
	if f.File == "" {
		b.WriteString("[internal function]")
	} else {
		fmt.Fprintf(&b, "%s(%d)", f.File, f.Line)
	}
	b.WriteString(": ")
	b.WriteString(f.Callee())
	b.WriteByte('(')
	for i, arg := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(renderArg(arg))
	}
	b.WriteByte(')')
	return b.String()
}

func renderArg(v values.Value) string {
	switch val := v.(type) {
	case nil, values.Null:
		return "NULL"
	case values.Bool:
		if val {
			return "true"
		}
		return "false"
	case values.Int:
		return fmt.Sprintf("%d", int64(val))
	case values.Float:
		return values.FormatFloat(float64(val))
	case values.Str:
		s := string(val)
		if len(s) > maxArgLen {
			return "'" + s[:maxArgLen] + "...'"
		}
		return "'" + s + "'"
	case *values.Array:
		return "Array"
	default:
		return "Object(" + values.TypeName(v) + ")"
	}
}

// Render renders frames one line each, numbered from zero.
func Render(frames []Frame) []string {
	lines := make([]string, len(frames))
	for i, f := range frames {
		lines[i] = f.Render(i)
	}
	return lines
}

// JoinLines joins rendered frames with the line separator. Zero frames
// render as the empty string.
func JoinLines(frames []Frame) string {
	return strings.Join(Render(frames), "\n")
}

// ToArray exposes frames as a list of records with the keys file, line,
// function, class, type and args. Location and class keys are omitted
// when empty.
func ToArray(frames []Frame) *values.Array {
	list := values.NewArray()
	for _, f := range frames {
		rec := values.NewArray()
		if f.File != "" {
			_ = rec.Set(values.Str("file"), values.Str(f.File))
			_ = rec.Set(values.Str("line"), values.Int(f.Line))
		}
		_ = rec.Set(values.Str("function"), values.Str(f.Function))
		if f.Class != "" {
			callType := f.CallType
			if callType == "" {
				callType = CallInstance
			}
			_ = rec.Set(values.Str("class"), values.Str(f.Class))
			_ = rec.Set(values.Str("type"), values.Str(callType))
		}
		_ = rec.Set(values.Str("args"), values.NewList(f.Args...))
		list.Append(rec)
	}
	return list
}

// clone copies a frame including its argument slice.
func (f Frame) clone() Frame {
	if f.Args != nil {
		f.Args = append([]values.Value(nil), f.Args...)
	}
	return f
}

// Clone returns a deep copy of frames. A nil slice stays nil.
func Clone(frames []Frame) []Frame {
	if frames == nil {
		return nil
	}
	out := make([]Frame, len(frames))
	for i, f := range frames {
		out[i] = f.clone()
	}
	return out
}

// FromArray is the inverse of ToArray. Records missing a function name
// are rejected.
func FromArray(list *values.Array) ([]Frame, error) {
	frames := make([]Frame, 0, list.Len())
	for i, v := range list.Values() {
		rec, ok := v.(*values.Array)
		if !ok {
			return nil, fmt.Errorf("frame %d: expected array, got %s", i, values.TypeName(v))
		}
		var f Frame
		fn, ok := stringField(rec, "function")
		if !ok {
			return nil, fmt.Errorf("frame %d: missing function", i)
		}
		f.Function = fn
		f.File, _ = stringField(rec, "file")
		f.Class, _ = stringField(rec, "class")
		f.CallType, _ = stringField(rec, "type")
		if line, ok := rec.Get(values.Str("line")); ok {
			n, isInt := line.(values.Int)
			if !isInt {
				return nil, fmt.Errorf("frame %d: line must be int, got %s", i, values.TypeName(line))
			}
			f.Line = int(n)
		}
		if args, ok := rec.Get(values.Str("args")); ok {
			argList, isArray := args.(*values.Array)
			if !isArray {
				return nil, fmt.Errorf("frame %d: args must be array, got %s", i, values.TypeName(args))
			}
			if argList.Len() > 0 {
				f.Args = argList.Values()
			}
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func stringField(rec *values.Array, key string) (string, bool) {
	v, ok := rec.Get(values.Str(key))
	if !ok {
		return "", false
	}
	s, ok := v.(values.Str)
	return string(s), ok
}
