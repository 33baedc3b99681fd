package registry

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

//go:embed builtins.cue
var builtinsSource string

// CompileError is a declaration error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}

// compileSchema compiles the declaration schema in ctx. Values must share
// a context to be unified.
func compileSchema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// CompileSource compiles CUE declarations from source into a Registry.
// The source is checked against the declaration schema first.
func CompileSource(filename, src string) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileValue(v)
}

// CompileValue unifies v with the declaration schema and compiles its
// interface and class blocks, in declaration order. It stops at the first
// error.
func CompileValue(v cue.Value) (*Registry, error) {
	r, errs := compileDeclarations(v, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return r, nil
}

func compileDeclarations(v cue.Value, mode LoadMode) (*Registry, []error) {
	schema, err := compileSchema(v.Context())
	if err != nil {
		return nil, []error{err}
	}
	v = schema.Unify(v)
	if err := v.Validate(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	r := newRegistry()
	var errs []error

	for _, block := range []string{"interface", "class"} {
		blockVal := v.LookupPath(cue.ParsePath(block))
		if !blockVal.Exists() {
			continue
		}
		iter, err := blockVal.Fields()
		if err != nil {
			return r, append(errs, formatCUEError(err))
		}
		for iter.Next() {
			if block == "interface" {
				var spec *InterfaceSpec
				if spec, err = CompileInterface(iter.Label(), iter.Value()); err == nil {
					err = r.addInterface(spec)
				}
			} else {
				var spec *ClassSpec
				if spec, err = CompileClass(iter.Label(), iter.Value()); err == nil {
					err = r.addClass(spec)
				}
			}
			if err != nil {
				errs = append(errs, err)
				if mode == LoadModeFailFast {
					return r, errs
				}
			}
		}
	}

	return r, errs
}

// CompileInterface parses one schema-checked interface declaration.
func CompileInterface(name string, v cue.Value) (*InterfaceSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if name == "" {
		return nil, &CompileError{Field: "interface", Message: "name is required", Pos: v.Pos()}
	}

	spec := &InterfaceSpec{Name: name}

	var err error
	spec.Extends, err = parseStrings(v, "extends")
	if err != nil {
		return nil, err
	}
	spec.Methods, err = parseMethods(v)
	if err != nil {
		return nil, err
	}
	for _, m := range spec.Methods {
		if m.Visibility != Public {
			return nil, &CompileError{
				Field:   fmt.Sprintf("interface.%s.method.%s", name, m.Name),
				Message: "interface methods must be public",
				Pos:     v.Pos(),
			}
		}
	}
	return spec, nil
}

// CompileClass parses one schema-checked class declaration.
func CompileClass(name string, v cue.Value) (*ClassSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if name == "" {
		return nil, &CompileError{Field: "class", Message: "name is required", Pos: v.Pos()}
	}

	spec := &ClassSpec{Name: name}

	var err error
	if spec.Extends, err = lookupString(v, "extends"); err != nil {
		return nil, err
	}
	if spec.Implements, err = parseStrings(v, "implements"); err != nil {
		return nil, err
	}
	if spec.Final, err = lookupBool(v, "final"); err != nil {
		return nil, err
	}
	if spec.Abstract, err = lookupBool(v, "abstract"); err != nil {
		return nil, err
	}
	if spec.Final && spec.Abstract {
		return nil, &CompileError{
			Field:   fmt.Sprintf("class.%s", name),
			Message: "a class cannot be both final and abstract",
			Pos:     v.Pos(),
		}
	}
	if spec.Properties, err = parseProperties(v); err != nil {
		return nil, err
	}
	if spec.Methods, err = parseMethods(v); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseMethods(v cue.Value) ([]Method, error) {
	var methods []Method

	methodVal := v.LookupPath(cue.ParsePath("method"))
	if !methodVal.Exists() {
		return methods, nil
	}

	iter, err := methodVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		mv := iter.Value()
		m := Method{Name: iter.Label()}

		if m.Returns, err = lookupString(mv, "returns"); err != nil {
			return nil, err
		}
		if m.Visibility, err = lookupString(mv, "visibility"); err != nil {
			return nil, err
		}
		if m.Static, err = lookupBool(mv, "static"); err != nil {
			return nil, err
		}
		if m.Final, err = lookupBool(mv, "final"); err != nil {
			return nil, err
		}
		if m.Abstract, err = lookupBool(mv, "abstract"); err != nil {
			return nil, err
		}
		if m.Params, err = parseParams(mv); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}

	return methods, nil
}

func parseParams(v cue.Value) ([]Param, error) {
	var params []Param

	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return params, nil
	}

	iter, err := paramsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		pv := iter.Value()
		var p Param
		if p.Name, err = lookupString(pv, "name"); err != nil {
			return nil, err
		}
		if p.Type, err = lookupString(pv, "type"); err != nil {
			return nil, err
		}
		if p.Variadic, err = lookupBool(pv, "variadic"); err != nil {
			return nil, err
		}
		p.Default, p.HasDefault = lookupOptionalString(pv, "default")
		params = append(params, p)
	}

	return params, nil
}

func parseProperties(v cue.Value) ([]Property, error) {
	var props []Property

	propVal := v.LookupPath(cue.ParsePath("property"))
	if !propVal.Exists() {
		return props, nil
	}

	iter, err := propVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	for iter.Next() {
		pv := iter.Value()
		p := Property{Name: iter.Label()}
		if p.Type, err = lookupString(pv, "type"); err != nil {
			return nil, err
		}
		if p.Visibility, err = lookupString(pv, "visibility"); err != nil {
			return nil, err
		}
		if p.Readonly, err = lookupBool(pv, "readonly"); err != nil {
			return nil, err
		}
		p.Default, p.HasDefault = lookupOptionalString(pv, "default")
		props = append(props, p)
	}

	return props, nil
}

func parseStrings(v cue.Value, field string) ([]string, error) {
	var out []string

	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return out, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// lookupString reads a string field; schema defaults apply.
func lookupString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func lookupBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// lookupOptionalString reads a "*null | string" field.
func lookupOptionalString(v cue.Value, field string) (string, bool) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", false
	}
	s, err := fv.String()
	if err != nil {
		return "", false
	}
	return s, true
}
