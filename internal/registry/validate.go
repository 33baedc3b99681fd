package registry

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrUnknownParent     = "E201" // extends an undeclared class
	ErrUnknownInterface  = "E202" // implements or extends an undeclared interface
	ErrKindMismatch      = "E203" // class extends an interface, or implements a class
	ErrInheritanceCycle  = "E204" // class or interface inherits from itself
	ErrMissingMethod     = "E205" // concrete class lacks an interface method
	ErrExtendsFinal      = "E206" // class extends a final class
	ErrOverridesFinal    = "E207" // method overrides a final method
	ErrDuplicateMember   = "E208" // method or property declared twice
	ErrInvalidVisibility = "E209" // unknown visibility keyword
)

// ValidationError represents a declaration consistency error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the registry for consistency and returns every error
// found. It does not fail fast.
func (r *Registry) Validate() []ValidationError {
	var errs []ValidationError

	for _, iface := range r.Interfaces() {
		errs = append(errs, r.validateInterface(iface)...)
	}
	for _, class := range r.Classes() {
		errs = append(errs, r.validateClass(class)...)
	}

	for _, cycle := range r.inheritanceCycles() {
		errs = append(errs, ValidationError{
			Field:   cycle[0],
			Message: "inheritance cycle: " + strings.Join(append(cycle, cycle[0]), " -> "),
			Code:    ErrInheritanceCycle,
		})
	}

	return errs
}

func (r *Registry) validateInterface(spec *InterfaceSpec) []ValidationError {
	var errs []ValidationError
	field := "interface." + spec.Name

	for _, parent := range spec.Extends {
		switch r.KindOf(parent) {
		case KindInterface:
		case KindClass:
			errs = append(errs, ValidationError{
				Field:   field + ".extends",
				Message: fmt.Sprintf("%s cannot extend class %s", spec.Name, parent),
				Code:    ErrKindMismatch,
			})
		default:
			errs = append(errs, ValidationError{
				Field:   field + ".extends",
				Message: fmt.Sprintf("interface %q not found", parent),
				Code:    ErrUnknownInterface,
			})
		}
	}

	errs = append(errs, validateMembers(field, spec.Methods, nil)...)
	return errs
}

func (r *Registry) validateClass(spec *ClassSpec) []ValidationError {
	var errs []ValidationError
	field := "class." + spec.Name

	if spec.Extends != "" {
		switch r.KindOf(spec.Extends) {
		case KindClass:
			if parent, _ := r.Class(spec.Extends); parent.Final {
				errs = append(errs, ValidationError{
					Field:   field + ".extends",
					Message: fmt.Sprintf("%s cannot extend final class %s", spec.Name, parent.Name),
					Code:    ErrExtendsFinal,
				})
			}
		case KindInterface:
			errs = append(errs, ValidationError{
				Field:   field + ".extends",
				Message: fmt.Sprintf("%s cannot extend interface %s", spec.Name, spec.Extends),
				Code:    ErrKindMismatch,
			})
		default:
			errs = append(errs, ValidationError{
				Field:   field + ".extends",
				Message: fmt.Sprintf("class %q not found", spec.Extends),
				Code:    ErrUnknownParent,
			})
		}
	}

	for _, iface := range spec.Implements {
		switch r.KindOf(iface) {
		case KindInterface:
		case KindClass:
			errs = append(errs, ValidationError{
				Field:   field + ".implements",
				Message: fmt.Sprintf("%s cannot implement class %s", spec.Name, iface),
				Code:    ErrKindMismatch,
			})
		default:
			errs = append(errs, ValidationError{
				Field:   field + ".implements",
				Message: fmt.Sprintf("interface %q not found", iface),
				Code:    ErrUnknownInterface,
			})
		}
	}

	errs = append(errs, validateMembers(field, spec.Methods, spec.Properties)...)

	ancestors := r.Ancestors(spec.Name)
	for _, m := range spec.Methods {
		for _, anc := range ancestors {
			if inherited, ok := anc.Method(m.Name); ok && inherited.Final && inherited.Visibility != Private {
				errs = append(errs, ValidationError{
					Field:   field + ".method." + m.Name,
					Message: fmt.Sprintf("cannot override final method %s::%s()", anc.Name, inherited.Name),
					Code:    ErrOverridesFinal,
				})
				break
			}
		}
	}

	if !spec.Abstract && !r.hasCycle(spec.Name) {
		for _, ifaceName := range r.InterfacesOf(spec.Name) {
			iface, _ := r.Interface(ifaceName)
			for _, required := range iface.Methods {
				m, _, ok := r.FindMethod(spec.Name, required.Name)
				if !ok || m.Abstract {
					errs = append(errs, ValidationError{
						Field:   field,
						Message: fmt.Sprintf("%s must implement %s::%s()", spec.Name, iface.Name, required.Name),
						Code:    ErrMissingMethod,
					})
				}
			}
		}
	}

	return errs
}

func validateMembers(field string, methods []Method, props []Property) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool)
	for _, m := range methods {
		key := fold(m.Name)
		if seen[key] {
			errs = append(errs, ValidationError{
				Field:   field + ".method." + m.Name,
				Message: fmt.Sprintf("duplicate method name: %q", m.Name),
				Code:    ErrDuplicateMember,
			})
		}
		seen[key] = true
		if !validVisibility(m.Visibility) {
			errs = append(errs, ValidationError{
				Field:   field + ".method." + m.Name,
				Message: fmt.Sprintf("invalid visibility %q", m.Visibility),
				Code:    ErrInvalidVisibility,
			})
		}
	}

	// Property names are case-sensitive.
	seenProps := make(map[string]bool)
	for _, p := range props {
		if seenProps[p.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".property." + p.Name,
				Message: fmt.Sprintf("duplicate property name: %q", p.Name),
				Code:    ErrDuplicateMember,
			})
		}
		seenProps[p.Name] = true
		if !validVisibility(p.Visibility) {
			errs = append(errs, ValidationError{
				Field:   field + ".property." + p.Name,
				Message: fmt.Sprintf("invalid visibility %q", p.Visibility),
				Code:    ErrInvalidVisibility,
			})
		}
	}

	return errs
}

func validVisibility(v string) bool {
	switch v {
	case Public, Protected, Private:
		return true
	}
	return false
}
