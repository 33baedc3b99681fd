package registry

// Visibility values.
const (
	Public    = "public"
	Protected = "protected"
	Private   = "private"
)

// Kind distinguishes interfaces from classes.
type Kind int

const (
	KindUnknown Kind = iota
	KindInterface
	KindClass
)

func (k Kind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// Param is a declared method parameter.
type Param struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Default    string `json:"default,omitempty"` // source literal, valid when HasDefault
	HasDefault bool   `json:"has_default,omitempty"`
	Variadic   bool   `json:"variadic,omitempty"`
}

// Method is a declared method signature.
type Method struct {
	Name       string  `json:"name"`
	Params     []Param `json:"params,omitempty"`
	Returns    string  `json:"returns,omitempty"`
	Visibility string  `json:"visibility"`
	Static     bool    `json:"static,omitempty"`
	Final      bool    `json:"final,omitempty"`
	Abstract   bool    `json:"abstract,omitempty"`
}

// Property is a declared property.
type Property struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Visibility string `json:"visibility"`
	Default    string `json:"default,omitempty"`
	HasDefault bool   `json:"has_default,omitempty"`
	Readonly   bool   `json:"readonly,omitempty"`
}

// InterfaceSpec is a compiled interface declaration.
type InterfaceSpec struct {
	Name    string   `json:"name"`
	Extends []string `json:"extends,omitempty"`
	Methods []Method `json:"methods,omitempty"`
}

// ClassSpec is a compiled class declaration.
type ClassSpec struct {
	Name       string     `json:"name"`
	Extends    string     `json:"extends,omitempty"`
	Implements []string   `json:"implements,omitempty"`
	Final      bool       `json:"final,omitempty"`
	Abstract   bool       `json:"abstract,omitempty"`
	Properties []Property `json:"properties,omitempty"`
	Methods    []Method   `json:"methods,omitempty"`
}

// Method returns the named method declared directly on the interface.
func (s *InterfaceSpec) Method(name string) (Method, bool) {
	return findMethod(s.Methods, name)
}

// Method returns the named method declared directly on the class.
func (s *ClassSpec) Method(name string) (Method, bool) {
	return findMethod(s.Methods, name)
}

// Method names are case-insensitive.
func findMethod(methods []Method, name string) (Method, bool) {
	key := fold(name)
	for _, m := range methods {
		if fold(m.Name) == key {
			return m, true
		}
	}
	return Method{}, false
}
