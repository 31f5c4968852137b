package annotations

import "fmt"

// AnnotationType is the kind of a directive, the word after knockoff::
type AnnotationType int

const (
	ServiceAnnotation AnnotationType = iota
	BeanAnnotation
	PrototypeAnnotation
	AutowiredAnnotation
	MutableBeanAnnotation
	QualifierAnnotation
	ProfileAnnotation
	AspectAnnotation
	OrderedAnnotation
	IgnoreAnnotation

	// web-layer markers: recognized so they parse, never processed
	ControllerAnnotation
	GetMappingAnnotation
	RequestMappingAnnotation
	RequestBodyAnnotation
)

var annotationNames = map[AnnotationType]string{
	ServiceAnnotation:        "service",
	BeanAnnotation:           "bean",
	PrototypeAnnotation:      "prototype",
	AutowiredAnnotation:      "autowired",
	MutableBeanAnnotation:    "mutable_bean",
	QualifierAnnotation:      "qualifier",
	ProfileAnnotation:        "profile",
	AspectAnnotation:         "aspect",
	OrderedAnnotation:        "ordered",
	IgnoreAnnotation:         "ignore",
	ControllerAnnotation:     "controller",
	GetMappingAnnotation:     "get_mapping",
	RequestMappingAnnotation: "request_mapping",
	RequestBodyAnnotation:    "request_body",
}

var annotationKinds = func() map[string]AnnotationType {
	kinds := make(map[string]AnnotationType, len(annotationNames)+1)
	for kind, name := range annotationNames {
		kinds[name] = kind
	}
	kinds["knockoff_ignore"] = IgnoreAnnotation
	return kinds
}()

func (a AnnotationType) String() string {
	if name, ok := annotationNames[a]; ok {
		return name
	}
	return "unknown"
}

// IsWeb reports whether a is a web-layer marker. Those parse but are never processed.
func (a AnnotationType) IsWeb() bool {
	return a >= ControllerAnnotation
}

// ParseAnnotationType looks up the kind written after knockoff::
func ParseAnnotationType(s string) (AnnotationType, error) {
	if kind, ok := annotationKinds[s]; ok {
		return kind, nil
	}
	return 0, fmt.Errorf("unknown annotation type: %s", s)
}

// SourceLocation is the position of a directive, 1-based
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// ParsedAnnotation is one directive with its parameters converted to the
// types its schema declares
type ParsedAnnotation struct {
	Type       AnnotationType
	Parameters map[string]any
	Location   SourceLocation
	Raw        string
}

func param[T any](p *ParsedAnnotation, name string, def []T) T {
	if v, ok := p.Parameters[name].(T); ok {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	var zero T
	return zero
}

// GetString returns the string parameter name, or the optional default
func (p *ParsedAnnotation) GetString(name string, def ...string) string {
	return param(p, name, def)
}

// GetBool returns the bool parameter name, or the optional default
func (p *ParsedAnnotation) GetBool(name string, def ...bool) bool {
	return param(p, name, def)
}

// GetInt returns the int parameter name, or the optional default
func (p *ParsedAnnotation) GetInt(name string, def ...int) int {
	return param(p, name, def)
}

// GetStringSlice returns the list parameter name, or the optional default
func (p *ParsedAnnotation) GetStringSlice(name string, def ...[]string) []string {
	return param(p, name, def)
}

// HasParameter reports whether name was written, or filled from a default
func (p *ParsedAnnotation) HasParameter(name string) bool {
	_, ok := p.Parameters[name]
	return ok
}

// ParameterType is the Go type a parameter value is converted to
type ParameterType int

const (
	StringType ParameterType = iota
	BoolType
	IntType
	StringSliceType
)

func (p ParameterType) String() string {
	switch p {
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case IntType:
		return "int"
	case StringSliceType:
		return "[]string"
	default:
		return "unknown"
	}
}

// ParameterSpec declares one -Key of a directive
type ParameterSpec struct {
	Type         ParameterType
	Required     bool
	DefaultValue any
	Description  string
	Validator    func(any) error
}

// CustomValidator checks a parsed directive as a whole
type CustomValidator func(*ParsedAnnotation) error

// AnnotationSchema declares the parameters a directive kind accepts. Positional
// names the parameters bare values bind to, in order.
type AnnotationSchema struct {
	Type        AnnotationType
	Description string
	Positional  []string
	Parameters  map[string]ParameterSpec
	Validators  []CustomValidator
	Examples    []string
}
