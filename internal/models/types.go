package models

import "fmt"

// Scope is the lifecycle of a bean
type Scope int

const (
	SingletonScope Scope = iota
	PrototypeScope
)

// String returns the string representation of the scope
func (s Scope) String() string {
	switch s {
	case SingletonScope:
		return "singleton"
	case PrototypeScope:
		return "prototype"
	default:
		return "unknown"
	}
}

// ParseScope converts a -Scope option value to a Scope
func ParseScope(s string) (Scope, error) {
	switch s {
	case "singleton", "Singleton":
		return SingletonScope, nil
	case "prototype", "Prototype":
		return PrototypeScope, nil
	}
	return SingletonScope, fmt.Errorf("unknown scope: %s", s)
}

// Abstraction tells whether a bean is provided as itself or behind an interface
type Abstraction int

const (
	Concrete Abstraction = iota
	Abstract
)

// String returns the string representation of the abstraction
func (a Abstraction) String() string {
	if a == Abstract {
		return "abstract"
	}
	return "concrete"
}

// BeanKind is assigned when an annotation or factory function makes a bean constructible
type BeanKind struct {
	Scope       Scope
	Abstraction Abstraction
}

// IsPrototype reports whether the bean is rebuilt on every request
func (k *BeanKind) IsPrototype() bool {
	return k != nil && k.Scope == PrototypeScope
}

// ErrorType represents different types of generator errors
type ErrorType int

const (
	ErrorTypeAnnotationSyntax ErrorType = iota
	ErrorTypeValidation
	ErrorTypeGeneration
	ErrorTypeFileSystem
	ErrorTypeDependency
	ErrorTypeShape
	ErrorTypeWeave
	ErrorTypeConfiguration
)

// String returns the heading the CLI prints for the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeAnnotationSyntax:
		return "Directive Syntax Error"
	case ErrorTypeValidation:
		return "Validation Error"
	case ErrorTypeGeneration:
		return "Code Generation Error"
	case ErrorTypeFileSystem:
		return "File System Error"
	case ErrorTypeDependency:
		return "Dependency Error"
	case ErrorTypeShape:
		return "Unsupported Type Error"
	case ErrorTypeWeave:
		return "Weaving Error"
	case ErrorTypeConfiguration:
		return "Configuration Error"
	default:
		return "Unknown Error"
	}
}

// SourceLocation is a position in a parsed source file
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// String formats the location as file:line:column
func (l SourceLocation) String() string {
	if l.File == "" {
		return "<unknown>"
	}
	if l.Line == 0 {
		return l.File
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}
