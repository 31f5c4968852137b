package models

import (
	"go/ast"
	"sort"
	"strings"

	"github.com/toyz/knockoff/internal/annotations"
)

// BeanDefinition is one entry of the build map, keyed by ID
type BeanDefinition struct {
	ID        string  // <pathDepth>.<TypeName>[<typeArgs>]
	Name      string  // declared type name, or the factory function name
	Type      TypeRef // the bean's own type
	PathDepth string
	Package   string // package name
	PkgPath   string // import path
	File      string // source file of the declaration
	Location  SourceLocation

	Decl    *TypeDecl    // set for annotated type declarations
	Factory *FactoryFunc // set for bean/prototype functions, takes precedence over Decl

	Methods    []*Method              // method set declared for the type
	TraitsImpl []DependencyDescriptor // interfaces the method set covers, newest first
	Deps       []DependencyMetadata

	Kind       *BeanKind // nil until made constructible
	Mutable    bool
	Profiles   []string
	Qualifiers []string
	Ignored    bool

	AspectInfo []*AspectInfo
}

// HasKind reports whether the bean can be constructed
func (b *BeanDefinition) HasKind() bool {
	return b.Kind != nil
}

// IsFactory reports whether the bean is produced by a factory function
func (b *BeanDefinition) IsFactory() bool {
	return b.Factory != nil
}

// IsAbstract reports whether the bean is provided as an interface value
func (b *BeanDefinition) IsAbstract() bool {
	return b.Kind != nil && b.Kind.Abstraction == Abstract
}

// FactoryName returns the identifier of the generated factory function
func (b *BeanDefinition) FactoryName() string {
	if b.Factory != nil {
		return "KnockoffFactory" + b.Factory.Name
	}
	return "KnockoffFactory" + b.Name
}

// ProfileNames returns the bean profiles, DefaultProfile when none are declared
func (b *BeanDefinition) ProfileNames() []string {
	if len(b.Profiles) == 0 {
		return []string{DefaultProfile}
	}
	return b.Profiles
}

// HasQualifier reports whether the bean or one of its descriptors carries q
func (b *BeanDefinition) HasQualifier(q string) bool {
	if q == "" {
		return false
	}
	for _, qualifier := range b.Qualifiers {
		if qualifier == q {
			return true
		}
	}
	for _, descriptor := range b.TraitsImpl {
		for _, qualifier := range descriptor.Qualifiers {
			if qualifier == q {
				return true
			}
		}
	}
	return false
}

// Method looks up a method of the bean's method set by name
func (b *BeanDefinition) Method(name string) *Method {
	for _, method := range b.Methods {
		if method.Name == name {
			return method
		}
	}
	return nil
}

// AddDependency appends an edge to the bean
func (b *BeanDefinition) AddDependency(dep DependencyMetadata) {
	b.Deps = append(b.Deps, dep)
}

// AddDescriptor records an implemented interface. A descriptor with the same
// interface and method names replaces the older one and moves to the front.
func (b *BeanDefinition) AddDescriptor(descriptor DependencyDescriptor) {
	key := descriptor.Key()
	kept := make([]DependencyDescriptor, 0, len(b.TraitsImpl)+1)
	kept = append(kept, descriptor)
	for _, existing := range b.TraitsImpl {
		if existing.Key() != key {
			kept = append(kept, existing)
		}
	}
	b.TraitsImpl = kept
}

// TypeDecl is an annotated struct or named type declaration
type TypeDecl struct {
	Spec       *ast.TypeSpec
	Struct     bool
	Generic    bool
	Fields     []*Field
	Directives []*annotations.ParsedAnnotation
}

// Field is a struct field with its injection directives
type Field struct {
	Name       string
	Type       ast.Expr
	TypeText   string
	Tag        string
	Embedded   bool
	Location   SourceLocation
	Directives []*annotations.ParsedAnnotation
}

// Directive returns the first directive of the given type
func (f *Field) Directive(annotationType annotations.AnnotationType) *annotations.ParsedAnnotation {
	for _, directive := range f.Directives {
		if directive.Type == annotationType {
			return directive
		}
	}
	return nil
}

// ReturnKind is the shape of a factory function's bean result
type ReturnKind int

const (
	ReturnValue ReturnKind = iota
	ReturnPointer
	ReturnInterface
)

// FactoryFunc is a function annotated bean or prototype
type FactoryFunc struct {
	Name            string
	Decl            *ast.FuncDecl
	Params          []Param
	Return          BeanPath
	ReturnKind      ReturnKind
	ReturnText      string // result type as written
	ReturnsError    bool
	ParamQualifiers map[string]string // parameter name to qualifier
	Imports         map[string]string // package alias to import path, for selectors used in the signature
}

// Param is a function parameter or result
type Param struct {
	Name     string
	Type     ast.Expr
	TypeText string
	Variadic bool
}

// Method is a function declared with a receiver
type Method struct {
	Name     string
	Receiver string // receiver name, empty when unnamed
	RecvType string // receiver type as written, e.g. *One or Repo[T]
	Pointer  bool
	Params   []Param
	Results  []Param
	Decl     *ast.FuncDecl
	File     string
	Ignored  bool
	Location SourceLocation
}

// Arity returns the number of declared parameters
func (m *Method) Arity() int {
	return len(m.Params)
}

// Signature is a method name and arity used for interface containment
type Signature struct {
	Name   string
	Arity  int
	Result int
}

// InterfaceDefinition is an interface type declared in a scanned package
type InterfaceDefinition struct {
	ID        string
	Name      string
	Type      TypeRef
	PathDepth string
	Methods   []Signature
	Embeds    []TypeRef
	Ignored   bool
	Location  SourceLocation
}

// DependencyDescriptor records that a bean's method set implements an interface
type DependencyDescriptor struct {
	AbstractType TypeRef
	Methods      []*Method
	Qualifiers   []string
	Profiles     []string
	PathDepth    string
}

// Key identifies the descriptor by interface and covered method names
func (d DependencyDescriptor) Key() string {
	names := make([]string, len(d.Methods))
	for i, method := range d.Methods {
		names[i] = method.Name
	}
	sort.Strings(names)
	return d.AbstractType.ID() + "(" + strings.Join(names, ",") + ")"
}

// ProfileNames returns the descriptor profiles, DefaultProfile when none are declared
func (d DependencyDescriptor) ProfileNames() []string {
	if len(d.Profiles) == 0 {
		return []string{DefaultProfile}
	}
	return d.Profiles
}
