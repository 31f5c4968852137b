package models

import (
	"errors"
	"strings"
)

// ErrUnsupportedShape is returned for type expressions outside the recognized wrapper shapes
var ErrUnsupportedShape = errors.New("unsupported dependency type shape")

// BeanPathPartKind is one wrapper level of a dependency type
type BeanPathPartKind int

const (
	ArcType      BeanPathPartKind = iota // *T
	MutexType                            // knockoff.Mutex[T]
	ArcMutexType                         // *knockoff.Mutex[T]
	BoxType                              // knockoff.Box[T]
	PhantomType                          // knockoff.Phantom[T]
	FnType                               // func() T
	GenType                              // Name or Name[Args]
	QSelfType                            // pkg.Name
	BindingType                          // associated type binding, never produced for Go sources
)

var partKindNames = map[BeanPathPartKind]string{
	ArcType:      "Arc",
	MutexType:    "Mutex",
	ArcMutexType: "ArcMutex",
	BoxType:      "Box",
	PhantomType:  "Phantom",
	FnType:       "Fn",
	GenType:      "Gen",
	QSelfType:    "QSelf",
	BindingType:  "Binding",
}

// String returns the string representation of the part kind
func (k BeanPathPartKind) String() string {
	if name, ok := partKindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsLeaf reports whether the part names a type instead of wrapping one
func (k BeanPathPartKind) IsLeaf() bool {
	return k == GenType || k == QSelfType || k == BindingType
}

// BeanPathPart is a single level of a BeanPath
type BeanPathPart struct {
	Kind BeanPathPartKind
}

// TypeRef names a type the way the generator needs to render and identify it
type TypeRef struct {
	Name    string    // type name without package qualifier
	PkgName string    // qualifier as written in source, empty for package-local types
	PkgPath string    // resolved import path
	Depth   string    // dotted package path used in bean ids
	Pointer bool      // only set on type arguments written as *T
	Args    []TypeRef // generic type arguments
}

// IsZero reports whether the reference is empty
func (t TypeRef) IsZero() bool {
	return t.Name == ""
}

// ID returns the bean id of the referenced type, e.g. services.Repo[services.One]
func (t TypeRef) ID() string {
	var b strings.Builder
	if t.Pointer {
		b.WriteByte('*')
	}
	if t.Depth != "" {
		b.WriteString(t.Depth)
		b.WriteByte('.')
	}
	b.WriteString(t.Name)
	t.writeArgs(&b, func(arg TypeRef) string { return arg.ID() })
	return b.String()
}

// Expr renders the type as Go source. qualify returns the package prefix
// to use for a reference, or "" when the type is local.
func (t TypeRef) Expr(qualify func(TypeRef) string) string {
	var b strings.Builder
	if t.Pointer {
		b.WriteByte('*')
	}
	if pkg := qualify(t); pkg != "" {
		b.WriteString(pkg)
		b.WriteByte('.')
	}
	b.WriteString(t.Name)
	t.writeArgs(&b, func(arg TypeRef) string { return arg.Expr(qualify) })
	return b.String()
}

// Source renders the type the way it is written in its own package
func (t TypeRef) Source() string {
	return t.Expr(func(ref TypeRef) string { return ref.PkgName })
}

func (t TypeRef) writeArgs(b *strings.Builder, render func(TypeRef) string) {
	if len(t.Args) == 0 {
		return
	}
	b.WriteByte('[')
	for i, arg := range t.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(render(arg))
	}
	b.WriteByte(']')
}

// BeanPath is the flattened wrapper structure of a dependency type,
// outermost first, ending at the leaf that names the bean.
type BeanPath struct {
	Parts []BeanPathPart
	Inner TypeRef
	Text  string // type expression as written
}

// InnerType returns the leaf type a dependency resolves to
func (p BeanPath) InnerType() (TypeRef, error) {
	if len(p.Parts) == 0 || p.Inner.IsZero() {
		return TypeRef{}, ErrUnsupportedShape
	}
	return p.Inner, nil
}

// Kinds lists the part kinds in order
func (p BeanPath) Kinds() []BeanPathPartKind {
	kinds := make([]BeanPathPartKind, len(p.Parts))
	for i, part := range p.Parts {
		kinds[i] = part.Kind
	}
	return kinds
}

// Has reports whether any part is of the given kind
func (p BeanPath) Has(kind BeanPathPartKind) bool {
	for _, part := range p.Parts {
		if part.Kind == kind {
			return true
		}
	}
	return false
}

// IsMutable reports whether the dependency asks for a lock-guarded instance
func (p BeanPath) IsMutable() bool {
	return p.Has(MutexType) || p.Has(ArcMutexType)
}

// IsProvider reports whether the dependency is a func() T provider
func (p BeanPath) IsProvider() bool {
	return len(p.Parts) > 0 && p.Parts[0].Kind == FnType
}

// IsPhantom reports whether the dependency is a type marker that is never injected
func (p BeanPath) IsPhantom() bool {
	return len(p.Parts) > 0 && p.Parts[0].Kind == PhantomType
}

// IsValue reports whether the dependency is the bare leaf type
func (p BeanPath) IsValue() bool {
	return len(p.Parts) == 1 && p.Parts[0].Kind.IsLeaf()
}
