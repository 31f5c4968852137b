package models

// DependencyKind tells where an edge was declared
type DependencyKind int

const (
	FieldDep DependencyKind = iota
	ArgDep
)

// String returns the string representation of the dependency kind
func (k DependencyKind) String() string {
	if k == ArgDep {
		return "arg"
	}
	return "field"
}

// AutowiredType is what the declaration asked for
type AutowiredType struct {
	Qualifier    string
	Identifier   string // field or parameter name
	DeclaredType string // type as written
	Mutable      bool
	Generics     []TypeRef
}

// Binding is the resolution state of an edge: Unresolved or Resolved
type Binding interface {
	isBinding()
	String() string
}

// Unresolved is an edge whose target has not been chosen yet
type Unresolved struct {
	SymbolicRef string
}

// Resolved is an edge bound to a concrete bean
type Resolved struct {
	ConcreteID string
}

func (Unresolved) isBinding() {}
func (Resolved) isBinding()   {}

func (u Unresolved) String() string { return "unresolved(" + u.SymbolicRef + ")" }
func (r Resolved) String() string   { return "resolved(" + r.ConcreteID + ")" }

// DependencyMetadata is a dependency edge from a bean to the bean it needs
type DependencyMetadata struct {
	Kind       DependencyKind
	Autowired  AutowiredType
	BeanType   *BeanKind // kind of the target, nil when the target is unknown
	Path       BeanPath
	IsAbstract bool
	Profile    string
	Qualifier  string
	Binding    Binding
	Location   SourceLocation
}

// TargetID returns the id of the leaf type the edge points to
func (d *DependencyMetadata) TargetID() string {
	return d.Path.Inner.ID()
}

// IsResolved reports whether the edge is bound to a concrete bean
func (d *DependencyMetadata) IsResolved() bool {
	_, ok := d.Binding.(Resolved)
	return ok
}

// ConcreteID returns the bound bean id, or "" when unresolved
func (d *DependencyMetadata) ConcreteID() string {
	if resolved, ok := d.Binding.(Resolved); ok {
		return resolved.ConcreteID
	}
	return ""
}

// Resolve binds the edge to a concrete bean
func (d *DependencyMetadata) Resolve(id string) {
	d.Binding = Resolved{ConcreteID: id}
}
