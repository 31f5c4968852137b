package models

import (
	"go/ast"
	"go/token"
)

// ProceedMarker is the statement in an advice body that hands control to the target method
type ProceedMarker struct {
	Stmt    ast.Stmt
	Results []string // names bound by an assignment or var declaration, nil for a bare call
}

// MethodAdviceAspect is a function annotated aspect
type MethodAdviceAspect struct {
	Name     string
	Pointcut string
	Order    int
	Before   []ast.Stmt
	After    []ast.Stmt
	Proceed  *ProceedMarker
	File     string
	Offset   int // byte offset of the declaration, breaks order ties
	Imports  map[string]string
	Location SourceLocation
}

// HasProceed reports whether the advice body contains a proceed marker
func (a *MethodAdviceAspect) HasProceed() bool {
	return a.Proceed != nil
}

// Less orders aspects by Order, then by declaration position
func (a *MethodAdviceAspect) Less(other *MethodAdviceAspect) bool {
	if a.Order != other.Order {
		return a.Order < other.Order
	}
	if a.File != other.File {
		return a.File < other.File
	}
	return a.Offset < other.Offset
}

// WeaveState is the weaving progress of a method
type WeaveState int

const (
	Unwoven WeaveState = iota
	HasOneMatch
	HasChain
)

// String returns the string representation of the weave state
func (s WeaveState) String() string {
	switch s {
	case HasOneMatch:
		return "HasOneMatch"
	case HasChain:
		return "HasChain"
	default:
		return "Unwoven"
	}
}

// MethodAdviceChain is one further advice wrapped around the target
type MethodAdviceChain struct {
	Advice      *MethodAdviceAspect
	Before      string // rendered before-block
	ProceedName string // proceed method whose body this link is
	Next        string // proceed method this link calls
	After       string // rendered after-block
}

// AspectInfo binds the matched advice to one target method
type AspectInfo struct {
	BeanID       string
	Method       *Method
	Receiver     string // receiver name used by the woven code
	Params       []Param
	Results      []Param
	Mutable      bool // pointer receiver
	Advice       *MethodAdviceAspect
	ProceedName  string // proceed method called by the rewritten body
	OriginalBody string
	WovenBody    string
	Terminal     string // proceed method holding the original body
	Chain        []MethodAdviceChain
	State        WeaveState
	BodyRange    [2]token.Pos
}

// ProceedNames lists every proceed method of the weaving, outermost first
func (a *AspectInfo) ProceedNames() []string {
	names := []string{a.ProceedName}
	for _, link := range a.Chain {
		names = append(names, link.Next)
	}
	return names
}
