package models

import (
	"go/ast"
	"go/token"
	"sort"
)

// SourceFile is a parsed Go file of a scanned package
type SourceFile struct {
	Path       string // absolute path
	Rel        string // path relative to the module root
	Package    string
	PkgPath    string
	PathDepth  string
	AST        *ast.File
	Src        []byte
	Imports    map[string]string // alias to import path
	Edits      []Edit
	Appendix   []string // declarations appended after weaving
	AddImports map[string]string
}

// Woven reports whether weaving changed the file
func (f *SourceFile) Woven() bool {
	return len(f.Edits) > 0 || len(f.Appendix) > 0
}

// Edit replaces the byte range [Start, End) of a source file
type Edit struct {
	Start int
	End   int
	Text  string
}

// ParseContainer is the arena every pass reads and writes
type ParseContainer struct {
	Fset       *token.FileSet
	ModulePath string
	ModuleRoot string

	Beans      map[string]*BeanDefinition
	Interfaces map[string]*InterfaceDefinition
	Aspects    []*MethodAdviceAspect
	Files      map[string]*SourceFile

	// interface ids excluded from implementation matching
	Ignored map[string]bool
}

// NewParseContainer creates an empty arena
func NewParseContainer(modulePath, moduleRoot string) *ParseContainer {
	return &ParseContainer{
		Fset:       token.NewFileSet(),
		ModulePath: modulePath,
		ModuleRoot: moduleRoot,
		Beans:      make(map[string]*BeanDefinition),
		Interfaces: make(map[string]*InterfaceDefinition),
		Files:      make(map[string]*SourceFile),
		Ignored:    make(map[string]bool),
	}
}

// Bean returns the bean with the given id
func (c *ParseContainer) Bean(id string) (*BeanDefinition, bool) {
	bean, ok := c.Beans[id]
	return bean, ok
}

// Interface returns the interface with the given id
func (c *ParseContainer) Interface(id string) (*InterfaceDefinition, bool) {
	iface, ok := c.Interfaces[id]
	return iface, ok
}

// SortedBeans returns every bean in id order
func (c *ParseContainer) SortedBeans() []*BeanDefinition {
	beans := make([]*BeanDefinition, 0, len(c.Beans))
	for _, bean := range c.Beans {
		beans = append(beans, bean)
	}
	sort.Slice(beans, func(i, j int) bool { return beans[i].ID < beans[j].ID })
	return beans
}

// SortedInterfaces returns every interface in id order
func (c *ParseContainer) SortedInterfaces() []*InterfaceDefinition {
	ifaces := make([]*InterfaceDefinition, 0, len(c.Interfaces))
	for _, iface := range c.Interfaces {
		ifaces = append(ifaces, iface)
	}
	sort.Slice(ifaces, func(i, j int) bool { return ifaces[i].ID < ifaces[j].ID })
	return ifaces
}

// SortedFiles returns every parsed file in path order
func (c *ParseContainer) SortedFiles() []*SourceFile {
	files := make([]*SourceFile, 0, len(c.Files))
	for _, file := range c.Files {
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// Implementers returns the constructible beans implementing the interface id, in id order
func (c *ParseContainer) Implementers(interfaceID string) []*BeanDefinition {
	var out []*BeanDefinition
	for _, bean := range c.SortedBeans() {
		if !bean.HasKind() {
			continue
		}
		for _, descriptor := range bean.TraitsImpl {
			if descriptor.AbstractType.ID() == interfaceID {
				out = append(out, bean)
				break
			}
		}
	}
	return out
}

// Qualified returns the beans carrying the qualifier, in id order
func (c *ParseContainer) Qualified(qualifier string) []*BeanDefinition {
	var out []*BeanDefinition
	for _, bean := range c.SortedBeans() {
		if bean.HasQualifier(qualifier) {
			out = append(out, bean)
		}
	}
	return out
}

// Constructible counts the beans that have a kind
func (c *ParseContainer) Constructible() int {
	count := 0
	for _, bean := range c.Beans {
		if bean.HasKind() {
			count++
		}
	}
	return count
}

// Location converts a position into a SourceLocation
func (c *ParseContainer) Location(pos token.Pos) SourceLocation {
	if c.Fset == nil || !pos.IsValid() {
		return SourceLocation{}
	}
	p := c.Fset.Position(pos)
	return SourceLocation{File: p.Filename, Line: p.Line, Column: p.Column}
}
