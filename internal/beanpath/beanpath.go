// Package beanpath flattens dependency type expressions into bean paths.
package beanpath

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"
	"path"
	"strings"

	"github.com/toyz/knockoff/internal/models"
)

// RuntimeImportPath is the import path of the knockoff runtime package
const RuntimeImportPath = "github.com/toyz/knockoff/pkg/knockoff"

// MaxParts is the deepest wrapper nesting that is recognized
const MaxParts = 3

// Resolver maps the package names used in a file to import paths and bean id depths
type Resolver interface {
	// Local returns the import path and depth of the package being parsed
	Local() (pkgPath, depth string)
	// Import resolves a package name used in a selector
	Import(name string) (pkgPath, depth string, ok bool)
}

// FileResolver resolves names against the imports of a single file
type FileResolver struct {
	PkgPath    string
	Depth      string
	ModulePath string
	Imports    map[string]string // package name to import path
}

// Local implements Resolver
func (r FileResolver) Local() (string, string) {
	return r.PkgPath, r.Depth
}

// Import implements Resolver
func (r FileResolver) Import(name string) (string, string, bool) {
	importPath, ok := r.Imports[name]
	if !ok {
		return "", "", false
	}
	return importPath, DepthOf(r.ModulePath, importPath), true
}

// DepthOf returns the dotted id prefix of an import path: module-relative
// inside the module, the full import path otherwise.
func DepthOf(modulePath, importPath string) string {
	rel := importPath
	if modulePath != "" {
		switch {
		case importPath == modulePath:
			rel = path.Base(modulePath)
		case strings.HasPrefix(importPath, modulePath+"/"):
			rel = strings.TrimPrefix(importPath, modulePath+"/")
		}
	}
	return strings.ReplaceAll(rel, "/", ".")
}

// PackageName guesses the package name of an import path: the last element,
// skipping a major version suffix and trimming a gopkg.in version.
func PackageName(importPath string) string {
	base := path.Base(importPath)
	if len(base) > 1 && base[0] == 'v' && isDigits(base[1:]) {
		if dir := path.Dir(importPath); dir != "." {
			base = path.Base(dir)
		}
	}
	if i := strings.Index(base, ".v"); i > 0 && isDigits(base[i+2:]) {
		base = base[:i]
	}
	return strings.ReplaceAll(base, "-", "_")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Parse walks a type expression one wrapper level at a time, outermost first,
// until it reaches the leaf naming the bean. Shapes outside the recognized set
// return models.ErrUnsupportedShape.
func Parse(expr ast.Expr, r Resolver) (models.BeanPath, error) {
	bp := models.BeanPath{Text: types.ExprString(expr)}
	w := walker{resolver: r, path: &bp}
	if err := w.walk(expr, true); err != nil {
		return models.BeanPath{}, fmt.Errorf("%w: %s", err, bp.Text)
	}
	if len(bp.Parts) > MaxParts {
		return models.BeanPath{}, fmt.Errorf("%w: %s nests deeper than %d levels", models.ErrUnsupportedShape, bp.Text, MaxParts)
	}
	return bp, nil
}

// ParseString parses a type written as Go source
func ParseString(typeExpr string, r Resolver) (models.BeanPath, error) {
	expr, err := parser.ParseExpr(typeExpr)
	if err != nil {
		return models.BeanPath{}, fmt.Errorf("%w: %s", models.ErrUnsupportedShape, typeExpr)
	}
	return Parse(expr, r)
}

var runtimeWrappers = []struct {
	name string
	kind models.BeanPathPartKind
}{
	{"Mutex", models.MutexType},
	{"Box", models.BoxType},
	{"Phantom", models.PhantomType},
}

type walker struct {
	resolver Resolver
	path     *models.BeanPath
}

func (w walker) add(kind models.BeanPathPartKind) {
	w.path.Parts = append(w.path.Parts, models.BeanPathPart{Kind: kind})
}

func (w walker) walk(expr ast.Expr, top bool) error {
	switch t := expr.(type) {
	case *ast.ParenExpr:
		return w.walk(t.X, top)

	case *ast.StarExpr:
		if arg, ok := w.runtimeGeneric(t.X, "Mutex"); ok {
			w.add(models.ArcMutexType)
			w.add(models.MutexType)
			return w.walk(arg, false)
		}
		if _, ok := t.X.(*ast.StarExpr); ok {
			return models.ErrUnsupportedShape
		}
		w.add(models.ArcType)
		return w.walk(t.X, false)

	case *ast.FuncType:
		if t.Params != nil && len(t.Params.List) > 0 {
			return models.ErrUnsupportedShape
		}
		if t.Results == nil || len(t.Results.List) != 1 || len(t.Results.List[0].Names) > 1 {
			return models.ErrUnsupportedShape
		}
		w.add(models.FnType)
		return w.walk(t.Results.List[0].Type, false)

	case *ast.Ident, *ast.SelectorExpr, *ast.IndexExpr, *ast.IndexListExpr:
		for _, wrapper := range runtimeWrappers {
			if arg, ok := w.runtimeGeneric(expr, wrapper.name); ok {
				w.add(wrapper.kind)
				return w.walk(arg, false)
			}
		}
		return w.leaf(expr, top)
	}

	return models.ErrUnsupportedShape
}

func (w walker) leaf(expr ast.Expr, top bool) error {
	ref, qualified, err := w.typeRef(expr)
	if err != nil {
		return err
	}
	if top {
		if qualified {
			w.add(models.QSelfType)
		} else {
			w.add(models.GenType)
		}
	}
	w.path.Inner = ref
	return nil
}

// typeRef resolves Name, pkg.Name and their generic instantiations
func (w walker) typeRef(expr ast.Expr) (models.TypeRef, bool, error) {
	var args []ast.Expr
	switch t := expr.(type) {
	case *ast.IndexExpr:
		expr, args = t.X, []ast.Expr{t.Index}
	case *ast.IndexListExpr:
		expr, args = t.X, t.Indices
	}

	var ref models.TypeRef
	qualified := false
	switch t := expr.(type) {
	case *ast.Ident:
		ref.Name = t.Name
		if types.Universe.Lookup(t.Name) == nil && w.resolver != nil {
			ref.PkgPath, ref.Depth = w.resolver.Local()
		}
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return models.TypeRef{}, false, models.ErrUnsupportedShape
		}
		ref.Name = t.Sel.Name
		ref.PkgName = pkg.Name
		ref.Depth = pkg.Name
		if w.resolver != nil {
			if importPath, depth, ok := w.resolver.Import(pkg.Name); ok {
				ref.PkgPath, ref.Depth = importPath, depth
			}
		}
		qualified = true
	default:
		return models.TypeRef{}, false, models.ErrUnsupportedShape
	}

	for _, arg := range args {
		pointer := false
		if star, ok := arg.(*ast.StarExpr); ok {
			arg, pointer = star.X, true
		}
		argRef, _, err := w.typeRef(arg)
		if err != nil {
			return models.TypeRef{}, false, err
		}
		argRef.Pointer = pointer
		ref.Args = append(ref.Args, argRef)
	}
	return ref, qualified, nil
}

// runtimeGeneric matches knockoff.<name>[Arg] and returns Arg
func (w walker) runtimeGeneric(expr ast.Expr, name string) (ast.Expr, bool) {
	index, ok := expr.(*ast.IndexExpr)
	if !ok {
		return nil, false
	}
	sel, ok := index.X.(*ast.SelectorExpr)
	if !ok || sel.Sel.Name != name {
		return nil, false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok || !IsRuntime(pkg.Name, w.resolver) {
		return nil, false
	}
	return index.Index, true
}

// IsRuntime reports whether a package name refers to the knockoff runtime.
// Unresolvable names fall back to the conventional "knockoff".
func IsRuntime(name string, r Resolver) bool {
	if r != nil {
		if importPath, _, ok := r.Import(name); ok {
			return importPath == RuntimeImportPath
		}
	}
	return name == "knockoff"
}
