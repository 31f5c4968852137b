package aspect

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/toyz/knockoff/internal/annotations"
	"github.com/toyz/knockoff/internal/beanpath"
	"github.com/toyz/knockoff/internal/models"
)

// proceedFunc is the marker call advice uses to hand control to the target
const proceedFunc = "Proceed"

// ParseAdvice turns a function annotated //knockoff::aspect into method advice.
// The body is split at the first top-level proceed marker: statements before it
// run before the target, statements after it run once the target returned.
func ParseAdvice(c *models.ParseContainer, file *models.SourceFile, fn *ast.FuncDecl, directives []*annotations.ParsedAnnotation) (*models.MethodAdviceAspect, error) {
	var directive *annotations.ParsedAnnotation
	order := 0
	for _, d := range directives {
		switch d.Type {
		case annotations.AspectAnnotation:
			if directive == nil {
				directive = d
			}
		case annotations.OrderedAnnotation:
			order = d.GetInt("Order")
		}
	}
	if directive == nil {
		return nil, fmt.Errorf("%s has no aspect directive", fn.Name.Name)
	}
	if directive.HasParameter("Order") {
		order = directive.GetInt("Order")
	}

	switch {
	case fn.Recv != nil:
		return nil, fmt.Errorf("advice %s must be a function, not a method", fn.Name.Name)
	case fn.Body == nil:
		return nil, fmt.Errorf("advice %s has no body", fn.Name.Name)
	case fn.Type.Params != nil && len(fn.Type.Params.List) > 0:
		return nil, fmt.Errorf("advice %s must not take parameters", fn.Name.Name)
	case fn.Type.Results != nil && len(fn.Type.Results.List) > 0:
		return nil, fmt.Errorf("advice %s must not return values", fn.Name.Name)
	}

	res := beanpath.FileResolver{
		PkgPath:    file.PkgPath,
		Depth:      file.PathDepth,
		ModulePath: c.ModulePath,
		Imports:    file.Imports,
	}

	advice := &models.MethodAdviceAspect{
		Name:     fn.Name.Name,
		Pointcut: directive.GetString("Pointcut"),
		Order:    order,
		File:     file.Path,
		Offset:   c.Fset.Position(fn.Pos()).Offset,
		Location: c.Location(fn.Pos()),
	}

	body := fn.Body.List
	split := -1
	for i, stmt := range body {
		if marker, ok := proceedMarker(stmt, res); ok {
			advice.Proceed = marker
			split = i
			break
		}
	}
	if split < 0 {
		advice.Before = body
	} else {
		advice.Before = body[:split]
		advice.After = body[split+1:]
	}

	advice.Imports = usedImports(file, append(append([]ast.Stmt(nil), advice.Before...), advice.After...))
	return advice, nil
}

// proceedMarker recognizes knockoff.Proceed() as a statement, as the value of
// an assignment or as the value of a var declaration.
func proceedMarker(stmt ast.Stmt, res beanpath.Resolver) (*models.ProceedMarker, bool) {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if isProceedCall(s.X, res) {
			return &models.ProceedMarker{Stmt: s}, true
		}
	case *ast.AssignStmt:
		if len(s.Rhs) == 1 && isProceedCall(s.Rhs[0], res) {
			return &models.ProceedMarker{Stmt: s, Results: identNames(s.Lhs...)}, true
		}
	case *ast.DeclStmt:
		gen, ok := s.Decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.VAR || len(gen.Specs) != 1 {
			return nil, false
		}
		spec, ok := gen.Specs[0].(*ast.ValueSpec)
		if !ok || len(spec.Values) != 1 || !isProceedCall(spec.Values[0], res) {
			return nil, false
		}
		names := make([]ast.Expr, len(spec.Names))
		for i, name := range spec.Names {
			names[i] = name
		}
		return &models.ProceedMarker{Stmt: s, Results: identNames(names...)}, true
	}
	return nil, false
}

func isProceedCall(expr ast.Expr, res beanpath.Resolver) bool {
	call, ok := expr.(*ast.CallExpr)
	if !ok || len(call.Args) != 0 {
		return false
	}
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		return fun.Name == proceedFunc
	case *ast.SelectorExpr:
		pkg, ok := fun.X.(*ast.Ident)
		return ok && fun.Sel.Name == proceedFunc && beanpath.IsRuntime(pkg.Name, res)
	}
	return false
}

func identNames(exprs ...ast.Expr) []string {
	names := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		if ident, ok := expr.(*ast.Ident); ok {
			names = append(names, ident.Name)
		} else {
			names = append(names, "_")
		}
	}
	return names
}

// usedImports returns the file imports referenced by package selectors in the statements
func usedImports(file *models.SourceFile, stmts []ast.Stmt) map[string]string {
	used := make(map[string]string)
	for _, stmt := range stmts {
		ast.Inspect(stmt, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			if ident, ok := sel.X.(*ast.Ident); ok && ident.Obj == nil {
				if importPath, ok := file.Imports[ident.Name]; ok {
					used[ident.Name] = importPath
				}
			}
			return true
		})
	}
	return used
}
