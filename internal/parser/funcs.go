package parser

import (
	"fmt"
	"go/ast"
	"go/types"

	"github.com/toyz/knockoff/internal/annotations"
	"github.com/toyz/knockoff/internal/aspect"
	"github.com/toyz/knockoff/internal/beanpath"
	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
)

// parseFuncs registers methods, factory functions and advice of the file
func (p *Parser) parseFuncs(c *models.ParseContainer, file *models.SourceFile) error {
	for _, decl := range file.AST.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		directives := p.directives(c, fn.Doc)

		if fn.Recv != nil && len(fn.Recv.List) > 0 {
			p.parseMethod(c, file, fn, directives)
			continue
		}

		switch {
		case hasDirective(directives, annotations.AspectAnnotation):
			advice, err := aspect.ParseAdvice(c, file, fn, directives)
			if err != nil {
				p.warn(errors.WrapParseError("aspect "+fn.Name.Name, err).
					WithLocation(errors.SourceLocation(c.Location(fn.Pos()))))
				continue
			}
			addAdvice(c, advice)
		case hasDirective(directives, annotations.BeanAnnotation):
			if err := p.parseFactory(c, file, fn, directives, models.SingletonScope); err != nil {
				return err
			}
		case hasDirective(directives, annotations.PrototypeAnnotation):
			if err := p.parseFactory(c, file, fn, directives, models.PrototypeScope); err != nil {
				return err
			}
		}
	}
	return nil
}

// addAdvice records advice, replacing an earlier parse of the same function
func addAdvice(c *models.ParseContainer, advice *models.MethodAdviceAspect) {
	for i, existing := range c.Aspects {
		if existing.File == advice.File && existing.Name == advice.Name {
			c.Aspects[i] = advice
			return
		}
	}
	c.Aspects = append(c.Aspects, advice)
}

func (p *Parser) parseMethod(c *models.ParseContainer, file *models.SourceFile, fn *ast.FuncDecl, directives []*annotations.ParsedAnnotation) {
	recv := fn.Recv.List[0]
	base, pointer := receiverBase(recv.Type)
	if base == "" {
		return
	}
	id := models.TypeRef{Name: base, PkgPath: file.PkgPath, Depth: file.PathDepth}.ID()
	bean, ok := c.Beans[id]
	if !ok {
		return
	}

	receiver := ""
	if len(recv.Names) > 0 && recv.Names[0].Name != "_" {
		receiver = recv.Names[0].Name
	}

	method := &models.Method{
		Name:     fn.Name.Name,
		Receiver: receiver,
		RecvType: types.ExprString(recv.Type),
		Pointer:  pointer,
		Params:   params(fn.Type.Params),
		Results:  params(fn.Type.Results),
		Decl:     fn,
		File:     file.Path,
		Ignored:  hasDirective(directives, annotations.IgnoreAnnotation),
		Location: c.Location(fn.Pos()),
	}

	for i, existing := range bean.Methods {
		if existing.Name == method.Name {
			bean.Methods[i] = method
			return
		}
	}
	bean.Methods = append(bean.Methods, method)
}

// receiverBase returns the receiver type name and whether the receiver is a pointer
func receiverBase(expr ast.Expr) (string, bool) {
	pointer := false
	if star, ok := expr.(*ast.StarExpr); ok {
		expr, pointer = star.X, true
	}
	switch t := expr.(type) {
	case *ast.IndexExpr:
		expr = t.X
	case *ast.IndexListExpr:
		expr = t.X
	}
	if ident, ok := expr.(*ast.Ident); ok {
		return ident.Name, pointer
	}
	return "", pointer
}

// params flattens a field list, one Param per declared name
func params(list *ast.FieldList) []models.Param {
	if list == nil {
		return nil
	}
	var out []models.Param
	for _, field := range list.List {
		typeExpr := field.Type
		variadic := false
		if ellipsis, ok := field.Type.(*ast.Ellipsis); ok {
			typeExpr, variadic = ellipsis.Elt, true
		}
		typeText := types.ExprString(typeExpr)

		if len(field.Names) == 0 {
			out = append(out, models.Param{Type: typeExpr, TypeText: typeText, Variadic: variadic})
			continue
		}
		for _, name := range field.Names {
			out = append(out, models.Param{Name: name.Name, Type: typeExpr, TypeText: typeText, Variadic: variadic})
		}
	}
	return out
}

// parseFactory registers a bean or prototype function under the id of the
// type it returns. Supported results are T, *T, an interface, each
// optionally followed by error.
func (p *Parser) parseFactory(c *models.ParseContainer, file *models.SourceFile, fn *ast.FuncDecl, directives []*annotations.ParsedAnnotation, scope models.Scope) error {
	loc := errors.SourceLocation(c.Location(fn.Pos()))
	skip := func(reason string) error {
		p.warn(errors.New(errors.ValidationErrorCode, fmt.Sprintf("factory function %s skipped: %s", fn.Name.Name, reason)).
			WithLocation(loc).
			WithSuggestion("Factory functions return T, *T or an interface, optionally followed by error"))
		return nil
	}

	if fn.Type.TypeParams != nil && len(fn.Type.TypeParams.List) > 0 {
		return skip("generic functions need an instantiation")
	}

	results := params(fn.Type.Results)
	switch {
	case len(results) == 0 || len(results) > 2:
		return skip("unsupported result count")
	case len(results) == 2 && results[1].TypeText != "error":
		return skip("second result must be error")
	}

	res := resolver(c, file)
	path, err := beanpath.Parse(results[0].Type, res)
	if err != nil {
		return errors.WrapShapeError(results[0].TypeText, loc, err)
	}

	kind := models.ReturnValue
	switch kinds := path.Kinds(); {
	case len(kinds) == 1 && kinds[0] == models.ArcType:
		kind = models.ReturnPointer
	case path.IsValue():
		if _, ok := c.Interfaces[path.Inner.ID()]; ok {
			kind = models.ReturnInterface
		}
	default:
		return skip("result " + results[0].TypeText + " is wrapped")
	}

	factory := &models.FactoryFunc{
		Name:            fn.Name.Name,
		Decl:            fn,
		Return:          path,
		ReturnKind:      kind,
		ReturnText:      results[0].TypeText,
		ReturnsError:    len(results) == 2,
		ParamQualifiers: make(map[string]string),
		Imports:         usedImports(file, fn.Type),
	}
	for i, param := range params(fn.Type.Params) {
		if param.Variadic {
			return skip("variadic parameters cannot be injected")
		}
		if param.Name == "" || param.Name == "_" {
			param.Name = fmt.Sprintf("%s%d", paramPrefix, i)
		}
		factory.Params = append(factory.Params, param)
	}
	for _, directive := range directives {
		if directive.Type == annotations.QualifierAnnotation && directive.HasParameter("Param") {
			factory.ParamQualifiers[directive.GetString("Param")] = directive.GetString("Name")
		}
	}

	id := path.Inner.ID()
	bean, exists := c.Beans[id]
	if !exists {
		bean = &models.BeanDefinition{ID: id, Name: path.Inner.Name}
		c.Beans[id] = bean
	} else if bean.Factory != nil && bean.Factory.Name != fn.Name.Name {
		p.warn(errors.New(errors.RegistrationErrorCode,
			fmt.Sprintf("bean %s is returned by both %s and %s, using %s", id, bean.Factory.Name, fn.Name.Name, fn.Name.Name)).
			WithLocation(loc))
	}
	if bean.Name == "" {
		bean.Name = path.Inner.Name
	}
	bean.Type = path.Inner
	bean.PathDepth = file.PathDepth
	bean.Package = file.Package
	bean.PkgPath = file.PkgPath
	bean.File = file.Path
	bean.Location = c.Location(fn.Pos())
	bean.Factory = factory

	p.applyBeanDirectives(bean, directives)
	if bean.Kind != nil {
		bean.Kind.Scope = scope
		if kind == models.ReturnInterface {
			bean.Kind.Abstraction = models.Abstract
		}
	}
	return nil
}

// usedImports returns the file imports referenced by selectors under node
func usedImports(file *models.SourceFile, node ast.Node) map[string]string {
	used := make(map[string]string)
	ast.Inspect(node, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if ident, ok := sel.X.(*ast.Ident); ok {
			if importPath, ok := file.Imports[ident.Name]; ok {
				used[ident.Name] = importPath
			}
		}
		return true
	})
	return used
}
