package parser

import (
	"go/ast"
	"go/token"
	"go/types"

	"github.com/toyz/knockoff/internal/annotations"
	"github.com/toyz/knockoff/internal/beanpath"
	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
)

// parseTypes registers every type and interface declaration of the file
func (p *Parser) parseTypes(c *models.ParseContainer, file *models.SourceFile) {
	for _, decl := range file.AST.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			// a lone spec inherits the declaration doc: //knockoff::service above "type One struct"
			groups := []*ast.CommentGroup{typeSpec.Doc}
			if len(gen.Specs) == 1 {
				groups = append(groups, gen.Doc)
			}
			directives := p.directives(c, groups...)

			if iface, ok := typeSpec.Type.(*ast.InterfaceType); ok {
				p.parseInterface(c, file, typeSpec, iface, directives)
				continue
			}
			if typeSpec.Assign.IsValid() {
				// aliases name an existing type
				continue
			}
			p.parseType(c, file, typeSpec, directives)
		}
	}
}

func (p *Parser) parseType(c *models.ParseContainer, file *models.SourceFile, spec *ast.TypeSpec, directives []*annotations.ParsedAnnotation) {
	ref := models.TypeRef{Name: spec.Name.Name, PkgPath: file.PkgPath, Depth: file.PathDepth}
	id := ref.ID()

	bean, exists := c.Beans[id]
	if !exists {
		bean = &models.BeanDefinition{ID: id}
		c.Beans[id] = bean
	}
	bean.Name = spec.Name.Name
	bean.Type = ref
	bean.PathDepth = file.PathDepth
	bean.Package = file.Package
	bean.PkgPath = file.PkgPath
	if bean.Factory == nil {
		bean.File = file.Path
		bean.Location = c.Location(spec.Pos())
	}

	structType, isStruct := spec.Type.(*ast.StructType)
	decl := &models.TypeDecl{
		Spec:       spec,
		Struct:     isStruct,
		Generic:    spec.TypeParams != nil && len(spec.TypeParams.List) > 0,
		Directives: directives,
	}
	if isStruct {
		decl.Fields = p.fields(c, structType)
	}
	bean.Decl = decl

	p.applyBeanDirectives(bean, directives)

	if decl.Generic && bean.Kind != nil && bean.Factory == nil {
		p.warn(errors.New(errors.ValidationErrorCode, "generic type "+spec.Name.Name+" cannot be a bean, declare a //knockoff::bean factory function for an instantiation").
			WithLocation(errors.SourceLocation(bean.Location)))
		bean.Kind = nil
	}
}

// applyBeanDirectives sets kind, qualifiers, profiles and mutability from directives
func (p *Parser) applyBeanDirectives(bean *models.BeanDefinition, directives []*annotations.ParsedAnnotation) {
	for _, directive := range directives {
		switch directive.Type {
		case annotations.ServiceAnnotation, annotations.BeanAnnotation:
			bean.Kind = &models.BeanKind{Scope: models.SingletonScope}
			p.applyCommonOptions(bean, directive)
			if directive.GetBool("Mutable") {
				bean.Mutable = true
			}
		case annotations.PrototypeAnnotation:
			bean.Kind = &models.BeanKind{Scope: models.PrototypeScope}
			p.applyCommonOptions(bean, directive)
		case annotations.MutableBeanAnnotation:
			bean.Mutable = true
			if bean.Kind == nil {
				bean.Kind = &models.BeanKind{Scope: models.SingletonScope}
			}
			bean.Qualifiers = appendUnique(bean.Qualifiers, directive.GetString("Qualifier"))
		case annotations.QualifierAnnotation:
			if !directive.HasParameter("Param") {
				bean.Qualifiers = appendUnique(bean.Qualifiers, directive.GetString("Name"))
			}
		case annotations.ProfileAnnotation:
			bean.Profiles = appendUnique(bean.Profiles, directive.GetStringSlice("Names")...)
		}
	}

	if hasDirective(directives, annotations.IgnoreAnnotation) {
		bean.Ignored = true
		bean.Kind = nil
	}
}

func (p *Parser) applyCommonOptions(bean *models.BeanDefinition, directive *annotations.ParsedAnnotation) {
	bean.Qualifiers = appendUnique(bean.Qualifiers, directive.GetStringSlice("Qualifier")...)
	bean.Profiles = appendUnique(bean.Profiles, directive.GetStringSlice("Profile")...)
}

// fields collects struct fields with their directives, from comments and the knockoff tag
func (p *Parser) fields(c *models.ParseContainer, structType *ast.StructType) []*models.Field {
	var fields []*models.Field
	for _, field := range structType.Fields.List {
		directives := p.directives(c, field.Doc, field.Comment)
		if tagged := p.tagDirective(c, field); tagged != nil {
			directives = append(directives, tagged)
		}

		tag := ""
		if field.Tag != nil {
			tag = field.Tag.Value
		}
		typeText := types.ExprString(field.Type)

		if len(field.Names) == 0 {
			fields = append(fields, &models.Field{
				Name:       embeddedName(field.Type),
				Type:       field.Type,
				TypeText:   typeText,
				Tag:        tag,
				Embedded:   true,
				Location:   c.Location(field.Pos()),
				Directives: directives,
			})
			continue
		}
		for _, name := range field.Names {
			fields = append(fields, &models.Field{
				Name:       name.Name,
				Type:       field.Type,
				TypeText:   typeText,
				Tag:        tag,
				Location:   c.Location(name.Pos()),
				Directives: directives,
			})
		}
	}
	return fields
}

func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	}
	return ""
}

func (p *Parser) parseInterface(c *models.ParseContainer, file *models.SourceFile, spec *ast.TypeSpec, iface *ast.InterfaceType, directives []*annotations.ParsedAnnotation) {
	ref := models.TypeRef{Name: spec.Name.Name, PkgPath: file.PkgPath, Depth: file.PathDepth}
	def := &models.InterfaceDefinition{
		ID:        ref.ID(),
		Name:      spec.Name.Name,
		Type:      ref,
		PathDepth: file.PathDepth,
		Location:  c.Location(spec.Pos()),
	}

	res := resolver(c, file)
	for _, field := range iface.Methods.List {
		fn, ok := field.Type.(*ast.FuncType)
		if !ok {
			// embedded interface or type constraint
			if embedded, ok := embeddedRef(field.Type, res); ok {
				def.Embeds = append(def.Embeds, embedded)
			} else {
				def.Embeds = append(def.Embeds, models.TypeRef{Name: types.ExprString(field.Type)})
			}
			continue
		}
		for _, name := range field.Names {
			def.Methods = append(def.Methods, models.Signature{
				Name:   name.Name,
				Arity:  countFields(fn.Params),
				Result: countFields(fn.Results),
			})
		}
	}

	if hasDirective(directives, annotations.IgnoreAnnotation) || p.ignored[def.Name] || p.ignored[def.ID] {
		def.Ignored = true
		c.Ignored[def.ID] = true
	}
	c.Interfaces[def.ID] = def
}

// embeddedRef resolves an embedded interface name
func embeddedRef(expr ast.Expr, res beanpath.FileResolver) (models.TypeRef, bool) {
	switch t := expr.(type) {
	case *ast.Ident:
		return models.TypeRef{Name: t.Name, PkgPath: res.PkgPath, Depth: res.Depth}, true
	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return models.TypeRef{}, false
		}
		importPath, importDepth, ok := res.Import(pkg.Name)
		if !ok {
			return models.TypeRef{}, false
		}
		return models.TypeRef{Name: t.Sel.Name, PkgName: pkg.Name, PkgPath: importPath, Depth: importDepth}, true
	}
	return models.TypeRef{}, false
}

// countFields counts declared names, one per unnamed field
func countFields(list *ast.FieldList) int {
	if list == nil {
		return 0
	}
	n := 0
	for _, field := range list.List {
		if len(field.Names) == 0 {
			n++
			continue
		}
		n += len(field.Names)
	}
	return n
}
