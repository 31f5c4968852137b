package parser

import (
	"go/ast"

	"github.com/toyz/knockoff/internal/annotations"
	"github.com/toyz/knockoff/internal/beanpath"
	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
)

// AddDependencies rebuilds the dependency edges of a constructible bean. Factory beans take
// an edge per parameter; type beans take one per autowired or mutable_bean
// field. Edges whose target is unknown are kept with a nil BeanType.
func (p *Parser) AddDependencies(bean *models.BeanDefinition, c *models.ParseContainer) error {
	bean.Deps = nil
	if bean.Ignored || !bean.HasKind() {
		return nil
	}

	file, ok := c.Files[bean.File]
	if !ok {
		return nil
	}
	res := resolver(c, file)

	if bean.Factory != nil {
		for _, param := range bean.Factory.Params {
			dep := models.DependencyMetadata{
				Kind: models.ArgDep,
				Autowired: models.AutowiredType{
					Identifier:   param.Name,
					DeclaredType: param.TypeText,
					Qualifier:    bean.Factory.ParamQualifiers[param.Name],
				},
				Qualifier: bean.Factory.ParamQualifiers[param.Name],
				Location:  c.Location(param.Type.Pos()),
			}
			if err := p.addEdge(c, bean, dep, param.Type, res); err != nil {
				return err
			}
		}
		return nil
	}

	if bean.Decl == nil || !bean.Decl.Struct {
		return nil
	}
	for _, field := range bean.Decl.Fields {
		directive := field.Directive(annotations.AutowiredAnnotation)
		if directive == nil {
			directive = field.Directive(annotations.MutableBeanAnnotation)
		}
		if directive == nil {
			continue
		}

		dep := models.DependencyMetadata{
			Kind: models.FieldDep,
			Autowired: models.AutowiredType{
				Identifier:   field.Name,
				DeclaredType: field.TypeText,
				Qualifier:    directive.GetString("Qualifier"),
				Mutable:      directive.Type == annotations.MutableBeanAnnotation || directive.GetBool("Mutable"),
			},
			Qualifier: directive.GetString("Qualifier"),
			Profile:   directive.GetString("Profile"),
			Location:  field.Location,
		}
		if scope := directive.GetString("Scope"); scope != "" {
			parsed, err := models.ParseScope(scope)
			if err == nil {
				dep.BeanType = &models.BeanKind{Scope: parsed}
			}
		}
		if err := p.addEdge(c, bean, dep, field.Type, res); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) addEdge(c *models.ParseContainer, bean *models.BeanDefinition, dep models.DependencyMetadata, typeExpr ast.Expr, res beanpath.FileResolver) error {
	path, err := beanpath.Parse(typeExpr, res)
	if err != nil {
		return errors.WrapShapeError(dep.Autowired.DeclaredType, errors.SourceLocation(dep.Location), err).
			WithContext("bean", bean.ID)
	}
	if path.IsPhantom() {
		p.logger.Debug("phantom field is not injected", "bean", bean.ID, "field", dep.Autowired.Identifier)
		return nil
	}

	dep.Path = path
	dep.Autowired.Generics = path.Inner.Args
	if path.IsMutable() {
		dep.Autowired.Mutable = true
	}

	targetID := path.Inner.ID()
	_, isInterface := c.Interfaces[targetID]
	target := lookupTarget(c, dep.Qualifier, targetID)

	if dep.BeanType == nil && target != nil && target.Kind != nil {
		kind := *target.Kind
		dep.BeanType = &kind
	}
	dep.IsAbstract = isInterface || (target != nil && target.IsAbstract())

	dep.Binding = models.Unresolved{SymbolicRef: targetID}
	if target != nil && target.HasKind() && !dep.IsAbstract {
		dep.Resolve(target.ID)
	}
	if target == nil && !isInterface {
		p.logger.Info("dependency target not found",
			"bean", bean.ID,
			"dependency", dep.Autowired.Identifier,
			"type", path.Text)
	}

	bean.AddDependency(dep)
	return nil
}

// lookupTarget finds the bean an edge points to: type beans by qualifier then
// id, then factory functions by qualifier then return id.
func lookupTarget(c *models.ParseContainer, qualifier, id string) *models.BeanDefinition {
	byQualifier := func(factory bool) *models.BeanDefinition {
		if qualifier == "" {
			return nil
		}
		for _, candidate := range c.Qualified(qualifier) {
			if candidate.IsFactory() == factory && candidate.HasKind() && matchesTarget(candidate, id) {
				return candidate
			}
		}
		return nil
	}

	if bean := byQualifier(false); bean != nil {
		return bean
	}
	if bean, ok := c.Beans[id]; ok && !bean.IsFactory() && bean.HasKind() {
		return bean
	}
	if bean := byQualifier(true); bean != nil {
		return bean
	}
	if bean, ok := c.Beans[id]; ok && bean.IsFactory() {
		return bean
	}
	return nil
}

// matchesTarget reports whether a qualified candidate can serve the requested type
func matchesTarget(candidate *models.BeanDefinition, id string) bool {
	if candidate.ID == id {
		return true
	}
	for _, descriptor := range candidate.TraitsImpl {
		if descriptor.AbstractType.ID() == id {
			return true
		}
	}
	return false
}
