package generator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/knockoff/internal/beanpath"
	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/templates"
	"github.com/toyz/knockoff/internal/utils"
)

// registrations keeps the provider registrations of one profile in order,
// dropping a second registration of the same key and name
type registrations struct {
	seen map[string]bool
	list []templates.RegistrationData
}

func newRegistrations() *registrations {
	return &registrations{seen: make(map[string]bool)}
}

func (r *registrations) add(provide, key, name, provider string) {
	id := key + "|" + name
	if r.seen[id] {
		return
	}
	r.seen[id] = true
	r.list = append(r.list, templates.RegistrationData{
		Provide:  provide,
		Key:      key,
		Name:     name,
		Provider: provider,
	})
}

// containerBuilder renders the profile constructors of the factory package
type containerBuilder struct {
	g       *Generator
	self    string
	imports *templates.ImportManager
	runtime string
	refs    map[string]providerRef
	names   map[string]string // import path -> declared package name
}

// use imports a scanned package under its declared name when it is free
func (b *containerBuilder) use(pkgPath string) string {
	if name, ok := b.names[pkgPath]; ok && pkgPath != b.self && !b.imports.HasImport(pkgPath) {
		if err := b.imports.AddPackageImport(name, pkgPath); err == nil {
			return name
		}
	}
	return b.imports.Use(pkgPath)
}

func (b *containerBuilder) qualify(ref models.TypeRef) string {
	return b.use(ref.PkgPath)
}

// typeExpr renders a bean type from the factory package
func (b *containerBuilder) typeExpr(ref models.TypeRef) string {
	return ref.Expr(b.qualify)
}

// key is the type a bean is registered under: *T for concrete beans, the
// interface for beans produced by a function returning one
func (b *containerBuilder) key(bean *models.BeanDefinition) string {
	if bean.IsAbstract() {
		return b.typeExpr(bean.Type)
	}
	return "*" + b.typeExpr(bean.Type)
}

func (b *containerBuilder) provider(bean *models.BeanDefinition) string {
	ref := b.refs[bean.ID]
	if pkg := b.use(ref.pkgPath); pkg != "" {
		return pkg + "." + ref.ident
	}
	return ref.ident
}

func (b *containerBuilder) generic(fn string, args ...string) string {
	return fmt.Sprintf("%s.%s[%s](%s)", b.runtime, fn, strings.Join(args, ", "), strconv.Quote(""))
}

func provideFor(kind *models.BeanKind) string {
	if kind.IsPrototype() {
		return templates.ProvidePrototype
	}
	return templates.ProvideSingleton
}

// profile renders the registrations of one profile: concrete beans in
// dependency order, interfaces, lock-guarded beans, then the wrapper types
// the dependency edges ask for
func (b *containerBuilder) profile(tree *models.ProfileTree, name string) (templates.ProfileData, error) {
	entries := tree.Profiles[name]

	var beans []*models.BeanDefinition
	provided := make(map[string]bool)
	concrete := make(map[string]bool)
	for _, entry := range entries {
		beans = append(beans, entry.Bean)
		provided[entry.Bean.ID] = true
		concrete[entry.Bean.ID] = !entry.Bean.IsAbstract()
		if entry.IsAbstract() {
			provided[entry.AbstractID()] = true
		}
	}

	order, cycle := newBeanGraph(beans).sort()
	if cycle != nil {
		return templates.ProfileData{}, errors.CycleError(cycle).WithContext("profile", name)
	}

	regs := newRegistrations()
	for _, bean := range order {
		key := b.key(bean)
		provide := provideFor(bean.Kind)
		regs.add(provide, key, "", b.provider(bean))
		for _, qualifier := range bean.Qualifiers {
			regs.add(provide, key, qualifier, b.generic("Alias", key, key))
		}
	}

	abstract := tree.Abstract(name)
	sort.SliceStable(abstract, func(i, j int) bool {
		if abstract[i].AbstractID() != abstract[j].AbstractID() {
			return abstract[i].AbstractID() < abstract[j].AbstractID()
		}
		return abstract[i].Bean.ID < abstract[j].Bean.ID
	})
	for _, entry := range abstract {
		if entry.Bean.IsAbstract() {
			continue
		}
		iface := b.typeExpr(entry.DepType.AbstractType)
		provider := b.generic("Alias", iface, b.key(entry.Bean))
		provide := provideFor(entry.Bean.Kind)
		regs.add(provide, iface, "", provider)
		for _, qualifier := range union(entry.Bean.Qualifiers, entry.DepType.Qualifiers) {
			regs.add(provide, iface, qualifier, provider)
		}
	}

	for _, bean := range order {
		if !bean.Mutable {
			continue
		}
		inner := b.typeExpr(bean.Type)
		regs.add(templates.ProvideSingleton, "*"+b.runtime+".Mutex["+inner+"]", "", b.generic("MutexOf", inner))
	}

	for _, bean := range order {
		for i := range bean.Deps {
			b.derive(regs, bean, &bean.Deps[i], provided, concrete)
		}
	}

	marker := templates.DefaultTemplateUtils.ProfileMarker(name)
	return templates.ProfileData{
		Name:          name,
		Marker:        marker,
		Constructor:   "New" + marker + "Factory",
		Register:      "register" + marker,
		Default:       name == models.DefaultProfile,
		Registrations: regs.list,
	}, nil
}

// derive registers the Mutex and Box wrappers an edge is declared with, as
// long as the bean inside them is provided by the profile
func (b *containerBuilder) derive(regs *registrations, bean *models.BeanDefinition, dep *models.DependencyMetadata, provided, concrete map[string]bool) {
	parts := dep.Path.Parts
	kinds := dep.Path.Kinds()
	if len(kinds) > 0 && kinds[0] == models.MutexType {
		b.g.warn(errors.New(errors.ValidationErrorCode,
			fmt.Sprintf("%s.%s holds a knockoff.Mutex by value and receives its own copy", bean.ID, dep.Autowired.Identifier)).
			WithLocation(errors.SourceLocation(dep.Location)).
			WithSuggestion("Declare the dependency as *knockoff.Mutex[T] to share one instance"))
		return
	}
	if len(kinds) > 1 && kinds[0] == models.ArcType && kinds[1] == models.BoxType {
		b.g.warn(errors.New(errors.ValidationErrorCode,
			fmt.Sprintf("%s.%s points to a knockoff.Box, which is never provided", bean.ID, dep.Autowired.Identifier)).
			WithLocation(errors.SourceLocation(dep.Location)).
			WithSuggestion("Declare the dependency as knockoff.Box[T]"))
		return
	}
	if !provided[dep.TargetID()] {
		return
	}

	inner := b.typeExpr(dep.Path.Inner)
	for i, part := range parts {
		rest := parts[i+1:]
		switch part.Kind {
		case models.ArcMutexType:
			if len(rest) == 0 {
				return
			}
			rest = rest[1:] // the Mutex level the pointer refers to
			if !derivable(rest, concrete[dep.TargetID()]) {
				return
			}
			t := b.render(rest, inner)
			regs.add(templates.ProvideSingleton, "*"+b.runtime+".Mutex["+t+"]", "", b.generic("MutexOf", t))
		case models.BoxType:
			if !derivable(rest, concrete[dep.TargetID()]) {
				return
			}
			t := b.render(rest, inner)
			provide := templates.ProvideSingleton
			if dep.BeanType.IsPrototype() {
				provide = templates.ProvidePrototype
			}
			regs.add(provide, b.runtime+".Box["+t+"]", "", b.generic("BoxOf", t))
		}
	}
}

// derivable reports whether the type made of parts resolves from the
// registered keys: the bean itself, *T for concrete beans, and the wrappers
// derive registers
func derivable(parts []models.BeanPathPart, concreteTarget bool) bool {
	for i := 0; i < len(parts); i++ {
		switch parts[i].Kind {
		case models.BoxType, models.GenType, models.QSelfType:
		case models.ArcMutexType:
			i++ // skip the Mutex the pointer refers to
		case models.ArcType:
			if !concreteTarget || i != len(parts)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// render rebuilds the Go type of parts around inner, innermost first
func (b *containerBuilder) render(parts []models.BeanPathPart, inner string) string {
	s := inner
	for i := len(parts) - 1; i >= 0; i-- {
		switch parts[i].Kind {
		case models.ArcType, models.ArcMutexType:
			s = "*" + s
		case models.MutexType:
			s = b.runtime + ".Mutex[" + s + "]"
		case models.BoxType:
			s = b.runtime + ".Box[" + s + "]"
		case models.FnType:
			s = "func() " + s
		case models.PhantomType:
			s = b.runtime + ".Phantom[" + s + "]"
		}
	}
	return s
}

// generateContainer renders knockoff_factory.go with one constructor per profile
func (g *Generator) generateContainer(c *models.ParseContainer, tree *models.ProfileTree, refs map[string]providerRef) (models.GeneratedFile, error) {
	pkgPath := g.factoryPackage
	if c.ModulePath != "" {
		pkgPath = c.ModulePath + "/" + g.factoryPackage
	}
	pkgName := beanpath.PackageName(pkgPath)

	b := &containerBuilder{
		g:       g,
		self:    pkgPath,
		imports: templates.NewImportManager(pkgPath),
		refs:    refs,
		names:   make(map[string]string),
	}
	for _, file := range c.SortedFiles() {
		b.names[file.PkgPath] = file.Package
	}
	b.imports.AddImport("errors")
	b.runtime = b.imports.Use(beanpath.RuntimeImportPath)

	data := templates.ContainerData{Runtime: b.runtime}
	for _, name := range tree.Names() {
		profile, err := b.profile(tree, name)
		if err != nil {
			return models.GeneratedFile{}, err
		}
		if profile.Default {
			data.DefaultConstructor = profile.Constructor
		}
		data.Profiles = append(data.Profiles, profile)
	}

	body, err := templates.GenerateContainer(data)
	if err != nil {
		return models.GeneratedFile{}, err
	}
	header, err := templates.GenerateFileHeader(pkgName, b.imports)
	if err != nil {
		return models.GeneratedFile{}, err
	}

	filePath := g.factoryPackage + "/" + ContainerFileName
	content, err := utils.FormatGeneratedSource(filePath, []byte(header+body))
	if err != nil {
		return models.GeneratedFile{}, errors.WrapGenerateError(filePath, err)
	}
	return models.GeneratedFile{
		Path:    filePath,
		Kind:    models.ContainerFile,
		Package: pkgName,
		Content: content,
	}, nil
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
