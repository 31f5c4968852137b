package generator

import (
	"fmt"
	"log/slog"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/utils"
)

const (
	// GeneratedFileName is the per-package file holding bean factories and proceed interfaces
	GeneratedFileName = utils.GeneratedFileName

	// ContainerFileName is the file holding the profile constructors
	ContainerFileName = utils.ContainerFileName

	// DefaultFactoryPackage is the package the profile constructors are generated into
	DefaultFactoryPackage = "knockoff_factory"
)

// Generator renders the Go source of a parsed, woven container
type Generator struct {
	logger         *slog.Logger
	factoryPackage string
	warnings       []errors.KnockoffError
	warned         map[string]bool
}

// Option configures a Generator
type Option func(*Generator)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithFactoryPackage sets the directory and package the profile constructors are written to
func WithFactoryPackage(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.factoryPackage = name
		}
	}
}

// NewGenerator creates a new code generator instance
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		logger:         slog.New(slog.DiscardHandler),
		factoryPackage: DefaultFactoryPackage,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FactoryPackage returns the package the profile constructors are generated into
func (g *Generator) FactoryPackage() string {
	return g.factoryPackage
}

// Warnings returns the problems found during the last Generate
func (g *Generator) Warnings() []errors.KnockoffError {
	return g.warnings
}

func (g *Generator) warn(err errors.KnockoffError) {
	if g.warned[err.Error()] {
		return
	}
	g.warned[err.Error()] = true
	g.logger.Warn("generation warning", "error", err.Error())
	g.warnings = append(g.warnings, err)
}

// Generate renders every output file: the scanned sources, with woven methods
// rewritten, a knockoff_gen.go per bean package and the profile constructors.
// A dependency cycle among the beans of a profile fails the run.
func (g *Generator) Generate(c *models.ParseContainer, tree *models.ProfileTree) (*models.GenerationResult, error) {
	if c == nil || tree == nil {
		return nil, fmt.Errorf("container and profile tree cannot be nil")
	}
	g.warnings = nil
	g.warned = make(map[string]bool)

	result := &models.GenerationResult{Profiles: tree.Names()}

	packages, refs, err := g.generatePackages(c, tree)
	if err != nil {
		return nil, err
	}

	container, err := g.generateContainer(c, tree, refs)
	if err != nil {
		return nil, err
	}

	for _, file := range c.SortedFiles() {
		if !file.Woven() {
			result.Add(models.GeneratedFile{
				Path:    file.Rel,
				Kind:    models.CopiedFile,
				Package: file.Package,
				Content: file.Src,
			})
			continue
		}
		content, err := splice(file)
		if err != nil {
			return nil, errors.WrapGenerateError(file.Rel, err).
				WithSuggestion("Check that the advice bodies only use packages imported by their own file")
		}
		result.Add(models.GeneratedFile{
			Path:    file.Rel,
			Kind:    models.WovenFile,
			Package: file.Package,
			Content: content,
		})
	}

	for _, pf := range packages {
		content, err := pf.render()
		if err != nil {
			return nil, errors.WrapGenerateError(pf.path, err)
		}
		result.Add(models.GeneratedFile{
			Path:    pf.path,
			Kind:    models.FactoryFile,
			Package: pf.name,
			Content: content,
		})
	}
	result.Add(container)

	result.Providers = providers(tree, refs)
	g.collectStats(tree, result)

	g.logger.Info("generation complete",
		"profiles", result.Stats.Profiles,
		"beans", result.Stats.Beans,
		"files", result.Stats.Files,
		"woven_methods", result.Stats.WovenMethods,
		"warnings", len(g.warnings))
	return result, nil
}

// providers lists the generated factory of every bean with the profiles it is registered in
func providers(tree *models.ProfileTree, refs map[string]providerRef) []models.ProviderInfo {
	profiles := make(map[string][]string)
	for _, name := range tree.Names() {
		seen := make(map[string]bool)
		for _, entry := range tree.Profiles[name] {
			if seen[entry.Bean.ID] {
				continue
			}
			seen[entry.Bean.ID] = true
			profiles[entry.Bean.ID] = append(profiles[entry.Bean.ID], name)
		}
	}

	var out []models.ProviderInfo
	for _, bean := range tree.Beans() {
		ref := refs[bean.ID]
		out = append(out, models.ProviderInfo{
			BeanID:   bean.ID,
			Ident:    ref.ident,
			Package:  ref.pkgName,
			PkgPath:  ref.pkgPath,
			Scope:    bean.Kind.Scope.String(),
			Profiles: profiles[bean.ID],
		})
	}
	return out
}

func (g *Generator) collectStats(tree *models.ProfileTree, result *models.GenerationResult) {
	stats := &result.Stats
	stats.Profiles = len(tree.Names())

	abstract := make(map[string]bool)
	for _, name := range tree.Names() {
		for _, entry := range tree.Abstract(name) {
			abstract[entry.Key()] = true
		}
	}
	stats.AbstractBeans = len(abstract)

	for _, bean := range tree.Beans() {
		stats.Beans++
		for i := range bean.Deps {
			stats.Edges++
			if !bean.Deps[i].IsResolved() {
				stats.Unresolved++
			}
		}
		for _, info := range bean.AspectInfo {
			stats.WovenMethods++
			stats.ProceedMethods += len(info.ProceedNames())
		}
	}
	stats.Files = len(result.Files)
}
