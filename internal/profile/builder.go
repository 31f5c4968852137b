package profile

import (
	"fmt"
	"log/slog"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
)

// Modifier rewrites beans once the profile tree is complete
type Modifier interface {
	Name() string
	Modify(c *models.ParseContainer, tree *models.ProfileTree) error
}

// Builder partitions the constructible beans of a container by profile
type Builder struct {
	logger   *slog.Logger
	warnings []errors.KnockoffError
}

// NewBuilder creates a builder; a nil logger discards output
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Builder{logger: logger}
}

// DefaultModifiers returns the modifiers every generation run applies, in order
func DefaultModifiers(logger *slog.Logger) []Modifier {
	return []Modifier{
		NewConcreteTypeModifier(logger),
		NewMutableBeanModifier(logger),
	}
}

// Build builds a tree with a discarding logger
func Build(c *models.ParseContainer, modifiers ...Modifier) (*models.ProfileTree, error) {
	return NewBuilder(nil).Build(c, modifiers...)
}

// Warnings returns the conflicts resolved while building
func (b *Builder) Warnings() []errors.KnockoffError {
	return b.warnings
}

// Build creates one bucket per profile and fills it with a concrete entry per
// bean and an abstract entry per implemented interface. Named profiles then
// inherit the DefaultProfile entries they do not override, and the modifiers
// run over the finished tree.
func (b *Builder) Build(c *models.ParseContainer, modifiers ...Modifier) (*models.ProfileTree, error) {
	tree := models.NewProfileTree()
	beans := constructible(c)

	for _, bean := range beans {
		for _, profile := range bean.ProfileNames() {
			tree.Ensure(profile)
		}
		for _, descriptor := range bean.TraitsImpl {
			for _, profile := range descriptor.ProfileNames() {
				tree.Ensure(profile)
			}
		}
	}

	claims := make(map[string]map[string]string) // profile -> interface|qualifier -> bean id
	for _, bean := range beans {
		for _, profile := range bean.ProfileNames() {
			entry := models.ConcreteEntry(bean)
			if bean.IsAbstract() && !b.claim(claims, profile, bean.ID, bean) {
				continue
			}
			tree.Add(profile, entry)
		}
		for i := range bean.TraitsImpl {
			descriptor := &bean.TraitsImpl[i]
			if c.Ignored[descriptor.AbstractType.ID()] {
				continue
			}
			for _, profile := range descriptor.ProfileNames() {
				if !b.claim(claims, profile, descriptor.AbstractType.ID(), bean) {
					continue
				}
				tree.Add(profile, models.AbstractEntry(bean, descriptor))
			}
		}
	}

	inherit(tree)

	for _, modifier := range modifiers {
		if err := modifier.Modify(c, tree); err != nil {
			return nil, errors.Wrap(errors.DependencyErrorCode, "profile modifier "+modifier.Name()+" failed", err)
		}
	}

	for _, name := range tree.Names() {
		b.logger.Debug("profile built",
			"profile", name,
			"concrete", len(tree.Concrete(name)),
			"abstract", len(tree.Abstract(name)))
	}
	return tree, nil
}

// claim reserves an interface, per qualifier, for a bean in a profile. A
// second unqualified or equally qualified implementation is reported and
// dropped, keeping the first in id order.
func (b *Builder) claim(claims map[string]map[string]string, profile, interfaceID string, bean *models.BeanDefinition) bool {
	if claims[profile] == nil {
		claims[profile] = make(map[string]string)
	}

	keys := []string{interfaceID + "|"}
	if len(bean.Qualifiers) > 0 {
		keys = keys[:0]
		for _, qualifier := range bean.Qualifiers {
			keys = append(keys, interfaceID+"|"+qualifier)
		}
	}

	for _, key := range keys {
		if owner, ok := claims[profile][key]; ok && owner != bean.ID {
			b.warnings = append(b.warnings, errors.New(errors.RegistrationErrorCode,
				fmt.Sprintf("%s is implemented by both %s and %s in profile %s, using %s", interfaceID, owner, bean.ID, profile, owner)).
				WithLocation(errors.SourceLocation(bean.Location)).
				WithSuggestion("Add a //knockoff::qualifier or a //knockoff::profile to tell the implementations apart"))
			b.logger.Warn("duplicate implementation",
				"interface", interfaceID,
				"kept", owner,
				"dropped", bean.ID,
				"profile", profile)
			return false
		}
	}
	for _, key := range keys {
		claims[profile][key] = bean.ID
	}
	return true
}

// inherit copies DefaultProfile entries into every named profile that does not
// provide the same bean or the same interface itself
func inherit(tree *models.ProfileTree) {
	defaults := tree.Profiles[models.DefaultProfile]
	for _, name := range tree.Names() {
		if name == models.DefaultProfile {
			continue
		}

		ownBeans := make(map[string]bool)
		ownInterfaces := make(map[string]bool)
		for _, entry := range tree.Profiles[name] {
			ownBeans[entry.Bean.ID] = true
			if id := providedInterface(entry); id != "" {
				ownInterfaces[id] = true
			}
		}

		for _, entry := range defaults {
			if id := providedInterface(entry); id != "" {
				if ownInterfaces[id] {
					continue
				}
			} else if ownBeans[entry.Bean.ID] {
				continue
			}
			tree.Add(name, entry)
		}
	}
}

// providedInterface returns the interface id an entry is registered under, if any
func providedInterface(entry models.BeanDefinitionType) string {
	if entry.IsAbstract() {
		return entry.AbstractID()
	}
	if entry.Bean.IsAbstract() {
		return entry.Bean.ID
	}
	return ""
}

func constructible(c *models.ParseContainer) []*models.BeanDefinition {
	var beans []*models.BeanDefinition
	for _, bean := range c.SortedBeans() {
		if bean.HasKind() && !bean.Ignored {
			beans = append(beans, bean)
		}
	}
	return beans
}
