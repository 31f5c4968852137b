package profile

import (
	"log/slog"

	"github.com/toyz/knockoff/internal/models"
)

// ConcreteTypeModifier binds dependencies on interfaces to the bean that
// implements them in the dependent bean's profile
type ConcreteTypeModifier struct {
	logger *slog.Logger
}

// NewConcreteTypeModifier creates the modifier; a nil logger discards output
func NewConcreteTypeModifier(logger *slog.Logger) *ConcreteTypeModifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ConcreteTypeModifier{logger: logger}
}

// Name implements Modifier
func (m *ConcreteTypeModifier) Name() string { return "concrete-type" }

// Modify marks edges whose target is not a concrete bean as abstract and
// binds them to an implementer of the target interface found in the tree.
// An edge with its own profile searches that profile, other edges search the
// profiles of the bean declaring them.
func (m *ConcreteTypeModifier) Modify(c *models.ParseContainer, tree *models.ProfileTree) error {
	for _, bean := range tree.Beans() {
		for i := range bean.Deps {
			dep := &bean.Deps[i]
			target, ok := c.Bean(dep.TargetID())
			if ok && target.HasKind() && !target.IsAbstract() {
				continue
			}
			dep.IsAbstract = true

			profiles := bean.ProfileNames()
			if dep.Profile != "" {
				profiles = []string{dep.Profile}
			}

			if match, ok := bind(c, tree, profiles, dep); ok {
				dep.Resolve(match.ID)
				if dep.BeanType == nil {
					kind := *match.Kind
					dep.BeanType = &kind
				}
				continue
			}
			m.logger.Info("no implementation found",
				"bean", bean.ID,
				"dependency", dep.Autowired.Identifier,
				"type", dep.TargetID(),
				"profiles", profiles)
		}
	}
	return nil
}

// bind returns the first entry of the profiles that implements the interface
// the dependency targets, or the factory bean returning that interface
func bind(c *models.ParseContainer, tree *models.ProfileTree, profiles []string, dep *models.DependencyMetadata) (*models.BeanDefinition, bool) {
	if _, ok := c.Interface(dep.TargetID()); !ok {
		return nil, false
	}
	implementers := make(map[string]bool)
	for _, impl := range c.Implementers(dep.TargetID()) {
		implementers[impl.ID] = true
	}
	if provider, ok := c.Bean(dep.TargetID()); ok && provider.HasKind() {
		implementers[provider.ID] = true
	}
	if len(implementers) == 0 {
		return nil, false
	}

	for _, profile := range profiles {
		for _, match := range SearchProfileTree(tree, profile, dep) {
			if implementers[match.Bean.ID] {
				return match.Bean, true
			}
		}
	}
	return nil, false
}

// MutableBeanModifier marks beans requested behind a lock as mutable
type MutableBeanModifier struct {
	logger *slog.Logger
}

// NewMutableBeanModifier creates the modifier; a nil logger discards output
func NewMutableBeanModifier(logger *slog.Logger) *MutableBeanModifier {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MutableBeanModifier{logger: logger}
}

// Name implements Modifier
func (m *MutableBeanModifier) Name() string { return "mutable-bean" }

// Modify sets Mutable on every bean some edge requests in Mutex form
func (m *MutableBeanModifier) Modify(c *models.ParseContainer, tree *models.ProfileTree) error {
	for _, bean := range tree.Beans() {
		for _, dep := range bean.Deps {
			if !dep.Path.IsMutable() {
				continue
			}
			id := dep.ConcreteID()
			if id == "" {
				id = dep.TargetID()
			}
			target, ok := c.Beans[id]
			if !ok || !target.HasKind() || target.Mutable {
				continue
			}
			target.Mutable = true
			m.logger.Debug("bean marked mutable", "bean", target.ID, "by", bean.ID)
		}
	}
	return nil
}
