package models

import "sort"

// DefaultProfile is present in every profile tree
const DefaultProfile = "DefaultProfile"

// BeanDefinitionType is a profile entry: a bean provided as itself (Concrete)
// or behind one of the interfaces it implements (Abstract).
type BeanDefinitionType struct {
	Bean    *BeanDefinition
	DepType *DependencyDescriptor // nil for concrete entries
}

// ConcreteEntry creates a concrete profile entry
func ConcreteEntry(bean *BeanDefinition) BeanDefinitionType {
	return BeanDefinitionType{Bean: bean}
}

// AbstractEntry creates an abstract profile entry
func AbstractEntry(bean *BeanDefinition, descriptor *DependencyDescriptor) BeanDefinitionType {
	return BeanDefinitionType{Bean: bean, DepType: descriptor}
}

// IsAbstract reports whether the entry provides an interface
func (b BeanDefinitionType) IsAbstract() bool {
	return b.DepType != nil
}

// AbstractID returns the interface id of an abstract entry
func (b BeanDefinitionType) AbstractID() string {
	if b.DepType == nil {
		return ""
	}
	return b.DepType.AbstractType.ID()
}

// Key is the dedup key of the entry
func (b BeanDefinitionType) Key() string {
	if b.DepType == nil {
		return b.Bean.ID
	}
	return b.Bean.ID + "=>" + b.AbstractID()
}

// ProfileTree partitions the constructible beans by profile
type ProfileTree struct {
	Profiles map[string][]BeanDefinitionType
}

// NewProfileTree creates a tree holding only DefaultProfile
func NewProfileTree() *ProfileTree {
	return &ProfileTree{Profiles: map[string][]BeanDefinitionType{DefaultProfile: nil}}
}

// Ensure creates the bucket for a profile
func (t *ProfileTree) Ensure(profile string) {
	if _, ok := t.Profiles[profile]; !ok {
		t.Profiles[profile] = nil
	}
}

// Add inserts an entry unless one with the same key exists. It reports whether the entry was added.
func (t *ProfileTree) Add(profile string, entry BeanDefinitionType) bool {
	key := entry.Key()
	for _, existing := range t.Profiles[profile] {
		if existing.Key() == key {
			return false
		}
	}
	t.Profiles[profile] = append(t.Profiles[profile], entry)
	return true
}

// Names returns the profile names, DefaultProfile first and the rest sorted
func (t *ProfileTree) Names() []string {
	names := make([]string, 0, len(t.Profiles))
	for name := range t.Profiles {
		if name != DefaultProfile {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{DefaultProfile}, names...)
}

// Concrete returns the concrete entries of a profile
func (t *ProfileTree) Concrete(profile string) []BeanDefinitionType {
	var out []BeanDefinitionType
	for _, entry := range t.Profiles[profile] {
		if !entry.IsAbstract() {
			out = append(out, entry)
		}
	}
	return out
}

// Abstract returns the abstract entries of a profile
func (t *ProfileTree) Abstract(profile string) []BeanDefinitionType {
	var out []BeanDefinitionType
	for _, entry := range t.Profiles[profile] {
		if entry.IsAbstract() {
			out = append(out, entry)
		}
	}
	return out
}

// Beans returns the distinct beans of every profile, sorted by id
func (t *ProfileTree) Beans() []*BeanDefinition {
	seen := make(map[string]*BeanDefinition)
	for _, entries := range t.Profiles {
		for _, entry := range entries {
			seen[entry.Bean.ID] = entry.Bean
		}
	}
	beans := make([]*BeanDefinition, 0, len(seen))
	for _, bean := range seen {
		beans = append(beans, bean)
	}
	sort.Slice(beans, func(i, j int) bool { return beans[i].ID < beans[j].ID })
	return beans
}
