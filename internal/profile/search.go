package profile

import (
	"github.com/toyz/knockoff/internal/models"
)

// SearchProfileTree returns the constructible entries of a profile that can
// satisfy the dependency: concrete entries whose bean id, and abstract entries
// whose interface id, equals the dependency target. A qualified dependency
// prefers entries carrying the qualifier and falls back to the other matches.
func SearchProfileTree(tree *models.ProfileTree, profile string, dep *models.DependencyMetadata) []models.BeanDefinitionType {
	target := dep.TargetID()

	var matched, qualified []models.BeanDefinitionType
	for _, entry := range tree.Profiles[profile] {
		if !entry.Bean.HasKind() {
			continue
		}
		if providedID(entry) != target {
			continue
		}
		matched = append(matched, entry)
		if dep.Qualifier != "" && entryQualified(entry, dep.Qualifier) {
			qualified = append(qualified, entry)
		}
	}

	if len(qualified) > 0 {
		return qualified
	}
	return matched
}

// providedID is the id an entry answers to: its interface for abstract
// entries, the bean itself otherwise
func providedID(entry models.BeanDefinitionType) string {
	if entry.IsAbstract() {
		return entry.AbstractID()
	}
	return entry.Bean.ID
}

func entryQualified(entry models.BeanDefinitionType, qualifier string) bool {
	if entry.DepType != nil {
		for _, q := range entry.DepType.Qualifiers {
			if q == qualifier {
				return true
			}
		}
	}
	return entry.Bean.HasQualifier(qualifier)
}
