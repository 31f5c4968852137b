package aspect

import (
	"sort"

	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/pkg/knockoff"
)

// Matcher selects the advice that applies to a method
type Matcher struct {
	paths *knockoff.AntPathMatcher
}

// NewMatcher creates a matcher for dot-separated pointcuts
func NewMatcher() *Matcher {
	return &Matcher{paths: knockoff.NewPointcutMatcher()}
}

// Target returns the path a pointcut is matched against: <pathDepth>.<Receiver>.<Method>
func Target(bean *models.BeanDefinition, method *models.Method) string {
	return bean.PathDepth + "." + bean.Name + "." + method.Name
}

// Match returns the advice whose pointcut matches the method, in weaving order
func (m *Matcher) Match(aspects []*models.MethodAdviceAspect, bean *models.BeanDefinition, method *models.Method) []*models.MethodAdviceAspect {
	target := Target(bean, method)

	var matched []*models.MethodAdviceAspect
	for _, advice := range aspects {
		if m.paths.Match(advice.Pointcut, target) {
			matched = append(matched, advice)
		}
	}
	Sort(matched)
	return matched
}

// Sort orders advice by Order, ties by declaration position
func Sort(aspects []*models.MethodAdviceAspect) {
	sort.SliceStable(aspects, func(i, j int) bool {
		return aspects[i].Less(aspects[j])
	})
}
