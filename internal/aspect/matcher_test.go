package aspect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toyz/knockoff/internal/models"
)

func TestMatcher_Match(t *testing.T) {
	bean := &models.BeanDefinition{ID: "services.One", Name: "One", PathDepth: "services"}
	run := &models.Method{Name: "Run"}
	stop := &models.Method{Name: "Stop"}

	all := &models.MethodAdviceAspect{Name: "All", Pointcut: "services.**", Order: 5}
	runOnly := &models.MethodAdviceAspect{Name: "RunOnly", Pointcut: "services.One.Run", Order: 1}
	either := &models.MethodAdviceAspect{Name: "Either", Pointcut: "services.One|Two.*", Order: 1, Offset: 10}
	other := &models.MethodAdviceAspect{Name: "Other", Pointcut: "handlers.*.*"}
	aspects := []*models.MethodAdviceAspect{all, runOnly, either, other}

	m := NewMatcher()
	assert.Equal(t, "services.One.Run", Target(bean, run))

	names := func(matched []*models.MethodAdviceAspect) []string {
		var out []string
		for _, advice := range matched {
			out = append(out, advice.Name)
		}
		return out
	}

	assert.Equal(t, []string{"RunOnly", "Either", "All"}, names(m.Match(aspects, bean, run)))
	assert.Equal(t, []string{"Either", "All"}, names(m.Match(aspects, bean, stop)))
}

func TestSort(t *testing.T) {
	tests := []struct {
		name     string
		aspects  []*models.MethodAdviceAspect
		expected []string
	}{
		{
			name: "ascending order",
			aspects: []*models.MethodAdviceAspect{
				{Name: "c", Order: 3},
				{Name: "a", Order: -1},
				{Name: "b", Order: 0},
			},
			expected: []string{"a", "b", "c"},
		},
		{
			name: "ties keep declaration order",
			aspects: []*models.MethodAdviceAspect{
				{Name: "second", File: "a.go", Offset: 200},
				{Name: "third", File: "b.go", Offset: 10},
				{Name: "first", File: "a.go", Offset: 100},
			},
			expected: []string{"first", "second", "third"},
		},
		{
			name: "order wins over position",
			aspects: []*models.MethodAdviceAspect{
				{Name: "late", File: "a.go", Offset: 1, Order: 2},
				{Name: "early", File: "z.go", Offset: 500, Order: 1},
			},
			expected: []string{"early", "late"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Sort(tt.aspects)
			var got []string
			for _, advice := range tt.aspects {
				got = append(got, advice.Name)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}
