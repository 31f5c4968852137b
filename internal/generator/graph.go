package generator

import (
	"sort"

	"github.com/toyz/knockoff/internal/models"
)

// beanGraph holds the beans of one profile and the edges between them
type beanGraph struct {
	nodes map[string]*models.BeanDefinition
	ids   []string
}

func newBeanGraph(beans []*models.BeanDefinition) *beanGraph {
	g := &beanGraph{nodes: make(map[string]*models.BeanDefinition, len(beans))}
	for _, bean := range beans {
		if _, ok := g.nodes[bean.ID]; ok {
			continue
		}
		g.nodes[bean.ID] = bean
		g.ids = append(g.ids, bean.ID)
	}
	sort.Strings(g.ids)
	return g
}

// edges returns the ids of the beans that must exist before bean is built.
// func() T providers resolve on call and never add an edge.
func (g *beanGraph) edges(bean *models.BeanDefinition) []string {
	var out []string
	for i := range bean.Deps {
		dep := &bean.Deps[i]
		if dep.Path.IsProvider() {
			continue
		}
		id := dep.ConcreteID()
		if _, ok := g.nodes[id]; !ok || id == "" {
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// sort returns the beans with every dependency ahead of its dependents, ties
// in id order. A cycle is returned as the trail that closes it.
func (g *beanGraph) sort() ([]*models.BeanDefinition, []string) {
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	order := make([]*models.BeanDefinition, 0, len(g.ids))

	var visit func(id string, trail []string) []string
	visit = func(id string, trail []string) []string {
		if visited[id] {
			return nil
		}
		if visiting[id] {
			for i, t := range trail {
				if t == id {
					return append(append([]string{}, trail[i:]...), id)
				}
			}
			return append(trail, id)
		}
		visiting[id] = true

		bean := g.nodes[id]
		trail = append(trail, id)
		for _, dep := range g.edges(bean) {
			if cycle := visit(dep, trail); cycle != nil {
				return cycle
			}
		}

		delete(visiting, id)
		visited[id] = true
		order = append(order, bean)
		return nil
	}

	for _, id := range g.ids {
		if cycle := visit(id, nil); cycle != nil {
			return nil, cycle
		}
	}
	return order, nil
}
