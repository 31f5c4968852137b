package parser

import (
	"fmt"
	"sort"

	"github.com/toyz/knockoff/internal/models"
)

// addImpls records, for every bean, the scanned interfaces its method set covers
func (p *Parser) addImpls(c *models.ParseContainer) {
	ifaces := c.SortedInterfaces()
	for _, bean := range c.SortedBeans() {
		if bean.IsAbstract() {
			continue
		}
		methods := methodSet(c, bean)
		if len(methods) == 0 {
			continue
		}
		for _, iface := range ifaces {
			if iface.Ignored || c.Ignored[iface.ID] {
				continue
			}
			sigs, complete := interfaceMethods(c, iface, map[string]bool{})
			if !complete || len(sigs) == 0 || denied(sigs) {
				continue
			}
			covered, ok := covers(methods, sigs)
			if !ok {
				continue
			}
			bean.AddDescriptor(models.DependencyDescriptor{
				AbstractType: iface.Type,
				Methods:      covered,
				Qualifiers:   bean.Qualifiers,
				Profiles:     bean.Profiles,
				PathDepth:    bean.PathDepth,
			})
		}
	}
}

// methodSet returns the methods declared for the bean's type. Beans produced
// by a factory for a generic instantiation use the generic type's methods.
func methodSet(c *models.ParseContainer, bean *models.BeanDefinition) []*models.Method {
	if len(bean.Methods) > 0 {
		return bean.Methods
	}
	if bean.Factory == nil {
		return nil
	}
	base := models.TypeRef{Name: bean.Type.Name, PkgPath: bean.Type.PkgPath, Depth: bean.Type.Depth}
	if decl, ok := c.Beans[base.ID()]; ok {
		return decl.Methods
	}
	return nil
}

// interfaceMethods expands embedded interfaces. It reports false when an
// embedded interface is not part of the scanned sources.
func interfaceMethods(c *models.ParseContainer, iface *models.InterfaceDefinition, visiting map[string]bool) ([]models.Signature, bool) {
	if visiting[iface.ID] {
		return nil, true
	}
	visiting[iface.ID] = true

	sigs := append([]models.Signature(nil), iface.Methods...)
	for _, embedded := range iface.Embeds {
		inner, ok := c.Interfaces[embedded.ID()]
		if !ok {
			return nil, false
		}
		innerSigs, complete := interfaceMethods(c, inner, visiting)
		if !complete {
			return nil, false
		}
		sigs = append(sigs, innerSigs...)
	}
	return sigs, true
}

// covers matches every signature against the method set by name and arity
func covers(methods []*models.Method, sigs []models.Signature) ([]*models.Method, bool) {
	byName := make(map[string]*models.Method, len(methods))
	for _, method := range methods {
		byName[method.Name] = method
	}

	covered := make([]*models.Method, 0, len(sigs))
	for _, sig := range sigs {
		method, ok := byName[sig.Name]
		if !ok || method.Arity() != sig.Arity || len(method.Results) != sig.Result {
			return nil, false
		}
		covered = append(covered, method)
	}
	return covered, true
}

// denied reports whether the method set is one of the ubiquitous library interfaces
func denied(sigs []models.Signature) bool {
	keys := make([]string, len(sigs))
	for i, sig := range sigs {
		keys[i] = fmt.Sprintf("%s/%d", sig.Name, sig.Arity)
	}
	sort.Strings(keys)

	for _, deny := range deniedInterfaces {
		if len(deny) != len(keys) {
			continue
		}
		match := true
		for i := range deny {
			if deny[i] != keys[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
