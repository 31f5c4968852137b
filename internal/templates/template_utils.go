package templates

import (
	"strings"
	"unicode"

	"github.com/toyz/knockoff/internal/models"
)

// TemplateUtils provides common utilities for template generation
type TemplateUtils struct{}

// NewTemplateUtils creates a new template utilities instance
func NewTemplateUtils() *TemplateUtils {
	return &TemplateUtils{}
}

// ExportName turns a profile or package name into an exported identifier:
// "integration-test" becomes "IntegrationTest"
func (tu *TemplateUtils) ExportName(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	name := b.String()
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "P" + name
	}
	return name
}

// ProfileMarker returns the marker type name of a profile
func (tu *TemplateUtils) ProfileMarker(profile string) string {
	name := tu.ExportName(profile)
	if !strings.HasSuffix(name, "Profile") {
		name += "Profile"
	}
	return name
}

// ParamList renders parameters as a signature list, unnamed params by type only
func (tu *TemplateUtils) ParamList(params []models.Param) string {
	parts := make([]string, len(params))
	for i, param := range params {
		typ := param.TypeText
		if param.Variadic {
			typ = "..." + typ
		}
		if param.Name != "" {
			typ = param.Name + " " + typ
		}
		parts[i] = typ
	}
	return strings.Join(parts, ", ")
}

// ResultList renders the result part of a signature, including the leading space
func (tu *TemplateUtils) ResultList(results []models.Param) string {
	switch {
	case len(results) == 0:
		return ""
	case len(results) == 1 && results[0].Name == "":
		return " " + results[0].TypeText
	}
	return " (" + tu.ParamList(results) + ")"
}

// DefaultTemplateUtils provides a global instance for convenience
var DefaultTemplateUtils = NewTemplateUtils()
