package templates

// TemplateRegistry provides a centralized way to access all templates
type TemplateRegistry struct {
	templates map[string]string
}

// NewTemplateRegistry creates a new template registry with all templates
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]string),
	}

	registry.registerFileTemplates()
	registry.registerFactoryTemplates()
	registry.registerProceedTemplates()
	registry.registerContainerTemplates()

	return registry
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (string, bool) {
	template, exists := tr.templates[name]
	return template, exists
}

// MustGet retrieves a template by name, panics if not found
func (tr *TemplateRegistry) MustGet(name string) string {
	template, exists := tr.templates[name]
	if !exists {
		panic("template not found: " + name)
	}
	return template
}

// Names lists the registered template names
func (tr *TemplateRegistry) Names() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	return names
}

func (tr *TemplateRegistry) registerFileTemplates() {
	tr.templates["file-header"] = `// Code generated by knockoff. DO NOT EDIT.

package {{.Package}}
{{if .Imports}}
{{.Imports}}{{end}}`
}

// registerFactoryTemplates registers the per-bean factory functions
func (tr *TemplateRegistry) registerFactoryTemplates() {
	// Type declaration bean: dependencies are injected into fields
	tr.templates["factory-bean"] = `
// {{.Ident}} builds a {{.Type}} with its dependencies resolved from f
func {{.Ident}}(f *{{.Runtime}}.ListableBeanFactory) (*{{.Type}}, error) {
	bean := new({{.Type}})
{{- range .Edges}}
	if err := {{$.Runtime}}.{{.Helper}}[{{.TypeArg}}](f, {{quote .Qualifier}}, &bean.{{.Target}}); err != nil {
		return nil, err
	}
{{- end}}
	return bean, nil
}
`

	// Factory function bean: dependencies are resolved into arguments
	tr.templates["factory-func"] = `
// {{.Ident}} calls {{.Func}} with its arguments resolved from f
func {{.Ident}}(f *{{.Runtime}}.ListableBeanFactory) ({{.Result}}, error) {
{{- range .Edges}}
	var {{.Target}} {{.Declared}}
{{- if .Helper}}
	if err := {{$.Runtime}}.{{.Helper}}[{{.TypeArg}}](f, {{quote .Qualifier}}, &{{.Target}}); err != nil {
		return nil, err
	}
{{- end}}
{{- end}}
{{- if .ByValue}}
{{- if .ReturnsError}}
	bean, err := {{.Call}}
	if err != nil {
		return nil, err
	}
{{- else}}
	bean := {{.Call}}
{{- end}}
	return &bean, nil
{{- else if .ReturnsError}}
	return {{.Call}}
{{- else}}
	return {{.Call}}, nil
{{- end}}
}
`
}

// registerProceedTemplates registers the proceed interfaces of woven methods
func (tr *TemplateRegistry) registerProceedTemplates() {
	tr.templates["proceed-interface"] = `
// {{.Name}} is the proceed method woven into {{.Receiver}}.{{.Method}}
type {{.Name}} interface {
	{{.Name}}({{.Params}}){{.Results}}
}
{{if .Assert}}
var _ {{.Name}} = (*{{.Receiver}})(nil)
{{end}}`
}

// registerContainerTemplates registers the profile factory file
func (tr *TemplateRegistry) registerContainerTemplates() {
	tr.templates["container"] = `
// ListableBeanFactory is the bean table built by the profile constructors
type ListableBeanFactory = {{.Runtime}}.ListableBeanFactory
{{range .Profiles}}{{if not .Default}}
// {{.Marker}} selects the beans of the {{.Name}} profile
type {{.Marker}} struct{}

// ProfileName implements {{$.Runtime}}.Profile
func ({{.Marker}}) ProfileName() string { return {{quote .Name}} }
{{end}}{{end}}
// NewListableBeanFactory builds the factory of profile p and refreshes it.
// A nil or unknown profile selects the default beans.
func NewListableBeanFactory(p {{.Runtime}}.Profile) (*ListableBeanFactory, error) {
	if p == nil {
		p = {{.Runtime}}.DefaultProfile{}
	}
	switch p.ProfileName() {
{{- range .Profiles}}{{if not .Default}}
	case {{quote .Name}}:
		return {{.Constructor}}()
{{- end}}{{end}}
	default:
		return {{.DefaultConstructor}}()
	}
}
{{range .Profiles}}
// {{.Constructor}} registers the {{.Name}} beans and builds every singleton
func {{.Constructor}}() (*ListableBeanFactory, error) {
	f := {{$.Runtime}}.NewListableBeanFactory({{quote .Name}})
	if err := {{.Register}}(f); err != nil {
		return nil, err
	}
	if err := f.Refresh(); err != nil {
		return nil, err
	}
	return f, nil
}

func {{.Register}}(f *ListableBeanFactory) error {
	return errors.Join(
{{- range .Registrations}}
		{{$.Runtime}}.{{.Provide}}[{{.Key}}](f, {{quote .Name}}, {{.Provider}}),
{{- end}}
	)
}
{{end}}`
}

// DefaultTemplateRegistry is the global template registry instance
var DefaultTemplateRegistry = NewTemplateRegistry()
