package templates

import (
	"bytes"
	"strconv"
	"text/template"

	"github.com/toyz/knockoff/internal/errors"
)

// Injection helpers of the runtime package
const (
	InjectHelper         = "Inject"
	InjectValueHelper    = "InjectValue"
	InjectProviderHelper = "InjectProvider"
)

// Registration functions of the runtime package
const (
	ProvideSingleton = "ProvideSingleton"
	ProvidePrototype = "ProvidePrototype"
)

// FileData is the header of a generated file
type FileData struct {
	Package string
	Imports string
}

// EdgeData is one dependency resolved by a generated factory
type EdgeData struct {
	Target    string // field, or local variable for factory functions
	Declared  string // type as declared
	Helper    string // runtime injection helper
	TypeArg   string // type argument of the helper
	Qualifier string
}

// FactoryData describes a generated factory function
type FactoryData struct {
	Ident   string
	Runtime string // name the runtime package is imported as
	Edges   []EdgeData

	// type declaration beans
	Type string

	// factory function beans
	Func         string
	Result       string
	Call         string
	ByValue      bool
	ReturnsError bool
}

// ProceedData describes the interface of a generated proceed method
type ProceedData struct {
	Name     string
	Receiver string
	Method   string
	Params   string
	Results  string // includes the leading space
	Assert   bool
}

// RegistrationData is one provider registration of a profile
type RegistrationData struct {
	Provide  string
	Key      string
	Name     string
	Provider string
}

// ProfileData is the constructor of one profile
type ProfileData struct {
	Name          string
	Marker        string
	Constructor   string
	Register      string
	Default       bool
	Registrations []RegistrationData
}

// ContainerData is the profile factory file
type ContainerData struct {
	Runtime            string
	DefaultConstructor string
	Profiles           []ProfileData
}

// GenerateFileHeader renders the generated-code header, package clause and imports
func GenerateFileHeader(pkg string, imports *ImportManager) (string, error) {
	data := FileData{Package: pkg}
	if imports != nil {
		data.Imports = imports.GenerateImports()
	}
	return executeTemplate("file-header", DefaultTemplateRegistry.MustGet("file-header"), data)
}

// GenerateFactoryBean renders the factory of a type declaration bean
func GenerateFactoryBean(data FactoryData) (string, error) {
	return executeTemplate("factory-bean", DefaultTemplateRegistry.MustGet("factory-bean"), data)
}

// GenerateFactoryFunc renders the factory wrapping a bean function
func GenerateFactoryFunc(data FactoryData) (string, error) {
	return executeTemplate("factory-func", DefaultTemplateRegistry.MustGet("factory-func"), data)
}

// GenerateProceedInterface renders the interface asserting a proceed method exists
func GenerateProceedInterface(data ProceedData) (string, error) {
	return executeTemplate("proceed-interface", DefaultTemplateRegistry.MustGet("proceed-interface"), data)
}

// GenerateContainer renders the profile markers and constructors
func GenerateContainer(data ContainerData) (string, error) {
	return executeTemplate("container", DefaultTemplateRegistry.MustGet("container"), data)
}

// executeTemplate executes a Go template with the given data
func executeTemplate(name, templateStr string, data interface{}) (string, error) {
	funcMap := template.FuncMap{
		"quote": strconv.Quote,
	}

	tmpl, err := template.New(name).Funcs(funcMap).Parse(templateStr)
	if err != nil {
		return "", errors.WrapTemplateError(name, "parse", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.WrapTemplateError(name, "execute", err)
	}

	return buf.String(), nil
}
