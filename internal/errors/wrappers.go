package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Standard library helpers, so callers import a single errors package
var (
	Is   = stderrors.Is
	As   = stderrors.As
	Join = stderrors.Join
)

// WrapParseError reports a source or directive that could not be parsed
func WrapParseError(item string, cause error) *BaseError {
	return Wrap(SyntaxErrorCode, "failed to parse "+item, cause)
}

// WrapGenerateError reports a generated file or bean that could not be rendered
func WrapGenerateError(target string, cause error) *BaseError {
	return Wrap(GenerationErrorCode, "failed to generate "+target, cause).
		WithContext("target", target)
}

// WrapFileSystemError reports a failed operation on path
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	return Wrap(FileSystemErrorCode, fmt.Sprintf("failed to %s file '%s'", operation, path), cause).
		WithContext("operation", operation).
		WithContext("path", path)
}

// WrapTemplateError reports a code template that failed to parse or execute
func WrapTemplateError(name, operation string, cause error) *BaseError {
	return Wrap(TemplateErrorCode, fmt.Sprintf("failed to %s template '%s'", operation, name), cause).
		WithContext("template", name)
}

// WrapConfigurationError reports knockoff.toml, the environment or a manifest
// that could not be read
func WrapConfigurationError(source, operation string, cause error) *BaseError {
	return Wrap(ConfigurationErrorCode, fmt.Sprintf("failed to %s configuration '%s'", operation, source), cause).
		WithContext("config_type", source).
		WithContext("operation", operation)
}

// WrapShapeError reports a dependency whose type no edge kind accepts
func WrapShapeError(typeText string, loc SourceLocation, cause error) *BaseError {
	return Wrap(ShapeErrorCode, fmt.Sprintf("unsupported dependency type '%s'", typeText), cause).
		WithLocation(loc).
		WithContext("type", typeText).
		WithSuggestion("Use T, *T, *knockoff.Mutex[T], knockoff.Box[I], func() T or an interface type")
}

// WrapWeaveError reports advice that could not be spliced into method
func WrapWeaveError(method string, cause error) *BaseError {
	return Wrap(WeaveErrorCode, fmt.Sprintf("failed to weave advice into '%s'", method), cause).
		WithContext("method", method)
}

// CycleError reports singletons that depend on each other; cycle starts and
// ends with the same bean
func CycleError(cycle []string) *BaseError {
	return New(DependencyErrorCode, "circular dependency: "+strings.Join(cycle, " -> ")).
		WithContext("cycle", cycle).
		WithSuggestion("Break the cycle with a prototype provider (func() T) or by removing one autowired field")
}

// ConfigurationError reports an invalid value in section
func ConfigurationError(section, message string) *BaseError {
	return New(ConfigurationErrorCode, fmt.Sprintf("configuration error in '%s': %s", section, message)).
		WithContext("config_type", section)
}
