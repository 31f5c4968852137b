package utils

import (
	"fmt"
	"go/token"
	"regexp"

	"golang.org/x/mod/module"
)

// ValidationError is a rejected value of a named field
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Validator checks a single value
type Validator[T any] func(T) error

// Chain returns a Validator running validators in order, stopping at the first error
func Chain[T any](validators ...Validator[T]) Validator[T] {
	return func(value T) error {
		for _, validate := range validators {
			if err := validate(value); err != nil {
				return err
			}
		}
		return nil
	}
}

// Check returns a Validator failing with message when ok is false
func Check[T any](field, message string, ok func(T) bool) Validator[T] {
	return func(value T) error {
		if !ok(value) {
			return ValidationError{Field: field, Value: value, Message: message}
		}
		return nil
	}
}

// NotEmpty rejects the empty string
func NotEmpty(field string) Validator[string] {
	return Check(field, "cannot be empty", func(s string) bool { return s != "" })
}

// MatchesRegex rejects strings not matching pattern
func MatchesRegex(field, pattern string) Validator[string] {
	re := regexp.MustCompile(pattern)
	return Check(field, fmt.Sprintf("must match pattern '%s'", pattern), re.MatchString)
}

var profileName = `^[A-Za-z][A-Za-z0-9_-]*$`

// ValidateProfileName checks a name given to //knockoff::profile, -Profile or -profile
func ValidateProfileName(field string) Validator[string] {
	return Chain(NotEmpty(field), MatchesRegex(field, profileName))
}

// ValidatePackageName checks the name of a generated package
func ValidatePackageName(field string) Validator[string] {
	return Chain(
		NotEmpty(field),
		Check(field, "must be a valid Go identifier", token.IsIdentifier),
		Check(field, "must not be a Go keyword", func(s string) bool { return !token.IsKeyword(s) }),
	)
}

// ValidateImportPath checks a module path given with -module
func ValidateImportPath(field string) Validator[string] {
	return func(value string) error {
		if err := module.CheckImportPath(value); err != nil {
			return ValidationError{Field: field, Value: value, Message: err.Error()}
		}
		return nil
	}
}
