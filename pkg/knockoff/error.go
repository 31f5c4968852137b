package knockoff

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

var (
	// ErrNoSuchBean is returned when no provider is registered for a type
	ErrNoSuchBean = errors.New("knockoff: no such bean")

	// ErrFactoryRefreshed is returned when providers are registered after Refresh
	ErrFactoryRefreshed = errors.New("knockoff: factory already refreshed")
)

// NoSuchBeanError reports a lookup that found no provider
type NoSuchBeanError struct {
	Type reflect.Type
	Name string
}

func (e *NoSuchBeanError) Error() string {
	if e.Name == "" {
		return "knockoff: no bean of type " + typeName(e.Type)
	}
	return "knockoff: no bean of type " + typeName(e.Type) + " named " + strconv.Quote(e.Name)
}

// Unwrap lets errors.Is match ErrNoSuchBean
func (e *NoSuchBeanError) Unwrap() error { return ErrNoSuchBean }

// DuplicateBeanError is returned when a key is provided twice
type DuplicateBeanError struct {
	Type reflect.Type
	Name string
}

func (e *DuplicateBeanError) Error() string {
	return fmt.Sprintf("knockoff: duplicate bean %s (name %q)", typeName(e.Type), e.Name)
}

// CircularDependencyError is returned when a singleton requires itself while being built
type CircularDependencyError struct {
	Type reflect.Type
}

func (e *CircularDependencyError) Error() string {
	return "knockoff: circular dependency while creating " + typeName(e.Type)
}

// BeanCreationError wraps a failure returned by a factory-bean function
type BeanCreationError struct {
	Type  reflect.Type
	Name  string
	Cause error
}

func (e *BeanCreationError) Error() string {
	return fmt.Sprintf("knockoff: creating bean %s: %v", typeName(e.Type), e.Cause)
}

func (e *BeanCreationError) Unwrap() error { return e.Cause }

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
