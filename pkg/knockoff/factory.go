package knockoff

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// Scope is the lifecycle of a registered bean
type Scope int

const (
	// SingletonScope beans are built once, eagerly, during Refresh
	SingletonScope Scope = iota
	// PrototypeScope beans are rebuilt on every request
	PrototypeScope
)

// String returns the string representation of the scope
func (s Scope) String() string {
	switch s {
	case SingletonScope:
		return "singleton"
	case PrototypeScope:
		return "prototype"
	default:
		return "unknown"
	}
}

type beanKey struct {
	typ  reflect.Type
	name string
}

func (k beanKey) String() string {
	if k.name == "" {
		return typeName(k.typ)
	}
	return fmt.Sprintf("%s[%s]", typeName(k.typ), k.name)
}

type provider struct {
	key   beanKey
	scope Scope
	build func(*ListableBeanFactory) (any, error)
}

// ListableBeanFactory is the runtime bean table produced by generated code.
// Beans are keyed by their Go type (and an optional qualifier name): concrete
// beans by their own pointer type, abstract beans by the interface type.
//
// Providers are registered first, then Refresh builds every singleton in
// registration order. After Refresh the table is read-only and safe for
// concurrent use.
type ListableBeanFactory struct {
	profile string

	mu         sync.RWMutex
	order      []beanKey
	providers  map[beanKey]*provider
	singletons map[beanKey]any
	creating   map[beanKey]bool
	refreshed  bool
}

// NewListableBeanFactory creates an empty factory for the named profile
func NewListableBeanFactory(profile string) *ListableBeanFactory {
	if profile == "" {
		profile = DefaultProfileName
	}
	return &ListableBeanFactory{
		profile:    profile,
		providers:  make(map[beanKey]*provider),
		singletons: make(map[beanKey]any),
		creating:   make(map[beanKey]bool),
	}
}

// Profile returns the profile this factory was built for
func (f *ListableBeanFactory) Profile() string {
	return f.profile
}

// ProvideSingleton registers a singleton provider for T under name ("" for the default)
func ProvideSingleton[T any](f *ListableBeanFactory, name string, build func(*ListableBeanFactory) (T, error)) error {
	return f.register(beanKey{typ: reflect.TypeFor[T](), name: name}, SingletonScope, erase(build))
}

// ProvidePrototype registers a prototype provider for T under name ("" for the default)
func ProvidePrototype[T any](f *ListableBeanFactory, name string, build func(*ListableBeanFactory) (T, error)) error {
	return f.register(beanKey{typ: reflect.TypeFor[T](), name: name}, PrototypeScope, erase(build))
}

func erase[T any](build func(*ListableBeanFactory) (T, error)) func(*ListableBeanFactory) (any, error) {
	return func(f *ListableBeanFactory) (any, error) {
		v, err := build(f)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func (f *ListableBeanFactory) register(key beanKey, scope Scope, build func(*ListableBeanFactory) (any, error)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.refreshed {
		return ErrFactoryRefreshed
	}
	if _, exists := f.providers[key]; exists {
		return &DuplicateBeanError{Type: key.typ, Name: key.name}
	}

	f.providers[key] = &provider{key: key, scope: scope, build: build}
	f.order = append(f.order, key)
	return nil
}

// Refresh builds every singleton in registration order and freezes the factory
func (f *ListableBeanFactory) Refresh() error {
	f.mu.RLock()
	order := make([]*provider, 0, len(f.order))
	for _, key := range f.order {
		order = append(order, f.providers[key])
	}
	f.mu.RUnlock()

	for _, p := range order {
		if p.scope != SingletonScope {
			continue
		}
		if _, err := f.instantiate(p); err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.refreshed = true
	f.mu.Unlock()
	return nil
}

// Names lists every registered key in registration order
func (f *ListableBeanFactory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, len(f.order))
	for i, key := range f.order {
		names[i] = key.String()
	}
	return names
}

func (f *ListableBeanFactory) lookup(typ reflect.Type, name string) (*provider, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if p, ok := f.providers[beanKey{typ: typ, name: name}]; ok {
		return p, true
	}
	// a qualified lookup falls back to the unqualified bean
	if name != "" {
		p, ok := f.providers[beanKey{typ: typ}]
		return p, ok
	}
	return nil, false
}

func (f *ListableBeanFactory) resolve(typ reflect.Type, name string) (any, error) {
	p, ok := f.lookup(typ, name)
	if !ok {
		return nil, &NoSuchBeanError{Type: typ, Name: name}
	}

	if p.scope == PrototypeScope {
		return f.create(p)
	}

	f.mu.RLock()
	v, built := f.singletons[p.key]
	f.mu.RUnlock()
	if built {
		return v, nil
	}
	return f.instantiate(p)
}

func (f *ListableBeanFactory) instantiate(p *provider) (any, error) {
	f.mu.Lock()
	if v, ok := f.singletons[p.key]; ok {
		f.mu.Unlock()
		return v, nil
	}
	if f.creating[p.key] {
		f.mu.Unlock()
		return nil, &CircularDependencyError{Type: p.key.typ}
	}
	f.creating[p.key] = true
	f.mu.Unlock()

	v, err := f.create(p)

	f.mu.Lock()
	delete(f.creating, p.key)
	if err == nil {
		f.singletons[p.key] = v
	}
	f.mu.Unlock()

	return v, err
}

func (f *ListableBeanFactory) create(p *provider) (any, error) {
	v, err := p.build(f)
	if err == nil {
		return v, nil
	}

	var creation *BeanCreationError
	var cycle *CircularDependencyError
	if errors.As(err, &creation) || errors.As(err, &cycle) {
		return nil, err
	}
	return nil, &BeanCreationError{Type: p.key.typ, Name: p.key.name, Cause: err}
}

// Resolve returns the bean registered for T under name.
// Singletons are returned from the table, prototypes are built fresh.
func Resolve[T any](f *ListableBeanFactory, name string) (T, error) {
	v, err := f.resolve(reflect.TypeFor[T](), name)
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

// Lookup returns the bean for T under name and whether it could be resolved
func Lookup[T any](f *ListableBeanFactory, name string) (T, bool) {
	v, err := Resolve[T](f, name)
	return v, err == nil
}

// Bean returns the default bean for T, or the zero value
func Bean[T any](f *ListableBeanFactory) T {
	v, _ := Resolve[T](f, "")
	return v
}

// MustBean returns the default bean for T or panics
func MustBean[T any](f *ListableBeanFactory) T {
	v, err := Resolve[T](f, "")
	if err != nil {
		panic(err)
	}
	return v
}

// Contains reports whether a provider for T is registered under name
func Contains[T any](f *ListableBeanFactory, name string) bool {
	_, ok := f.lookup(reflect.TypeFor[T](), name)
	return ok
}

// Inject resolves T into dst. A missing bean leaves dst untouched.
func Inject[T any](f *ListableBeanFactory, name string, dst *T) error {
	v, err := Resolve[T](f, name)
	if err != nil {
		if isMissing(err, reflect.TypeFor[T]()) {
			return nil
		}
		return err
	}
	*dst = v
	return nil
}

// ResolveValue returns the bean registered for T, falling back to a copy of
// the *T bean. Concrete beans are registered by pointer, so by-value
// dependencies resolve through the fallback.
func ResolveValue[T any](f *ListableBeanFactory, name string) (T, error) {
	v, err := Resolve[T](f, name)
	if err == nil || !isMissing(err, reflect.TypeFor[T]()) {
		return v, err
	}

	ptr, ptrErr := Resolve[*T](f, name)
	if ptrErr != nil {
		if isMissing(ptrErr, reflect.TypeFor[*T]()) {
			return v, err
		}
		return v, ptrErr
	}
	if ptr == nil {
		return v, nil
	}
	return *ptr, nil
}

// InjectValue resolves T, or a copy of the *T bean, into dst
func InjectValue[T any](f *ListableBeanFactory, name string, dst *T) error {
	v, err := ResolveValue[T](f, name)
	if err != nil {
		if isMissing(err, reflect.TypeFor[T]()) {
			return nil
		}
		return err
	}
	*dst = v
	return nil
}

// InjectProvider sets dst to a function that resolves T on every call.
// For prototype beans each call builds a new instance.
func InjectProvider[T any](f *ListableBeanFactory, name string, dst *func() T) error {
	if !Contains[T](f, name) && !Contains[*T](f, name) {
		return nil
	}
	*dst = func() T {
		v, _ := ResolveValue[T](f, name)
		return v
	}
	return nil
}

// Alias returns a provider exposing the T bean under type I. Generated
// factories use it to register implementations under their interfaces and
// qualified names.
func Alias[I, T any](name string) func(*ListableBeanFactory) (I, error) {
	return func(f *ListableBeanFactory) (I, error) {
		var zero I
		v, err := Resolve[T](f, name)
		if err != nil {
			return zero, err
		}
		i, ok := any(v).(I)
		if !ok {
			return zero, &BeanCreationError{
				Type:  reflect.TypeFor[I](),
				Name:  name,
				Cause: fmt.Errorf("%s does not implement %s", typeName(reflect.TypeFor[T]()), typeName(reflect.TypeFor[I]())),
			}
		}
		return i, nil
	}
}

// BoxOf returns a provider wrapping the T bean in a Box
func BoxOf[T any](name string) func(*ListableBeanFactory) (Box[T], error) {
	return func(f *ListableBeanFactory) (Box[T], error) {
		v, err := ResolveValue[T](f, name)
		if err != nil {
			return Box[T]{}, err
		}
		return NewBox(v), nil
	}
}

// MutexOf returns a provider guarding a T built for the lock alone: the
// provider of T, or of *T, runs again instead of the singleton being copied,
// so no state or lock of the shared bean ends up inside the Mutex.
// Registered as a singleton, every *Mutex[T] dependency shares the instance.
func MutexOf[T any](name string) func(*ListableBeanFactory) (*Mutex[T], error) {
	return func(f *ListableBeanFactory) (*Mutex[T], error) {
		v, err := construct[T](f, name)
		if err != nil {
			return nil, err
		}
		return NewMutex(v), nil
	}
}

// construct runs the provider of T, or of *T, bypassing the singleton table.
// The caller owns the result.
func construct[T any](f *ListableBeanFactory, name string) (T, error) {
	var zero T
	if p, ok := f.lookup(reflect.TypeFor[T](), name); ok {
		v, err := f.create(p)
		if err != nil {
			return zero, err
		}
		t, _ := v.(T)
		return t, nil
	}

	p, ok := f.lookup(reflect.TypeFor[*T](), name)
	if !ok {
		return zero, &NoSuchBeanError{Type: reflect.TypeFor[T](), Name: name}
	}
	v, err := f.create(p)
	if err != nil {
		return zero, err
	}
	ptr, _ := v.(*T)
	if ptr == nil {
		return zero, nil
	}
	return *ptr, nil
}

func isMissing(err error, typ reflect.Type) bool {
	var missing *NoSuchBeanError
	return errors.As(err, &missing) && missing.Type == typ
}
