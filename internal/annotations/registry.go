package annotations

import (
	"fmt"
	"slices"
	"sync"
)

// Registry maps directive kinds to the schema their parameters are checked against
type Registry struct {
	mu      sync.RWMutex
	schemas map[AnnotationType]AnnotationSchema
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[AnnotationType]AnnotationSchema)}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared registry holding the built-in schemas
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		if err := RegisterBuiltinSchemas(defaultRegistry); err != nil {
			panic(err)
		}
	})
	return defaultRegistry
}

// Register adds the schema of kind. Each kind is registered once.
func (r *Registry) Register(kind AnnotationType, schema AnnotationSchema) error {
	if schema.Type != kind {
		return fmt.Errorf("schema of %s registered as %s", schema.Type, kind)
	}
	if err := checkSchema(schema); err != nil {
		return fmt.Errorf("invalid schema for %s: %w", kind, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.schemas[kind]; dup {
		return fmt.Errorf("annotation type %s is already registered", kind)
	}
	r.schemas[kind] = schema
	return nil
}

// Schema returns the schema of kind
func (r *Registry) Schema(kind AnnotationType) (AnnotationSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.schemas[kind]
	return schema, ok
}

// Kinds returns the registered kinds in declaration order
func (r *Registry) Kinds() []AnnotationType {
	r.mu.RLock()
	kinds := make([]AnnotationType, 0, len(r.schemas))
	for kind := range r.schemas {
		kinds = append(kinds, kind)
	}
	r.mu.RUnlock()

	slices.Sort(kinds)
	return kinds
}

// checkSchema rejects positional names without a spec, unnamed parameters
// and defaults that do not match their declared type
func checkSchema(schema AnnotationSchema) error {
	for _, name := range schema.Positional {
		if _, ok := schema.Parameters[name]; !ok {
			return fmt.Errorf("positional parameter %s is not declared", name)
		}
	}
	for name, spec := range schema.Parameters {
		if name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if spec.Type < StringType || spec.Type > StringSliceType {
			return fmt.Errorf("parameter %s has unknown type %d", name, spec.Type)
		}
		if spec.DefaultValue != nil && !hasType(spec.DefaultValue, spec.Type) {
			return fmt.Errorf("default of %s must be %s, got %T", name, spec.Type, spec.DefaultValue)
		}
	}
	return nil
}
