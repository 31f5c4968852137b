package annotations

import (
	"fmt"
	"strings"
)

// Built-in annotation schemas

func qualifierSpec() ParameterSpec {
	return ParameterSpec{
		Type:        StringSliceType,
		Description: "Qualifiers that select this bean when several candidates exist",
	}
}

func profileSpec() ParameterSpec {
	return ParameterSpec{
		Type:        StringSliceType,
		Description: "Profiles the bean is active in (defaults to DefaultProfile)",
	}
}

// ValidateScope accepts the two bean lifecycles
func ValidateScope(v any) error {
	scope := strings.ToLower(v.(string))
	if scope != "singleton" && scope != "prototype" {
		return fmt.Errorf("must be 'singleton' or 'prototype', got '%s'", v)
	}
	return nil
}

// ValidatePointcut rejects empty pointcut segments
func ValidatePointcut(v any) error {
	pointcut := v.(string)
	for _, segment := range strings.Split(pointcut, ".") {
		if segment == "" {
			return fmt.Errorf("pointcut '%s' has an empty segment", pointcut)
		}
	}
	return nil
}

// ServiceAnnotationSchema defines the schema for //knockoff::service annotations
var ServiceAnnotationSchema = AnnotationSchema{
	Type:        ServiceAnnotation,
	Description: "Registers a type as a singleton bean",
	Parameters: map[string]ParameterSpec{
		"Qualifier": qualifierSpec(),
		"Profile":   profileSpec(),
		"Mutable": {
			Type:         BoolType,
			DefaultValue: false,
			Description:  "Also expose the bean as *knockoff.Mutex[T]",
		},
	},
	Examples: []string{
		"//knockoff::service",
		"//knockoff::service -Qualifier=primary",
		"//knockoff::service -Profile=dev,test -Mutable",
	},
}

// BeanAnnotationSchema defines the schema for //knockoff::bean annotations
var BeanAnnotationSchema = AnnotationSchema{
	Type:        BeanAnnotation,
	Description: "Registers a factory function as the singleton provider of its return type",
	Parameters: map[string]ParameterSpec{
		"Qualifier": qualifierSpec(),
		"Profile":   profileSpec(),
		"Mutable": {
			Type:         BoolType,
			DefaultValue: false,
			Description:  "Also expose the bean as *knockoff.Mutex[T]",
		},
	},
	Examples: []string{
		"//knockoff::bean",
		"//knockoff::bean -Qualifier=readonly",
	},
}

// PrototypeAnnotationSchema defines the schema for //knockoff::prototype annotations
var PrototypeAnnotationSchema = AnnotationSchema{
	Type:        PrototypeAnnotation,
	Description: "Registers a type or factory function as a prototype bean, rebuilt on every request",
	Parameters: map[string]ParameterSpec{
		"Qualifier": qualifierSpec(),
		"Profile":   profileSpec(),
	},
	Examples: []string{
		"//knockoff::prototype",
		"//knockoff::prototype -Profile=test",
	},
}

// AutowiredAnnotationSchema defines the schema for //knockoff::autowired annotations
var AutowiredAnnotationSchema = AnnotationSchema{
	Type:        AutowiredAnnotation,
	Description: "Marks a field as a dependency resolved by the generated factory",
	Positional:  []string{"Qualifier"},
	Parameters: map[string]ParameterSpec{
		"Qualifier": {
			Type:        StringType,
			Description: "Qualifier used to select the bean",
		},
		"Profile": {
			Type:        StringType,
			Description: "Profile used to resolve the bean",
		},
		"Scope": {
			Type:        StringType,
			Description: "Lifecycle of the injected bean: singleton or prototype",
			Validator:   ValidateScope,
		},
		"Mutable": {
			Type:         BoolType,
			DefaultValue: false,
			Description:  "Inject a lock-guarded instance",
		},
	},
	Examples: []string{
		"//knockoff::autowired",
		"//knockoff::autowired primary",
		"//knockoff::autowired -Qualifier=primary -Scope=prototype",
	},
}

// MutableBeanAnnotationSchema defines the schema for //knockoff::mutable_bean annotations
var MutableBeanAnnotationSchema = AnnotationSchema{
	Type:        MutableBeanAnnotation,
	Description: "Marks a bean or a dependency field for shared mutation behind a lock",
	Positional:  []string{"Qualifier"},
	Parameters: map[string]ParameterSpec{
		"Qualifier": {
			Type:        StringType,
			Description: "Qualifier used to select the bean",
		},
		"Profile": {
			Type:        StringType,
			Description: "Profile used to resolve the bean",
		},
	},
	Examples: []string{
		"//knockoff::mutable_bean",
		"//knockoff::mutable_bean primary",
	},
}

// QualifierAnnotationSchema defines the schema for //knockoff::qualifier annotations
var QualifierAnnotationSchema = AnnotationSchema{
	Type:        QualifierAnnotation,
	Description: "Names a bean, or the bean expected by a factory parameter",
	Positional:  []string{"Name"},
	Parameters: map[string]ParameterSpec{
		"Name": {
			Type:        StringType,
			Required:    true,
			Description: "Qualifier name",
		},
		"Param": {
			Type:        StringType,
			Description: "Factory function parameter the qualifier applies to",
		},
	},
	Examples: []string{
		"//knockoff::qualifier primary",
		"//knockoff::qualifier readonly -Param=db",
	},
}

// ProfileAnnotationSchema defines the schema for //knockoff::profile annotations
var ProfileAnnotationSchema = AnnotationSchema{
	Type:        ProfileAnnotation,
	Description: "Restricts a bean to the listed profiles",
	Positional:  []string{"Names"},
	Parameters: map[string]ParameterSpec{
		"Names": {
			Type:        StringSliceType,
			Required:    true,
			Description: "Comma separated profile names",
		},
	},
	Examples: []string{
		"//knockoff::profile dev",
		"//knockoff::profile dev,test",
	},
}

// AspectAnnotationSchema defines the schema for //knockoff::aspect annotations
var AspectAnnotationSchema = AnnotationSchema{
	Type:        AspectAnnotation,
	Description: "Marks a function as method advice applied to every method matching the pointcut",
	Positional:  []string{"Pointcut"},
	Parameters: map[string]ParameterSpec{
		"Pointcut": {
			Type:        StringType,
			Required:    true,
			Description: "Dot separated pattern: * matches one segment, ** the rest, a|b either",
			Validator:   ValidatePointcut,
		},
		"Order": {
			Type:        IntType,
			Description: "Position in the advice chain, lower runs first",
		},
	},
	Examples: []string{
		"//knockoff::aspect services.One.*",
		"//knockoff::aspect services.**",
		"//knockoff::aspect services.One|Two.Run -Order=1",
	},
}

// OrderedAnnotationSchema defines the schema for //knockoff::ordered annotations
var OrderedAnnotationSchema = AnnotationSchema{
	Type:        OrderedAnnotation,
	Description: "Sets the order of an aspect",
	Positional:  []string{"Order"},
	Parameters: map[string]ParameterSpec{
		"Order": {
			Type:        IntType,
			Required:    true,
			Description: "Position in the advice chain, lower runs first",
		},
	},
	Examples: []string{
		"//knockoff::ordered 0",
		"//knockoff::ordered 10",
	},
}

// IgnoreAnnotationSchema defines the schema for //knockoff::ignore annotations
var IgnoreAnnotationSchema = AnnotationSchema{
	Type:        IgnoreAnnotation,
	Description: "Excludes a declaration from all processing",
	Parameters:  map[string]ParameterSpec{},
	Examples: []string{
		"//knockoff::ignore",
	},
}

// RegisterBuiltinSchemas registers all built-in annotation schemas with the given registry
func RegisterBuiltinSchemas(registry *Registry) error {
	for _, schema := range GetBuiltinSchemas() {
		if err := registry.Register(schema.Type, schema); err != nil {
			return fmt.Errorf("failed to register %s schema: %w", schema.Type, err)
		}
	}
	return nil
}

// GetBuiltinSchemas returns all built-in annotation schemas
func GetBuiltinSchemas() []AnnotationSchema {
	return []AnnotationSchema{
		ServiceAnnotationSchema,
		BeanAnnotationSchema,
		PrototypeAnnotationSchema,
		AutowiredAnnotationSchema,
		MutableBeanAnnotationSchema,
		QualifierAnnotationSchema,
		ProfileAnnotationSchema,
		AspectAnnotationSchema,
		OrderedAnnotationSchema,
		IgnoreAnnotationSchema,
	}
}
