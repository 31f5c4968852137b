package annotations

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Prefix introduces every knockoff directive after the comment marker
const Prefix = "knockoff::"

// TagKey is the struct tag key read for field-level directives
const TagKey = "knockoff"

// ParticipleParser parses //knockoff:: directives with alecthomas/participle
type ParticipleParser struct {
	parser   *participle.Parser[Directive]
	registry *Registry
}

// Directive is the grammar root: knockoff::<kind> followed by arguments
type Directive struct {
	Kind string      `parser:"Prefix @Word"`
	Args []*Argument `parser:"@@*"`
}

// Argument is either a -Key[=Value] option or a positional value
type Argument struct {
	Option *Option `parser:"  @@"`
	Value  *string `parser:"| @(String | Number | Word)"`
}

// Option is a -Key or -Key=Value pair
type Option struct {
	Key   string  `parser:"Dash @Word"`
	Value *string `parser:"( Equals @(String | Number | Word) )?"`
}

var directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `knockoff::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `-?[0-9]+\b`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Word", Pattern: `[^\s"=-][^\s"=]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// NewParticipleParser creates a new parser using participle
func NewParticipleParser(registry *Registry) *ParticipleParser {
	parser := participle.MustBuild[Directive](
		participle.Lexer(directiveLexer),
		participle.Elide("Whitespace"),
		participle.Unquote("String"),
	)

	return &ParticipleParser{
		parser:   parser,
		registry: registry,
	}
}

// IsDirective reports whether a comment line is a knockoff directive
func IsDirective(comment string) bool {
	_, ok := stripComment(comment)
	return ok
}

func stripComment(comment string) (string, bool) {
	text := strings.TrimSpace(comment)
	if !strings.HasPrefix(text, "//") {
		return "", false
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "//"))
	if !strings.HasPrefix(text, Prefix) {
		return "", false
	}
	return text, true
}

// ParseAnnotation parses a single //knockoff:: comment line.
// Comments that are not directives return ErrNotDirective.
func (p *ParticipleParser) ParseAnnotation(comment string, location SourceLocation) (*ParsedAnnotation, error) {
	text, ok := stripComment(comment)
	if !ok {
		return nil, ErrNotDirective
	}

	directive, err := p.parser.ParseString(location.File, text)
	if err != nil {
		return nil, &DirectiveError{
			Problem: ProblemSyntax,
			Msg:     err.Error(),
			Loc:     location,
			Hint:    "Use format: //knockoff::<kind> [value...] [-Key=Value...]",
		}
	}

	annotationType, err := ParseAnnotationType(directive.Kind)
	if err != nil {
		return nil, &DirectiveError{
			Problem: ProblemSyntax,
			Msg:     err.Error(),
			Loc:     location,
			Hint:    "Known kinds: service, bean, prototype, autowired, mutable_bean, qualifier, profile, aspect, ordered, ignore",
		}
	}

	parsed := &ParsedAnnotation{
		Type:       annotationType,
		Parameters: make(map[string]any),
		Location:   location,
		Raw:        strings.TrimSpace(comment),
	}
	if annotationType.IsWeb() {
		return parsed, nil
	}

	schema, hasSchema := p.schema(annotationType)

	positional := 0
	for _, arg := range directive.Args {
		if arg.Option != nil {
			key := arg.Option.Key
			if arg.Option.Value == nil {
				parsed.Parameters[key] = p.flagValue(schema, key)
				continue
			}
			parsed.Parameters[key] = convertParameterValue(schema, key, *arg.Option.Value)
			continue
		}

		if !hasSchema || positional >= len(schema.Positional) {
			return nil, paramError(fmt.Sprintf("#%d", positional+1),
				"unexpected positional value "+strconv.Quote(*arg.Value),
				"Pass extra values as -Key=Value options", location)
		}
		key := schema.Positional[positional]
		parsed.Parameters[key] = convertParameterValue(schema, key, *arg.Value)
		positional++
	}

	if hasSchema {
		if err := validateAgainstSchema(parsed, schema); err != nil {
			return nil, err
		}
	}

	return parsed, nil
}

// ParseTag parses the knockoff struct tag of a field, e.g.
// `knockoff:"autowired,qualifier=primary,profile=dev,mutable"`.
// Fields without the tag return nil, nil.
func (p *ParticipleParser) ParseTag(tag string, location SourceLocation) (*ParsedAnnotation, error) {
	value, ok := reflect.StructTag(tag).Lookup(TagKey)
	if !ok {
		return nil, nil
	}

	items := strings.Split(value, ",")
	kind := strings.TrimSpace(items[0])
	if kind == "" {
		kind = AutowiredAnnotation.String()
	}

	directive := Prefix + kind
	for _, item := range items[1:] {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, val, hasValue := strings.Cut(item, "=")
		key = exportKey(key)
		if hasValue {
			directive += fmt.Sprintf(" -%s=%s", key, strconv.Quote(val))
		} else {
			directive += " -" + key
		}
	}

	return p.ParseAnnotation("//"+directive, location)
}

func exportKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

func (p *ParticipleParser) schema(annotationType AnnotationType) (AnnotationSchema, bool) {
	if p.registry == nil {
		return AnnotationSchema{}, false
	}
	return p.registry.Schema(annotationType)
}

// flagValue resolves a bare -Key option: true for booleans, otherwise the declared default
func (p *ParticipleParser) flagValue(schema AnnotationSchema, key string) any {
	spec, ok := schema.Parameters[key]
	if !ok || spec.Type == BoolType || spec.DefaultValue == nil {
		return true
	}
	return spec.DefaultValue
}

// convertParameterValue converts a raw value to the type declared in the schema
func convertParameterValue(schema AnnotationSchema, key, raw string) any {
	spec, exists := schema.Parameters[key]
	if !exists {
		return raw
	}

	switch spec.Type {
	case IntType:
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	case BoolType:
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	case StringSliceType:
		var values []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
		return values
	}
	return raw
}

// validateAgainstSchema checks that provided parameters are known, well-typed
// and that required parameters are present
func validateAgainstSchema(annotation *ParsedAnnotation, schema AnnotationSchema) error {
	for name, value := range annotation.Parameters {
		spec, exists := schema.Parameters[name]
		if !exists {
			return paramError(name, "unknown parameter",
				fmt.Sprintf("Remove -%s or check the %s directive", name, annotation.Type), annotation.Location)
		}

		if !hasType(value, spec.Type) {
			return paramError(name, fmt.Sprintf("expected %s, got %v", spec.Type, value),
				spec.Description, annotation.Location)
		}

		if spec.Validator != nil {
			if err := spec.Validator(value); err != nil {
				return paramError(name, fmt.Sprintf("invalid value %v", value), err.Error(), annotation.Location)
			}
		}
	}

	for name, spec := range schema.Parameters {
		if !spec.Required {
			continue
		}
		if _, exists := annotation.Parameters[name]; !exists {
			return paramError(name, fmt.Sprintf("missing required %s value", spec.Type),
				fmt.Sprintf("Add %s to the %s directive", name, annotation.Type), annotation.Location)
		}
	}

	for _, validate := range schema.Validators {
		if err := validate(annotation); err != nil {
			return &DirectiveError{Problem: ProblemSchema, Msg: err.Error(), Loc: annotation.Location}
		}
	}

	return nil
}

func hasType(value any, parameterType ParameterType) bool {
	switch parameterType {
	case StringType:
		_, ok := value.(string)
		return ok
	case BoolType:
		_, ok := value.(bool)
		return ok
	case IntType:
		_, ok := value.(int)
		return ok
	case StringSliceType:
		_, ok := value.([]string)
		return ok
	default:
		return false
	}
}
