package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T) *ParticipleParser {
	t.Helper()
	registry := NewRegistry()
	require.NoError(t, RegisterBuiltinSchemas(registry))
	return NewParticipleParser(registry)
}

func TestParticipleParserBasic(t *testing.T) {
	parser := newTestParser(t)
	location := SourceLocation{File: "test.go", Line: 1, Column: 1}

	tests := []struct {
		name       string
		input      string
		wantType   AnnotationType
		wantParams map[string]any
	}{
		{
			name:       "bare service",
			input:      "//knockoff::service",
			wantType:   ServiceAnnotation,
			wantParams: map[string]any{},
		},
		{
			name:       "space after comment marker",
			input:      "// knockoff::bean",
			wantType:   BeanAnnotation,
			wantParams: map[string]any{},
		},
		{
			name:     "service with options",
			input:    "//knockoff::service -Qualifier=primary -Profile=dev,test -Mutable",
			wantType: ServiceAnnotation,
			wantParams: map[string]any{
				"Qualifier": []string{"primary"},
				"Profile":   []string{"dev", "test"},
				"Mutable":   true,
			},
		},
		{
			name:       "autowired positional qualifier",
			input:      "//knockoff::autowired primary",
			wantType:   AutowiredAnnotation,
			wantParams: map[string]any{"Qualifier": "primary"},
		},
		{
			name:       "autowired scope",
			input:      "//knockoff::autowired -Scope=prototype",
			wantType:   AutowiredAnnotation,
			wantParams: map[string]any{"Scope": "prototype"},
		},
		{
			name:       "quoted value",
			input:      `//knockoff::qualifier "read only" -Param=db`,
			wantType:   QualifierAnnotation,
			wantParams: map[string]any{"Name": "read only", "Param": "db"},
		},
		{
			name:       "aspect pointcut and order",
			input:      "//knockoff::aspect services.One|Two.* -Order=2",
			wantType:   AspectAnnotation,
			wantParams: map[string]any{"Pointcut": "services.One|Two.*", "Order": 2},
		},
		{
			name:       "aspect double wildcard",
			input:      "//knockoff::aspect services.**",
			wantType:   AspectAnnotation,
			wantParams: map[string]any{"Pointcut": "services.**"},
		},
		{
			name:       "ordered number",
			input:      "//knockoff::ordered 10",
			wantType:   OrderedAnnotation,
			wantParams: map[string]any{"Order": 10},
		},
		{
			name:       "negative order",
			input:      "//knockoff::ordered -5",
			wantType:   OrderedAnnotation,
			wantParams: map[string]any{"Order": -5},
		},
		{
			name:       "profile list",
			input:      "//knockoff::profile dev,test",
			wantType:   ProfileAnnotation,
			wantParams: map[string]any{"Names": []string{"dev", "test"}},
		},
		{
			name:       "ignore alias",
			input:      "//knockoff::knockoff_ignore",
			wantType:   IgnoreAnnotation,
			wantParams: map[string]any{},
		},
		{
			name:       "web marker is recognized without validation",
			input:      "//knockoff::get_mapping /users/{id}",
			wantType:   GetMappingAnnotation,
			wantParams: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parser.ParseAnnotation(tt.input, location)
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, result.Type)
			assert.Equal(t, tt.wantParams, result.Parameters)
			assert.Equal(t, tt.input, result.Raw)
			assert.Equal(t, location, result.Location)
		})
	}
}

func TestParticipleParserErrors(t *testing.T) {
	parser := newTestParser(t)
	location := SourceLocation{File: "bad.go", Line: 7, Column: 2}

	tests := []struct {
		name    string
		input   string
		wantErr Problem
	}{
		{name: "missing kind", input: "//knockoff::", wantErr: ProblemSyntax},
		{name: "unknown kind", input: "//knockoff::repository", wantErr: ProblemSyntax},
		{name: "unknown option", input: "//knockoff::service -Lazy", wantErr: ProblemParameter},
		{name: "extra positional", input: "//knockoff::service primary", wantErr: ProblemParameter},
		{name: "missing required", input: "//knockoff::ordered", wantErr: ProblemParameter},
		{name: "bad int", input: "//knockoff::aspect a.b -Order=first", wantErr: ProblemParameter},
		{name: "empty pointcut segment", input: "//knockoff::aspect a..b", wantErr: ProblemParameter},
		{name: "bad scope", input: "//knockoff::autowired -Scope=request", wantErr: ProblemParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parser.ParseAnnotation(tt.input, location)
			require.Error(t, err)
			assert.Nil(t, result)

			var directiveErr *DirectiveError
			require.ErrorAs(t, err, &directiveErr)
			assert.Equal(t, tt.wantErr, directiveErr.Problem)
			assert.Equal(t, location, directiveErr.Loc)
			assert.Contains(t, err.Error(), "bad.go:7:2")
		})
	}
}

func TestParseAnnotation_NotDirective(t *testing.T) {
	parser := newTestParser(t)

	for _, input := range []string{
		"// plain comment",
		"//go:generate knockoff",
		"/* knockoff::service */",
		"knockoff::service",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := parser.ParseAnnotation(input, SourceLocation{})
			assert.ErrorIs(t, err, ErrNotDirective)
			assert.False(t, IsDirective(input))
		})
	}

	assert.True(t, IsDirective("  //knockoff::service"))
}

func TestParseTag(t *testing.T) {
	parser := newTestParser(t)
	location := SourceLocation{File: "tag.go", Line: 4}

	tests := []struct {
		name       string
		tag        string
		wantNil    bool
		wantType   AnnotationType
		wantParams map[string]any
	}{
		{
			name:    "no knockoff key",
			tag:     `json:"one"`,
			wantNil: true,
		},
		{
			name:       "autowired",
			tag:        `knockoff:"autowired"`,
			wantType:   AutowiredAnnotation,
			wantParams: map[string]any{},
		},
		{
			name:     "options",
			tag:      `json:"-" knockoff:"autowired,qualifier=primary,profile=dev,mutable"`,
			wantType: AutowiredAnnotation,
			wantParams: map[string]any{
				"Qualifier": "primary",
				"Profile":   "dev",
				"Mutable":   true,
			},
		},
		{
			name:       "empty kind defaults to autowired",
			tag:        `knockoff:",qualifier=secondary"`,
			wantType:   AutowiredAnnotation,
			wantParams: map[string]any{"Qualifier": "secondary"},
		},
		{
			name:       "mutable bean",
			tag:        `knockoff:"mutable_bean"`,
			wantType:   MutableBeanAnnotation,
			wantParams: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parser.ParseTag(tt.tag, location)
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.Equal(t, tt.wantType, result.Type)
			assert.Equal(t, tt.wantParams, result.Parameters)
		})
	}

	_, err := parser.ParseTag(`knockoff:"autowired,lazy"`, location)
	assert.Error(t, err)
}

func TestParsedAnnotationAccessors(t *testing.T) {
	parsed := &ParsedAnnotation{Parameters: map[string]any{
		"Qualifier": "primary",
		"Mutable":   true,
		"Order":     3,
		"Profile":   []string{"dev"},
	}}

	assert.Equal(t, "primary", parsed.GetString("Qualifier"))
	assert.Equal(t, "fallback", parsed.GetString("Missing", "fallback"))
	assert.True(t, parsed.GetBool("Mutable"))
	assert.Equal(t, 3, parsed.GetInt("Order"))
	assert.Equal(t, 7, parsed.GetInt("Qualifier", 7))
	assert.Equal(t, []string{"dev"}, parsed.GetStringSlice("Profile"))
	assert.True(t, parsed.HasParameter("Order"))
	assert.False(t, parsed.HasParameter("Scope"))
}

func TestParseAnnotationType(t *testing.T) {
	for kind, want := range map[string]AnnotationType{
		"service":         ServiceAnnotation,
		"mutable_bean":    MutableBeanAnnotation,
		"knockoff_ignore": IgnoreAnnotation,
		"request_body":    RequestBodyAnnotation,
	} {
		got, err := ParseAnnotationType(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, want, got)
	}

	_, err := ParseAnnotationType("component")
	assert.Error(t, err)
	assert.True(t, ControllerAnnotation.IsWeb())
	assert.False(t, IgnoreAnnotation.IsWeb())
	assert.Equal(t, "unknown", AnnotationType(99).String())
}
