package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinSchemas(t *testing.T) {
	parser := newTestParser(t)

	for _, schema := range GetBuiltinSchemas() {
		t.Run(schema.Type.String(), func(t *testing.T) {
			assert.NotEmpty(t, schema.Description)
			require.NotEmpty(t, schema.Examples)
			for _, example := range schema.Examples {
				parsed, err := parser.ParseAnnotation(example, SourceLocation{File: "example.go"})
				require.NoError(t, err, example)
				assert.Equal(t, schema.Type, parsed.Type)
			}
		})
	}
}

func TestValidateScope(t *testing.T) {
	assert.NoError(t, ValidateScope("singleton"))
	assert.NoError(t, ValidateScope("Prototype"))
	assert.Error(t, ValidateScope("session"))
}

func TestValidatePointcut(t *testing.T) {
	tests := []struct {
		pointcut string
		valid    bool
	}{
		{"services.One.Run", true},
		{"services.*.Run", true},
		{"services.**", true},
		{"services.One|Two.*", true},
		{".One", false},
		{"services..Run", false},
		{"services.", false},
	}

	for _, tt := range tests {
		t.Run(tt.pointcut, func(t *testing.T) {
			err := ValidatePointcut(tt.pointcut)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
