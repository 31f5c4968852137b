package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	assert.Equal(t, "validation error for field 'out': cannot be empty",
		ValidationError{Field: "out", Message: "cannot be empty"}.Error())
	assert.Equal(t, "validation error: bad", ValidationError{Message: "bad"}.Error())
}

func TestChain(t *testing.T) {
	calls := 0
	counting := func(string) error {
		calls++
		return nil
	}

	validate := Chain(NotEmpty("name"), counting, MatchesRegex("name", `^[a-z]+$`))

	require.NoError(t, validate("abc"))
	assert.Equal(t, 1, calls)

	err := validate("")
	require.Error(t, err)
	assert.Equal(t, 1, calls, "the chain stops at the first failure")

	var verr ValidationError
	require.ErrorAs(t, validate("ABC"), &verr)
	assert.Equal(t, "name", verr.Field)
	assert.Equal(t, "ABC", verr.Value)
	assert.Contains(t, verr.Message, "must match pattern")
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name     string
		validate Validator[string]
		valid    []string
		invalid  []string
	}{
		{
			name:     "profile name",
			validate: ValidateProfileName("profile"),
			valid:    []string{"dev", "IntegrationTest", "stage-2", "local_db"},
			invalid:  []string{"2stage", "dev profile", "", "-dev"},
		},
		{
			name:     "package name",
			validate: ValidatePackageName("package"),
			valid:    []string{"knockoff_factory", "wiring", "_x"},
			invalid:  []string{"func", "knockoff-factory", "", "9pkg"},
		},
		{
			name:     "import path",
			validate: ValidateImportPath("module"),
			valid:    []string{"github.com/toyz/knockoff", "app", "example.com/app/v2"},
			invalid:  []string{"/app", "example.com/my app", "", "example.com//app"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, value := range tt.valid {
				assert.NoError(t, tt.validate(value), value)
			}
			for _, value := range tt.invalid {
				assert.Error(t, tt.validate(value), value)
			}
		})
	}
}
