package cli

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/utils"
)

func newTestReporter(verbose bool, level utils.DiagnosticLevel) (*DiagnosticReporter, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	diagnostics := utils.NewDiagnosticSystem(level)
	diagnostics.SetOutput(&out, &errOut)
	return NewDiagnosticReporter(verbose, diagnostics), &out, &errOut
}

func TestToGeneratorError(t *testing.T) {
	cause := stderrors.New("unexpected token")

	tests := []struct {
		name string
		err  error
		want *models.GeneratorError
	}{
		{
			name: "shape error",
			err:  errors.WrapShapeError("chan int", errors.SourceLocation{File: "a.go", Line: 7}, cause),
			want: &models.GeneratorError{
				Type:        models.ErrorTypeShape,
				File:        "a.go",
				Line:        7,
				Message:     "unsupported dependency type 'chan int'",
				Suggestions: []string{"Use T, *T, *knockoff.Mutex[T], knockoff.Box[I], func() T or an interface type"},
				Context:     map[string]any{"type": "chan int"},
				Cause:       cause,
			},
		},
		{
			name: "configuration error",
			err:  errors.ConfigurationError("generator", "out cannot be empty"),
			want: &models.GeneratorError{
				Type:    models.ErrorTypeConfiguration,
				Message: "configuration error in 'generator': out cannot be empty",
				Context: map[string]any{"config_type": "generator"},
			},
		},
		{
			name: "plain error",
			err:  stderrors.New("boom"),
			want: &models.GeneratorError{Type: -1, Message: "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToGeneratorError(tt.err)
			assert.Equal(t, tt.want.Type, got.Type)
			assert.Equal(t, tt.want.File, got.File)
			assert.Equal(t, tt.want.Line, got.Line)
			assert.Equal(t, tt.want.Message, got.Message)
			assert.Equal(t, tt.want.Cause, got.Cause)
			assert.ElementsMatch(t, tt.want.Suggestions, got.Suggestions)
			for key, value := range tt.want.Context {
				assert.Equal(t, value, got.Context[key])
			}
		})
	}
}

func TestDiagnosticReporter_ReportError(t *testing.T) {
	reporter, out, errOut := newTestReporter(false, utils.DiagnosticInfo)

	reporter.ReportError(errors.CycleError([]string{"cyc.A", "cyc.B", "cyc.A"}).WithContext("profile", "DefaultProfile"))

	report := errOut.String()
	assert.Empty(t, out.String())
	assert.Contains(t, report, "ERROR: Code Generation Failed")
	assert.Contains(t, report, "Type: Dependency Error")
	assert.Contains(t, report, "Message: circular dependency: cyc.A -> cyc.B -> cyc.A")
	assert.Contains(t, report, "Profile: DefaultProfile")
	assert.Contains(t, report, "1. Break the cycle with a prototype provider")
	assert.Contains(t, report, "Dependency Help:")
	assert.NotContains(t, report, "Error Chain:")
}

func TestDiagnosticReporter_ReportMultipleErrors(t *testing.T) {
	reporter, _, errOut := newTestReporter(true, utils.DiagnosticInfo)

	var multi *errors.MultipleErrors
	errors.AddToMultiple(&multi, errors.ConfigurationError("generator", "out cannot be empty"))
	errors.AddToMultiple(&multi, errors.WrapFileSystemError("write", "out/a.go", stderrors.New("disk full")))
	reporter.ReportError(multi)

	report := errOut.String()
	assert.Contains(t, report, "(1/2)")
	assert.Contains(t, report, "(2/2)")
	assert.Contains(t, report, "Type: Configuration Error")
	assert.Contains(t, report, "Type: File System Error")
	assert.Contains(t, report, "Path: out/a.go")
	assert.Contains(t, report, "Config Type: generator")
	assert.Contains(t, report, "Error Chain:")
	assert.Contains(t, report, "disk full")
}

func TestDiagnosticReporter_Quiet(t *testing.T) {
	reporter, out, errOut := newTestReporter(false, utils.DiagnosticError)

	reporter.ReportWarning(errors.New(errors.ValidationErrorCode, "duplicate implementation"))
	reporter.ReportSuccess(GenerationSummary{PackagesProcessed: 2})
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())

	reporter.ReportError(errors.New(errors.GenerationErrorCode, "broken"))
	assert.Contains(t, errOut.String(), "Type: Code Generation Error")
}

func TestDiagnosticReporter_ReportSuccess(t *testing.T) {
	reporter, out, errOut := newTestReporter(true, utils.DiagnosticInfo)

	reporter.ReportWarning(errors.New(errors.ValidationErrorCode, "duplicate implementation").
		WithSuggestion("Give one of them a -Profile"))
	reporter.ReportSuccess(GenerationSummary{
		PackagesProcessed: 2,
		Stats:             models.GenerationStats{Beans: 4, Edges: 2, Profiles: 1},
		GeneratedFiles:    []string{"out/a.go"},
	})

	assert.Contains(t, errOut.String(), "duplicate implementation")
	assert.Contains(t, errOut.String(), "hint: Give one of them a -Profile")
	require.Contains(t, out.String(), "Generation summary")
	assert.Contains(t, out.String(), "   beans: 4")
	assert.Contains(t, out.String(), "   packages: 2")
	assert.Contains(t, out.String(), "- out/a.go")
}

func TestFormatContextKey(t *testing.T) {
	assert.Equal(t, "Config Type", formatContextKey("config_type"))
	assert.Equal(t, "Bean", formatContextKey("bean"))
}
