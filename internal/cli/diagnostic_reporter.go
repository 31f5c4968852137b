package cli

import (
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/utils"
)

// DiagnosticReporter provides user-friendly error reporting and diagnostics
type DiagnosticReporter struct {
	verbose     bool
	diagnostics *utils.DiagnosticSystem
}

// NewDiagnosticReporter creates a new diagnostic reporter printing through diagnostics
func NewDiagnosticReporter(verbose bool, diagnostics *utils.DiagnosticSystem) *DiagnosticReporter {
	if diagnostics == nil {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	return &DiagnosticReporter{
		verbose:     verbose,
		diagnostics: diagnostics,
	}
}

func (r *DiagnosticReporter) out() io.Writer {
	return r.diagnostics.ErrorWriter()
}

// ReportWarning prints a warning found by a pipeline stage
func (r *DiagnosticReporter) ReportWarning(err errors.KnockoffError) {
	if r.diagnostics.Level() < utils.DiagnosticWarn {
		return
	}
	fmt.Fprintf(r.out(), "%s %s\n", r.diagnostics.Paint("!", color.FgYellow, color.Bold), err.Error())
	if r.verbose {
		for _, suggestion := range err.Suggestions() {
			fmt.Fprintf(r.out(), "    hint: %s\n", suggestion)
		}
	}
}

// ReportError prints a failed run with every error it collected
func (r *DiagnosticReporter) ReportError(err error) {
	if err == nil || r.diagnostics.Level() < utils.DiagnosticError {
		return
	}

	fmt.Fprintf(r.out(), "\n%s\n", r.diagnostics.Paint("ERROR: Code Generation Failed", color.FgRed, color.Bold))
	fmt.Fprintf(r.out(), "=============================\n\n")

	var multi *errors.MultipleErrors
	if stderrors.As(err, &multi) && len(multi.Errors) > 1 {
		for i, e := range multi.Errors {
			fmt.Fprintf(r.out(), "(%d/%d)\n", i+1, len(multi.Errors))
			r.reportGeneratorError(ToGeneratorError(e))
		}
	} else {
		r.reportGeneratorError(ToGeneratorError(err))
	}
	fmt.Fprintln(r.out())
}

// ToGeneratorError converts a pipeline error into the CLI's error record
func ToGeneratorError(err error) *models.GeneratorError {
	var genErr *models.GeneratorError
	if stderrors.As(err, &genErr) {
		return genErr
	}

	var ke errors.KnockoffError
	if !stderrors.As(err, &ke) {
		return &models.GeneratorError{Type: -1, Message: err.Error()}
	}

	loc := ke.Location()
	out := &models.GeneratorError{
		Type:        errorType(errors.CodeOf(err)),
		File:        loc.File,
		Line:        loc.Line,
		Suggestions: ke.Suggestions(),
		Context:     ke.Context(),
		Cause:       ke.Unwrap(),
	}
	if base, ok := ke.(*errors.BaseError); ok {
		out.Message = base.Message
	} else {
		out.Message = ke.Error()
	}
	return out
}

func errorType(code errors.ErrorCode) models.ErrorType {
	switch code {
	case errors.SyntaxErrorCode, errors.SchemaErrorCode:
		return models.ErrorTypeAnnotationSyntax
	case errors.ValidationErrorCode, errors.RegistrationErrorCode:
		return models.ErrorTypeValidation
	case errors.FileSystemErrorCode:
		return models.ErrorTypeFileSystem
	case errors.ShapeErrorCode:
		return models.ErrorTypeShape
	case errors.DependencyErrorCode:
		return models.ErrorTypeDependency
	case errors.WeaveErrorCode:
		return models.ErrorTypeWeave
	case errors.ConfigurationErrorCode:
		return models.ErrorTypeConfiguration
	default:
		return models.ErrorTypeGeneration
	}
}

func (r *DiagnosticReporter) reportGeneratorError(genErr *models.GeneratorError) {
	title := genErr.Type.String()
	fmt.Fprintf(r.out(), "Type: %s\n", title)
	fmt.Fprintf(r.out(), "%s\n\n", strings.Repeat("-", len(title)+6))

	fmt.Fprintf(r.out(), "Message: %s\n\n", genErr.Message)
	if genErr.Cause != nil {
		fmt.Fprintf(r.out(), "Cause: %s\n\n", genErr.Cause.Error())
	}

	if genErr.File != "" {
		if genErr.Line > 0 {
			fmt.Fprintf(r.out(), "Location: %s:%d\n\n", genErr.File, genErr.Line)
		} else {
			fmt.Fprintf(r.out(), "File: %s\n\n", genErr.File)
		}
	}

	if len(genErr.Context) > 0 {
		r.printContext(genErr.Context)
	}
	if len(genErr.Suggestions) > 0 {
		r.printSuggestions(genErr.Suggestions)
	}
	r.printAdditionalHelp(genErr.Type)

	if r.verbose {
		r.printErrorChain(genErr.Cause)
	}
}

// printContext prints context information, the well-known keys first
func (r *DiagnosticReporter) printContext(context map[string]any) {
	fmt.Fprintf(r.out(), "Context:\n")

	important := []string{"bean", "method", "profile", "cycle", "type", "path"}
	printed := make(map[string]bool)
	for _, key := range important {
		if value, ok := context[key]; ok {
			fmt.Fprintf(r.out(), "   %s: %v\n", formatContextKey(key), value)
			printed[key] = true
		}
	}

	var rest []string
	for key := range context {
		if !printed[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		fmt.Fprintf(r.out(), "   %s: %v\n", formatContextKey(key), context[key])
	}
	fmt.Fprintln(r.out())
}

// formatContextKey turns snake_case keys into Title Case
func formatContextKey(key string) string {
	parts := strings.Split(key, "_")
	for i, part := range parts {
		if len(part) > 0 {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(r.out(), "Suggestions:\n")
	for i, suggestion := range suggestions {
		lines := strings.Split(suggestion, "\n")
		fmt.Fprintf(r.out(), "   %d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.out(), "      %s\n", line)
			}
		}
	}
	fmt.Fprintln(r.out())
}

func (r *DiagnosticReporter) printAdditionalHelp(errorType models.ErrorType) {
	switch errorType {
	case models.ErrorTypeAnnotationSyntax:
		fmt.Fprintf(r.out(), "Directive Syntax Help:\n")
		fmt.Fprintf(r.out(), "  - Directives start with //knockoff:: and sit directly above the declaration\n")
		fmt.Fprintf(r.out(), "  - Options are written -Key=Value after the positional values\n\n")
	case models.ErrorTypeShape:
		fmt.Fprintf(r.out(), "Supported Dependency Types:\n")
		fmt.Fprintf(r.out(), "  - T, *T, an interface, knockoff.Box[I]\n")
		fmt.Fprintf(r.out(), "  - *knockoff.Mutex[T] for shared mutable beans\n")
		fmt.Fprintf(r.out(), "  - func() T for prototype providers\n\n")
	case models.ErrorTypeDependency:
		fmt.Fprintf(r.out(), "Dependency Help:\n")
		fmt.Fprintf(r.out(), "  - Singletons are built eagerly, so their graph must be acyclic\n")
		fmt.Fprintf(r.out(), "  - A func() T field resolves on call and does not take part in the order\n\n")
	}

	fmt.Fprintf(r.out(), "For more help:\n")
	fmt.Fprintf(r.out(), "  - Run with -verbose for more detailed output\n")
}

func (r *DiagnosticReporter) printErrorChain(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(r.out(), "\nError Chain:\n")
	for level := 1; err != nil; level++ {
		fmt.Fprintf(r.out(), "   %d. %s\n", level, err.Error())
		err = stderrors.Unwrap(err)
	}
}

// ReportSuccess prints the summary of a finished run
func (r *DiagnosticReporter) ReportSuccess(summary GenerationSummary) {
	r.diagnostics.Summary("Generation summary", map[string]any{
		"packages":        summary.PackagesProcessed,
		"beans":           summary.Stats.Beans,
		"interfaces":      summary.Stats.AbstractBeans,
		"edges":           summary.Stats.Edges,
		"unresolved":      summary.Stats.Unresolved,
		"profiles":        summary.Stats.Profiles,
		"woven methods":   summary.Stats.WovenMethods,
		"proceed methods": summary.Stats.ProceedMethods,
		"files written":   len(summary.GeneratedFiles),
	})

	if r.verbose && len(summary.GeneratedFiles) > 0 {
		r.diagnostics.PhaseHeader("Generated files")
		for _, file := range summary.GeneratedFiles {
			r.diagnostics.List("%s", file)
		}
	}
}

// GenerationSummary contains information about the generation process
type GenerationSummary struct {
	PackagesProcessed int
	Stats             models.GenerationStats
	Warnings          int
	GeneratedFiles    []string
}
