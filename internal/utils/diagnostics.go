package utils

import (
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/fatih/color"
)

// DiagnosticLevel is how much terminal output a run prints
type DiagnosticLevel int

const (
	DiagnosticSilent DiagnosticLevel = iota
	DiagnosticError
	DiagnosticWarn
	DiagnosticInfo
	DiagnosticVerbose
	DiagnosticDebug
)

// tag is a bracketed message prefix and the level it needs
type tag struct {
	label  string
	level  DiagnosticLevel
	attr   color.Attribute
	stderr bool
}

var (
	tagError   = tag{"ERROR", DiagnosticError, color.FgRed, true}
	tagWarn    = tag{"WARN", DiagnosticWarn, color.FgYellow, true}
	tagInfo    = tag{"INFO", DiagnosticInfo, color.FgBlue, false}
	tagSuccess = tag{"SUCCESS", DiagnosticInfo, color.FgGreen, false}
	tagVerbose = tag{"VERBOSE", DiagnosticVerbose, color.FgHiBlack, false}
	tagDebug   = tag{"DEBUG", DiagnosticDebug, color.FgMagenta, false}
)

// DiagnosticSystem prints the progress of a run for humans. The structured
// pipeline log goes through slog instead.
type DiagnosticSystem struct {
	level     DiagnosticLevel
	useColors bool
	showTime  bool
	output    io.Writer
	errorOut  io.Writer
}

// NewDiagnosticSystem prints to stdout and stderr, in color on a terminal
func NewDiagnosticSystem(level DiagnosticLevel) *DiagnosticSystem {
	return &DiagnosticSystem{
		level:     level,
		useColors: shouldUseColors(),
		showTime:  level >= DiagnosticVerbose,
		output:    os.Stdout,
		errorOut:  os.Stderr,
	}
}

// NewQuietDiagnostics only prints errors
func NewQuietDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticError)
}

// NewVerboseDiagnostics prints everything but debug output
func NewVerboseDiagnostics() *DiagnosticSystem {
	return NewDiagnosticSystem(DiagnosticVerbose)
}

// SetOutput redirects both streams. Colors and timestamps are turned off.
func (d *DiagnosticSystem) SetOutput(out, errOut io.Writer) {
	d.output, d.errorOut = out, errOut
	d.useColors, d.showTime = false, false
}

func (d *DiagnosticSystem) Level() DiagnosticLevel { return d.level }
func (d *DiagnosticSystem) ErrorWriter() io.Writer { return d.errorOut }

// Paint renders s with attrs when colors are on
func (d *DiagnosticSystem) Paint(s string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if d.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

func (d *DiagnosticSystem) Error(format string, args ...any)   { d.tagged(tagError, format, args) }
func (d *DiagnosticSystem) Warn(format string, args ...any)    { d.tagged(tagWarn, format, args) }
func (d *DiagnosticSystem) Info(format string, args ...any)    { d.tagged(tagInfo, format, args) }
func (d *DiagnosticSystem) Success(format string, args ...any) { d.tagged(tagSuccess, format, args) }
func (d *DiagnosticSystem) Verbose(format string, args ...any) { d.tagged(tagVerbose, format, args) }
func (d *DiagnosticSystem) Debug(format string, args ...any)   { d.tagged(tagDebug, format, args) }

func (d *DiagnosticSystem) tagged(t tag, format string, args []any) {
	if d.level < t.level {
		return
	}
	w := d.output
	if t.stderr {
		w = d.errorOut
	}
	stamp := ""
	if d.showTime {
		stamp = time.Now().Format("15:04:05 ")
	}
	fmt.Fprintf(w, "%s%s %s\n", stamp, d.Paint("["+t.label+"]", t.attr), fmt.Sprintf(format, args...))
}

// line prints an untagged info line
func (d *DiagnosticSystem) line(format string, args ...any) {
	if d.level >= DiagnosticInfo {
		fmt.Fprintf(d.output, format, args...)
	}
}

// List prints a bullet
func (d *DiagnosticSystem) List(format string, args ...any) {
	d.line("- %s\n", fmt.Sprintf(format, args...))
}

// Summary prints title and the stats, keys sorted
func (d *DiagnosticSystem) Summary(title string, stats map[string]any) {
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	d.line("\n%s\n", d.Paint(title, color.Bold))
	for _, key := range keys {
		d.line("   %s: %v\n", key, stats[key])
	}
}

// Header prints the banner naming the module being generated
func (d *DiagnosticSystem) Header(module string) {
	d.line("%s %s\n", d.Paint("knockoff:", color.FgCyan, color.Bold), module)
}

func (d *DiagnosticSystem) SourcePath(path string) {
	d.line("Source Path: %s\n\n", path)
}

func (d *DiagnosticSystem) PhaseHeader(phase string) {
	d.line("%s\n", d.Paint(phase+":", color.FgBlue))
}

// PhaseItem prints a finished step
func (d *DiagnosticSystem) PhaseItem(format string, args ...any) {
	d.line("%s %s\n", d.Paint("✓", color.FgGreen), fmt.Sprintf(format, args...))
}

// PhaseProgress prints a file being written
func (d *DiagnosticSystem) PhaseProgress(format string, args ...any) {
	d.line("%s %s\n", d.Paint("✏", color.FgMagenta), fmt.Sprintf(format, args...))
}

func (d *DiagnosticSystem) GenerationComplete() {
	d.line("\n%s\n", d.Paint("knockoff: generation complete", color.FgGreen))
}

// shouldUseColors honours NO_COLOR, then FORCE_COLOR, then whether stdout is a terminal
func shouldUseColors() bool {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return false
	case os.Getenv("FORCE_COLOR") != "":
		return true
	}
	return !color.NoColor
}
