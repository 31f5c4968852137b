package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/toyz/knockoff/internal/cli"
	"github.com/toyz/knockoff/internal/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("knockoff", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		moduleFlag  = flags.String("module", "", "Custom module name for imports (defaults to go.mod module)")
		outFlag     = flags.String("out", "", "Output directory (defaults to knockoff.toml, OUT_DIR or knockoff_out)")
		configFlag  = flags.String("config", "", "Path to knockoff.toml (defaults to the module root)")
		profileFlag = flags.String("profile", "", "Comma separated profiles to generate; DefaultProfile is always generated")
		dryRunFlag  = flags.Bool("dry-run", false, "Analyze and generate without writing anything")
		verboseFlag = flags.Bool("verbose", false, "Enable verbose output and detailed error reporting")
		quietFlag   = flags.Bool("quiet", false, "Only show errors")
		cleanFlag   = flags.Bool("clean", false, "Delete the output directory")
		helpFlag    = flags.Bool("help", false, "Show help information")
	)

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: knockoff [options] [directory-patterns...]\n\n")
		fmt.Fprintf(stderr, "knockoff Code Generator\n")
		fmt.Fprintf(stderr, "Scans Go packages for //knockoff:: directives, weaves aspects and generates a bean factory per profile.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(stderr, "\nDirectory Patterns:\n")
		fmt.Fprintf(stderr, "  ./...              Scan current directory and all subdirectories recursively (default)\n")
		fmt.Fprintf(stderr, "  ./internal/...     Scan internal directory and all its subdirectories\n")
		fmt.Fprintf(stderr, "  ./pkg/services     Scan only the specific directory (no recursion)\n")
		fmt.Fprintf(stderr, "\nEnvironment:\n")
		fmt.Fprintf(stderr, "  OUT_DIR, KNOCKOFF_FACTORIES, KNOCKOFF_PRECOMPILE, PROJECT_BASE_DIRECTORY,\n")
		fmt.Fprintf(stderr, "  KNOCKOFF_LOG_LEVEL, KNOCKOFF_LOG_FORMAT, KNOCKOFF_LOG_FILE\n")
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  knockoff ./...                          # Generate for the whole module\n")
		fmt.Fprintf(stderr, "  knockoff -profile dev,test ./...        # Only the dev and test profiles\n")
		fmt.Fprintf(stderr, "  knockoff -out build/gen ./internal/...  # Custom output directory\n")
		fmt.Fprintf(stderr, "  knockoff -dry-run -verbose ./...        # Show what would be written\n")
		fmt.Fprintf(stderr, "  knockoff -clean                         # Delete the output directory\n")
	}

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *helpFlag {
		flags.Usage()
		return 0
	}
	if *quietFlag && *verboseFlag {
		fmt.Fprintf(stderr, "Error: -quiet and -verbose cannot be combined\n\n")
		flags.Usage()
		return 2
	}

	var diagnostics *utils.DiagnosticSystem
	switch {
	case *quietFlag:
		diagnostics = utils.NewQuietDiagnostics()
	case *verboseFlag:
		diagnostics = utils.NewVerboseDiagnostics()
	default:
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	if stdout != os.Stdout || stderr != os.Stderr {
		diagnostics.SetOutput(stdout, stderr)
	}

	cfg := cli.Config{
		Patterns:   flags.Args(),
		ModuleName: *moduleFlag,
		Out:        *outFlag,
		ConfigPath: *configFlag,
		Profiles:   splitList(*profileFlag),
		DryRun:     *dryRunFlag,
		Verbose:    *verboseFlag,
		Quiet:      *quietFlag,
		Clean:      *cleanFlag,
	}

	generator := cli.NewGenerator(*verboseFlag, diagnostics)
	if err := generator.Run(ctx, cfg); err != nil {
		generator.ReportError(err)
		return 1
	}
	return 0
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
