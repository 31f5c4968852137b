package cli

// Config holds the configuration for the CLI generator
type Config struct {
	// Patterns are the directory patterns to scan; "./..." recurses.
	// Stage providers of knockoff.toml are scanned as well.
	Patterns []string

	// ModuleName overrides the module path read from go.mod
	ModuleName string

	// Dir is where go.mod and knockoff.toml are looked up; the working directory when empty
	Dir string

	// Out overrides the output directory of knockoff.toml and OUT_DIR
	Out string

	// ConfigPath is an explicit knockoff.toml
	ConfigPath string

	// Profiles restricts the generated profiles; DefaultProfile is always kept
	Profiles []string

	DryRun  bool
	Verbose bool
	Quiet   bool

	// Clean removes the output directory instead of generating
	Clean bool
}
