package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/toyz/knockoff/internal/aspect"
	"github.com/toyz/knockoff/internal/config"
	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/generator"
	"github.com/toyz/knockoff/internal/logging"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/parser"
	"github.com/toyz/knockoff/internal/profile"
	"github.com/toyz/knockoff/internal/utils"
)

// Generator coordinates the CLI generation process
type Generator struct {
	scanner        *DirectoryScanner
	moduleResolver *ModuleResolver
	cleaner        *Cleaner
	reporter       *DiagnosticReporter
	diagnostics    *utils.DiagnosticSystem
	summary        GenerationSummary
}

// NewGenerator creates a new CLI generator printing through diagnostics
func NewGenerator(verbose bool, diagnostics *utils.DiagnosticSystem) *Generator {
	if diagnostics == nil {
		diagnostics = utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	}
	return &Generator{
		scanner:        NewDirectoryScanner(),
		moduleResolver: NewModuleResolver(),
		cleaner:        NewCleaner(),
		reporter:       NewDiagnosticReporter(verbose, diagnostics),
		diagnostics:    diagnostics,
	}
}

// ReportError prints a failed run
func (g *Generator) ReportError(err error) {
	g.reporter.ReportError(err)
}

// session is the resolved state of one run
type session struct {
	cfg      Config
	file     *config.Config
	mod      *utils.GoModule
	out      string
	dryRun   bool
	logger   *slog.Logger
	profiles []string
}

// Run executes the complete generation process
func (g *Generator) Run(ctx context.Context, cfg Config) error {
	startTime := time.Now()
	g.summary = GenerationSummary{}

	s, closeLog, err := g.prepare(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	g.diagnostics.Header(s.mod.Path)
	g.diagnostics.SourcePath(s.mod.Root)
	s.logger.Debug("starting generation", "module", s.mod.Path, "root", s.mod.Root, "out", s.out, "dry_run", s.dryRun)

	if cfg.Clean {
		if err := g.cleaner.CleanOutput(s.mod.Root, s.out); err != nil {
			return err
		}
		g.diagnostics.Success("removed %s", s.out)
		return nil
	}

	// Scan
	g.diagnostics.PhaseHeader("Scanning")
	dirs, err := g.scan(s)
	if err != nil {
		return err
	}
	g.summary.PackagesProcessed = len(dirs)
	g.diagnostics.PhaseItem("%d packages", len(dirs))
	if err := ctx.Err(); err != nil {
		return err
	}

	c := models.NewParseContainer(s.mod.Path, s.mod.Root)
	files, err := g.scanner.LoadFiles(ctx, c, dirs)
	if err != nil {
		return err
	}

	// Parse
	g.diagnostics.PhaseHeader("Parsing")
	p := parser.NewParser(
		parser.WithLogger(s.logger),
		parser.WithIgnoredInterfaces(s.file.Generator.IgnoreInterfaces...),
	)
	if err := p.ParseFiles(c, files); err != nil {
		return err
	}
	g.warn(p.Warnings())
	g.diagnostics.PhaseItem("%d files, %d beans, %d aspects", len(c.Files), c.Constructible(), len(c.Aspects))
	if err := ctx.Err(); err != nil {
		return err
	}

	// Profiles
	builder := profile.NewBuilder(s.logger)
	tree, err := builder.Build(c, profile.DefaultModifiers(s.logger)...)
	if err != nil {
		return err
	}
	g.warn(builder.Warnings())
	g.selectProfiles(tree, s.profiles, s.logger)
	g.diagnostics.PhaseItem("profiles: %v", tree.Names())
	if err := ctx.Err(); err != nil {
		return err
	}

	// Weave
	if err := aspect.NewWeaver(s.logger).Weave(c); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Generate
	g.diagnostics.PhaseHeader("Generating")
	gen := generator.NewGenerator(
		generator.WithLogger(s.logger),
		generator.WithFactoryPackage(s.file.Generator.FactoryPackage),
	)
	result, err := gen.Generate(c, tree)
	if err != nil {
		return err
	}
	g.warn(gen.Warnings())
	g.summary.Stats = result.Stats
	if err := ctx.Err(); err != nil {
		return err
	}

	// Write
	if !s.dryRun {
		removed, err := g.cleaner.CleanGeneratedFiles([]string{s.out})
		if err != nil {
			return err
		}
		for _, path := range removed {
			g.diagnostics.Verbose("removed stale %s", path)
		}
	}
	writer := NewOutputWriter(s.mod.Root, s.out, s.dryRun, g.diagnostics)
	written, err := writer.Write(result)
	if err != nil {
		return err
	}

	manifestPath := s.file.ManifestPath(s.out)
	relOut, err := filepath.Rel(s.mod.Root, s.out)
	if err != nil {
		relOut = s.out
	}
	manifest := config.NewManifest(s.mod.Path, relOut, gen.FactoryPackage(), result)
	if !s.dryRun {
		if err := config.WriteManifest(manifestPath, manifest); err != nil {
			return err
		}
	}
	written = append(written, manifestPath)
	g.summary.GeneratedFiles = written

	s.logger.Info("run finished",
		"duration", time.Since(startTime).String(),
		"files", len(written),
		"warnings", g.summary.Warnings)

	g.reporter.ReportSuccess(g.summary)
	if s.dryRun {
		g.diagnostics.Info("dry run: nothing was written to %s", s.out)
		return nil
	}
	g.diagnostics.GenerationComplete()
	return nil
}

// prepare resolves the module, loads knockoff.toml and builds the logger
func (g *Generator) prepare(cfg Config) (*session, func() error, error) {
	dir := cfg.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, errors.WrapFileSystemError("resolve", ".", err)
		}
		dir = wd
	}

	mod, err := g.moduleResolver.Resolve(cfg.ModuleName, dir)
	if err != nil {
		return nil, nil, err
	}

	fileCfg, err := config.Load(cfg.ConfigPath, mod.Root)
	if err != nil {
		return nil, nil, err
	}
	if fileCfg.BaseDir != "" {
		base := fileCfg.BaseDir
		if !filepath.IsAbs(base) {
			base = filepath.Join(mod.Root, base)
		}
		if filepath.Clean(base) != mod.Root {
			if mod, err = g.moduleResolver.Resolve(cfg.ModuleName, base); err != nil {
				return nil, nil, err
			}
		}
	}

	logger, closeLog := logging.New(fileCfg.Logging)

	out := fileCfg.Generator.Out
	if cfg.Out != "" {
		out = cfg.Out
	}
	if !filepath.IsAbs(out) {
		out = filepath.Join(mod.Root, out)
	}

	profiles := fileCfg.Generator.Profiles
	if len(cfg.Profiles) > 0 {
		profiles = cfg.Profiles
	}
	for _, name := range profiles {
		if err := utils.ValidateProfileName("profile")(name); err != nil {
			_ = closeLog()
			return nil, nil, errors.ConfigurationError("profile", err.Error())
		}
	}

	return &session{
		cfg:      cfg,
		file:     fileCfg,
		mod:      mod,
		out:      filepath.Clean(out),
		dryRun:   cfg.DryRun || fileCfg.Precompile,
		logger:   logger,
		profiles: profiles,
	}, closeLog, nil
}

// scan finds the package directories of the command line patterns, which are
// relative to the working directory, and of the configured stages, which are
// relative to the module root. Without any pattern the whole module is scanned.
func (g *Generator) scan(s *session) ([]string, error) {
	base := s.cfg.Dir
	if base == "" {
		base = s.mod.Root
		if wd, err := os.Getwd(); err == nil {
			base = wd
		}
	}

	patterns := s.cfg.Patterns
	stagePatterns := s.file.Patterns()
	if len(patterns) == 0 && len(stagePatterns) == 0 {
		patterns = []string{"./..."}
		base = s.mod.Root
	}

	dirs, err := g.scanner.ScanDirectories(base, patterns, s.out)
	if err != nil {
		return nil, err
	}
	if len(stagePatterns) > 0 {
		more, err := g.scanner.ScanDirectories(s.mod.Root, stagePatterns, s.out)
		if err != nil {
			return nil, err
		}
		dirs = append(dirs, more...)
		sort.Strings(dirs)
		dirs = slices.Compact(dirs)
	}

	for _, dir := range dirs {
		pkgPath, err := g.moduleResolver.BuildPackagePath(s.mod, dir)
		if err != nil {
			return nil, errors.WrapConfigurationError("patterns", "resolve", err).
				WithContext("dir", dir).
				WithSuggestion("Only directories inside the module can be scanned")
		}
		g.diagnostics.Verbose("scanning %s (%s)", pkgPath, dir)
	}
	return dirs, nil
}

// selectProfiles drops the named profiles that were not asked for. An empty
// selection keeps every profile and DefaultProfile is always kept.
func (g *Generator) selectProfiles(tree *models.ProfileTree, selected []string, logger *slog.Logger) {
	if len(selected) == 0 {
		return
	}
	keep := map[string]bool{models.DefaultProfile: true}
	for _, name := range selected {
		keep[name] = true
		if _, ok := tree.Profiles[name]; !ok {
			g.diagnostics.Warn("profile %s has no beans", name)
		}
	}
	for name := range tree.Profiles {
		if !keep[name] {
			logger.Debug("dropping profile", "profile", name)
			delete(tree.Profiles, name)
		}
	}
}

func (g *Generator) warn(warnings []errors.KnockoffError) {
	for _, w := range warnings {
		g.reporter.ReportWarning(w)
	}
	g.summary.Warnings += len(warnings)
}
