// Package config loads knockoff.toml and the environment, and reads and
// writes the factories manifest a generation run leaves in its output.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/utils"
)

const (
	// FileName is the configuration file looked up in the module root
	FileName = "knockoff.toml"

	// ManifestFileName is the default name of the factories manifest
	ManifestFileName = "knockoff.factories.toml"

	// DefaultOut is the output directory used when neither the file nor OUT_DIR sets one
	DefaultOut = "knockoff_out"

	// DefaultFactoryPackage is the package the profile constructors are generated into
	DefaultFactoryPackage = "knockoff_factory"
)

// Config is the content of knockoff.toml merged with the environment
type Config struct {
	// BaseDir is the module root; the directory holding go.mod is used when empty
	BaseDir string `toml:"base_dir" env:"PROJECT_BASE_DIRECTORY"`

	// Precompile analyzes the sources without writing anything
	Precompile bool `toml:"precompile" env:"KNOCKOFF_PRECOMPILE"`

	Generator Generator `toml:"generator"`
	Stages    []Stage   `toml:"stage"`
	Logging   Logging   `toml:"logging"`
}

// Generator configures the output of a run
type Generator struct {
	Out              string   `toml:"out" env:"OUT_DIR" env-default:"knockoff_out"`
	File             string   `toml:"file" env:"KNOCKOFF_FACTORIES" env-default:"knockoff.factories.toml"`
	FactoryPackage   string   `toml:"factory_package" env-default:"knockoff_factory"`
	IgnoreInterfaces []string `toml:"ignore_interfaces"`
	Profiles         []string `toml:"profiles"`
}

// Stage groups the providers scanned together
type Stage struct {
	Name      string     `toml:"name"`
	Providers []Provider `toml:"provider"`
}

// Provider is a source of beans: a directory pattern to scan, or in the
// manifest, a generated factory function
type Provider struct {
	Name     string   `toml:"name"`
	Path     string   `toml:"path"`
	Ident    string   `toml:"ident,omitempty"`
	Version  string   `toml:"version,omitempty"`
	RelPath  string   `toml:"relpath,omitempty"`
	Scope    string   `toml:"scope,omitempty"`
	Profiles []string `toml:"profiles,omitempty"`
}

// Logging configures the structured pipeline log
type Logging struct {
	Level      string `toml:"level" env:"KNOCKOFF_LOG_LEVEL" env-default:"info"`
	Format     string `toml:"format" env:"KNOCKOFF_LOG_FORMAT" env-default:"text"`
	File       string `toml:"file" env:"KNOCKOFF_LOG_FILE"`
	MaxSize    int    `toml:"max_size" env-default:"10"`
	MaxBackups int    `toml:"max_backups" env-default:"3"`
	MaxAge     int    `toml:"max_age" env-default:"7"`
	Compress   bool   `toml:"compress"`
}

// Load reads the configuration file at path, or knockoff.toml in dir when
// path is empty, and applies the environment on top. A missing default file
// is not an error.
func Load(path, dir string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, errors.WrapConfigurationError("environment", "read", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, errors.WrapConfigurationError(path, "read", err).
			WithSuggestion("Check the TOML syntax of " + filepath.Base(path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a run cannot start without
func (c *Config) Validate() error {
	var multi *errors.MultipleErrors

	if err := utils.ValidatePackageName("generator.factory_package")(c.Generator.FactoryPackage); err != nil {
		errors.AddToMultiple(&multi, errors.ConfigurationError("generator", err.Error()))
	}
	if c.Generator.Out == "" {
		errors.AddToMultiple(&multi, errors.ConfigurationError("generator", "out cannot be empty"))
	}
	for _, profile := range c.Generator.Profiles {
		if err := utils.ValidateProfileName("generator.profiles")(profile); err != nil {
			errors.AddToMultiple(&multi, errors.ConfigurationError("generator", err.Error()))
		}
	}
	for i, stage := range c.Stages {
		for j, provider := range stage.Providers {
			if provider.Path == "" {
				errors.AddToMultiple(&multi, errors.ConfigurationError("stage",
					fmt.Sprintf("provider %d of stage %d (%s) has no path", j, i, stage.Name)))
			}
		}
	}
	switch c.Logging.Format {
	case "text", "json", "":
	default:
		errors.AddToMultiple(&multi, errors.ConfigurationError("logging", "format must be text or json, got "+c.Logging.Format))
	}

	return multi.ErrOrNil()
}

// Patterns returns the directory patterns the stages ask to scan, in order
func (c *Config) Patterns() []string {
	var out []string
	seen := make(map[string]bool)
	for _, stage := range c.Stages {
		for _, provider := range stage.Providers {
			if provider.Path == "" || seen[provider.Path] {
				continue
			}
			seen[provider.Path] = true
			out = append(out, provider.Path)
		}
	}
	return out
}

// ManifestPath returns where the factories manifest goes for the output directory out
func (c *Config) ManifestPath(out string) string {
	file := c.Generator.File
	if file == "" {
		file = ManifestFileName
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(out, file)
}
