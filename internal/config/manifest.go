package config

import (
	"bytes"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
)

// GeneratedStage is the stage name the manifest lists the generated factories under
const GeneratedStage = "generated"

// Manifest records what a generation run produced: the profiles of the
// factory package and one provider per generated bean factory
type Manifest struct {
	Module         string   `toml:"module"`
	Out            string   `toml:"out"`
	FactoryPackage string   `toml:"factory_package"`
	Profiles       []string `toml:"profiles"`
	Stages         []Stage  `toml:"stage"`
}

// NewManifest describes a generation result
func NewManifest(module, out, factoryPackage string, result *models.GenerationResult) *Manifest {
	m := &Manifest{
		Module:         module,
		Out:            filepath.ToSlash(out),
		FactoryPackage: factoryPackage,
		Profiles:       append([]string(nil), result.Profiles...),
	}

	stage := Stage{Name: GeneratedStage}
	for _, p := range result.Providers {
		stage.Providers = append(stage.Providers, Provider{
			Name:     p.BeanID,
			Path:     p.PkgPath,
			Ident:    p.Ident,
			RelPath:  relPath(module, p.PkgPath),
			Scope:    p.Scope,
			Profiles: p.Profiles,
		})
	}
	m.Stages = append(m.Stages, stage)
	return m
}

// relPath returns the package directory relative to the module root
func relPath(module, pkgPath string) string {
	if pkgPath == module {
		return "."
	}
	if rel, ok := strings.CutPrefix(pkgPath, module+"/"); ok {
		return path.Clean(rel)
	}
	return ""
}

// Providers returns the providers of every stage
func (m *Manifest) Providers() []Provider {
	var out []Provider
	for _, stage := range m.Stages {
		out = append(out, stage.Providers...)
	}
	return out
}

// Encode renders the manifest as TOML
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# Code generated by knockoff. DO NOT EDIT.\n\n")
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, errors.WrapConfigurationError("manifest", "encode", err)
	}
	return buf.Bytes(), nil
}

// WriteManifest writes the manifest to file, creating its directory
func WriteManifest(file string, m *Manifest) error {
	content, err := m.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return errors.WrapFileSystemError("create directory", filepath.Dir(file), err)
	}
	if err := os.WriteFile(file, content, 0o644); err != nil {
		return errors.WrapFileSystemError("write", file, err)
	}
	return nil
}

// LoadManifest reads a manifest written by WriteManifest
func LoadManifest(file string) (*Manifest, error) {
	m := &Manifest{}
	if err := cleanenv.ReadConfig(file, m); err != nil {
		return nil, errors.WrapConfigurationError(file, "read", err).
			WithSuggestion("Run knockoff again to regenerate " + filepath.Base(file))
	}
	return m, nil
}
