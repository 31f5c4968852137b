package utils

import (
	stderrors "errors"
	"fmt"
	"path/filepath"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
)

// ErrNoGoMod is returned when no go.mod encloses a directory
var ErrNoGoMod = stderrors.New("go.mod file not found")

// GoModule is the module declaration of a go.mod file
type GoModule struct {
	Path      string
	Root      string // directory holding go.mod
	GoVersion string
}

// GoModParser reads go.mod files through a FileReader
type GoModParser struct {
	reader *FileReader
}

func NewGoModParser(reader *FileReader) *GoModParser {
	return &GoModParser{reader: reader}
}

// ParseModule reads the module declaration of the go.mod at path
func (p *GoModParser) ParseModule(path string) (*GoModule, error) {
	path = filepath.Clean(path)
	if filepath.Base(path) != "go.mod" {
		return nil, fmt.Errorf("file is not a go.mod file: %s", path)
	}

	content, err := p.reader.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read go.mod file: %w", err)
	}
	f, err := modfile.ParseLax(path, content, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse go.mod file: %w", err)
	}
	if f.Module == nil {
		return nil, fmt.Errorf("no module declaration found in %s", path)
	}
	if err := module.CheckImportPath(f.Module.Mod.Path); err != nil {
		return nil, fmt.Errorf("invalid module path in %s: %w", path, err)
	}

	mod := &GoModule{Path: f.Module.Mod.Path, Root: filepath.Dir(path)}
	if f.Go != nil {
		mod.GoVersion = f.Go.Version
	}
	return mod, nil
}

// FindGoModFile returns the go.mod of dir or of its closest ancestor.
// Empty go.mod files are skipped.
func (p *GoModParser) FindGoModFile(dir string) (string, error) {
	for dir = filepath.Clean(dir); ; {
		candidate := filepath.Join(dir, "go.mod")
		if content, err := p.reader.ReadFile(candidate); err == nil && len(content) > 0 {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrNoGoMod
		}
		dir = parent
	}
}
