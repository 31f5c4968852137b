package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/utils"
)

// ModuleResolver handles resolving Go module information
type ModuleResolver struct {
	gomod *utils.GoModParser
}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{
		gomod: utils.NewGoModParser(utils.NewFileReader()),
	}
}

// Resolve finds the module the sources under startDir belong to.
// If customModule is provided it replaces the path read from go.mod; the
// module root is still the directory of the nearest go.mod, or startDir
// when there is none.
func (r *ModuleResolver) Resolve(customModule, startDir string) (*utils.GoModule, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, errors.WrapFileSystemError("resolve", startDir, err)
	}

	goModPath, findErr := r.gomod.FindGoModFile(absDir)
	if customModule != "" {
		if err := utils.ValidateImportPath("module")(customModule); err != nil {
			return nil, errors.ConfigurationError("module", err.Error())
		}
		mod := &utils.GoModule{Path: customModule, Root: absDir}
		if findErr == nil {
			mod.Root = filepath.Dir(goModPath)
		}
		return mod, nil
	}

	if findErr != nil {
		return nil, errors.WrapConfigurationError("go.mod", "find", findErr).
			WithContext("path", absDir).
			WithSuggestion("Run knockoff inside a Go module or pass -module")
	}

	mod, err := r.gomod.ParseModule(goModPath)
	if err != nil {
		return nil, errors.WrapConfigurationError("go.mod", "parse", err).
			WithContext("path", goModPath)
	}
	return mod, nil
}

// BuildPackagePath builds the full import path for a package directory of the module
func (r *ModuleResolver) BuildPackagePath(mod *utils.GoModule, packageDir string) (string, error) {
	absPackageDir, err := filepath.Abs(packageDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve package directory: %w", err)
	}

	relPath, err := filepath.Rel(mod.Root, absPackageDir)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("package directory %s is outside module root %s", packageDir, mod.Root)
	}

	importPath := filepath.ToSlash(relPath)
	if importPath == "." {
		return mod.Path, nil
	}
	return mod.Path + "/" + importPath, nil
}
