package parser

import (
	"go/ast"
	"go/parser"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/toyz/knockoff/internal/beanpath"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/utils"
)

// LoadFile reads and parses a Go file into a SourceFile of the container's module.
// It only touches the container's FileSet and is safe to call concurrently.
func LoadFile(c *models.ParseContainer, reader *utils.FileReader, filePath string) (*models.SourceFile, error) {
	file, src, err := reader.ParseGoFileWithSource(filePath)
	if err != nil {
		return nil, err
	}
	return newSourceFile(c, filePath, file, src), nil
}

// LoadSource parses Go source held in memory
func LoadSource(c *models.ParseContainer, filename string, src []byte) (*models.SourceFile, error) {
	file, err := parser.ParseFile(c.Fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	return newSourceFile(c, filename, file, src), nil
}

func newSourceFile(c *models.ParseContainer, filePath string, file *ast.File, src []byte) *models.SourceFile {
	abs := filePath
	if a, err := filepath.Abs(filePath); err == nil && c.ModuleRoot != "" {
		abs = a
	}

	rel := filepath.Base(filePath)
	if c.ModuleRoot != "" {
		if r, err := filepath.Rel(c.ModuleRoot, abs); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}
	relDir := filepath.ToSlash(filepath.Dir(rel))
	if relDir == "." {
		relDir = ""
	}

	pkgName := file.Name.Name
	pkgPath := pkgName
	depth := pkgName
	if c.ModulePath != "" {
		pkgPath = c.ModulePath
		if relDir != "" {
			pkgPath = c.ModulePath + "/" + relDir
			depth = strings.ReplaceAll(relDir, "/", ".")
		}
	}

	return &models.SourceFile{
		Path:      abs,
		Rel:       filepath.ToSlash(rel),
		Package:   pkgName,
		PkgPath:   pkgPath,
		PathDepth: depth,
		AST:       file,
		Src:       src,
		Imports:   fileImports(file),
	}
}

// fileImports maps every package name usable in the file to its import path
func fileImports(file *ast.File) map[string]string {
	imports := make(map[string]string, len(file.Imports))
	for _, spec := range file.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := ImportName(importPath)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name == "_" || name == "." {
			continue
		}
		imports[name] = importPath
	}
	return imports
}

// ImportName guesses the package name of an import path
func ImportName(importPath string) string {
	return beanpath.PackageName(importPath)
}

// resolver builds the type name resolver of a file
func resolver(c *models.ParseContainer, file *models.SourceFile) beanpath.FileResolver {
	return beanpath.FileResolver{
		PkgPath:    file.PkgPath,
		Depth:      file.PathDepth,
		ModulePath: c.ModulePath,
		Imports:    file.Imports,
	}
}

// isGenerated reports whether the file is generator output
func isGenerated(file *models.SourceFile) bool {
	if utils.IsGeneratedFileName(filepath.Base(file.Path)) {
		return true
	}
	for _, group := range file.AST.Comments {
		if group.Pos() > file.AST.Package {
			break
		}
		for _, comment := range group.List {
			if strings.HasPrefix(comment.Text, generatedHeader) && strings.HasSuffix(comment.Text, "DO NOT EDIT.") {
				return true
			}
		}
	}
	return false
}
