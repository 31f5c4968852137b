package generator

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"sort"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/toyz/knockoff/internal/beanpath"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/utils"
)

// splice applies the weaving edits of a file, appends its proceed methods and
// adds the imports the advice bodies use
func splice(file *models.SourceFile) ([]byte, error) {
	edits := append([]models.Edit(nil), file.Edits...)
	sort.Slice(edits, func(i, j int) bool { return edits[i].Start > edits[j].Start })

	src := file.Src
	limit := len(src)
	for _, edit := range edits {
		if edit.Start < 0 || edit.Start > edit.End || edit.End > limit {
			return nil, fmt.Errorf("edit [%d,%d) of %s overlaps another edit", edit.Start, edit.End, file.Rel)
		}
		var b bytes.Buffer
		b.Grow(len(src) - (edit.End - edit.Start) + len(edit.Text))
		b.Write(src[:edit.Start])
		b.WriteString(edit.Text)
		b.Write(src[edit.End:])
		src = b.Bytes()
		limit = edit.Start
	}

	if len(file.Appendix) > 0 {
		var b bytes.Buffer
		b.Write(bytes.TrimRight(src, "\n"))
		for _, decl := range file.Appendix {
			b.WriteString("\n\n")
			b.WriteString(decl)
		}
		b.WriteString("\n")
		src = b.Bytes()
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, file.Rel, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("woven source of %s does not parse: %w", file.Rel, err)
	}

	aliases := make([]string, 0, len(file.AddImports))
	for alias := range file.AddImports {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		importPath := file.AddImports[alias]
		name := alias
		if name == beanpath.PackageName(importPath) {
			name = ""
		}
		astutil.AddNamedImport(fset, f, name, importPath)
		if !astutil.UsesImport(f, importPath) {
			astutil.DeleteNamedImport(fset, f, name, importPath)
		}
	}
	pruneImports(fset, f, originalAST(file))

	var out bytes.Buffer
	if err := format.Node(&out, fset, f); err != nil {
		return nil, fmt.Errorf("failed to print woven source of %s: %w", file.Rel, err)
	}
	return utils.FormatGeneratedSource(file.Rel, out.Bytes())
}

// pruneImports removes the imports the original file used and f no longer does
func pruneImports(fset *token.FileSet, f *ast.File, original *ast.File) {
	if original == nil {
		return
	}
	var unused []*ast.ImportSpec
	for _, spec := range f.Imports {
		if spec.Name != nil && (spec.Name.Name == "_" || spec.Name.Name == ".") {
			continue
		}
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil || astutil.UsesImport(f, importPath) || !astutil.UsesImport(original, importPath) {
			continue
		}
		unused = append(unused, spec)
	}
	for _, spec := range unused {
		importPath, _ := strconv.Unquote(spec.Path.Value)
		name := ""
		if spec.Name != nil {
			name = spec.Name.Name
		}
		astutil.DeleteNamedImport(fset, f, name, importPath)
	}
}

func originalAST(file *models.SourceFile) *ast.File {
	if file.AST != nil {
		return file.AST
	}
	f, err := parser.ParseFile(token.NewFileSet(), file.Rel, file.Src, 0)
	if err != nil {
		return nil
	}
	return f
}
