package templates

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/knockoff/internal/beanpath"
	"github.com/toyz/knockoff/internal/models"
)

// ImportManager handles import generation and deduplication for one generated file
type ImportManager struct {
	self            string // import path of the package being generated
	standardImports map[string]bool
	packageImports  map[string]string // alias -> path
}

// NewImportManager creates an import manager for the package at self
func NewImportManager(self string) *ImportManager {
	return &ImportManager{
		self:            self,
		standardImports: make(map[string]bool),
		packageImports:  make(map[string]string),
	}
}

// AddImport adds a standard library import
func (im *ImportManager) AddImport(importPath string) {
	if importPath != "" {
		im.standardImports[importPath] = true
	}
}

// AddPackageImport adds a package import under alias. An alias already
// bound to another path is an error.
func (im *ImportManager) AddPackageImport(alias, path string) error {
	if alias == "" || path == "" || path == im.self {
		return nil
	}
	if existing, ok := im.packageImports[alias]; ok && existing != path {
		return fmt.Errorf("import name %s refers to both %s and %s", alias, existing, path)
	}
	im.packageImports[alias] = path
	return nil
}

// AddPackageImports adds every alias -> path pair
func (im *ImportManager) AddPackageImports(imports map[string]string) error {
	aliases := make([]string, 0, len(imports))
	for alias := range imports {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		if err := im.AddPackageImport(alias, imports[alias]); err != nil {
			return err
		}
	}
	return nil
}

// Use returns the name to qualify identifiers of path with, importing it
// when needed. The generated package itself needs no qualifier.
func (im *ImportManager) Use(path string) string {
	if path == "" || path == im.self {
		return ""
	}
	if alias, ok := im.aliasOf(path); ok {
		return alias
	}

	base := beanpath.PackageName(path)
	alias := base
	for i := 2; ; i++ {
		if _, taken := im.packageImports[alias]; !taken {
			break
		}
		alias = fmt.Sprintf("%s%d", base, i)
	}
	im.packageImports[alias] = path
	return alias
}

// Qualify is a models.TypeRef qualifier importing the referenced packages
func (im *ImportManager) Qualify(ref models.TypeRef) string {
	return im.Use(ref.PkgPath)
}

func (im *ImportManager) aliasOf(path string) (string, bool) {
	var aliases []string
	for alias, p := range im.packageImports {
		if p == path {
			aliases = append(aliases, alias)
		}
	}
	if len(aliases) == 0 {
		return "", false
	}
	// prefer the conventional package name when several aliases exist
	sort.Strings(aliases)
	for _, alias := range aliases {
		if alias == beanpath.PackageName(path) {
			return alias, true
		}
	}
	return aliases[0], true
}

// HasImport reports whether path is imported under any name
func (im *ImportManager) HasImport(path string) bool {
	if im.standardImports[path] {
		return true
	}
	_, ok := im.aliasOf(path)
	return ok
}

// GenerateImports generates the import section, standard imports first
func (im *ImportManager) GenerateImports() string {
	if len(im.standardImports) == 0 && len(im.packageImports) == 0 {
		return ""
	}

	var std []string
	for imp := range im.standardImports {
		std = append(std, strconv.Quote(imp))
	}
	sort.Strings(std)

	var pkgs []string
	for alias, path := range im.packageImports {
		line := strconv.Quote(path)
		if alias != beanpath.PackageName(path) {
			line = alias + " " + line
		}
		pkgs = append(pkgs, line)
	}
	sort.Slice(pkgs, func(i, j int) bool {
		if pi, pj := importPath(pkgs[i]), importPath(pkgs[j]); pi != pj {
			return pi < pj
		}
		return pkgs[i] < pkgs[j]
	})

	var b strings.Builder
	b.WriteString("import (\n")
	for _, line := range std {
		b.WriteString("\t" + line + "\n")
	}
	if len(std) > 0 && len(pkgs) > 0 {
		b.WriteString("\n")
	}
	for _, line := range pkgs {
		b.WriteString("\t" + line + "\n")
	}
	b.WriteString(")\n")
	return b.String()
}

// importPath strips the alias of a rendered import line
func importPath(line string) string {
	if i := strings.Index(line, `"`); i >= 0 {
		return line[i:]
	}
	return line
}
