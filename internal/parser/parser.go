package parser

import (
	"fmt"
	"go/ast"
	"log/slog"
	"sort"
	"strings"

	"github.com/toyz/knockoff/internal/annotations"
	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/utils"
)

// Parser turns annotated Go declarations into bean definitions
type Parser struct {
	annotations *annotations.ParticipleParser
	logger      *slog.Logger
	ignored     map[string]bool
	warnings    []errors.KnockoffError
}

// Option configures a Parser
type Option func(*Parser)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIgnoredInterfaces excludes interfaces, by name or id, from implementation matching
func WithIgnoredInterfaces(names ...string) Option {
	return func(p *Parser) {
		for _, name := range names {
			p.ignored[name] = true
		}
	}
}

// NewParser creates a new annotation parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		annotations: annotations.NewParticipleParser(annotations.DefaultRegistry()),
		logger:      slog.New(slog.DiscardHandler),
		ignored:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Warnings returns the problems that were skipped while parsing
func (p *Parser) Warnings() []errors.KnockoffError {
	return p.warnings
}

func (p *Parser) warn(err errors.KnockoffError) {
	p.logger.Warn("skipping declaration", "error", err.Error())
	p.warnings = append(p.warnings, err)
}

// ParseSource parses source code from a string, mainly for tests
func (p *Parser) ParseSource(c *models.ParseContainer, filename, source string) error {
	file, err := LoadSource(c, filename, []byte(source))
	if err != nil {
		return errors.WrapParseError(filename, err)
	}
	return p.ParseFiles(c, []*models.SourceFile{file})
}

// ParseDirectory parses the Go files of a single package directory
func (p *Parser) ParseDirectory(c *models.ParseContainer, dir string) error {
	paths, err := utils.NewFileProcessor().SourceFiles(dir)
	if err != nil {
		return err
	}

	reader := utils.NewFileReaderWithFileSet(c.Fset)

	var files []*models.SourceFile
	for _, filePath := range paths {
		file, err := LoadFile(c, reader, filePath)
		if err != nil {
			return errors.WrapParseError(filePath, err)
		}
		files = append(files, file)
	}

	if len(files) == 0 {
		return fmt.Errorf("no Go files found in directory %s", dir)
	}
	return p.ParseFiles(c, files)
}

// ParseFiles registers every declaration of the files into the container.
// Types and interfaces come first so that methods, factory functions and
// dependency edges declared anywhere can refer to them.
func (p *Parser) ParseFiles(c *models.ParseContainer, files []*models.SourceFile) error {
	sorted := make([]*models.SourceFile, 0, len(files))
	for _, file := range files {
		if isGenerated(file) {
			p.logger.Debug("skipping generated file", "file", file.Path)
			continue
		}
		sorted = append(sorted, file)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, file := range sorted {
		c.Files[file.Path] = file
		p.parseTypes(c, file)
	}
	for name := range p.ignored {
		for _, iface := range c.Interfaces {
			if iface.Name == name || iface.ID == name {
				iface.Ignored = true
				c.Ignored[iface.ID] = true
			}
		}
	}
	for _, file := range sorted {
		if err := p.parseFuncs(c, file); err != nil {
			return err
		}
	}

	p.addImpls(c)

	for _, bean := range c.SortedBeans() {
		if err := p.AddDependencies(bean, c); err != nil {
			return err
		}
	}

	p.logger.Info("parsed sources",
		"files", len(sorted),
		"beans", c.Constructible(),
		"interfaces", len(c.Interfaces),
		"aspects", len(c.Aspects))
	return nil
}

// directives parses the //knockoff:: lines of the comment groups. Malformed
// directives become warnings, web-layer markers are dropped.
func (p *Parser) directives(c *models.ParseContainer, groups ...*ast.CommentGroup) []*annotations.ParsedAnnotation {
	var out []*annotations.ParsedAnnotation
	for _, group := range groups {
		if group == nil {
			continue
		}
		for _, comment := range group.List {
			if !annotations.IsDirective(comment.Text) {
				continue
			}
			loc := c.Location(comment.Slash)
			parsed, err := p.annotations.ParseAnnotation(comment.Text, annotations.SourceLocation(loc))
			if err != nil {
				p.warn(errors.WrapParseError("directive", err).WithLocation(errors.SourceLocation(loc)))
				continue
			}
			if parsed.Type.IsWeb() {
				p.logger.Debug("ignoring web directive", "directive", parsed.Raw, "location", loc.String())
				continue
			}
			out = append(out, parsed)
		}
	}
	return out
}

// tagDirective parses the knockoff struct tag of a field
func (p *Parser) tagDirective(c *models.ParseContainer, field *ast.Field) *annotations.ParsedAnnotation {
	if field.Tag == nil {
		return nil
	}
	tag := strings.Trim(field.Tag.Value, "`")
	loc := c.Location(field.Tag.Pos())
	parsed, err := p.annotations.ParseTag(tag, annotations.SourceLocation(loc))
	if err != nil {
		p.warn(errors.WrapParseError("struct tag", err).WithLocation(errors.SourceLocation(loc)))
		return nil
	}
	return parsed
}

func hasDirective(directives []*annotations.ParsedAnnotation, annotationType annotations.AnnotationType) bool {
	return findDirective(directives, annotationType) != nil
}

func findDirective(directives []*annotations.ParsedAnnotation, annotationType annotations.AnnotationType) *annotations.ParsedAnnotation {
	for _, directive := range directives {
		if directive.Type == annotationType {
			return directive
		}
	}
	return nil
}

// appendUnique appends values not already present
func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		found := false
		for _, existing := range dst {
			if existing == v {
				found = true
				break
			}
		}
		if !found && v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}
