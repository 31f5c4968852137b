package utils

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
)

// FileReader reads and parses Go files once per file version. Parsed
// positions go to a shared token.FileSet, so one reader can serve the
// concurrent loaders of a run.
type FileReader struct {
	fileSet *token.FileSet
	sources *FileCache[[]byte]
	asts    *FileCache[*ast.File]
}

// NewFileReader creates a new FileReader with its own file set
func NewFileReader() *FileReader {
	return NewFileReaderWithFileSet(token.NewFileSet())
}

// NewFileReaderWithFileSet creates a FileReader recording positions in fset
func NewFileReaderWithFileSet(fset *token.FileSet) *FileReader {
	return &FileReader{
		fileSet: fset,
		sources: NewFileCache[[]byte](),
		asts:    NewFileCache[*ast.File](),
	}
}

// ParseGoFileWithSource parses a Go file with its comments and returns the
// AST together with the bytes it was parsed from
func (fr *FileReader) ParseGoFileWithSource(filePath string) (*ast.File, []byte, error) {
	path, err := cleanFilePath(filePath)
	if err != nil {
		return nil, nil, err
	}

	src, err := fr.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	file, err := fr.asts.Load(path, func() (*ast.File, error) {
		return parser.ParseFile(fr.fileSet, path, src, parser.ParseComments)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Go file %s: %w", filepath.Base(path), err)
	}
	return file, src, nil
}

// ReadFile reads a file, reusing the bytes of an unchanged file
func (fr *FileReader) ReadFile(filePath string) ([]byte, error) {
	path, err := cleanFilePath(filePath)
	if err != nil {
		return nil, err
	}

	src, err := fr.sources.Load(path, func() ([]byte, error) {
		return os.ReadFile(path)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath.Base(path), err)
	}
	return src, nil
}

// FileSet returns the token.FileSet positions are recorded in
func (fr *FileReader) FileSet() *token.FileSet {
	return fr.fileSet
}

// InvalidateFile forgets what was read from filePath
func (fr *FileReader) InvalidateFile(filePath string) {
	fr.sources.Invalidate(filePath)
	fr.asts.Invalidate(filePath)
}

// Stats returns the cache statistics of the source bytes and of the parsed files
func (fr *FileReader) Stats() (sources, asts CacheStats) {
	return fr.sources.Stats(), fr.asts.Stats()
}

func cleanFilePath(filePath string) (string, error) {
	if err := NotEmpty("file path")(filePath); err != nil {
		return "", err
	}
	path := filepath.Clean(filePath)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file does not exist: %s", path)
	}
	return path, nil
}
