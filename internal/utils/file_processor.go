package utils

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/knockoff/internal/errors"
)

// Names of the files knockoff writes next to the scanned sources
const (
	GeneratedFileName = "knockoff_gen.go"
	ContainerFileName = "knockoff_factory.go"
)

// IsGeneratedFileName reports whether name is a file knockoff writes
func IsGeneratedFileName(name string) bool {
	return name == GeneratedFileName || name == ContainerFileName
}

// IsSourceFile reports whether entry is a Go file to scan: tests and knockoff
// output are not
func IsSourceFile(entry fs.DirEntry) bool {
	name := entry.Name()
	return !entry.IsDir() &&
		strings.HasSuffix(name, ".go") &&
		!strings.HasSuffix(name, "_test.go") &&
		!IsGeneratedFileName(name)
}

// DirFilter decides whether a walk descends into a directory
type DirFilter func(path string, entry fs.DirEntry) bool

var skippedDirNames = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
}

// SkipDirs returns a DirFilter rejecting what the go tool ignores (vendor,
// testdata, names starting with "." or "_"), node_modules and the exclude paths
func SkipDirs(exclude ...string) DirFilter {
	excluded := make(map[string]bool, len(exclude))
	for _, dir := range exclude {
		if abs, err := filepath.Abs(dir); err == nil {
			excluded[abs] = true
		}
	}

	return func(path string, entry fs.DirEntry) bool {
		name := entry.Name()
		if skippedDirNames[name] || strings.HasPrefix(name, "_") ||
			(strings.HasPrefix(name, ".") && name != "." && name != "..") {
			return false
		}
		if len(excluded) == 0 {
			return true
		}
		abs, err := filepath.Abs(path)
		return err != nil || !excluded[abs]
	}
}

// FileProcessor finds package directories and removes generated files
type FileProcessor struct {
	reader *FileReader
}

// NewFileProcessor returns a processor whose removals invalidate reader;
// a nil reader gets a private one
func NewFileProcessor(reader ...*FileReader) *FileProcessor {
	fp := &FileProcessor{}
	if len(reader) > 0 && reader[0] != nil {
		fp.reader = reader[0]
	} else {
		fp.reader = NewFileReader()
	}
	return fp
}

// walk calls visit for every file under root, skipping the directories
// skip rejects. The root itself is always entered.
func walk(root string, skip DirFilter, visit func(path string, entry fs.DirEntry) error) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != root && skip != nil && !skip(path, entry) {
				return filepath.SkipDir
			}
			return nil
		}
		return visit(path, entry)
	})
}

// PackageDirs returns every directory under roots holding a source file.
// Each directory is listed once; a nil skip uses SkipDirs().
func (fp *FileProcessor) PackageDirs(roots []string, skip DirFilter) ([]string, error) {
	if skip == nil {
		skip = SkipDirs()
	}

	seen := make(map[string]bool)
	var dirs []string
	for _, root := range roots {
		err := walk(root, skip, func(path string, entry fs.DirEntry) error {
			dir := filepath.Dir(path)
			if IsSourceFile(entry) && !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapFileSystemError("scan", root, err)
		}
	}
	return dirs, nil
}

// SourceFiles returns the source files directly inside dir, sorted by name
func (fp *FileProcessor) SourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WrapFileSystemError("read", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if IsSourceFile(entry) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// HasGoFiles reports whether dir holds a source file
func (fp *FileProcessor) HasGoFiles(dir string) (bool, error) {
	files, err := fp.SourceFiles(dir)
	return len(files) > 0, err
}

// CleanDirectories removes the files knockoff wrote under dirs, and the
// factory package directories left empty. Missing directories are skipped.
func (fp *FileProcessor) CleanDirectories(dirs []string) ([]string, error) {
	var removed []string
	for _, dir := range dirs {
		if dir == "" {
			dir = "."
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}

		var generated []string
		err := walk(dir, SkipDirs(), func(path string, entry fs.DirEntry) error {
			if IsGeneratedFileName(entry.Name()) {
				generated = append(generated, path)
			}
			return nil
		})
		if err != nil {
			return removed, errors.WrapFileSystemError("scan", dir, err)
		}

		for _, file := range generated {
			if err := os.Remove(file); err != nil {
				return removed, errors.WrapFileSystemError("remove", file, err)
			}
			fp.reader.InvalidateFile(file)
			removed = append(removed, file)

			if filepath.Base(file) == ContainerFileName {
				if entries, err := os.ReadDir(filepath.Dir(file)); err == nil && len(entries) == 0 {
					_ = os.Remove(filepath.Dir(file))
				}
			}
		}
	}
	return removed, nil
}
