package cli

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/parser"
	"github.com/toyz/knockoff/internal/utils"
)

// DirectoryScanner finds the package directories to process and loads their files
type DirectoryScanner struct {
	fileProcessor *utils.FileProcessor
	limit         int
}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{
		fileProcessor: utils.NewFileProcessor(),
		limit:         runtime.NumCPU(),
	}
}

// ScanDirectories resolves the patterns against base and returns the
// directories holding Go files, sorted. "dir/..." scans dir recursively,
// a plain directory is taken on its own. Directories in exclude are skipped.
func (s *DirectoryScanner) ScanDirectories(base string, patterns []string, exclude ...string) ([]string, error) {
	skip := utils.SkipDirs(exclude...)
	seen := make(map[string]bool)
	var dirs []string

	add := func(found ...string) {
		for _, dir := range found {
			if !seen[dir] {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}

	for _, pattern := range patterns {
		dir, recursive := strings.CutSuffix(filepath.ToSlash(pattern), "/...")
		if pattern == "..." {
			dir, recursive = ".", true
		}
		if dir == "" {
			dir = "."
		}
		dir = filepath.FromSlash(dir)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(base, dir)
		}
		dir = filepath.Clean(dir)

		info, err := os.Stat(dir)
		if err != nil {
			return nil, errors.WrapFileSystemError("scan", dir, err)
		}
		if !info.IsDir() {
			return nil, errors.Newf(errors.FileSystemErrorCode, "pattern %s is not a directory", pattern).
				WithContext("path", dir)
		}

		if recursive {
			found, err := s.fileProcessor.PackageDirs([]string{dir}, skip)
			if err != nil {
				return nil, err
			}
			add(found...)
			continue
		}

		ok, err := s.fileProcessor.HasGoFiles(dir)
		if err != nil {
			return nil, err
		}
		if ok {
			add(dir)
		}
	}

	sort.Strings(dirs)
	return dirs, nil
}

// LoadFiles parses the Go files of the directories into source files of
// the container. Files are parsed concurrently and returned by path.
func (s *DirectoryScanner) LoadFiles(ctx context.Context, c *models.ParseContainer, dirs []string) ([]*models.SourceFile, error) {
	var paths []string
	for _, dir := range dirs {
		files, err := s.fileProcessor.SourceFiles(dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}

	reader := utils.NewFileReaderWithFileSet(c.Fset)
	files := make([]*models.SourceFile, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	limit := s.limit
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			file, err := parser.LoadFile(c, reader, path)
			if err != nil {
				return errors.WrapParseError(path, err)
			}
			files[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
