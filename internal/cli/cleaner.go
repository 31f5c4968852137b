package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/utils"
)

// Cleaner handles cleaning up generated files
type Cleaner struct {
	fileProcessor *utils.FileProcessor
}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{
		fileProcessor: utils.NewFileProcessor(),
	}
}

// CleanOutput removes the output directory of the module at root. It
// refuses to remove the module itself or anything above it.
func (c *Cleaner) CleanOutput(root, out string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return errors.WrapFileSystemError("resolve", root, err)
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return errors.WrapFileSystemError("resolve", out, err)
	}

	if absOut == absRoot || isWithin(absRoot, absOut) {
		return errors.Newf(errors.FileSystemErrorCode, "refusing to remove %s: it contains the module", absOut).
			WithContext("path", absOut).
			WithSuggestion("Point -out at a directory of its own, such as knockoff_out")
	}

	if _, err := os.Stat(absOut); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(absOut); err != nil {
		return errors.WrapFileSystemError("remove", absOut, err)
	}
	return nil
}

// CleanGeneratedFiles removes knockoff_gen.go and knockoff_factory.go files
// left in the given directories, returning the removed paths
func (c *Cleaner) CleanGeneratedFiles(directories []string) ([]string, error) {
	removed, err := c.fileProcessor.CleanDirectories(directories)
	if err != nil {
		return removed, errors.WrapFileSystemError("clean", strings.Join(directories, ", "), err)
	}
	return removed, nil
}

// isWithin reports whether path lies inside dir
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
