package cli

import (
	"os"
	"path/filepath"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/utils"
)

// moduleFiles are copied from the module root so the output builds on its own
var moduleFiles = []string{"go.mod", "go.sum"}

// OutputWriter writes a generation result below the output directory
type OutputWriter struct {
	root        string
	out         string
	dryRun      bool
	diagnostics *utils.DiagnosticSystem
}

// NewOutputWriter creates a writer copying the module at root into out
func NewOutputWriter(root, out string, dryRun bool, diagnostics *utils.DiagnosticSystem) *OutputWriter {
	return &OutputWriter{
		root:        root,
		out:         out,
		dryRun:      dryRun,
		diagnostics: diagnostics,
	}
}

// Write writes every file of the result and the module files, returning
// the paths written. In dry-run mode nothing touches the disk.
func (w *OutputWriter) Write(result *models.GenerationResult) ([]string, error) {
	var written []string

	for _, file := range result.Files {
		path := filepath.Join(w.out, filepath.FromSlash(file.Path))
		if err := w.writeFile(path, file.Content); err != nil {
			return written, err
		}
		if file.Kind != models.CopiedFile {
			w.diagnostics.PhaseProgress("%s (%s)", w.display(path), file.Kind)
		}
		written = append(written, path)
	}

	for _, name := range moduleFiles {
		src := filepath.Join(w.root, name)
		content, err := os.ReadFile(src)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return written, errors.WrapFileSystemError("read", src, err)
		}
		path := filepath.Join(w.out, name)
		if err := w.writeFile(path, content); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}

func (w *OutputWriter) writeFile(path string, content []byte) error {
	if w.dryRun {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapFileSystemError("create directory", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.WrapFileSystemError("write", path, err)
	}
	return nil
}

func (w *OutputWriter) display(path string) string {
	if rel, err := filepath.Rel(w.root, path); err == nil {
		return rel
	}
	return path
}
