package utils

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoModParser(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"go.mod":                 "module example.com/app\n\ngo 1.25\n",
		"internal/services/a.go": "package services\n",
		"nested/go.mod":          "",
		"nested/pkg/b.go":        "package pkg\n",
		"bad/go.mod":             "module /app\n",
		"none/go.mod":            "go 1.25\n",
	})
	p := NewGoModParser(NewFileReader())

	found, err := p.FindGoModFile(filepath.Join(root, "internal", "services"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "go.mod"), found)

	found, err = p.FindGoModFile(filepath.Join(root, "nested", "pkg"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "go.mod"), found, "an empty go.mod is skipped")

	mod, err := p.ParseModule(found)
	require.NoError(t, err)
	assert.Equal(t, &GoModule{Path: "example.com/app", Root: root, GoVersion: "1.25"}, mod)

	tests := []struct {
		name    string
		path    string
		message string
	}{
		{name: "not go.mod", path: filepath.Join(root, "internal", "services", "a.go"), message: "not a go.mod file"},
		{name: "invalid path", path: filepath.Join(root, "bad", "go.mod"), message: "go.mod"},
		{name: "no module", path: filepath.Join(root, "none", "go.mod"), message: "no module declaration"},
		{name: "missing", path: filepath.Join(root, "missing", "go.mod"), message: "failed to read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseModule(tt.path)
			assert.ErrorContains(t, err, tt.message)
		})
	}
}
