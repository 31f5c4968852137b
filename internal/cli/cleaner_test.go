package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/knockoff/internal/utils"
)

func TestCleaner_CleanOutput(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"go.mod":                       moduleGoMod,
		"main.go":                      "package main\n",
		"knockoff_out/main.go":         "package main\n",
		"knockoff_out/knockoff_gen.go": "package main\n",
	})
	cleaner := NewCleaner()

	tests := []struct {
		name    string
		out     string
		wantErr bool
	}{
		{name: "module root", out: root, wantErr: true},
		{name: "ancestor of the root", out: filepath.Dir(root), wantErr: true},
		{name: "missing directory", out: filepath.Join(root, "nothing")},
		{name: "output directory", out: filepath.Join(root, "knockoff_out")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cleaner.CleanOutput(root, tt.out)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "refusing to remove")
				assert.FileExists(t, filepath.Join(root, "main.go"))
				return
			}
			require.NoError(t, err)
			assert.NoDirExists(t, tt.out)
		})
	}
	assert.FileExists(t, filepath.Join(root, "main.go"))
}

func TestCleaner_CleanGeneratedFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"services/user.go":                            "package services\n",
		"services/" + utils.GeneratedFileName:         "package services\n",
		"nested/deep/" + utils.GeneratedFileName:      "package deep\n",
		"knockoff_factory/" + utils.ContainerFileName: "package knockoff_factory\n",
		"vendor/dep/" + utils.GeneratedFileName:       "package dep\n",
	})

	removed, err := NewCleaner().CleanGeneratedFiles([]string{root})
	require.NoError(t, err)
	assert.Len(t, removed, 3)

	assert.FileExists(t, filepath.Join(root, "services", "user.go"))
	assert.NoFileExists(t, filepath.Join(root, "services", utils.GeneratedFileName))
	assert.NoFileExists(t, filepath.Join(root, "nested", "deep", utils.GeneratedFileName))
	assert.NoDirExists(t, filepath.Join(root, "knockoff_factory"))
	assert.FileExists(t, filepath.Join(root, "vendor", "dep", utils.GeneratedFileName))
}
