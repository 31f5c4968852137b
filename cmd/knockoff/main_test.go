package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testService = `package services

//knockoff::service
type Clock struct{}

//knockoff::service
type Greeter struct {
	//knockoff::autowired
	clock *Clock
}
`

func testModule(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/cli\n\ngo 1.25\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "services"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "services", "services.go"), []byte(testService), 0o644))
	t.Chdir(root)
	t.Setenv("KNOCKOFF_LOG_LEVEL", "error")
	return root
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantOut    []string
		wantErr    []string
		wantOutDir string
	}{
		{
			name:     "help",
			args:     []string{"-help"},
			wantErr:  []string{"Usage: knockoff", "-profile", "directory-patterns"},
			wantCode: 0,
		},
		{
			name:     "unknown flag",
			args:     []string{"-frobnicate"},
			wantErr:  []string{"flag provided but not defined"},
			wantCode: 2,
		},
		{
			name:     "quiet and verbose",
			args:     []string{"-quiet", "-verbose"},
			wantErr:  []string{"cannot be combined"},
			wantCode: 2,
		},
		{
			name:       "generate",
			args:       []string{"./..."},
			wantOut:    []string{"knockoff: example.com/cli", "generation complete"},
			wantOutDir: "knockoff_out",
		},
		{
			name:       "custom output",
			args:       []string{"-out", "build", "-profile", "dev, test", "./services"},
			wantOutDir: "build",
		},
		{
			name:    "dry run",
			args:    []string{"-dry-run"},
			wantOut: []string{"dry run"},
		},
		{
			name:     "missing directory",
			args:     []string{"./missing"},
			wantErr:  []string{"ERROR: Code Generation Failed", "File System Error"},
			wantCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := testModule(t)
			var stdout, stderr bytes.Buffer

			code := run(context.Background(), tt.args, &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code, stderr.String())
			for _, want := range tt.wantOut {
				assert.Contains(t, stdout.String(), want)
			}
			for _, want := range tt.wantErr {
				assert.Contains(t, stderr.String(), want)
			}
			if tt.wantOutDir != "" {
				assert.FileExists(t, filepath.Join(root, tt.wantOutDir, "services", "knockoff_gen.go"))
			} else {
				assert.NoDirExists(t, filepath.Join(root, "knockoff_out"))
			}
		})
	}
}

func TestRun_Clean(t *testing.T) {
	root := testModule(t)
	var stdout, stderr bytes.Buffer

	require.Equal(t, 0, run(context.Background(), nil, &stdout, &stderr), stderr.String())
	require.DirExists(t, filepath.Join(root, "knockoff_out"))

	require.Equal(t, 0, run(context.Background(), []string{"-clean"}, &stdout, &stderr), stderr.String())
	assert.NoDirExists(t, filepath.Join(root, "knockoff_out"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"dev", "test"}, splitList(" dev, ,test "))
	assert.Nil(t, splitList(""))
}
