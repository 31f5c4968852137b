package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/utils"
)

func testResult() *models.GenerationResult {
	result := &models.GenerationResult{}
	result.Add(models.GeneratedFile{Path: "services/a.go", Kind: models.CopiedFile, Content: []byte("package services\n")})
	result.Add(models.GeneratedFile{Path: "services/knockoff_gen.go", Kind: models.FactoryFile, Content: []byte("package services\n// gen\n")})
	result.Add(models.GeneratedFile{Path: "knockoff_factory/knockoff_factory.go", Kind: models.ContainerFile, Content: []byte("package knockoff_factory\n")})
	return result
}

func TestOutputWriter_Write(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"go.mod": moduleGoMod,
		"go.sum": "example.com/dep v1.0.0 h1:abc=\n",
	})
	out := filepath.Join(root, "knockoff_out")

	var stdout bytes.Buffer
	diagnostics := utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	diagnostics.SetOutput(&stdout, &stdout)

	written, err := NewOutputWriter(root, out, false, diagnostics).Write(testResult())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(out, "services", "a.go"),
		filepath.Join(out, "services", "knockoff_gen.go"),
		filepath.Join(out, "knockoff_factory", "knockoff_factory.go"),
		filepath.Join(out, "go.mod"),
		filepath.Join(out, "go.sum"),
	}, written)

	content, err := os.ReadFile(filepath.Join(out, "services", "knockoff_gen.go"))
	require.NoError(t, err)
	assert.Equal(t, "package services\n// gen\n", string(content))

	mod, err := os.ReadFile(filepath.Join(out, "go.mod"))
	require.NoError(t, err)
	assert.Equal(t, moduleGoMod, string(mod))

	assert.Contains(t, stdout.String(), filepath.Join("knockoff_out", "services", "knockoff_gen.go")+" (factory)")
	assert.NotContains(t, stdout.String(), "a.go (copied)")
}

func TestOutputWriter_DryRun(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"go.mod": moduleGoMod})
	out := filepath.Join(root, "knockoff_out")

	diagnostics := utils.NewDiagnosticSystem(utils.DiagnosticSilent)
	written, err := NewOutputWriter(root, out, true, diagnostics).Write(testResult())
	require.NoError(t, err)
	assert.Len(t, written, 4)
	assert.NoDirExists(t, out)
}
