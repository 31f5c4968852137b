package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/knockoff/internal/config"
	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/utils"
)

const moduleGoMod = "module example.com/app\n\ngo 1.25\n"

const moduleServices = `package services

import (
	"fmt"

	"github.com/toyz/knockoff/pkg/knockoff"
)

//knockoff::service
type One struct{}

func (o *One) OneTwoThree(label string) string {
	return "one " + label
}

//knockoff::service
type Two struct{}

//knockoff::service
type Three struct{}

//knockoff::service
type Four struct {
	//knockoff::autowired
	one *knockoff.Mutex[One]
	//knockoff::autowired
	testOne One
}

//knockoff::aspect services.One.OneTwoThree
func Log() {
	fmt.Println("before")
	knockoff.Proceed()
}
`

const moduleStore = `package store

type Reader interface {
	Read(key string) string
}

//knockoff::service
type Memory struct{}

func (m *Memory) Read(key string) string { return key }

//knockoff::service -Profile=dev
type Disk struct{}

func (d *Disk) Read(key string) string { return key }

//knockoff::service -Profile=test
type Tape struct{}

func (t *Tape) Read(key string) string { return key }
`

const moduleCycle = `package cyc

//knockoff::service
type A struct {
	//knockoff::autowired
	b *B
}

//knockoff::service
type B struct {
	//knockoff::autowired
	a *A
}
`

// testModule writes a module with the given files and returns its root
func testModule(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	all := map[string]string{"go.mod": moduleGoMod}
	for k, v := range files {
		all[k] = v
	}
	writeFiles(t, root, all)
	return root
}

func newTestGenerator(t *testing.T) (*Generator, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	diagnostics := utils.NewDiagnosticSystem(utils.DiagnosticInfo)
	diagnostics.SetOutput(&out, &errOut)
	t.Setenv("KNOCKOFF_LOG_FILE", filepath.Join(t.TempDir(), "knockoff.log"))
	return NewGenerator(false, diagnostics), &out, &errOut
}

func TestGenerator_Run(t *testing.T) {
	root := testModule(t, map[string]string{
		"services/services.go": moduleServices,
		"README.md":            "app\n",
	})
	g, out, _ := newTestGenerator(t)

	require.NoError(t, g.Run(context.Background(), Config{Dir: root}))

	outDir := filepath.Join(root, config.DefaultOut)
	for _, rel := range []string{
		"services/services.go",
		"services/knockoff_gen.go",
		"knockoff_factory/knockoff_factory.go",
		"go.mod",
		config.ManifestFileName,
	} {
		assert.FileExists(t, filepath.Join(outDir, filepath.FromSlash(rel)))
	}

	woven, err := os.ReadFile(filepath.Join(outDir, "services", "services.go"))
	require.NoError(t, err)
	assert.Contains(t, string(woven), `fmt.Println("before")`)

	factory, err := os.ReadFile(filepath.Join(outDir, "knockoff_factory", "knockoff_factory.go"))
	require.NoError(t, err)
	assert.Contains(t, string(factory), `services "example.com/app/services"`)

	manifest, err := config.LoadManifest(filepath.Join(outDir, config.ManifestFileName))
	require.NoError(t, err)
	assert.Equal(t, "example.com/app", manifest.Module)
	assert.Equal(t, config.DefaultOut, manifest.Out)
	assert.Equal(t, []string{models.DefaultProfile}, manifest.Profiles)
	require.Len(t, manifest.Providers(), 4)
	assert.Equal(t, "services", manifest.Providers()[0].RelPath)

	summary := g.summary
	assert.Equal(t, 1, summary.PackagesProcessed)
	assert.Equal(t, 4, summary.Stats.Beans)
	assert.Equal(t, 2, summary.Stats.Edges)
	assert.Equal(t, 1, summary.Stats.WovenMethods)
	assert.Len(t, summary.GeneratedFiles, 5)

	assert.Contains(t, out.String(), "knockoff: example.com/app")
	assert.Contains(t, out.String(), "generation complete")
}

func TestGenerator_RunDryRun(t *testing.T) {
	root := testModule(t, map[string]string{"services/services.go": moduleServices})
	g, out, _ := newTestGenerator(t)

	require.NoError(t, g.Run(context.Background(), Config{Dir: root, DryRun: true}))

	assert.NoDirExists(t, filepath.Join(root, config.DefaultOut))
	assert.NotEmpty(t, g.summary.GeneratedFiles)
	assert.Contains(t, out.String(), "dry run")
}

func TestGenerator_RunPrecompileEnvironment(t *testing.T) {
	root := testModule(t, map[string]string{"services/services.go": moduleServices})
	t.Setenv("KNOCKOFF_PRECOMPILE", "true")
	g, _, _ := newTestGenerator(t)

	require.NoError(t, g.Run(context.Background(), Config{Dir: root}))
	assert.NoDirExists(t, filepath.Join(root, config.DefaultOut))
}

func TestGenerator_RunConfigFile(t *testing.T) {
	root := testModule(t, map[string]string{
		"store/store.go":       moduleStore,
		"services/services.go": moduleServices,
		config.FileName: `[generator]
out = "build"
factory_package = "wiring"
profiles = ["dev"]

[[stage]]
name = "core"

  [[stage.provider]]
  name = "store"
  path = "./store"
`,
	})
	g, _, _ := newTestGenerator(t)

	require.NoError(t, g.Run(context.Background(), Config{Dir: root}))

	outDir := filepath.Join(root, "build")
	assert.FileExists(t, filepath.Join(outDir, "wiring", utils.ContainerFileName))
	assert.FileExists(t, filepath.Join(outDir, "store", utils.GeneratedFileName))
	assert.NoFileExists(t, filepath.Join(outDir, "services", "services.go"), "only the stage is scanned")

	manifest, err := config.LoadManifest(filepath.Join(outDir, config.ManifestFileName))
	require.NoError(t, err)
	assert.Equal(t, "wiring", manifest.FactoryPackage)
	if diff := cmp.Diff([]string{models.DefaultProfile, "dev"}, manifest.Profiles); diff != "" {
		t.Errorf("profiles mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerator_RunProfileSelection(t *testing.T) {
	root := testModule(t, map[string]string{"store/store.go": moduleStore})
	g, _, errOut := newTestGenerator(t)

	require.NoError(t, g.Run(context.Background(), Config{
		Dir:      root,
		Patterns: []string{"./..."},
		Profiles: []string{"test", "staging"},
	}))

	manifest, err := config.LoadManifest(filepath.Join(root, config.DefaultOut, config.ManifestFileName))
	require.NoError(t, err)
	assert.Equal(t, []string{models.DefaultProfile, "test"}, manifest.Profiles)
	assert.Contains(t, errOut.String(), "profile staging has no beans")
}

func TestGenerator_RunRemovesStaleFiles(t *testing.T) {
	root := testModule(t, map[string]string{
		"services/services.go":                         moduleServices,
		"knockoff_out/gone/" + utils.GeneratedFileName: "package gone\n",
		"knockoff_out/gone/gone.go":                    "package gone\n",
	})
	g, _, _ := newTestGenerator(t)

	require.NoError(t, g.Run(context.Background(), Config{Dir: root, Patterns: []string{"./services"}}))

	outDir := filepath.Join(root, config.DefaultOut)
	assert.NoFileExists(t, filepath.Join(outDir, "gone", utils.GeneratedFileName))
	assert.FileExists(t, filepath.Join(outDir, "gone", "gone.go"), "only generated files are removed")
	assert.FileExists(t, filepath.Join(outDir, "services", utils.GeneratedFileName))
}

func TestGenerator_RunClean(t *testing.T) {
	root := testModule(t, map[string]string{"services/services.go": moduleServices})
	g, _, _ := newTestGenerator(t)

	require.NoError(t, g.Run(context.Background(), Config{Dir: root}))
	require.DirExists(t, filepath.Join(root, config.DefaultOut))

	require.NoError(t, g.Run(context.Background(), Config{Dir: root, Clean: true}))
	assert.NoDirExists(t, filepath.Join(root, config.DefaultOut))
	assert.FileExists(t, filepath.Join(root, "services", "services.go"))

	err := g.Run(context.Background(), Config{Dir: root, Clean: true, Out: "."})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to remove")
}

func TestGenerator_RunErrors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		cfg      Config
		code     errors.ErrorCode
		contains string
	}{
		{
			name:     "cycle",
			files:    map[string]string{"cyc/cyc.go": moduleCycle},
			code:     errors.DependencyErrorCode,
			contains: "circular dependency",
		},
		{
			name:     "bad profile",
			files:    map[string]string{"store/store.go": moduleStore},
			cfg:      Config{Profiles: []string{"not valid"}},
			code:     errors.ConfigurationErrorCode,
			contains: "profile",
		},
		{
			name:     "missing pattern",
			files:    map[string]string{"store/store.go": moduleStore},
			cfg:      Config{Patterns: []string{"./nowhere/..."}},
			code:     errors.FileSystemErrorCode,
			contains: "nowhere",
		},
		{
			name:     "bad config",
			files:    map[string]string{"store/store.go": moduleStore, config.FileName: "[logging]\nformat = \"xml\"\n"},
			code:     errors.ConfigurationErrorCode,
			contains: "format must be text or json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := testModule(t, tt.files)
			g, _, _ := newTestGenerator(t)
			cfg := tt.cfg
			cfg.Dir = root

			err := g.Run(context.Background(), cfg)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.contains)
			assert.NoDirExists(t, filepath.Join(root, config.DefaultOut))
		})
	}
}

func TestGenerator_RunCancelled(t *testing.T) {
	root := testModule(t, map[string]string{"services/services.go": moduleServices})
	g, _, _ := newTestGenerator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := g.Run(ctx, Config{Dir: root})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, filepath.Join(root, config.DefaultOut))
}

func TestGenerator_RunSimpleApp(t *testing.T) {
	root, err := filepath.Abs(filepath.Join("..", "..", "examples", "simple-app"))
	require.NoError(t, err)
	g, _, _ := newTestGenerator(t)

	require.NoError(t, g.Run(context.Background(), Config{Dir: root, DryRun: true}))

	outDir := filepath.Join(root, config.DefaultOut)
	assert.Contains(t, g.summary.GeneratedFiles, filepath.Join(outDir, "main.go"), "the command is part of the output")
	assert.Contains(t, g.summary.GeneratedFiles, filepath.Join(outDir, "knockoff_factory", utils.ContainerFileName))
}
