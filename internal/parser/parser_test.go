package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/utils"
)

const servicesSource = `package services

import "github.com/toyz/knockoff/pkg/knockoff"

type OneTrait interface {
	Hello() string
}

//knockoff::service
type One struct{}

func (o *One) Hello() string { return "one" }

func (o *One) String() string { return "One" }

//knockoff::service
type Two struct {
	//knockoff::autowired
	one *One
	name string
}

//knockoff::prototype
type Three struct {
	two *Two ` + "`knockoff:\"autowired\"`" + `
}

type Found interface {
	Find(key string) (string, bool)
}

//knockoff::service
type Four struct {
	//knockoff::autowired
	one *knockoff.Mutex[One]
	//knockoff::autowired
	testOne One
	//knockoff::autowired
	marker knockoff.Phantom[One]
}

func (f *Four) Find(key string) (string, bool) { return key, true }

//knockoff::service
type Once struct {
	//knockoff::autowired
	found Found
}

type Namer interface {
	String() string
}
`

func parse(t *testing.T, source string, opts ...Option) (*models.ParseContainer, *Parser) {
	t.Helper()
	c := models.NewParseContainer("example.com/app", "")
	p := NewParser(opts...)
	require.NoError(t, p.ParseSource(c, "source.go", source))
	return c, p
}

func abstractIDs(bean *models.BeanDefinition) []string {
	var ids []string
	for _, descriptor := range bean.TraitsImpl {
		ids = append(ids, descriptor.AbstractType.ID())
	}
	return ids
}

func TestParser_Beans(t *testing.T) {
	c, p := parse(t, servicesSource)
	assert.Empty(t, p.Warnings())

	assert.Equal(t, 5, c.Constructible())
	for _, id := range []string{"services.One", "services.Two", "services.Three", "services.Four", "services.Once"} {
		bean, ok := c.Bean(id)
		require.True(t, ok, id)
		assert.True(t, bean.HasKind(), id)
		assert.Equal(t, "services", bean.PathDepth)
		assert.Equal(t, "example.com/app", bean.PkgPath)
	}

	three := c.Beans["services.Three"]
	assert.True(t, three.Kind.IsPrototype())
	assert.False(t, c.Beans["services.Four"].Kind.IsPrototype())

	for _, id := range []string{"services.OneTrait", "services.Found", "services.Namer"} {
		_, ok := c.Interface(id)
		assert.True(t, ok, id)
	}
}

func TestParser_Dependencies(t *testing.T) {
	c, _ := parse(t, servicesSource)

	four := c.Beans["services.Four"]
	require.Len(t, four.Deps, 2, "phantom fields are not injected")

	mutex := four.Deps[0]
	assert.Equal(t, models.FieldDep, mutex.Kind)
	assert.Equal(t, "one", mutex.Autowired.Identifier)
	assert.Equal(t, []models.BeanPathPartKind{models.ArcMutexType, models.MutexType}, mutex.Path.Kinds())
	assert.True(t, mutex.Path.IsMutable())
	assert.True(t, mutex.Autowired.Mutable)
	assert.Equal(t, "services.One", mutex.TargetID())
	assert.Equal(t, "services.One", mutex.ConcreteID())
	require.NotNil(t, mutex.BeanType)
	assert.Equal(t, models.SingletonScope, mutex.BeanType.Scope)

	value := four.Deps[1]
	assert.Equal(t, "testOne", value.Autowired.Identifier)
	assert.Equal(t, []models.BeanPathPartKind{models.GenType}, value.Path.Kinds())
	assert.True(t, value.Path.IsValue())
	assert.False(t, value.Path.IsMutable())
	assert.True(t, value.IsResolved())

	two := c.Beans["services.Two"]
	require.Len(t, two.Deps, 1, "only autowired fields become edges")
	assert.Equal(t, []models.BeanPathPartKind{models.ArcType}, two.Deps[0].Path.Kinds())

	three := c.Beans["services.Three"]
	require.Len(t, three.Deps, 1, "struct tags autowire")
	assert.Equal(t, "services.Two", three.Deps[0].ConcreteID())

	once := c.Beans["services.Once"]
	require.Len(t, once.Deps, 1)
	found := once.Deps[0]
	assert.True(t, found.IsAbstract)
	assert.False(t, found.IsResolved())
	assert.Equal(t, models.Unresolved{SymbolicRef: "services.Found"}, found.Binding)
	assert.Nil(t, found.BeanType)
}

func TestParser_Impls(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		bean     string
		expected []string
	}{
		{
			name:     "method set covers interface",
			bean:     "services.One",
			expected: []string{"services.OneTrait"},
		},
		{
			name:     "pointer receiver methods count",
			bean:     "services.Four",
			expected: []string{"services.Found"},
		},
		{
			name: "ignored interfaces are skipped",
			opts: []Option{WithIgnoredInterfaces("OneTrait")},
			bean: "services.One",
		},
		{
			name: "no methods, no descriptors",
			bean: "services.Two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := parse(t, servicesSource, tt.opts...)
			got := abstractIDs(c.Beans[tt.bean])
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("descriptors mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParser_DescriptorCarriesBeanMetadata(t *testing.T) {
	c, _ := parse(t, `package repo

type Reader interface {
	Read(key string) string
}

//knockoff::service -Qualifier=primary -Profile=dev,test
type Cache struct{}

func (c Cache) Read(key string) string { return key }
`)

	cache := c.Beans["repo.Cache"]
	require.Len(t, cache.TraitsImpl, 1)
	descriptor := cache.TraitsImpl[0]
	assert.Equal(t, []string{"primary"}, descriptor.Qualifiers)
	assert.Equal(t, []string{"dev", "test"}, descriptor.ProfileNames())
	assert.Equal(t, "repo", descriptor.PathDepth)
	assert.Equal(t, "repo.Reader(Read)", descriptor.Key())
	assert.True(t, cache.HasQualifier("primary"))
}

func TestParser_Factories(t *testing.T) {
	c, p := parse(t, `package data

import "context"

//knockoff::service
type Store struct{}

type Repo struct {
	store *Store
}

type Config struct {
	Name string
}

type Greeter interface {
	Greet() string
}

//knockoff::bean
//knockoff::qualifier primary -Param=store
func NewRepo(store *Store, _ Config) (*Repo, error) {
	return &Repo{store: store}, nil
}

//knockoff::prototype -Profile=test
func NewGreeter(ctx context.Context) Greeter {
	return nil
}

//knockoff::bean
func NewConfig() Config {
	return Config{Name: "default"}
}

//knockoff::bean
func NewMany() (*Store, *Repo, error) {
	return nil, nil, nil
}
`)
	require.Len(t, p.Warnings(), 1, "the three-result factory is skipped")

	repo := c.Beans["data.Repo"]
	require.NotNil(t, repo)
	require.True(t, repo.IsFactory())
	assert.Equal(t, "KnockoffFactoryNewRepo", repo.FactoryName())
	assert.Equal(t, models.ReturnPointer, repo.Factory.ReturnKind)
	assert.True(t, repo.Factory.ReturnsError)
	assert.Equal(t, map[string]string{"store": "primary"}, repo.Factory.ParamQualifiers)
	require.Len(t, repo.Factory.Params, 2)
	assert.Equal(t, "p1", repo.Factory.Params[1].Name)

	require.Len(t, repo.Deps, 2, "every parameter is an edge")
	assert.Equal(t, models.ArgDep, repo.Deps[0].Kind)
	assert.Equal(t, "primary", repo.Deps[0].Qualifier)
	assert.Equal(t, "data.Store", repo.Deps[0].ConcreteID())
	assert.Equal(t, "data.Config", repo.Deps[1].ConcreteID(), "factory beans are found by return id")

	greeter := c.Beans["data.Greeter"]
	require.NotNil(t, greeter)
	assert.Equal(t, models.ReturnInterface, greeter.Factory.ReturnKind)
	assert.True(t, greeter.IsAbstract())
	assert.True(t, greeter.Kind.IsPrototype())
	assert.Equal(t, []string{"test"}, greeter.ProfileNames())
	assert.Equal(t, map[string]string{"context": "context"}, greeter.Factory.Imports)
	require.Len(t, greeter.Deps, 1)
	assert.Equal(t, "context.Context", greeter.Deps[0].TargetID())

	config := c.Beans["data.Config"]
	require.NotNil(t, config)
	assert.Equal(t, models.ReturnValue, config.Factory.ReturnKind)
	assert.False(t, config.Factory.ReturnsError)
	assert.NotNil(t, config.Decl, "the type declaration is kept next to the factory")
	assert.Equal(t, models.SingletonScope, config.Kind.Scope)
	require.NotNil(t, repo.Deps[1].BeanType)
	assert.Equal(t, models.SingletonScope, repo.Deps[1].BeanType.Scope)
}

func TestParser_ShapeErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{
			name: "slice field",
			source: `package bad

//knockoff::service
type Bad struct {
	//knockoff::autowired
	items []string
}
`,
		},
		{
			name: "map factory result",
			source: `package bad

//knockoff::bean
func NewLookup() map[string]int { return nil }
`,
		},
		{
			name: "double pointer parameter",
			source: `package bad

type Dep struct{}

//knockoff::bean
func NewDep(d **Dep) *Dep { return nil }
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := models.NewParseContainer("example.com/app", "")
			err := NewParser().ParseSource(c, "bad.go", tt.source)
			require.Error(t, err)
			assert.Equal(t, errors.ShapeErrorCode, errors.CodeOf(err))
			assert.True(t, errors.Is(err, models.ErrUnsupportedShape))
		})
	}
}

func TestParser_Warnings(t *testing.T) {
	c, p := parse(t, `package warn

//knockoff::service -Unknown=1
type Broken struct{}

//knockoff::service
type Box[T any] struct {
	value T
}

//knockoff::service
//knockoff::ignore
type Skipped struct{}

//knockoff::controller
type Web struct{}
`)

	warnings := p.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, errors.SyntaxErrorCode, warnings[0].ErrorCode())
	assert.Equal(t, errors.ValidationErrorCode, warnings[1].ErrorCode())

	assert.False(t, c.Beans["warn.Broken"].HasKind())
	assert.False(t, c.Beans["warn.Box"].HasKind())
	assert.True(t, c.Beans["warn.Skipped"].Ignored)
	assert.False(t, c.Beans["warn.Web"].HasKind())
	assert.Equal(t, 0, c.Constructible())
}

func TestParser_Reparse(t *testing.T) {
	c := models.NewParseContainer("example.com/app", "")
	p := NewParser()
	require.NoError(t, p.ParseSource(c, "one.go", "package svc\n\n//knockoff::service\ntype One struct{}\n"))
	require.NoError(t, p.ParseSource(c, "one_methods.go", "package svc\n\nfunc (o *One) Run() {}\n"))

	one := c.Beans["svc.One"]
	require.NotNil(t, one)
	assert.True(t, one.HasKind(), "re-parsing merges into the existing bean")
	require.Len(t, one.Methods, 1)
	assert.Equal(t, "Run", one.Methods[0].Name)
}

func TestParser_ParseDirectory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "internal", "services")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	files := map[string]string{
		"one.go":                "package services\n\n//knockoff::service\ntype One struct{}\n",
		"one_test.go":           "package services\n\n//knockoff::service\ntype Fixture struct{}\n",
		utils.GeneratedFileName: "package services\n\n//knockoff::service\ntype Generated struct{}\n",
		"README.md":             "not go",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	c := models.NewParseContainer("example.com/app", root)
	require.NoError(t, NewParser().ParseDirectory(c, dir))

	one, ok := c.Bean("internal.services.One")
	require.True(t, ok)
	assert.Equal(t, "example.com/app/internal/services", one.PkgPath)
	assert.Equal(t, "internal.services", one.PathDepth)

	_, ok = c.Bean("internal.services.Fixture")
	assert.False(t, ok, "test files are not scanned")
	_, ok = c.Bean("internal.services.Generated")
	assert.False(t, ok, "generated files are not scanned")

	err := NewParser().ParseDirectory(models.NewParseContainer("example.com/app", root), t.TempDir())
	assert.Error(t, err)
}

func TestImportName(t *testing.T) {
	tests := map[string]string{
		"fmt":                                   "fmt",
		"github.com/toyz/knockoff/pkg/knockoff": "knockoff",
		"github.com/alecthomas/participle/v2":   "participle",
		"gopkg.in/natefinch/lumberjack.v2":      "lumberjack",
		"github.com/go-chi/chi-router":          "chi_router",
	}
	for importPath, expected := range tests {
		t.Run(importPath, func(t *testing.T) {
			assert.Equal(t, expected, ImportName(importPath))
		})
	}
}
