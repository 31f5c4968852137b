package generator

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"
	"path"
	"sort"
	"strings"

	"github.com/toyz/knockoff/internal/beanpath"
	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
	"github.com/toyz/knockoff/internal/templates"
	"github.com/toyz/knockoff/internal/utils"
)

// packageFile collects the generated declarations of one bean package
type packageFile struct {
	path      string // output path relative to the output directory
	name      string
	pkgPath   string
	imports   *templates.ImportManager
	factories []string
	proceeds  []string
}

// providerRef locates the generated factory of a bean
type providerRef struct {
	ident   string
	pkgPath string
	pkgName string
}

func packageFor(files map[string]*packageFile, src *models.SourceFile) *packageFile {
	if pf, ok := files[src.PkgPath]; ok {
		return pf
	}
	pf := &packageFile{
		path:    path.Join(path.Dir(src.Rel), GeneratedFileName),
		name:    src.Package,
		pkgPath: src.PkgPath,
		imports: templates.NewImportManager(src.PkgPath),
	}
	files[src.PkgPath] = pf
	return pf
}

// generatePackages renders a factory for every bean of the tree and a proceed
// interface for every woven method, grouped by package
func (g *Generator) generatePackages(c *models.ParseContainer, tree *models.ProfileTree) ([]*packageFile, map[string]providerRef, error) {
	files := make(map[string]*packageFile)
	refs := make(map[string]providerRef)

	for _, bean := range tree.Beans() {
		src, ok := c.Files[bean.File]
		if !ok {
			return nil, nil, errors.WrapGenerateError(bean.ID, fmt.Errorf("source file %s was not loaded", bean.File))
		}
		pf := packageFor(files, src)

		decl, err := g.renderFactory(pf, src, bean)
		if err != nil {
			return nil, nil, errors.WrapGenerateError(bean.ID, err).
				WithLocation(errors.SourceLocation(bean.Location))
		}
		pf.factories = append(pf.factories, decl)
		refs[bean.ID] = providerRef{ident: bean.FactoryName(), pkgPath: src.PkgPath, pkgName: src.Package}
	}

	for _, bean := range tree.Beans() {
		for _, info := range bean.AspectInfo {
			if bean.Decl != nil && bean.Decl.Generic {
				continue
			}
			src, ok := c.Files[info.Method.File]
			if !ok {
				return nil, nil, errors.WrapGenerateError(bean.ID+"."+info.Method.Name, fmt.Errorf("source file %s was not loaded", info.Method.File))
			}
			pf := packageFor(files, src)

			decls, err := renderProceeds(pf, src, bean, info)
			if err != nil {
				return nil, nil, errors.WrapGenerateError(bean.ID+"."+info.Method.Name, err)
			}
			pf.proceeds = append(pf.proceeds, decls...)
		}
	}

	out := make([]*packageFile, 0, len(files))
	for _, pf := range files {
		out = append(out, pf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out, refs, nil
}

// renderFactory renders KnockoffFactory<T>: a new T with its fields injected,
// or a call of the bean function with its arguments injected
func (g *Generator) renderFactory(pf *packageFile, src *models.SourceFile, bean *models.BeanDefinition) (string, error) {
	if bean.Factory != nil {
		if err := pf.imports.AddPackageImports(bean.Factory.Imports); err != nil {
			return "", err
		}
	}
	for _, dep := range bean.Deps {
		if err := pf.imports.AddPackageImports(typeImports(src, dep.Autowired.DeclaredType)); err != nil {
			return "", err
		}
	}
	runtime := pf.imports.Use(beanpath.RuntimeImportPath)

	edges := make(map[string]templates.EdgeData, len(bean.Deps))
	var ordered []templates.EdgeData
	for i := range bean.Deps {
		dep := &bean.Deps[i]
		helper, typeArg, err := injection(dep)
		if err != nil {
			return "", err
		}
		edge := templates.EdgeData{
			Target:    dep.Autowired.Identifier,
			Declared:  dep.Autowired.DeclaredType,
			Helper:    helper,
			TypeArg:   typeArg,
			Qualifier: dep.Qualifier,
		}
		edges[edge.Target] = edge
		ordered = append(ordered, edge)
	}

	data := templates.FactoryData{
		Ident:   bean.FactoryName(),
		Runtime: runtime,
	}
	if bean.Factory == nil {
		data.Type = bean.Type.Source()
		data.Edges = ordered
		return templates.GenerateFactoryBean(data)
	}

	factory := bean.Factory
	args := make([]string, len(factory.Params))
	for i, param := range factory.Params {
		args[i] = fmt.Sprintf("arg%d", i)
		edge := edges[param.Name] // phantom parameters have no edge and stay zero
		edge.Target = args[i]
		edge.Declared = param.TypeText
		data.Edges = append(data.Edges, edge)
	}
	data.Func = factory.Name
	data.Call = factory.Name + "(" + strings.Join(args, ", ") + ")"
	data.ReturnsError = factory.ReturnsError
	data.Result = factory.ReturnText
	if factory.ReturnKind == models.ReturnValue {
		data.Result = "*" + factory.ReturnText
		data.ByValue = true
	}
	return templates.GenerateFactoryFunc(data)
}

// injection picks the runtime helper for an edge and its type argument
func injection(dep *models.DependencyMetadata) (string, string, error) {
	declared := dep.Autowired.DeclaredType
	switch {
	case dep.Path.IsProvider():
		expr, err := parser.ParseExpr(declared)
		if err != nil {
			return "", "", err
		}
		for {
			paren, ok := expr.(*ast.ParenExpr)
			if !ok {
				break
			}
			expr = paren.X
		}
		fn, ok := expr.(*ast.FuncType)
		if !ok || fn.Results == nil || len(fn.Results.List) != 1 {
			return "", "", fmt.Errorf("%w: %s", models.ErrUnsupportedShape, declared)
		}
		return templates.InjectProviderHelper, types.ExprString(fn.Results.List[0].Type), nil
	case dep.Path.IsValue():
		return templates.InjectValueHelper, declared, nil
	default:
		return templates.InjectHelper, declared, nil
	}
}

// renderProceeds renders the interfaces asserting the proceed methods of a weaving
func renderProceeds(pf *packageFile, src *models.SourceFile, bean *models.BeanDefinition, info *models.AspectInfo) ([]string, error) {
	if info.Method.Decl != nil {
		if err := pf.imports.AddPackageImports(nodeImports(src, info.Method.Decl.Type)); err != nil {
			return nil, err
		}
	}

	params := templates.DefaultTemplateUtils.ParamList(info.Params)
	results := templates.DefaultTemplateUtils.ResultList(info.Results)

	var decls []string
	for _, name := range info.ProceedNames() {
		decl, err := templates.GenerateProceedInterface(templates.ProceedData{
			Name:     name,
			Receiver: bean.Name,
			Method:   info.Method.Name,
			Params:   params,
			Results:  results,
			Assert:   true,
		})
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

// render assembles and formats the knockoff_gen.go of the package
func (pf *packageFile) render() ([]byte, error) {
	header, err := templates.GenerateFileHeader(pf.name, pf.imports)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString(header)
	for _, decl := range pf.factories {
		b.WriteString(decl)
	}
	for _, decl := range pf.proceeds {
		b.WriteString(decl)
	}
	return utils.FormatGeneratedSource(pf.path, []byte(b.String()))
}

// typeImports returns the imports of src referenced by a type written as text
func typeImports(src *models.SourceFile, typeText string) map[string]string {
	expr, err := parser.ParseExpr(typeText)
	if err != nil {
		return nil
	}
	return nodeImports(src, expr)
}

// nodeImports returns the imports of src referenced by selectors under node
func nodeImports(src *models.SourceFile, node ast.Node) map[string]string {
	used := make(map[string]string)
	ast.Inspect(node, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if ident, ok := sel.X.(*ast.Ident); ok {
			if importPath, ok := src.Imports[ident.Name]; ok {
				used[ident.Name] = importPath
			}
		}
		return true
	})
	return used
}
