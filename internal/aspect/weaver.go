package aspect

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/printer"
	"go/token"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/toyz/knockoff/internal/errors"
	"github.com/toyz/knockoff/internal/models"
)

const (
	receiverName = "recv"
	paramPrefix  = "p"
	resultName   = "found"
)

// Weaver rewrites the methods matched by advice
type Weaver struct {
	matcher *Matcher
	logger  *slog.Logger
}

// NewWeaver creates a weaver; a nil logger discards output
func NewWeaver(logger *slog.Logger) *Weaver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Weaver{matcher: NewMatcher(), logger: logger}
}

// Weave matches advice against every method of every registered type. A
// matched method gets its body replaced by the first advice wrapped around a
// call to a generated proceed method. Every further advice becomes a chain
// link and the last proceed method holds the original body. Rewrites are
// recorded on the source files as edits and appended declarations.
func (w *Weaver) Weave(c *models.ParseContainer) error {
	for _, file := range c.Files {
		file.Edits = nil
		file.Appendix = nil
		file.AddImports = nil
	}
	if len(c.Aspects) == 0 {
		return nil
	}

	woven := 0
	for _, bean := range c.SortedBeans() {
		bean.AspectInfo = nil
		if bean.Ignored || bean.Decl == nil {
			continue
		}
		for _, method := range bean.Methods {
			if method.Ignored || method.Decl == nil || method.Decl.Body == nil {
				continue
			}
			matched := w.matcher.Match(c.Aspects, bean, method)
			if len(matched) == 0 {
				continue
			}
			file, ok := c.Files[method.File]
			if !ok {
				return errors.WrapWeaveError(bean.Name+"."+method.Name, fmt.Errorf("source file %s was not loaded", method.File))
			}

			info, err := w.weaveMethod(c, file, bean, method, matched)
			if err != nil {
				return errors.WrapWeaveError(bean.Name+"."+method.Name, err).
					WithLocation(errors.SourceLocation(method.Location))
			}
			bean.AspectInfo = append(bean.AspectInfo, info)
			woven++

			w.logger.Debug("woven method",
				"bean", bean.ID,
				"method", method.Name,
				"advice", len(matched),
				"state", info.State.String())
		}
	}

	w.logger.Info("weaving complete", "methods", woven, "aspects", len(c.Aspects))
	return nil
}

// target is the rebuilt signature of a woven method
type target struct {
	receiver string
	recvType string
	params   []models.Param
	results  []models.Param

	// declared holds the receiver, parameter and result names of the method
	declared map[string]bool
}

func (w *Weaver) weaveMethod(c *models.ParseContainer, file *models.SourceFile, bean *models.BeanDefinition, method *models.Method, matched []*models.MethodAdviceAspect) (*models.AspectInfo, error) {
	decl := method.Decl
	src := source(c, file)

	t := target{
		receiver: method.Receiver,
		recvType: src(decl.Recv.List[0].Type),
		declared: make(map[string]bool),
	}
	// synthetic names avoid the method's own names and those of every advice
	taken := make(map[string]bool)
	declare := func(name string) {
		if name != "" && name != "_" {
			t.declared[name] = true
			taken[name] = true
		}
	}
	declare(method.Receiver)
	for _, param := range method.Params {
		declare(param.Name)
	}
	for _, result := range method.Results {
		declare(result.Name)
	}
	for _, advice := range matched {
		for name := range adviceIdents(advice) {
			taken[name] = true
		}
	}

	if t.receiver == "" {
		t.receiver = fresh(taken, receiverName)
		t.declared[t.receiver] = true
	}
	for i, param := range method.Params {
		if param.Name == "" || param.Name == "_" {
			param.Name = fresh(taken, fmt.Sprintf("%s%d", paramPrefix, i))
			t.declared[param.Name] = true
		}
		param.TypeText = src(param.Type)
		t.params = append(t.params, param)
	}
	for _, result := range method.Results {
		result.TypeText = src(result.Type)
		t.results = append(t.results, result)
	}

	names := make([]string, len(matched))
	for i := range matched {
		names[i] = ProceedName(bean.ID, method.Name, i+1)
	}

	info := &models.AspectInfo{
		BeanID:       bean.ID,
		Method:       method,
		Receiver:     t.receiver,
		Params:       t.params,
		Results:      t.results,
		Mutable:      method.Pointer,
		Advice:       matched[0],
		ProceedName:  names[0],
		OriginalBody: string(file.Src[offset(c, decl.Body.Lbrace) : offset(c, decl.Body.Rbrace)+1]),
		Terminal:     names[len(names)-1],
		State:        models.HasOneMatch,
		BodyRange:    [2]token.Pos{decl.Body.Lbrace, decl.Body.Rbrace + 1},
	}

	woven, err := wrap(c, t, matched[0], names[0])
	if err != nil {
		return nil, err
	}
	info.WovenBody = woven

	for i := 1; i < len(matched); i++ {
		before, err := render(c, matched[i].Before)
		if err != nil {
			return nil, err
		}
		after, err := render(c, matched[i].After)
		if err != nil {
			return nil, err
		}
		info.Chain = append(info.Chain, models.MethodAdviceChain{
			Advice:      matched[i],
			Before:      before,
			ProceedName: names[i-1],
			Next:        names[i],
			After:       after,
		})
		info.State = models.HasChain
	}

	file.Edits = append(file.Edits, models.Edit{
		Start: offset(c, decl.Pos()),
		End:   offset(c, decl.End()),
		Text:  t.signature(method.Name) + " " + woven,
	})

	for _, link := range info.Chain {
		body, err := wrap(c, t, link.Advice, link.Next)
		if err != nil {
			return nil, err
		}
		file.Appendix = append(file.Appendix, t.signature(link.ProceedName)+" "+body)
	}
	file.Appendix = append(file.Appendix, t.signature(info.Terminal)+" "+info.OriginalBody)

	for _, advice := range matched {
		for alias, importPath := range advice.Imports {
			if existing, ok := file.Imports[alias]; ok && existing == importPath {
				continue
			}
			if file.AddImports == nil {
				file.AddImports = make(map[string]string)
			}
			file.AddImports[alias] = importPath
		}
	}
	return info, nil
}

// wrap renders the body of advice around a call to the next proceed method.
// The values of the call land in the names the marker binds, then in the
// named results of the method, then in fresh names. The assignment defines
// only when one of those names is new to the method body.
func wrap(c *models.ParseContainer, t target, advice *models.MethodAdviceAspect, next string) (string, error) {
	before, err := render(c, advice.Before)
	if err != nil {
		return "", err
	}
	after, err := render(c, advice.After)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("{\n")
	if before != "" {
		b.WriteString(before + "\n")
	}

	call := fmt.Sprintf("%s.%s(%s)", t.receiver, next, t.args())
	var marker []string
	markerTok := token.DEFINE
	if advice.HasProceed() {
		marker = advice.Proceed.Results
		if s, ok := advice.Proceed.Stmt.(*ast.AssignStmt); ok {
			markerTok = s.Tok
		}
	}
	// names the advice assigns with = were declared by its before-block
	existing := func(name string) bool {
		return t.declared[name] || (markerTok == token.ASSIGN && slices.Contains(marker, name))
	}

	taken := maps.Clone(t.declared)
	maps.Copy(taken, adviceIdents(advice))
	results := make([]string, len(t.results))
	assign := token.ASSIGN
	for i, result := range t.results {
		switch {
		case i < len(marker) && marker[i] != "_":
			results[i] = marker[i]
		case result.Name != "" && result.Name != "_":
			results[i] = result.Name
		case i == 0:
			results[i] = fresh(taken, resultName)
		default:
			results[i] = fresh(taken, fmt.Sprintf("%s%d", resultName, i))
		}
		if !existing(results[i]) {
			assign = token.DEFINE
		}
	}

	switch {
	case len(results) > 0:
		b.WriteString(fmt.Sprintf("%s %s %s\n", strings.Join(results, ", "), assign, call))
	default:
		b.WriteString(call + "\n")
		for _, name := range marker {
			if name != "_" && !existing(name) {
				b.WriteString(fmt.Sprintf("var %s any\n_ = %s\n", name, name))
			}
		}
	}

	if after != "" {
		b.WriteString(after + "\n")
	}
	if len(results) > 0 {
		b.WriteString("return " + strings.Join(results, ", ") + "\n")
	}
	b.WriteString("}")
	return b.String(), nil
}

// fresh returns base, or base with the first free numeric suffix, and takes it
func fresh(taken map[string]bool, base string) string {
	name := base
	for n := 2; taken[name]; n++ {
		name = base + strconv.Itoa(n)
	}
	taken[name] = true
	return name
}

// adviceIdents collects every identifier the advice body mentions
func adviceIdents(advice *models.MethodAdviceAspect) map[string]bool {
	idents := make(map[string]bool)
	stmts := append(append([]ast.Stmt(nil), advice.Before...), advice.After...)
	if advice.HasProceed() {
		stmts = append(stmts, advice.Proceed.Stmt)
	}
	for _, stmt := range stmts {
		ast.Inspect(stmt, func(n ast.Node) bool {
			if ident, ok := n.(*ast.Ident); ok {
				idents[ident.Name] = true
			}
			return true
		})
	}
	return idents
}

// signature renders the method header under a new name
func (t target) signature(name string) string {
	params := make([]string, len(t.params))
	for i, param := range t.params {
		typ := param.TypeText
		if param.Variadic {
			typ = "..." + typ
		}
		params[i] = param.Name + " " + typ
	}

	sig := fmt.Sprintf("func (%s %s) %s(%s)", t.receiver, t.recvType, name, strings.Join(params, ", "))

	named := len(t.results) > 0 && t.results[0].Name != ""
	results := make([]string, len(t.results))
	for i, result := range t.results {
		results[i] = result.TypeText
		if named {
			results[i] = result.Name + " " + result.TypeText
		}
	}
	switch {
	case len(results) == 1 && !named:
		sig += " " + results[0]
	case len(results) > 0:
		sig += " (" + strings.Join(results, ", ") + ")"
	}
	return sig
}

// args renders the forwarded arguments of a proceed call
func (t target) args() string {
	args := make([]string, len(t.params))
	for i, param := range t.params {
		args[i] = param.Name
		if param.Variadic {
			args[i] += "..."
		}
	}
	return strings.Join(args, ", ")
}

// render prints statements one per line
func render(c *models.ParseContainer, stmts []ast.Stmt) (string, error) {
	lines := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		var buf bytes.Buffer
		if err := printer.Fprint(&buf, c.Fset, stmt); err != nil {
			return "", err
		}
		lines = append(lines, buf.String())
	}
	return strings.Join(lines, "\n"), nil
}

// source returns a function slicing the file's text of a node
func source(c *models.ParseContainer, file *models.SourceFile) func(ast.Node) string {
	return func(n ast.Node) string {
		return string(file.Src[offset(c, n.Pos()):offset(c, n.End())])
	}
}

func offset(c *models.ParseContainer, pos token.Pos) int {
	return c.Fset.Position(pos).Offset
}
