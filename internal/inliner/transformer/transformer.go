// Package transformer rewrites trigger method bodies. For every selected call
// site it resolves the callee, looks up its template, extracts the lambda,
// binds the remaining arguments and splices the rendered block over the call
// statement. Everything outside the replaced spans is carried over byte for
// byte.
package transformer

import (
	"fmt"
	"go/ast"
	"strings"

	"weld/internal/inliner"
	"weld/internal/inliner/analyzer"
	"weld/internal/inliner/registry"
	"weld/welderr"
)

// DefaultSuffix names generated methods when a trigger has no explicit
// target: Sum becomes SumInlined.
const DefaultSuffix = "Inlined"

// Options configure transformation.
type Options struct {
	Suffix string
}

type siteTransformer struct {
	idx  *analyzer.Index
	reg  *registry.Registry
	opts Options
}

var _ inliner.MethodTransformer = (*siteTransformer)(nil)

// New creates an inliner.MethodTransformer backed by the scanned index and
// template registry.
func New(idx *analyzer.Index, reg *registry.Registry, opts Options) inliner.MethodTransformer {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}
	return &siteTransformer{idx: idx, reg: reg, opts: opts}
}

// site is one call statement selected for expansion.
type site struct {
	stmt *ast.ExprStmt
	call *ast.CallExpr
	sym  *analyzer.Symbol
}

// Transform expands one trigger. A hard error on any selected site aborts
// this trigger only; all site errors are reported together.
func (t *siteTransformer) Transform(tr inliner.Trigger) (inliner.Unit, error) {
	sym, ok := t.idx.FuncDecl(tr.RecvType, tr.FuncName)
	if !ok {
		return inliner.Unit{}, welderr.NewAt(welderr.KindSymbolResolutionFailed,
			tr.File, tr.Line, 1, "cannot find declaration of "+tr.Key())
	}
	if sym.Decl.Body == nil {
		return inliner.Unit{}, welderr.NewAt(welderr.KindSymbolResolutionFailed,
			tr.File, tr.Line, 1, tr.Key()+" has no body")
	}

	sites, errs := t.collectSites(sym, tr)

	var reps []inliner.Replacement
	var warns []*welderr.Error
	for _, s := range sites {
		rep, w, err := t.expandSite(sym, s)
		if err != nil {
			errs.Append(err)
			continue
		}
		warns = append(warns, w...)
		reps = append(reps, rep)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return inliner.Unit{}, err
	}

	target := tr.Target
	if target == "" {
		target = tr.FuncName + t.opts.Suffix
	}

	recvDeclared := true
	if tr.RecvType != "" {
		recvDeclared = t.idx.HasType(tr.RecvType)
	}

	return inliner.Unit{
		Package:      t.idx.Package(),
		File:         sym.File.Path,
		Imports:      sym.File.Imports(),
		Method:       t.buildMethod(sym, target, reps),
		Target:       target,
		RecvBase:     tr.RecvType,
		RecvDeclared: recvDeclared,
		Warnings:     warns,
	}, nil
}

// collectSites walks the trigger body and selects call statements following
// the trigger's policy. Marked statements and statements matching a calls=
// entry are always selected and must expand. Marks and calls lists are
// explicit requests and turn implicit selection off; without either, every
// statement call passing exactly one function literal to a resolvable local
// callee is selected.
func (t *siteTransformer) collectSites(sym *analyzer.Symbol, tr inliner.Trigger) ([]site, *welderr.MultiError) {
	errs := &welderr.MultiError{}
	var sites []site
	var selected []inliner.Span

	hasMarks := false
	ast.Inspect(sym.Decl.Body, func(n ast.Node) bool {
		if stmt, ok := n.(ast.Stmt); ok && t.idx.Marked(stmt.Pos()) {
			hasMarks = true
		}
		return !hasMarks
	})

	ast.Inspect(sym.Decl.Body, func(n ast.Node) bool {
		stmt, ok := n.(ast.Stmt)
		if !ok {
			return true
		}

		// Statements nested inside an already selected call stay untouched;
		// the outer replacement swallows their bytes.
		span := t.stmtSpan(sym, stmt)
		for _, sel := range selected {
			if sel.Contains(span) {
				return true
			}
		}

		expr, isExpr := stmt.(*ast.ExprStmt)
		if !isExpr || !isCallStmt(expr) {
			if t.idx.Marked(stmt.Pos()) {
				pos := t.idx.Position(stmt.Pos())
				errs.Append(welderr.NewAt(welderr.KindBadDirective, sym.File.Path,
					pos.Line, pos.Column, "inline mark must annotate a call statement"))
			}
			return true
		}
		call := expr.X.(*ast.CallExpr)

		marked := t.idx.Marked(expr.Pos())
		listed := len(tr.Calls) > 0 && matchesCallee(tr.Calls, calleeName(call))

		var s site
		var take bool
		switch {
		case marked || listed:
			callee, err := t.resolveRequired(call, tr.Calls)
			if err != nil {
				errs.Append(err)
				return true
			}
			s, take = site{stmt: expr, call: call, sym: callee}, true
		case len(tr.Calls) > 0 || hasMarks:
			// Explicit requests elsewhere leave this call alone.
		default:
			callee, ok := t.resolveImplicit(sym.File, call)
			if ok {
				s, take = site{stmt: expr, call: call, sym: callee}, true
			}
		}
		if take {
			sites = append(sites, s)
			selected = append(selected, span)
		}
		return true
	})

	return sites, errs
}

// resolveRequired resolves the callee of a requested site. Resolution must
// land on exactly one declaration; a calls list can narrow candidates with
// qualified "Recv.Name" entries, and arity breaks remaining ties.
func (t *siteTransformer) resolveRequired(call *ast.CallExpr, calls []string) (*analyzer.Symbol, error) {
	pos := t.idx.Position(call.Pos())
	name := calleeName(call)

	res := t.idx.Resolve(call)
	cands := narrowByCalls(res.Candidates, calls, name)
	cands = narrowByArity(cands, len(call.Args))

	switch len(cands) {
	case 1:
		return cands[0], nil
	case 0:
		return nil, welderr.NewAt(welderr.KindSymbolResolutionFailed, pos.Filename,
			pos.Line, pos.Column, "cannot resolve "+name+" to a declaration in this package")
	default:
		keys := make([]string, len(cands))
		for i, c := range cands {
			keys[i] = c.Key()
		}
		return nil, welderr.NewAt(welderr.KindSymbolResolutionFailed, pos.Filename,
			pos.Line, pos.Column,
			fmt.Sprintf("%s is ambiguous, candidates: %s", name, strings.Join(keys, ", ")))
	}
}

// resolveImplicit decides whether an unrequested call statement is an
// expansion site: it must pass exactly one function literal and resolve to
// one local declaration. A selector through a name the file imports calls
// into another package, never a local method, and is skipped. Anything else
// is left alone.
func (t *siteTransformer) resolveImplicit(file *analyzer.SourceFile, call *ast.CallExpr) (*analyzer.Symbol, bool) {
	if countFuncLits(call) != 1 {
		return nil, false
	}
	if isImportedCallee(file, call) {
		return nil, false
	}
	res := t.idx.Resolve(call)
	cands := narrowByArity(res.Candidates, len(call.Args))
	if len(cands) != 1 {
		return nil, false
	}
	return cands[0], true
}

// isImportedCallee reports whether the call selects through a bare identifier
// naming one of the file's imports, as in metrics.Observe(...). A local
// variable shadowing an import name is indistinguishable without type
// information; an inline mark or a calls entry still selects such a site.
func isImportedCallee(file *analyzer.SourceFile, call *ast.CallExpr) bool {
	sel, ok := unwrapFun(call.Fun).(*ast.SelectorExpr)
	if !ok {
		return false
	}
	id, ok := sel.X.(*ast.Ident)
	if !ok {
		return false
	}
	for _, imp := range file.Imports() {
		if imp.Name() == id.Name {
			return true
		}
	}
	return false
}

func isCallStmt(stmt *ast.ExprStmt) bool {
	_, ok := stmt.X.(*ast.CallExpr)
	return ok
}

func countFuncLits(call *ast.CallExpr) int {
	n := 0
	for _, arg := range call.Args {
		if _, ok := arg.(*ast.FuncLit); ok {
			n++
		}
	}
	return n
}

// unwrapFun strips parentheses and generic instantiations off a callee
// expression.
func unwrapFun(fun ast.Expr) ast.Expr {
	for {
		switch f := fun.(type) {
		case *ast.IndexExpr:
			fun = f.X
		case *ast.IndexListExpr:
			fun = f.X
		case *ast.ParenExpr:
			fun = f.X
		default:
			return fun
		}
	}
}

// calleeName returns the syntactic callee name: the identifier for function
// calls, the selector member for method calls.
func calleeName(call *ast.CallExpr) string {
	switch f := unwrapFun(call.Fun).(type) {
	case *ast.Ident:
		return f.Name
	case *ast.SelectorExpr:
		return f.Sel.Name
	}
	return ""
}

// matchesCallee reports whether a calls list names the callee, by bare name
// or by the name part of a qualified entry.
func matchesCallee(calls []string, name string) bool {
	if name == "" {
		return false
	}
	for _, c := range calls {
		if c == name || strings.HasSuffix(c, "."+name) {
			return true
		}
	}
	return false
}

// narrowByCalls keeps candidates matching the calls entries for this callee
// name. Bare entries impose no receiver constraint; qualified entries keep
// only their declaration.
func narrowByCalls(cands []*analyzer.Symbol, calls []string, name string) []*analyzer.Symbol {
	if len(calls) == 0 {
		return cands
	}
	var qualified []string
	for _, c := range calls {
		recv, n, found := strings.Cut(c, ".")
		if !found {
			if c == name {
				return cands
			}
			continue
		}
		if n == name {
			qualified = append(qualified, recv+"."+n)
		}
	}
	if len(qualified) == 0 {
		return cands
	}
	var out []*analyzer.Symbol
	for _, cand := range cands {
		for _, q := range qualified {
			if cand.Key() == q {
				out = append(out, cand)
				break
			}
		}
	}
	return out
}

func narrowByArity(cands []*analyzer.Symbol, arity int) []*analyzer.Symbol {
	var out []*analyzer.Symbol
	for _, c := range cands {
		if c.Arity() == arity {
			out = append(out, c)
		}
	}
	return out
}
