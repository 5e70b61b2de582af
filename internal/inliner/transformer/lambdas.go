package transformer

import (
	"fmt"
	"go/ast"
	"strings"

	"weld/internal/inliner"
	"weld/internal/inliner/analyzer"
	"weld/internal/inliner/template"
	"weld/welderr"
)

// receiverName is the canonical binding name for the call-site receiver
// expression. Templates reference the receiver value through it.
const receiverName = "self"

// lambda is the function literal extracted from a call site.
type lambda struct {
	params []inliner.Param
	body   string
	slot   string // callee's declared name for the lambda parameter
}

// expandSite turns one selected call statement into a replacement block.
func (t *siteTransformer) expandSite(owner *analyzer.Symbol, s site) (inliner.Replacement, []*welderr.Error, error) {
	pos := t.idx.Position(s.call.Pos())
	at := func(e *welderr.Error) *welderr.Error {
		return e.At(owner.File.Path, pos.Line, pos.Column)
	}

	entry, err := t.reg.Lookup(s.sym.Key())
	if err != nil {
		we, _ := welderr.As(err)
		return inliner.Replacement{}, nil, at(we)
	}

	lam, litIndex, err := t.extractLambda(s, entry.Compiled.NeedsLambda())
	if err != nil {
		we, _ := welderr.As(err)
		return inliner.Replacement{}, nil, at(we)
	}

	bindings := t.bindArguments(owner, s, litIndex)

	in := template.Input{HasLambda: lam != nil}
	if lam != nil {
		in.Slot = lam.slot
		in.Params = lam.params
		in.Body = lam.body
	}
	rendered, warns, err := entry.Compiled.Render(in)
	if err != nil {
		we, _ := welderr.As(err)
		return inliner.Replacement{}, nil, at(we)
	}
	for i, w := range warns {
		warns[i] = at(w)
	}

	return inliner.Replacement{
		Span:     t.stmtSpan(owner, s.stmt),
		Bindings: bindings,
		Rendered: rendered,
	}, warns, nil
}

// extractLambda locates the function literal among the call arguments and
// reads its parameters and body text. Exactly one literal may be present.
// A zero-argument call carries nothing to extract; rendering rejects the
// template later if it references the lambda. When arguments are passed but
// none is a literal, the failure depends on the callee declaration: a
// func-typed parameter fed by a non-literal argument is an unsupported form,
// since named function values cannot be opened up; a declaration without any
// func-typed parameter has no lambda slot at all.
func (t *siteTransformer) extractLambda(s site, needsLambda bool) (*lambda, int, error) {
	litIndex := -1
	for i, arg := range s.call.Args {
		if _, ok := arg.(*ast.FuncLit); !ok {
			continue
		}
		if litIndex >= 0 {
			return nil, -1, welderr.Newf(welderr.KindAmbiguousLambdaSlot,
				"%d function literals passed to %s, cannot pick the lambda slot",
				countFuncLits(s.call), calleeName(s.call))
		}
		litIndex = i
	}

	if litIndex < 0 {
		if !needsLambda || len(s.call.Args) == 0 {
			return nil, -1, nil
		}
		for i, p := range s.sym.Params {
			if p.FuncTyped && i < len(s.call.Args) {
				return nil, -1, welderr.Newf(welderr.KindUnsupportedLambdaForm,
					"argument %d of %s is not a function literal, only literal lambdas can be inlined",
					i, calleeName(s.call))
			}
		}
		return nil, -1, welderr.Newf(welderr.KindLambdaSlotNotFound,
			"call passes no function literal to %s", calleeName(s.call))
	}

	lit := s.call.Args[litIndex].(*ast.FuncLit)
	lam := &lambda{
		params: t.litParams(s.sym.File, lit),
		body:   strings.TrimSpace(t.blockInnerText(s.sym.File, lit.Body)),
	}
	if litIndex < len(s.sym.Params) {
		lam.slot = s.sym.Params[litIndex].Name
	}
	return lam, litIndex, nil
}

// litParams flattens the literal's parameter list, keeping declared type text
// verbatim.
func (t *siteTransformer) litParams(file *analyzer.SourceFile, lit *ast.FuncLit) []inliner.Param {
	if lit.Type.Params == nil {
		return nil
	}
	var out []inliner.Param
	for _, field := range lit.Type.Params.List {
		typeText := ""
		if field.Type != nil {
			typeText = t.textOf(file, field.Type)
		}
		if len(field.Names) == 0 {
			out = append(out, inliner.Param{Type: typeText})
			continue
		}
		for _, name := range field.Names {
			out = append(out, inliner.Param{Name: name.Name, Type: typeText})
		}
	}
	return out
}

// bindArguments pairs callee parameter names with call-site argument text, in
// argument order. The lambda slot is recorded but never bound to a local. A
// parameter declared as this binds under self, and for method callees the
// receiver expression is appended last under the same name.
func (t *siteTransformer) bindArguments(owner *analyzer.Symbol, s site, litIndex int) []inliner.Binding {
	var bindings []inliner.Binding
	for i, arg := range s.call.Args {
		name := ""
		if i < len(s.sym.Params) {
			name = s.sym.Params[i].Name
		}
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		if name == "this" {
			name = receiverName
		}
		if i == litIndex {
			bindings = append(bindings, inliner.Binding{Name: name, Slot: true})
			continue
		}
		bindings = append(bindings, inliner.Binding{
			Name: name,
			Expr: t.textOf(owner.File, arg),
		})
	}

	if s.sym.RecvBase != "" {
		if sel, ok := unwrapFun(s.call.Fun).(*ast.SelectorExpr); ok {
			bindings = append(bindings, inliner.Binding{
				Name: receiverName,
				Expr: t.textOf(owner.File, sel.X),
			})
		}
	}
	return bindings
}

// textOf returns the source text of a node.
func (t *siteTransformer) textOf(file *analyzer.SourceFile, n ast.Node) string {
	start := t.idx.Position(n.Pos()).Offset
	end := t.idx.Position(n.End()).Offset
	return string(file.Src[start:end])
}

// blockInnerText returns the text between a block's braces, exclusive.
func (t *siteTransformer) blockInnerText(file *analyzer.SourceFile, block *ast.BlockStmt) string {
	start := t.idx.Position(block.Lbrace).Offset + 1
	end := t.idx.Position(block.Rbrace).Offset
	return string(file.Src[start:end])
}
