package transformer

import (
	"go/ast"
	"sort"
	"strings"

	"weld/internal/inliner"
	"weld/internal/inliner/analyzer"
)

// stmtSpan returns the statement's byte span relative to the trigger body
// text, the text between the body braces.
func (t *siteTransformer) stmtSpan(owner *analyzer.Symbol, stmt ast.Stmt) inliner.Span {
	base := t.idx.Position(owner.Decl.Body.Lbrace).Offset + 1
	return inliner.Span{
		Start: t.idx.Position(stmt.Pos()).Offset - base,
		End:   t.idx.Position(stmt.End()).Offset - base,
	}
}

// spliceBody rebuilds the trigger body text. Replacements are applied in span
// order against the original text, so every byte outside the replaced spans
// is carried over unchanged. No replacements means the body text is returned
// as is.
func (t *siteTransformer) spliceBody(owner *analyzer.Symbol, reps []inliner.Replacement) string {
	body := t.blockInnerText(owner.File, owner.Decl.Body)
	if len(reps) == 0 {
		return body
	}

	sorted := make([]inliner.Replacement, len(reps))
	copy(sorted, reps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Span.Start < sorted[j].Span.Start })

	var sb strings.Builder
	cur := 0
	for _, r := range sorted {
		sb.WriteString(body[cur:r.Span.Start])
		sb.WriteString(r.BlockText())
		cur = r.Span.End
	}
	sb.WriteString(body[cur:])
	return sb.String()
}

// buildMethod copies the trigger signature verbatim, renames it and attaches
// the spliced body.
func (t *siteTransformer) buildMethod(sym *analyzer.Symbol, target string, reps []inliner.Replacement) inliner.Method {
	d := sym.Decl
	m := inliner.Method{
		Name:     target,
		BodyText: t.spliceBody(sym, reps),
	}
	if d.Recv != nil {
		m.RecvText = t.textOf(sym.File, d.Recv)
	}
	if d.Type.TypeParams != nil {
		m.TypeParamsText = t.textOf(sym.File, d.Type.TypeParams)
	}
	if d.Type.Params != nil {
		m.ParamsText = t.textOf(sym.File, d.Type.Params)
	}
	if d.Type.Results != nil {
		m.ResultsText = t.textOf(sym.File, d.Type.Results)
	}
	return m
}
