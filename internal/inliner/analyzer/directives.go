package analyzer

import (
	"go/ast"
	"go/token"
	"strings"

	"weld/internal/inliner"
	"weld/internal/inliner/registry"
	"weld/welderr"
)

// Comment directives understood by the scanner:
//
//	//weld:template <text>   in a function doc comment, one template line;
//	                         consecutive lines join with newlines
//	//weld:expand [target=Name] [calls=A,B]
//	                         in a function doc comment, requests expansion
//	//weld:inline            on or above a statement, marks one call site
const (
	directivePrefix = "//weld:"
	verbTemplate    = "template"
	verbExpand      = "expand"
	verbInline      = "inline"
)

// scanDirectives walks every comment group of the file. Function doc comments
// may declare templates and expansion triggers; anywhere else the only legal
// directive is an inline mark tied to a statement. Misplaced or malformed
// directives are reported, never skipped.
func (a *Analyzer) scanDirectives(idx *Index, file *SourceFile, errs *welderr.MultiError) []inliner.Trigger {
	docs := make(map[*ast.CommentGroup]*ast.FuncDecl)
	for _, decl := range file.AST.Decls {
		if fd, ok := decl.(*ast.FuncDecl); ok && fd.Doc != nil {
			docs[fd.Doc] = fd
		}
	}

	var triggers []inliner.Trigger
	for _, group := range file.AST.Comments {
		if fd, ok := docs[group]; ok {
			if tr, ok := a.scanFuncDoc(idx, file, group, fd, errs); ok {
				triggers = append(triggers, tr)
			}
			continue
		}
		a.scanFloating(idx, file, group, errs)
	}
	return triggers
}

// scanFuncDoc handles template and expand directives in a function doc
// comment.
func (a *Analyzer) scanFuncDoc(idx *Index, file *SourceFile, group *ast.CommentGroup, fd *ast.FuncDecl, errs *welderr.MultiError) (inliner.Trigger, bool) {
	var (
		templateLines []string
		templateLine  int
		trigger       inliner.Trigger
		haveTrigger   bool
	)

	for _, c := range group.List {
		verb, rest, ok := splitDirective(c.Text)
		if !ok {
			continue
		}
		pos := idx.Position(c.Pos())

		switch verb {
		case verbTemplate:
			if len(templateLines) == 0 {
				templateLine = pos.Line
			}
			templateLines = append(templateLines, rest)
		case verbExpand:
			if haveTrigger {
				errs.Append(welderr.NewAt(welderr.KindBadDirective, file.Path, pos.Line, pos.Column,
					"duplicate expand directive"))
				continue
			}
			target, calls, err := parseExpandArgs(rest)
			if err != nil {
				errs.Append(err.At(file.Path, pos.Line, pos.Column))
				continue
			}
			if fd.Body == nil {
				errs.Append(welderr.NewAt(welderr.KindBadDirective, file.Path, pos.Line, pos.Column,
					"cannot expand "+fd.Name.Name+": function has no body"))
				continue
			}
			trigger = inliner.Trigger{
				FuncName: fd.Name.Name,
				RecvType: recvBaseName(fd.Recv),
				Target:   target,
				Calls:    calls,
				File:     file.Path,
				Line:     pos.Line,
			}
			haveTrigger = true
		case verbInline:
			errs.Append(welderr.NewAt(welderr.KindBadDirective, file.Path, pos.Line, pos.Column,
				"inline mark cannot be part of a doc comment"))
		default:
			errs.Append(welderr.NewAt(welderr.KindBadDirective, file.Path, pos.Line, pos.Column,
				"unknown directive //weld:"+verb))
		}
	}

	if len(templateLines) > 0 {
		sym := &Symbol{Name: fd.Name.Name, RecvBase: recvBaseName(fd.Recv)}
		if err := a.reg.Register(registry.Template{
			Key:  sym.Key(),
			Text: strings.Join(templateLines, "\n"),
			File: file.Path,
			Line: templateLine,
		}); err != nil {
			errs.Append(err)
		}
	}

	return trigger, haveTrigger
}

// scanFloating handles comment groups that are not function doc comments.
func (a *Analyzer) scanFloating(idx *Index, file *SourceFile, group *ast.CommentGroup, errs *welderr.MultiError) {
	for _, c := range group.List {
		verb, rest, ok := splitDirective(c.Text)
		if !ok {
			continue
		}
		pos := idx.Position(c.Pos())

		if verb != verbInline || rest != "" {
			errs.Append(welderr.NewAt(welderr.KindBadDirective, file.Path, pos.Line, pos.Column,
				"directive //weld:"+verb+" must be in a function doc comment"))
			continue
		}
		if err := markStatement(idx, file, c); err != nil {
			errs.Append(err)
		}
	}
}

// markStatement ties an inline mark to the statement it annotates: either the
// statement ending on the same line, or the first statement on the next line.
func markStatement(idx *Index, file *SourceFile, c *ast.Comment) *welderr.Error {
	pos := idx.Position(c.Pos())
	badMark := func(msg string) *welderr.Error {
		return welderr.NewAt(welderr.KindBadDirective, file.Path, pos.Line, pos.Column, msg)
	}

	var body *ast.BlockStmt
	for _, decl := range file.AST.Decls {
		fd, ok := decl.(*ast.FuncDecl)
		if !ok || fd.Body == nil {
			continue
		}
		if fd.Body.Pos() <= c.Pos() && c.Pos() <= fd.Body.End() {
			body = fd.Body
			break
		}
	}
	if body == nil {
		return badMark("inline mark outside a function body")
	}

	var trailing, next ast.Stmt
	ast.Inspect(body, func(n ast.Node) bool {
		stmt, ok := n.(ast.Stmt)
		if !ok || n == body {
			return true
		}
		if trailing == nil && idx.Position(stmt.End()).Line == pos.Line && stmt.Pos() < c.Pos() {
			trailing = stmt
		}
		if next == nil && idx.Position(stmt.Pos()).Line == pos.Line+1 && stmt.Pos() > c.End() {
			next = stmt
		}
		return true
	})

	target := trailing
	if target == nil {
		target = next
	}
	if target == nil {
		return badMark("inline mark does not annotate a statement")
	}
	idx.marks[target.Pos()] = true
	return nil
}

// splitDirective splits a weld directive comment into verb and argument text.
// One space after the verb is the separator; everything beyond it is kept
// verbatim, template indentation included.
func splitDirective(text string) (verb, rest string, ok bool) {
	if !strings.HasPrefix(text, directivePrefix) {
		return "", "", false
	}
	s := text[len(directivePrefix):]
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", true
}

// parseExpandArgs parses the key=value arguments of an expand directive.
func parseExpandArgs(s string) (target string, calls []string, err *welderr.Error) {
	seen := map[string]bool{}
	for _, field := range strings.Fields(s) {
		key, value, found := strings.Cut(field, "=")
		if !found || value == "" {
			return "", nil, welderr.Newf(welderr.KindBadDirective,
				"malformed expand argument %q, want key=value", field)
		}
		if seen[key] {
			return "", nil, welderr.Newf(welderr.KindBadDirective,
				"duplicate expand argument %q", key)
		}
		seen[key] = true

		switch key {
		case "target":
			if !token.IsIdentifier(value) {
				return "", nil, welderr.Newf(welderr.KindBadDirective,
					"expand target %q is not a valid identifier", value)
			}
			target = value
		case "calls":
			for _, name := range strings.Split(value, ",") {
				name = strings.TrimSpace(name)
				if !isCalleeName(name) {
					return "", nil, welderr.Newf(welderr.KindBadDirective,
						"expand callee %q is not a valid name", name)
				}
				calls = append(calls, name)
			}
		default:
			return "", nil, welderr.Newf(welderr.KindBadDirective,
				"unknown expand argument %q", key)
		}
	}
	return target, calls, nil
}

// isCalleeName accepts "Name" and "Recv.Name".
func isCalleeName(s string) bool {
	if recv, name, found := strings.Cut(s, "."); found {
		return token.IsIdentifier(recv) && token.IsIdentifier(name)
	}
	return token.IsIdentifier(s)
}
