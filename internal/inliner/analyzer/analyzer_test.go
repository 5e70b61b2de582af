package analyzer_test

import (
	"go/ast"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weld/internal/inliner/analyzer"
	"weld/internal/inliner/registry"
	"weld/welderr"
)

func analyzeSample(t *testing.T) (*analyzer.Index, []analyzeTrigger, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	idx, triggers, err := analyzer.New(reg).Analyze([]analyzer.Input{
		{Path: testdataPath("list.go")},
		{Path: testdataPath("util.go")},
	})
	require.NoError(t, err)

	out := make([]analyzeTrigger, len(triggers))
	for i, tr := range triggers {
		out[i] = analyzeTrigger{tr.Key(), tr.Target, tr.Calls, tr.Line}
	}
	return idx, out, reg
}

type analyzeTrigger struct {
	key    string
	target string
	calls  []string
	line   int
}

func TestAnalyzeIndexesDeclarations(t *testing.T) {
	idx, _, _ := analyzeSample(t)

	assert.Equal(t, "sample", idx.Package())
	assert.Len(t, idx.Files(), 2)
	assert.True(t, idx.HasType("IntList"))
	assert.True(t, idx.HasType("StrList"))
	assert.False(t, idx.HasType("Missing"))

	sym, ok := idx.FuncDecl("IntList", "ForEach")
	require.True(t, ok)
	assert.Equal(t, "IntList.ForEach", sym.Key())
	require.Len(t, sym.Params, 1)
	assert.Equal(t, "action", sym.Params[0].Name)
	assert.True(t, sym.Params[0].FuncTyped)

	repeat, ok := idx.FuncDecl("", "Repeat")
	require.True(t, ok)
	assert.Equal(t, 2, repeat.Arity())
	assert.Equal(t, "count", repeat.Params[0].Name)
	assert.False(t, repeat.Params[0].FuncTyped)
	assert.True(t, repeat.Params[1].FuncTyped)

	_, ok = idx.FuncDecl("IntList", "Missing")
	assert.False(t, ok)
}

func TestAnalyzeRegistersTemplates(t *testing.T) {
	_, _, reg := analyzeSample(t)

	e, err := reg.Lookup("IntList.ForEach")
	require.NoError(t, err)
	assert.Equal(t, "for _, {action.arg0} := range self {\n\t{action.body}\n}", e.Text)
	assert.Equal(t, 9, e.Line)
	assert.Contains(t, e.File, "list.go")

	e, err = reg.Lookup("Repeat")
	require.NoError(t, err)
	assert.Equal(t, "for i := 0; i < count; i++ {\n\t{fn.body}\n}", e.Text)
	assert.Equal(t, []string{"{fn.body}"}, e.Compiled.Placeholders())

	// The untemplated StrList.ForEach must not shadow the IntList one.
	assert.False(t, reg.Has("StrList.ForEach"))
	assert.Equal(t, 2, reg.Len())
}

func TestAnalyzeCollectsTriggers(t *testing.T) {
	_, triggers, _ := analyzeSample(t)

	require.Len(t, triggers, 2)
	assert.Equal(t, analyzeTrigger{"IntList.Sum", "SumFast", []string{"ForEach"}, 27}, triggers[0])
	assert.Equal(t, analyzeTrigger{"Announce", "", nil, 18}, triggers[1])
}

func TestAnalyzeMarksInlineStatements(t *testing.T) {
	idx, _, _ := analyzeSample(t)

	announce, ok := idx.FuncDecl("", "Announce")
	require.True(t, ok)

	var marked, unmarked int
	ast.Inspect(announce.Decl.Body, func(n ast.Node) bool {
		stmt, ok := n.(*ast.ExprStmt)
		if !ok {
			return true
		}
		if idx.Marked(stmt.Pos()) {
			marked++
			call, ok := stmt.X.(*ast.CallExpr)
			require.True(t, ok)
			assert.Equal(t, "Repeat", call.Fun.(*ast.Ident).Name)
		} else {
			unmarked++
		}
		return true
	})
	assert.Equal(t, 1, marked)
	// The surrounding fmt.Println statements stay unmarked, including the one
	// inside the lambda.
	assert.Equal(t, 3, unmarked)
}

func TestResolveCalls(t *testing.T) {
	idx, _, _ := analyzeSample(t)

	sum, ok := idx.FuncDecl("IntList", "Sum")
	require.True(t, ok)
	announce, ok := idx.FuncDecl("", "Announce")
	require.True(t, ok)

	// xs.ForEach resolves by name across receiver types, so both ForEach
	// declarations are candidates.
	sel := findCall(sum.Decl, "ForEach")
	require.NotNil(t, sel)
	res := idx.Resolve(sel)
	assert.False(t, res.Resolved())
	assert.True(t, res.Ambiguous())
	assert.Len(t, res.Candidates, 2)

	// Repeat is a plain function call and resolves uniquely.
	repeat := findCall(announce.Decl, "Repeat")
	require.NotNil(t, repeat)
	res = idx.Resolve(repeat)
	require.True(t, res.Resolved())
	assert.Equal(t, "Repeat", res.Symbol.Key())
	assert.False(t, res.Ambiguous())

	// fmt.Println matches nothing in the package.
	external := findCall(announce.Decl, "Println")
	require.NotNil(t, external)
	res = idx.Resolve(external)
	assert.False(t, res.Resolved())
	assert.Empty(t, res.Candidates)
}

// findCall returns the first call in fn whose callee name matches.
func findCall(fn *ast.FuncDecl, name string) *ast.CallExpr {
	var found *ast.CallExpr
	ast.Inspect(fn.Body, func(n ast.Node) bool {
		if found != nil {
			return false
		}
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		switch f := call.Fun.(type) {
		case *ast.Ident:
			if f.Name == name {
				found = call
			}
		case *ast.SelectorExpr:
			if f.Sel.Name == name {
				found = call
			}
		}
		return true
	})
	return found
}

func TestAnalyzeBadDirectives(t *testing.T) {
	reg := registry.New()
	_, _, err := analyzer.New(reg).Analyze([]analyzer.Input{
		{Path: testdataPath("bad.go")},
	})
	require.Error(t, err)

	multi, ok := err.(*welderr.MultiError)
	require.True(t, ok)
	require.Len(t, multi.Errors, 3)
	for _, e := range multi.Errors {
		assert.True(t, welderr.IsKind(e, welderr.KindBadDirective))
	}
	assert.Contains(t, multi.Errors[0].Error(), "must be in a function doc comment")
	assert.Contains(t, multi.Errors[1].Error(), `unknown expand argument "mode"`)
	assert.Contains(t, multi.Errors[2].Error(), "duplicate expand directive")
}

func TestAnalyzeInMemorySources(t *testing.T) {
	reg := registry.New()
	idx, triggers, err := analyzer.New(reg).Analyze([]analyzer.Input{
		{Path: "virtual.go", Src: []byte("package virt\n\n//weld:expand\nfunc Run() {\n\tgo work()\n}\n\nfunc work() {}\n")},
	})
	require.NoError(t, err)
	assert.Equal(t, "virt", idx.Package())
	require.Len(t, triggers, 1)
	assert.Equal(t, "Run", triggers[0].FuncName)
	assert.Equal(t, "virtual.go", triggers[0].File)
}

func TestAnalyzePackageMismatch(t *testing.T) {
	reg := registry.New()
	_, _, err := analyzer.New(reg).Analyze([]analyzer.Input{
		{Path: "a.go", Src: []byte("package one\n")},
		{Path: "b.go", Src: []byte("package two\n")},
	})
	require.Error(t, err)
	assert.True(t, welderr.IsKind(err, welderr.KindConfig))
	assert.Contains(t, err.Error(), "package two does not match package one")
}

func TestLineText(t *testing.T) {
	idx, _, _ := analyzeSample(t)
	path := idx.Files()[0].Path

	line, ok := idx.LineText(path, 1)
	require.True(t, ok)
	assert.Equal(t, "package sample", line)

	_, ok = idx.LineText(path, 10_000)
	assert.False(t, ok)
	_, ok = idx.LineText("nope.go", 1)
	assert.False(t, ok)
}
