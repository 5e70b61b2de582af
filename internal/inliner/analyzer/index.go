package analyzer

import (
	"bytes"
	"go/ast"
	"go/token"
	"sort"
	"strconv"

	"weld/internal/inliner"
)

// SourceFile is one parsed file of the scanned package together with its raw
// bytes. Byte offsets from the AST index into Src directly.
type SourceFile struct {
	Path string
	Src  []byte
	AST  *ast.File
}

// Imports returns the file's import specs in declaration order.
func (f *SourceFile) Imports() []inliner.Import {
	out := make([]inliner.Import, 0, len(f.AST.Imports))
	for _, spec := range f.AST.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := inliner.Import{Path: path}
		if spec.Name != nil {
			imp.Alias = spec.Name.Name
		}
		out = append(out, imp)
	}
	return out
}

// ParamInfo records what the binder needs to know about one callee parameter:
// its declared name and whether its declared type is a function type.
type ParamInfo struct {
	Name      string
	FuncTyped bool
}

// Symbol is one function or method declaration in the scanned package.
type Symbol struct {
	Name     string
	RecvBase string // receiver base type name, "" for package-level functions
	Params   []ParamInfo
	Decl     *ast.FuncDecl
	File     *SourceFile
}

// Key returns the template key of the declaration: "Recv.Name" for methods,
// "Name" for functions.
func (s *Symbol) Key() string {
	if s.RecvBase != "" {
		return s.RecvBase + "." + s.Name
	}
	return s.Name
}

// Arity returns the number of declared parameters, counting each name in a
// shared type field separately.
func (s *Symbol) Arity() int {
	return len(s.Params)
}

// Resolution is the outcome of resolving a call expression against the index.
// Candidates always holds every declaration matching the callee name; Symbol
// is set only when the match is unambiguous. Callers narrow ambiguous results
// with whatever policy fits the call site, usually arity.
type Resolution struct {
	Symbol     *Symbol
	Candidates []*Symbol
}

// Resolved reports whether resolution produced exactly one declaration.
func (r Resolution) Resolved() bool {
	return r.Symbol != nil
}

// Ambiguous reports whether more than one declaration matched.
func (r Resolution) Ambiguous() bool {
	return len(r.Candidates) > 1
}

// Index is the declaration index of one scanned package.
type Index struct {
	fset    *token.FileSet
	files   []*SourceFile
	pkg     string
	funcs   map[string]*Symbol
	methods map[string][]*Symbol
	types   map[string]bool
	marks   map[token.Pos]bool
}

func newIndex(fset *token.FileSet) *Index {
	return &Index{
		fset:    fset,
		funcs:   make(map[string]*Symbol),
		methods: make(map[string][]*Symbol),
		types:   make(map[string]bool),
		marks:   make(map[token.Pos]bool),
	}
}

// Package returns the package name shared by the scanned files.
func (x *Index) Package() string {
	return x.pkg
}

// Files returns the scanned files in scan order.
func (x *Index) Files() []*SourceFile {
	return x.files
}

// File returns the scanned file with the given path.
func (x *Index) File(path string) (*SourceFile, bool) {
	for _, f := range x.files {
		if f.Path == path {
			return f, true
		}
	}
	return nil, false
}

// Position translates a token position into file, line and column.
func (x *Index) Position(p token.Pos) token.Position {
	return x.fset.Position(p)
}

// HasType reports whether the package declares a type with the given name.
func (x *Index) HasType(name string) bool {
	return x.types[name]
}

// FuncDecl returns the declaration of the named function or method.
func (x *Index) FuncDecl(recvBase, name string) (*Symbol, bool) {
	if recvBase == "" {
		s, ok := x.funcs[name]
		return s, ok
	}
	for _, s := range x.methods[name] {
		if s.RecvBase == recvBase {
			return s, true
		}
	}
	return nil, false
}

// Marked reports whether the statement starting at pos carries an inline mark.
func (x *Index) Marked(pos token.Pos) bool {
	return x.marks[pos]
}

// MarkPositions returns every inline-marked statement position in source
// order.
func (x *Index) MarkPositions() []token.Pos {
	out := make([]token.Pos, 0, len(x.marks))
	for p := range x.marks {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FuncAt returns the function or method declaration whose body encloses pos.
func (x *Index) FuncAt(pos token.Pos) (*Symbol, bool) {
	for _, f := range x.files {
		if pos < f.AST.Pos() || pos > f.AST.End() {
			continue
		}
		for _, decl := range f.AST.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Body == nil {
				continue
			}
			if fd.Body.Pos() <= pos && pos <= fd.Body.End() {
				return &Symbol{
					Name:     fd.Name.Name,
					RecvBase: recvBaseName(fd.Recv),
					Params:   paramInfos(fd.Type.Params),
					Decl:     fd,
					File:     f,
				}, true
			}
		}
	}
	return nil, false
}

// Resolve maps a call expression to declarations in the scanned package.
// A bare identifier callee names a package-level function. A selector callee
// is matched against methods by name across all receiver types, which is
// where ambiguity comes from: without type information the receiver
// expression does not pick the type. Generic instantiations are unwrapped.
func (x *Index) Resolve(call *ast.CallExpr) Resolution {
	fun := call.Fun
	for {
		switch f := fun.(type) {
		case *ast.IndexExpr:
			fun = f.X
			continue
		case *ast.IndexListExpr:
			fun = f.X
			continue
		case *ast.ParenExpr:
			fun = f.X
			continue
		}
		break
	}

	switch f := fun.(type) {
	case *ast.Ident:
		if s, ok := x.funcs[f.Name]; ok {
			return Resolution{Symbol: s, Candidates: []*Symbol{s}}
		}
	case *ast.SelectorExpr:
		cands := x.methods[f.Sel.Name]
		if len(cands) == 1 {
			return Resolution{Symbol: cands[0], Candidates: cands}
		}
		return Resolution{Candidates: cands}
	}
	return Resolution{}
}

// LineText returns the given 1-based source line without its line break.
func (x *Index) LineText(path string, line int) (string, bool) {
	f, ok := x.File(path)
	if !ok || line < 1 {
		return "", false
	}
	lines := bytes.Split(f.Src, []byte("\n"))
	if line > len(lines) {
		return "", false
	}
	return string(bytes.TrimRight(lines[line-1], "\r")), true
}

func (x *Index) addFunc(s *Symbol) {
	if s.RecvBase == "" {
		x.funcs[s.Name] = s
		return
	}
	x.methods[s.Name] = append(x.methods[s.Name], s)
}
