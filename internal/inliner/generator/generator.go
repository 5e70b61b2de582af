// Package generator renders transformed units into standalone source files.
// The emitted file re-declares the unit's package, carries over the import
// specs its text still references and pastes the generated method verbatim.
// Nothing here is formatted or validated: the compiler consuming the output
// owns semantic checks, and formatting stays a caller decision.
package generator

import (
	"fmt"
	"go/scanner"
	"go/token"
	"strconv"
	"strings"

	"weld/internal/inliner"
	"weld/welderr"
)

// Header is the default first line of every generated file.
const Header = "// Code generated by weld. DO NOT EDIT.\n"

// FileNamer derives the output file name for a unit.
type FileNamer func(unit inliner.Unit) string

// DefaultFileNamer names files <recv>_<target>_weld.go for methods and
// <target>_weld.go for functions, lowercased.
func DefaultFileNamer(unit inliner.Unit) string {
	name := strings.ToLower(unit.Target) + "_weld.go"
	if unit.RecvBase != "" {
		name = strings.ToLower(unit.RecvBase) + "_" + name
	}
	return name
}

// Options configure emission.
type Options struct {
	Header string    // file header, Header when empty
	Namer  FileNamer // file naming policy, DefaultFileNamer when nil
}

type fileEmitter struct {
	opts Options
}

var _ inliner.UnitEmitter = (*fileEmitter)(nil)

// New creates an inliner.UnitEmitter.
func New(opts Options) inliner.UnitEmitter {
	if opts.Header == "" {
		opts.Header = Header
	}
	if opts.Namer == nil {
		opts.Namer = DefaultFileNamer
	}
	return &fileEmitter{opts: opts}
}

// Emit renders the unit as a complete compilation unit. A method can only
// attach to a type the scanned package declares.
func (g *fileEmitter) Emit(unit inliner.Unit) (inliner.GeneratedFile, error) {
	if unit.RecvBase != "" && !unit.RecvDeclared {
		return inliner.GeneratedFile{}, welderr.Newf(welderr.KindDeclaringTypeNotFound,
			"cannot attach %s: type %s is not declared in %s",
			unit.Target, unit.RecvBase, unit.File)
	}

	method := unit.Method.Text()

	var sb strings.Builder
	sb.WriteString(g.opts.Header)
	sb.WriteString("\n")
	sb.WriteString("package ")
	sb.WriteString(unit.Package)
	sb.WriteString("\n\n")
	if block := importBlock(filterImports(unit.Imports, method)); block != "" {
		sb.WriteString(block)
		sb.WriteString("\n")
	}
	sb.WriteString(method)
	sb.WriteString("\n")

	return inliner.GeneratedFile{
		Name:    g.opts.Namer(unit),
		Content: sb.String(),
	}, nil
}

// filterImports keeps the imports the method text can still reach. Without
// type information the test is syntactic: an import survives when its bound
// name occurs as an identifier in the text. Blank and dot imports always
// survive, their use never shows up as an identifier.
func filterImports(imports []inliner.Import, method string) []inliner.Import {
	if len(imports) == 0 {
		return nil
	}
	used := usedIdents(method)
	var out []inliner.Import
	for _, imp := range imports {
		if imp.Alias == "_" || imp.Alias == "." || used[imp.Name()] {
			out = append(out, imp)
		}
	}
	return out
}

// usedIdents scans source text and collects every identifier token.
func usedIdents(src string) map[string]bool {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var sc scanner.Scanner
	sc.Init(file, []byte(src), nil, 0)

	idents := make(map[string]bool)
	for {
		_, tok, lit := sc.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.IDENT {
			idents[lit] = true
		}
	}
	return idents
}

func importBlock(imports []inliner.Import) string {
	switch len(imports) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("import %s\n", importSpec(imports[0]))
	}
	var sb strings.Builder
	sb.WriteString("import (\n")
	for _, imp := range imports {
		sb.WriteString("\t")
		sb.WriteString(importSpec(imp))
		sb.WriteString("\n")
	}
	sb.WriteString(")\n")
	return sb.String()
}

func importSpec(imp inliner.Import) string {
	if imp.Alias != "" {
		return imp.Alias + " " + strconv.Quote(imp.Path)
	}
	return strconv.Quote(imp.Path)
}
