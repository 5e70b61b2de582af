// Package analyzer scans a Go package for weld directives and builds the
// declaration index the transformer resolves call sites against. Parsing is
// performed without object resolution or type checking: weld works on source
// text and leaves semantic validation to the compiler that consumes the
// generated files.
package analyzer

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"

	"weld/internal/inliner"
	"weld/internal/inliner/registry"
	"weld/welderr"
)

const parseMode = parser.DeclarationErrors | parser.SkipObjectResolution | parser.ParseComments

// Input names one file to scan. When Src is nil the file is read from disk.
type Input struct {
	Path string
	Src  []byte
}

// Analyzer scans source files, registering templates as it finds them.
type Analyzer struct {
	reg *registry.Registry
}

// New creates an Analyzer that registers discovered templates into reg.
func New(reg *registry.Registry) *Analyzer {
	return &Analyzer{reg: reg}
}

// Analyze parses the inputs as one package, indexes its declarations,
// registers //weld:template declarations and collects //weld:expand triggers.
// Scanning continues past per-file problems; everything found wrong is
// returned together.
func (a *Analyzer) Analyze(inputs []Input) (*Index, []inliner.Trigger, error) {
	fset := token.NewFileSet()
	idx := newIndex(fset)
	var triggers []inliner.Trigger
	errs := &welderr.MultiError{}

	for _, in := range inputs {
		src := in.Src
		if src == nil {
			var err error
			src, err = os.ReadFile(in.Path)
			if err != nil {
				errs.Append(welderr.Newf(welderr.KindConfig, "reading %s: %v", in.Path, err))
				continue
			}
		}

		astf, err := parser.ParseFile(fset, in.Path, src, parseMode)
		if err != nil {
			errs.Append(welderr.Newf(welderr.KindConfig, "parsing %s: %v", in.Path, err))
			continue
		}

		file := &SourceFile{Path: in.Path, Src: src, AST: astf}
		if idx.pkg == "" {
			idx.pkg = astf.Name.Name
		} else if astf.Name.Name != idx.pkg {
			errs.Append(welderr.NewAt(welderr.KindConfig, in.Path,
				fset.Position(astf.Name.Pos()).Line, fset.Position(astf.Name.Pos()).Column,
				"package "+astf.Name.Name+" does not match package "+idx.pkg))
			continue
		}
		idx.files = append(idx.files, file)

		a.indexDecls(idx, file)
		triggers = append(triggers, a.scanDirectives(idx, file, errs)...)
	}

	return idx, triggers, errs.ErrorOrNil()
}

// indexDecls records the file's top-level type, function and method
// declarations.
func (a *Analyzer) indexDecls(idx *Index, file *SourceFile) {
	for _, decl := range file.AST.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				if ts, ok := spec.(*ast.TypeSpec); ok {
					idx.types[ts.Name.Name] = true
				}
			}
		case *ast.FuncDecl:
			idx.addFunc(&Symbol{
				Name:     d.Name.Name,
				RecvBase: recvBaseName(d.Recv),
				Params:   paramInfos(d.Type.Params),
				Decl:     d,
				File:     file,
			})
		}
	}
}

// recvBaseName unwraps a receiver to its base type name: pointers and generic
// instantiations are stripped, so *List[T] and List resolve to the same name.
func recvBaseName(recv *ast.FieldList) string {
	if recv == nil || len(recv.List) == 0 {
		return ""
	}
	t := recv.List[0].Type
	for {
		switch x := t.(type) {
		case *ast.StarExpr:
			t = x.X
			continue
		case *ast.IndexExpr:
			t = x.X
			continue
		case *ast.IndexListExpr:
			t = x.X
			continue
		case *ast.ParenExpr:
			t = x.X
			continue
		case *ast.Ident:
			return x.Name
		}
		return ""
	}
}

// paramInfos flattens a parameter list into one entry per declared name.
func paramInfos(params *ast.FieldList) []ParamInfo {
	if params == nil {
		return nil
	}
	var out []ParamInfo
	for _, field := range params.List {
		funcTyped := isFuncType(field.Type)
		if len(field.Names) == 0 {
			out = append(out, ParamInfo{FuncTyped: funcTyped})
			continue
		}
		for _, name := range field.Names {
			out = append(out, ParamInfo{Name: name.Name, FuncTyped: funcTyped})
		}
	}
	return out
}

func isFuncType(t ast.Expr) bool {
	_, ok := t.(*ast.FuncType)
	return ok
}
