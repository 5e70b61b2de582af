package inliner

import (
	"fmt"
	"strings"
	"unicode"

	"weld/welderr"
)

// Param describes one formal parameter of an inlined function literal.
type Param struct {
	Name string
	Type string // declared type text, "" when the literal omits it
}

// Binding pairs a callee parameter name with the call-site expression text
// supplied for it. Slot marks the lambda parameter, which is consumed by the
// template instead of being bound to a local.
type Binding struct {
	Name string
	Expr string
	Slot bool
}

// Span is a half-open byte interval [Start, End) relative to the text it
// indexes, usually a method body.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int {
	return s.End - s.Start
}

// Contains reports whether o lies entirely inside s.
func (s Span) Contains(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Replacement couples a call-site statement span with the bindings extracted
// from its arguments and the rendered template text that replaces it.
type Replacement struct {
	Span     Span
	Bindings []Binding
	Rendered string
}

// BlockText renders the replacement as a brace-delimited block: one
// short-variable declaration per non-lambda binding, then the rendered
// template text verbatim.
func (r Replacement) BlockText() string {
	var sb strings.Builder
	sb.WriteString("{\n")
	for _, b := range r.Bindings {
		if b.Slot {
			continue
		}
		sb.WriteString("\t")
		sb.WriteString(b.Name)
		sb.WriteString(" := ")
		sb.WriteString(b.Expr)
		sb.WriteString("\n")
	}
	sb.WriteString(r.Rendered)
	sb.WriteString("\n}")
	return sb.String()
}

// Method is a synthesized sibling of a scanned method. All fields hold source
// text copied or spliced from the original file, never reformatted.
type Method struct {
	RecvText       string // "(xs IntList)" including parentheses, "" for a function
	Name           string
	TypeParamsText string // "[T any]" including brackets, "" when absent
	ParamsText     string // "(values []int)" including parentheses
	ResultsText    string // "(int, error)", "int", or ""
	BodyText       string // body between the outer braces, exclusive
}

// Signature renders the method header up to the opening brace.
func (m Method) Signature() string {
	var sb strings.Builder
	sb.WriteString("func ")
	if m.RecvText != "" {
		sb.WriteString(m.RecvText)
		sb.WriteString(" ")
	}
	sb.WriteString(m.Name)
	sb.WriteString(m.TypeParamsText)
	sb.WriteString(m.ParamsText)
	if m.ResultsText != "" {
		sb.WriteString(" ")
		sb.WriteString(m.ResultsText)
	}
	return sb.String()
}

// Text renders the full method declaration.
func (m Method) Text() string {
	return m.Signature() + " {" + m.BodyText + "}"
}

// Import is one import spec of a scanned source file.
type Import struct {
	Alias string // "", ".", "_", or a named alias
	Path  string // unquoted import path
}

// Name returns the identifier the import likely binds in the file: the alias
// when present, otherwise a guess from the path the way goimports guesses it.
// The last element is taken, skipping a major-version segment like v2, then a
// go- prefix and anything from the first non-identifier character is dropped.
// So env/v2 binds env, and go-metrics binds metrics.
func (i Import) Name() string {
	if i.Alias != "" {
		return i.Alias
	}
	base := i.Path
	if idx := strings.LastIndex(base, "/"); idx >= 0 && isVersionSegment(base[idx+1:]) {
		base = base[:idx]
	}
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.TrimPrefix(base, "go-")
	if idx := strings.IndexFunc(base, func(r rune) bool {
		return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}); idx >= 0 {
		base = base[:idx]
	}
	return base
}

// isVersionSegment matches module major-version path elements: v2, v3, ...
func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, c := range []byte(s[1:]) {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Trigger identifies one method selected for expansion and how its generated
// sibling should be produced.
type Trigger struct {
	FuncName string
	RecvType string   // receiver base type, "" for a plain function
	Target   string   // explicit generated name, "" derives FuncName plus suffix
	Calls    []string // callee allowlist, empty means every eligible call site
	File     string
	Line     int
}

// Key returns the qualified name of the trigger function, "Recv.Name" for
// methods and "Name" for functions.
func (t Trigger) Key() string {
	if t.RecvType != "" {
		return t.RecvType + "." + t.FuncName
	}
	return t.FuncName
}

// Unit is one fully transformed method awaiting emission.
type Unit struct {
	Package      string
	File         string // originating source file path
	Imports      []Import
	Method       Method
	Target       string // resolved name of the generated method
	RecvBase     string // receiver base type, "" for a function
	RecvDeclared bool   // whether RecvBase is declared in the scanned package
	Warnings     []*welderr.Error
}

// GeneratedFile is the emitted output for one unit.
type GeneratedFile struct {
	Name    string
	Content string
}
