// Package template implements the placeholder engine for weld templates.
// Template text is tokenized once into an immutable segment list at
// registration time; rendering walks the segments and substitutes call-site
// values without ever re-scanning the text.
//
// Two placeholder dialects resolve against the same inputs:
//
//	{<slot>.arg<N>}       name of the lambda's Nth parameter
//	{<slot>.arg<N>.type}  declared type of the lambda's Nth parameter,
//	                      empty when the literal leaves it off
//	{<slot>.body}         lambda body statements, verbatim
//	{name<N>}             positional form of {<slot>.arg<N>}
//	{body}                positional form of {<slot>.body}
//
// Any brace sequence that is not exactly one of these shapes is ordinary
// template text. Contents of string and raw string literals are never
// substituted.
package template

import (
	"strings"

	"weld/internal/inliner"
	"weld/welderr"
)

type segKind int

const (
	segLiteral segKind = iota
	segBody
	segArgName
	segArgType
)

// segment is one parsed piece of a template. For placeholder segments, text
// keeps the raw token so unresolved placeholders can pass through verbatim.
type segment struct {
	kind  segKind
	text  string
	slot  string // "" in the positional dialect
	index int
}

// Template is a parsed, immutable template.
type Template struct {
	text string
	segs []segment
}

// Input carries the call-site values placeholders resolve against.
type Input struct {
	Slot      string // callee's declared name for the lambda parameter
	Params    []inliner.Param
	Body      string
	HasLambda bool
}

// Parse tokenizes template text. It never fails: malformed or unknown brace
// sequences stay literal text.
func Parse(text string) *Template {
	t := &Template{text: text}
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			t.segs = append(t.segs, segment{kind: segLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ { // bytewise is fine, placeholders are ASCII
		c := text[i]
		switch {
		case c == '"' || c == '`':
			l := consumeStringLiteral(c, text[i:])
			lit.WriteString(text[i : i+l])
			i += l - 1
		case c == '{':
			if seg, l, ok := consumePlaceholder(text[i:]); ok {
				flush()
				t.segs = append(t.segs, seg)
				i += l - 1
			} else {
				lit.WriteByte(c)
			}
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t
}

// Text returns the original template text.
func (t *Template) Text() string {
	return t.text
}

// NeedsLambda reports whether any placeholder references lambda parameters or
// the lambda body.
func (t *Template) NeedsLambda() bool {
	for _, s := range t.segs {
		if s.kind != segLiteral {
			return true
		}
	}
	return false
}

// Placeholders returns the distinct raw placeholder tokens in source order.
func (t *Template) Placeholders() []string {
	var out []string
	seen := map[string]bool{}
	for _, s := range t.segs {
		if s.kind == segLiteral || seen[s.text] {
			continue
		}
		seen[s.text] = true
		out = append(out, s.text)
	}
	return out
}

// Render substitutes in into the template. Placeholders that do not resolve
// are left verbatim and reported as advisory diagnostics. The only hard
// failure is a template that needs a lambda rendered against a call site that
// passed none.
func (t *Template) Render(in Input) (string, []*welderr.Error, error) {
	if !in.HasLambda && t.NeedsLambda() {
		return "", nil, welderr.New(welderr.KindNoLambdaSlot,
			"template references lambda placeholders but the call passes no function literal")
	}

	var out strings.Builder
	var warns []*welderr.Error
	warned := map[string]bool{}

	unresolved := func(s segment, reason string) {
		out.WriteString(s.text)
		if warned[s.text] {
			return
		}
		warned[s.text] = true
		warns = append(warns, welderr.Newf(welderr.KindUnresolvedPlaceholder,
			"placeholder %s left verbatim: %s", s.text, reason))
	}

	for _, s := range t.segs {
		switch s.kind {
		case segLiteral:
			out.WriteString(s.text)
		case segBody:
			if s.slot != "" && s.slot != in.Slot {
				unresolved(s, "no lambda slot named "+quoted(s.slot))
				continue
			}
			out.WriteString(in.Body)
		case segArgName:
			if s.slot != "" && s.slot != in.Slot {
				unresolved(s, "no lambda slot named "+quoted(s.slot))
				continue
			}
			if s.index >= len(in.Params) {
				unresolved(s, "lambda declares no parameter at that index")
				continue
			}
			out.WriteString(in.Params[s.index].Name)
		case segArgType:
			if s.slot != "" && s.slot != in.Slot {
				unresolved(s, "no lambda slot named "+quoted(s.slot))
				continue
			}
			if s.index >= len(in.Params) {
				unresolved(s, "lambda declares no parameter at that index")
				continue
			}
			out.WriteString(in.Params[s.index].Type)
		}
	}
	return out.String(), warns, nil
}

func quoted(s string) string {
	return "\"" + s + "\""
}

// consumePlaceholder tries to read one placeholder token at the start of in,
// which begins with '{'. It returns the parsed segment, the token length and
// whether the brace sequence matched a known placeholder shape.
func consumePlaceholder(in string) (segment, int, bool) {
	end := strings.IndexByte(in, '}')
	if end < 0 {
		return segment{}, 0, false
	}
	raw := in[:end+1]
	parts := strings.Split(in[1:end], ".")

	switch len(parts) {
	case 1:
		if parts[0] == "body" {
			return segment{kind: segBody, text: raw}, len(raw), true
		}
		if n, ok := indexSuffix(parts[0], "name"); ok {
			return segment{kind: segArgName, text: raw, index: n}, len(raw), true
		}
	case 2:
		if !isIdent(parts[0]) {
			break
		}
		if parts[1] == "body" {
			return segment{kind: segBody, text: raw, slot: parts[0]}, len(raw), true
		}
		if n, ok := indexSuffix(parts[1], "arg"); ok {
			return segment{kind: segArgName, text: raw, slot: parts[0], index: n}, len(raw), true
		}
	case 3:
		if !isIdent(parts[0]) || parts[2] != "type" {
			break
		}
		if n, ok := indexSuffix(parts[1], "arg"); ok {
			return segment{kind: segArgType, text: raw, slot: parts[0], index: n}, len(raw), true
		}
	}
	return segment{}, 0, false
}

// indexSuffix matches prefix followed by one or more decimal digits.
func indexSuffix(s, prefix string) (int, bool) {
	if !strings.HasPrefix(s, prefix) || len(s) == len(prefix) {
		return 0, false
	}
	n := 0
	for _, c := range []byte(s[len(prefix):]) {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
		digit := '0' <= c && c <= '9'
		if !letter && !(i > 0 && digit) {
			return false
		}
	}
	return true
}

// consumeStringLiteral returns the length of the literal starting at in[0],
// delimiter included. An unterminated literal runs to the end of the text.
func consumeStringLiteral(delim byte, in string) int {
	if delim == '`' {
		for i := 1; i < len(in); i++ {
			if in[i] == '`' {
				return i + 1
			}
		}
		return len(in)
	}
	for i := 1; i < len(in); i++ {
		switch in[i] {
		case '\\':
			i++
		case '\n':
			return i
		case delim:
			return i + 1
		}
	}
	return len(in)
}
