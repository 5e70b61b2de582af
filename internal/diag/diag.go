// Package diag renders run diagnostics for terminals: a severity-colored
// headline, the source position and a caret excerpt pointing at the offending
// column. Column math respects tabs and wide runes so the caret lines up in
// any terminal.
package diag

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"weld/welderr"
)

var (
	errorColor    = color.New(color.FgRed, color.Bold)
	warningColor  = color.New(color.FgYellow, color.Bold)
	positionColor = color.New(color.FgCyan)
)

// Printer writes diagnostics to one output stream.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a Printer writing to out. Color is controlled globally
// through color.NoColor, which auto-detects terminals.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Diagnostic renders one diagnostic. sourceLine is the text of the offending
// line, "" when unavailable; the caret excerpt is printed only when both the
// position and the line are known.
func (p *Printer) Diagnostic(e *welderr.Error, sourceLine string) {
	head := errorColor.Sprintf("error[%s]", e.Category)
	if e.Category.Soft() {
		head = warningColor.Sprintf("warning[%s]", e.Category)
	}
	fmt.Fprintf(p.out, "%s: %s\n", head, e.Msg)

	if e.Path == "" || e.Line <= 0 {
		return
	}
	fmt.Fprintf(p.out, "  --> %s\n", positionColor.Sprintf("%s:%d:%d", e.Path, e.Line, e.Column))

	if sourceLine == "" {
		return
	}
	lineNo := strconv.Itoa(e.Line)
	gutter := strings.Repeat(" ", len(lineNo))
	fmt.Fprintf(p.out, " %s | %s\n", lineNo, sourceLine)
	fmt.Fprintf(p.out, " %s | %s^\n", gutter, caretPad(sourceLine, e.Column))
}

// Summary prints the run totals.
func (p *Printer) Summary(errors, warnings int) {
	parts := make([]string, 0, 2)
	if errors > 0 {
		parts = append(parts, errorColor.Sprintf("%d error(s)", errors))
	}
	if warnings > 0 {
		parts = append(parts, warningColor.Sprintf("%d warning(s)", warnings))
	}
	if len(parts) == 0 {
		return
	}
	fmt.Fprintf(p.out, "weld: %s\n", strings.Join(parts, ", "))
}

// caretPad builds the whitespace preceding the caret for a 1-based byte
// column. Tabs are carried through so the caret follows the terminal's own
// tab stops; everything else widens by its display width.
func caretPad(line string, column int) string {
	if column <= 1 {
		return ""
	}
	prefix := line
	if column-1 < len(line) {
		prefix = line[:column-1]
	}
	var sb strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return sb.String()
}
