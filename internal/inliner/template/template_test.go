package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weld/internal/inliner"
	"weld/internal/inliner/template"
	"weld/welderr"
)

func TestParseLiteralOnly(t *testing.T) {
	text := "if len(xs) > 0 {\n\treturn xs[0]\n}"
	tpl := template.Parse(text)
	assert.Equal(t, text, tpl.Text())
	assert.False(t, tpl.NeedsLambda())
	assert.Empty(t, tpl.Placeholders())

	out, warns, err := tpl.Render(template.Input{HasLambda: false})
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.Equal(t, text, out)
}

func TestPlaceholderShapes(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		tokens []string
	}{
		{
			name:   "slot dialect",
			text:   "for _, {action.arg0} := range self {\n\t{action.body}\n}",
			tokens: []string{"{action.arg0}", "{action.body}"},
		},
		{
			name:   "positional dialect",
			text:   "x := {name0}\n{body}",
			tokens: []string{"{name0}", "{body}"},
		},
		{
			name:   "arg type",
			text:   "var acc {fn.arg1.type}",
			tokens: []string{"{fn.arg1.type}"},
		},
		{
			name:   "multi digit index",
			text:   "{fn.arg12}",
			tokens: []string{"{fn.arg12}"},
		},
		{
			name:   "repeated token listed once",
			text:   "{body} // {body}",
			tokens: []string{"{body}"},
		},
		{
			name: "go braces are not placeholders",
			text: "if ok { m[k] = struct{}{} }",
		},
		{
			name: "composite literal is not a placeholder",
			text: "p := point{x}",
		},
		{
			name: "name without index is not a placeholder",
			text: "{name}",
		},
		{
			name: "arg without index is not a placeholder",
			text: "{action.arg}",
		},
		{
			name: "unknown third part is not a placeholder",
			text: "{action.arg0.kind}",
		},
		{
			name: "placeholder inside string literal is text",
			text: "fmt.Println(\"{action.arg0}\")",
		},
		{
			name: "placeholder inside raw string is text",
			text: "s := `{body}`",
		},
		{
			name: "unterminated brace is text",
			text: "for {",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := template.Parse(tt.text)
			assert.Equal(t, tt.tokens, tpl.Placeholders())
			assert.Equal(t, len(tt.tokens) > 0, tpl.NeedsLambda())
		})
	}
}

func TestRenderSlotDialect(t *testing.T) {
	tpl := template.Parse("for _, {action.arg0} := range self {\n\t{action.body}\n}")

	out, warns, err := tpl.Render(template.Input{
		Slot:      "action",
		Params:    []inliner.Param{{Name: "x", Type: "int"}},
		Body:      "count += x",
		HasLambda: true,
	})
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.Equal(t, "for _, x := range self {\n\tcount += x\n}", out)
	assert.NotContains(t, out, "{action.")
}

func TestRenderPositionalDialect(t *testing.T) {
	tpl := template.Parse("{name1} := append({name1}, {name0})\n{body}")

	out, warns, err := tpl.Render(template.Input{
		Slot:      "fn",
		Params:    []inliner.Param{{Name: "v", Type: "string"}, {Name: "acc", Type: "[]string"}},
		Body:      "use(v, acc)",
		HasLambda: true,
	})
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.Equal(t, "acc := append(acc, v)\nuse(v, acc)", out)
}

func TestRenderArgType(t *testing.T) {
	tpl := template.Parse("var zero {fn.arg0.type}\n_ = zero")

	out, warns, err := tpl.Render(template.Input{
		Slot:      "fn",
		Params:    []inliner.Param{{Name: "v", Type: "map[string]int"}},
		HasLambda: true,
	})
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.Equal(t, "var zero map[string]int\n_ = zero", out)
}

func TestRenderUnresolvedPassthrough(t *testing.T) {
	tpl := template.Parse("{action.arg0} + {action.arg7} + {other.arg0} + {action.arg7}")

	out, warns, err := tpl.Render(template.Input{
		Slot:      "action",
		Params:    []inliner.Param{{Name: "x", Type: "int"}},
		HasLambda: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "x + {action.arg7} + {other.arg0} + {action.arg7}", out)

	require.Len(t, warns, 2)
	for _, w := range warns {
		assert.Equal(t, welderr.KindUnresolvedPlaceholder, w.Kind())
		assert.True(t, w.Kind().Soft())
	}
	assert.Contains(t, warns[0].Error(), "{action.arg7}")
	assert.Contains(t, warns[1].Error(), "{other.arg0}")
}

func TestRenderUntypedParam(t *testing.T) {
	tpl := template.Parse("var zero {fn.arg0.type}\n_ = {fn.arg0}")

	// An untyped literal parameter resolves to empty type text, not to a
	// passthrough token.
	out, warns, err := tpl.Render(template.Input{
		Slot:      "fn",
		Params:    []inliner.Param{{Name: "v"}},
		HasLambda: true,
	})
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.Equal(t, "var zero \n_ = v", out)
}

func TestRenderNoLambdaSlot(t *testing.T) {
	tpl := template.Parse("{body}")

	_, _, err := tpl.Render(template.Input{HasLambda: false})
	require.Error(t, err)
	assert.True(t, welderr.IsKind(err, welderr.KindNoLambdaSlot))
}

func TestRenderSlotMismatchKeepsGoing(t *testing.T) {
	tpl := template.Parse("before\n{other.body}\nafter")

	out, warns, err := tpl.Render(template.Input{
		Slot:      "action",
		Body:      "unused",
		HasLambda: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "before\n{other.body}\nafter", out)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].Error(), "no lambda slot named \"other\"")
}

func TestRenderEmptyBody(t *testing.T) {
	tpl := template.Parse("mu.Lock()\n{action.body}\nmu.Unlock()")

	out, warns, err := tpl.Render(template.Input{
		Slot:      "action",
		Body:      "",
		HasLambda: true,
	})
	require.NoError(t, err)
	assert.Empty(t, warns)
	assert.Equal(t, "mu.Lock()\n\nmu.Unlock()", out)
}
