package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weld/internal/inliner/registry"
)

func TestSplitDirective(t *testing.T) {
	tests := []struct {
		input string
		verb  string
		rest  string
		ok    bool
	}{
		{input: "//weld:template for _, v := range xs {", verb: "template", rest: "for _, v := range xs {", ok: true},
		{input: "//weld:template \t{fn.body}", verb: "template", rest: "\t{fn.body}", ok: true},
		{input: "//weld:template", verb: "template", rest: "", ok: true},
		{input: "//weld:expand target=Fast", verb: "expand", rest: "target=Fast", ok: true},
		{input: "//weld:inline", verb: "inline", rest: "", ok: true},
		{input: "//weld:bogus stuff", verb: "bogus", rest: "stuff", ok: true},
		{input: "// weld:template x", ok: false},
		{input: "//go:generate weld", ok: false},
		{input: "// ordinary comment", ok: false},
	}

	for _, tt := range tests {
		verb, rest, ok := splitDirective(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.verb, verb, tt.input)
		assert.Equal(t, tt.rest, rest, tt.input)
	}
}

func TestParseExpandArgs(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		target  string
		calls   []string
		wantErr string
	}{
		{
			name:  "empty",
			input: "",
		},
		{
			name:   "target only",
			input:  "target=SumFast",
			target: "SumFast",
		},
		{
			name:  "calls only",
			input: "calls=ForEach,Map",
			calls: []string{"ForEach", "Map"},
		},
		{
			name:   "both with qualified callee",
			input:  "target=SumFast calls=IntList.ForEach",
			target: "SumFast",
			calls:  []string{"IntList.ForEach"},
		},
		{
			name:   "unicode identifiers",
			input:  "target=Σum calls=Δίσκος.ForEach",
			target: "Σum",
			calls:  []string{"Δίσκος.ForEach"},
		},
		{
			name:    "unknown key",
			input:   "mode=fast",
			wantErr: `unknown expand argument "mode"`,
		},
		{
			name:    "missing value",
			input:   "target=",
			wantErr: "want key=value",
		},
		{
			name:    "bare word",
			input:   "fast",
			wantErr: "want key=value",
		},
		{
			name:    "duplicate key",
			input:   "target=A target=B",
			wantErr: `duplicate expand argument "target"`,
		},
		{
			name:    "invalid target",
			input:   "target=3x",
			wantErr: "not a valid identifier",
		},
		{
			name:    "invalid callee",
			input:   "calls=a.b.c",
			wantErr: "not a valid name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, calls, err := parseExpandArgs(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, tt.target, target)
			assert.Equal(t, tt.calls, calls)
		})
	}
}

func TestRecvBaseNameForms(t *testing.T) {
	idx, _, err := New(registry.New()).Analyze([]Input{
		{Path: "recv.go", Src: []byte(`package p

type Box[T any] struct{ v T }

type Pair struct{ a, b int }

func (b *Box[T]) Get() {}
func (p Pair) First() {}
func Plain() {}
`)},
	})
	require.NoError(t, err)

	sym, ok := idx.FuncDecl("Box", "Get")
	require.True(t, ok)
	assert.Equal(t, "Box.Get", sym.Key())

	sym, ok = idx.FuncDecl("Pair", "First")
	require.True(t, ok)
	assert.Equal(t, "Pair.First", sym.Key())

	sym, ok = idx.FuncDecl("", "Plain")
	require.True(t, ok)
	assert.Equal(t, "Plain", sym.Key())
}
