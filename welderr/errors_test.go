package welderr_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weld/welderr"
)

func TestNewWithoutPosition(t *testing.T) {
	err := welderr.New(welderr.KindMissingTemplate, "no template declared for ForEach")
	assert.Equal(t, welderr.KindMissingTemplate, err.Kind())
	assert.Equal(t, 0, err.Line)
	assert.Equal(t, "[MissingTemplate] no template declared for ForEach", err.Error())
}

func TestNewAt(t *testing.T) {
	err := welderr.NewAt(welderr.KindAmbiguousLambdaSlot, "main.go", 10, 5, "2 function literals passed to ForEach")
	assert.Equal(t, welderr.KindAmbiguousLambdaSlot, err.Kind())
	assert.Equal(t, 10, err.Line)
	assert.Equal(t, 5, err.Column)
	assert.Equal(t, "main.go", err.Path)
	assert.Equal(t, "[AmbiguousLambdaSlot] main.go:10:5 2 function literals passed to ForEach", err.Error())
}

func TestPositionWithoutPath(t *testing.T) {
	err := welderr.New(welderr.KindBadDirective, "unknown key \"mode\"").At("", 3, 1)
	assert.Equal(t, "[BadDirective] line 3:1 unknown key \"mode\"", err.Error())
}

func TestAtCopies(t *testing.T) {
	base := welderr.Newf(welderr.KindSymbolResolutionFailed, "cannot resolve %s", "Apply")
	positioned := base.At("list.go", 7, 2)
	assert.Equal(t, 0, base.Line)
	assert.Equal(t, 7, positioned.Line)
	assert.Equal(t, "list.go", positioned.Path)
	assert.Equal(t, base.Category, positioned.Category)
}

func TestIsKind(t *testing.T) {
	err := welderr.New(welderr.KindDuplicateTemplate, "template for Map already registered")
	assert.True(t, welderr.IsKind(err, welderr.KindDuplicateTemplate))
	assert.False(t, welderr.IsKind(err, welderr.KindMissingTemplate))
	assert.False(t, welderr.IsKind(assert.AnError, welderr.KindDuplicateTemplate))
}

func TestSoftKinds(t *testing.T) {
	assert.True(t, welderr.KindUnresolvedPlaceholder.Soft())
	assert.False(t, welderr.KindMissingTemplate.Soft())
	assert.False(t, welderr.KindNoLambdaSlot.Soft())
}

func TestMultiError(t *testing.T) {
	e1 := welderr.NewAt(welderr.KindMissingTemplate, "a.go", 1, 1, "error 1")
	e2 := welderr.NewAt(welderr.KindMissingTemplate, "b.go", 2, 2, "error 2")
	multi := &welderr.MultiError{Errors: []error{e1, e2}}

	assert.Equal(t, welderr.KindMissingTemplate, multi.Kind())
	errMsg := multi.Error()
	assert.Contains(t, errMsg, "2 error(s) occurred:")
	assert.Contains(t, errMsg, "- [MissingTemplate] a.go:1:1 error 1")
	assert.Contains(t, errMsg, "- [MissingTemplate] b.go:2:2 error 2")
}

func TestMultiErrorMixed(t *testing.T) {
	e1 := welderr.New(welderr.KindDeclaringTypeNotFound, "type List not declared")
	e2 := welderr.New(welderr.KindConfig, "jobs must be positive")
	multi := &welderr.MultiError{Errors: []error{e1, e2}}

	assert.Equal(t, welderr.KindDeclaringTypeNotFound, multi.Kind())
}

func TestMultiErrorEmpty(t *testing.T) {
	multi := &welderr.MultiError{}
	assert.Equal(t, welderr.Kind("MultiError"), multi.Kind())
	assert.True(t, strings.HasPrefix(multi.Error(), "0 error(s) occurred:"))
	assert.NoError(t, multi.ErrorOrNil())
}

func TestMultiErrorSingleUnwraps(t *testing.T) {
	multi := &welderr.MultiError{}
	multi.Append(welderr.New(welderr.KindMissingTemplate, "only one"))

	err := multi.ErrorOrNil()
	require.Error(t, err)
	assert.True(t, welderr.IsKind(err, welderr.KindMissingTemplate))
}

func TestMultiErrorAppendFlattens(t *testing.T) {
	inner := &welderr.MultiError{}
	inner.Append(welderr.New(welderr.KindBadDirective, "inner 1"))
	inner.Append(welderr.New(welderr.KindBadDirective, "inner 2"))

	outer := &welderr.MultiError{}
	outer.Append(welderr.New(welderr.KindConfig, "outer"))
	outer.Append(inner)
	outer.Append(nil)

	assert.Len(t, outer.Errors, 3)
	assert.Error(t, outer.ErrorOrNil())
}
