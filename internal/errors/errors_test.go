package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	err := New(CodeStoreUnavailable, "cannot open index", nil)
	assert.Equal(t, "[ERR_STORE_UNAVAILABLE] cannot open index", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := StoreUnavailable("cannot open index", cause)

	assert.ErrorIs(t, err, cause)
}

func TestError_IsMatchesByCode(t *testing.T) {
	a := Newf(CodeUnknownCollection, "unknown collection %q", "work")
	b := New(CodeUnknownCollection, "different message", nil)

	assert.ErrorIs(t, a, b)
	assert.NotErrorIs(t, a, New(CodeNotFound, "x", nil))
}

func TestCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", InvalidQuery("bad syntax", nil))

	assert.Equal(t, CodeInvalidQuery, Code(err))
	assert.True(t, IsCode(err, CodeInvalidQuery))
	assert.Empty(t, Code(stderrors.New("plain")))
}
