package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := NewPipelineError(ErrorKindFetchExhausted, "failed to fetch listing", "Fetch", false, cause)

	assert.Contains(t, err.Error(), "fetch_exhausted")
	assert.Contains(t, err.Error(), "connection reset by peer")
	assert.True(t, errors.Is(err, cause))
}

func TestWrapError_PreservesExistingKind(t *testing.T) {
	inner := NewPipelineError(ErrorKindUnsupportedDocument, "not a PDF", "Validate", false, nil)
	wrapped := WrapError(fmt.Errorf("stage failed: %w", inner), ErrorKindStore, "Run", false)

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorKindUnsupportedDocument, wrapped.Kind)
	assert.Equal(t, "Run", wrapped.Operation)
}

func TestWrapError_ClassifiesPlainErrors(t *testing.T) {
	wrapped := WrapError(errors.New("no reachable servers"), ErrorKindStore, "Reconcile", false)

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrorKindStore, wrapped.Kind)
	assert.True(t, IsKind(wrapped, ErrorKindStore))
}

func TestWrapError_NilPassthrough(t *testing.T) {
	assert.Nil(t, WrapError(nil, ErrorKindStore, "Reconcile", false))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKindStructureNotFound, KindOf(NewPipelineError(ErrorKindStructureNotFound, "x", "Parse", false, nil)))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
