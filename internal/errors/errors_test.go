package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpstreamError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewFetchError("https://github.com/users/x/contributions", 0, inner)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "fetch")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIsShape(t *testing.T) {
	assert.True(t, IsShape(NewShapeError("u")))
	assert.False(t, IsShape(NewFetchError("u", 404, nil)))
	assert.False(t, IsShape(errors.New("other")))

	wrapped := fmt.Errorf("aggregate: %w", NewShapeError("u"))
	assert.True(t, IsShape(wrapped))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewFetchError("u", 429, nil)))
	assert.True(t, IsRetryable(NewFetchError("u", 503, nil)))
	assert.True(t, IsRetryable(NewFetchError("u", 0, errors.New("timeout"))))

	assert.False(t, IsRetryable(NewFetchError("u", 404, nil)))
	assert.False(t, IsRetryable(NewShapeError("u")))
	assert.False(t, IsRetryable(ErrTableNotFound))
	assert.False(t, IsRetryable(ErrUnexpectedRowCount))
}

func TestSentinels_WrapAndMatch(t *testing.T) {
	err := fmt.Errorf("%w: found 9 rows", ErrUnexpectedRowCount)
	assert.ErrorIs(t, err, ErrUnexpectedRowCount)
	assert.NotErrorIs(t, err, ErrTableNotFound)
}
