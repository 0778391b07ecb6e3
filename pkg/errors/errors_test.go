package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewError tests the basic creation of errors.
func TestNewError(t *testing.T) {
	tests := []struct {
		name    string
		code    ErrorCode
		message string
	}{
		{
			name:    "ValidationFailed",
			code:    ValidationFailed,
			message: "validation failed",
		},
		{
			name:    "JudgeMalformedResponse",
			code:    JudgeMalformedResponse,
			message: "judge returned garbage",
		},
		{
			name:    "ImprovementApplyFailed",
			code:    ImprovementApplyFailed,
			message: "apply blew up",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)

			customErr, ok := err.(*Error)

			assert.True(t, ok, "should be a custom *Error")
			assert.Equal(t, tt.code, customErr.Code())
			assert.Equal(t, tt.message, customErr.Error())
			assert.Nil(t, customErr.Unwrap())
		})
	}
}

// TestWrapError tests error wrapping functionality.
func TestWrapError(t *testing.T) {
	originalErr := stderrors.New("original error")

	err := Wrap(originalErr, LevelExecutionFailed, "level failed")
	require.NotNil(t, err)

	customErr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, LevelExecutionFailed, customErr.Code())
	assert.Equal(t, originalErr, customErr.Unwrap())
	assert.Contains(t, err.Error(), "level failed")
	assert.Contains(t, err.Error(), "original error")

	assert.Nil(t, Wrap(nil, Timeout, "should be nil"))
}

// TestWithFields tests structured context propagation.
func TestWithFields(t *testing.T) {
	err := WithFields(
		New(JudgeCallFailed, "judge call failed"),
		Fields{"level": "L2-temporal", "question": "q1"},
	)

	var customErr *Error
	require.True(t, stderrors.As(err, &customErr))
	assert.Equal(t, JudgeCallFailed, customErr.Code())

	fields := customErr.Fields()
	assert.Equal(t, "L2-temporal", fields["level"])
	assert.Equal(t, "q1", fields["question"])

	// Fields merge, not replace
	merged := WithFields(err, Fields{"attempt": 2})
	require.True(t, stderrors.As(merged, &customErr))
	assert.Equal(t, "L2-temporal", customErr.Fields()["level"])
	assert.Equal(t, 2, customErr.Fields()["attempt"])
}

// TestErrorIs tests code-based matching via errors.Is.
func TestErrorIs(t *testing.T) {
	err := New(Timeout, "a timeout")
	target := New(Timeout, "any timeout")
	other := New(Canceled, "not a timeout")

	assert.True(t, stderrors.Is(err, target))
	assert.False(t, stderrors.Is(err, other))
}
