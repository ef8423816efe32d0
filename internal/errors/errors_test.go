package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymgenError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *SymgenError
		expected string
	}{
		{
			name: "code and message",
			err: &SymgenError{
				Type:    ErrorTypeConfig,
				Code:    "ERR_DATA_PARSE",
				Message: "can't parse translations.yml",
			},
			expected: "[ERR_DATA_PARSE] can't parse translations.yml",
		},
		{
			name: "with source",
			err: &SymgenError{
				Type:    ErrorTypePreprocess,
				Code:    "ERR_PREPROCESS",
				Message: "preprocessing failed",
				Source:  "py/obj.c",
			},
			expected: "[ERR_PREPROCESS] source:py/obj.c preprocessing failed",
		},
		{
			name: "with cause",
			err: &SymgenError{
				Type:    ErrorTypeIO,
				Code:    "ERR_IO",
				Message: "creating output dir",
				Cause:   errors.New("permission denied"),
			},
			expected: "[ERR_IO] creating output dir: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestSymgenError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewConfigError("ERR_DATA_PARSE", "bad data", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestSymgenError_Is(t *testing.T) {
	a := NewEncodingError("café\n")
	b := NewEncodingError("other")

	assert.True(t, errors.Is(a, b), "same type and code should match")
	assert.False(t, errors.Is(a, NewValidationError("nope")))
}

func TestNewEncodingError_CarriesValue(t *testing.T) {
	err := NewEncodingError("café\n")

	require.NotNil(t, err.Context)
	assert.Equal(t, "café\n", err.Context["val"])
	assert.Contains(t, err.Error(), "can't escape non-ascii string")
}

func TestIsType(t *testing.T) {
	err := NewPatternError(`MP_QSTR_([_a-zA-Z0-9]+`, errors.New("missing closing )"))

	assert.True(t, IsType(err, ErrorTypePattern))
	assert.False(t, IsType(err, ErrorTypeConfig))
	assert.False(t, IsType(errors.New("plain"), ErrorTypePattern))
}

func TestWithContextAndSource(t *testing.T) {
	err := NewIOError("write failed", nil).
		WithSource("genhdr/moduledefs.h").
		WithContext("attempt", 1)

	assert.Equal(t, "genhdr/moduledefs.h", err.Source)
	assert.Equal(t, 1, err.Context["attempt"])
}
