package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *UserError
		expected string
	}{
		{
			name:     "simple message",
			err:      &UserError{Code: ErrCodeConfigParse, Message: "failed to parse yaml settings file"},
			expected: "failed to parse yaml settings file",
		},
		{
			name: "message with context",
			err: &UserError{
				Code:       ErrCodeConfigParse,
				Message:    "failed to parse yaml settings file",
				Context:    "settings.yaml",
				Suggestion: "fix it",
			},
			expected: "failed to parse yaml settings file (at settings.yaml)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestUserError_Format(t *testing.T) {
	t.Parallel()

	err := &UserError{
		Code:       ErrCodeUnsupportedFormat,
		Message:    "unsupported settings file format",
		Context:    "settings.xml",
		Suggestion: "Use one of: .yaml, .yml, .json, .toml, .ini",
		Underlying: errors.New("boom"),
	}

	formatted := err.Format()
	assert.Contains(t, formatted, "[CONFIG_UNSUPPORTED_FORMAT] unsupported settings file format")
	assert.Contains(t, formatted, "Location: settings.xml")
	assert.Contains(t, formatted, "Cause: boom")
	assert.Contains(t, formatted, "Suggestion: Use one of")
}

func TestUserError_WrapAndMatch(t *testing.T) {
	t.Parallel()

	cause := errors.New("permission denied")
	base := NewUserError(ErrCodeConfigWrite, "cannot write settings file")
	err := base.WithContext("/etc/sunstone.yaml").WithSuggestion("check permissions").WithUnderlying(cause)

	assert.Empty(t, base.Context, "builders return copies")
	assert.Equal(t, "/etc/sunstone.yaml", err.Context)
	assert.Equal(t, "check permissions", err.Suggestion)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &UserError{Code: ErrCodeConfigWrite})
	assert.NotErrorIs(t, err, &UserError{Code: ErrCodeConfigParse})
}

func TestErrorList(t *testing.T) {
	t.Parallel()

	list := NewErrorList()
	assert.NoError(t, list.AsError())
	assert.Empty(t, list.Error())
	assert.Empty(t, list.Format())

	list.Add(nil)
	list.AddValidation("port", "70000 is out of range", "Use a port between 1 and 65535.")
	assert.Equal(t, 1, list.Len())
	assert.Equal(t, "port: 70000 is out of range (at port)", list.Error())

	list.Add(NewValidationFailedError("log_level", "unknown"))
	require.Error(t, list.AsError())
	assert.Contains(t, list.Error(), "2 errors occurred")
	assert.Contains(t, list.Format(), "--- Error 2 ---")
	assert.Len(t, list.Errors(), 2)
}

func TestIsUserError(t *testing.T) {
	t.Parallel()

	wrapped := errors.Join(errors.New("other"), NewUnsupportedFormatError("x.xml"))

	assert.True(t, IsUserError(wrapped, ErrCodeUnsupportedFormat))
	assert.False(t, IsUserError(wrapped, ErrCodeConfigParse))
	assert.False(t, IsUserError(errors.New("plain"), ErrCodeConfigParse))

	require.NotNil(t, GetUserError(wrapped))
	assert.Nil(t, GetUserError(errors.New("plain")))
}

func TestNewConfigParseError(t *testing.T) {
	t.Parallel()

	cause := errors.New("line 3: bad indent")
	err := NewConfigParseError("settings.toml", "toml", cause)

	assert.Equal(t, ErrCodeConfigParse, err.Code)
	assert.Equal(t, "failed to parse toml settings file (at settings.toml)", err.Error())
	assert.ErrorIs(t, err, cause)
}
