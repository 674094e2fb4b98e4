package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/sunstone/internal/domain/config"
)

// AssertInOrder asserts that every part occurs in s, each after the previous
// one. Command output is checked this way so column alignment does not matter.
func AssertInOrder(t testing.TB, s string, parts ...string) {
	t.Helper()

	rest := s
	for i, p := range parts {
		idx := strings.Index(rest, p)
		if idx < 0 {
			if i > 0 && strings.Contains(s, p) {
				assert.Fail(t, "output out of order", "%q does not follow %q in:\n%s", p, parts[i-1], s)
			} else {
				assert.Fail(t, "missing output", "%q not found in:\n%s", p, s)
			}
			return
		}
		rest = rest[idx+len(p):]
	}
}

// AssertUserError asserts that err carries a UserError with the given code and
// returns it.
func AssertUserError(t testing.TB, err error, code string) *config.UserError {
	t.Helper()

	require.Error(t, err)
	ue := config.GetUserError(err)
	require.NotNil(t, ue, "expected a user error with code %s, got: %v", code, err)
	assert.Equal(t, code, ue.Code, "unexpected error: %v", err)
	return ue
}

// RequireSettingsFile asserts that path is a settings file with permissions
// perm and returns its settings, loaded without the environment.
func RequireSettingsFile(t testing.TB, path string, perm os.FileMode) *config.Settings {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err, "expected settings file: %s", path)
	assert.Equal(t, perm, info.Mode().Perm(), "permissions of %s", path)

	s, err := config.Load(config.LoadOptions{
		Path:      path,
		LookupEnv: func(string) (string, bool) { return "", false },
	})
	require.NoError(t, err, "loading %s", path)
	return s
}

// AssertYAMLEquals asserts that two YAML strings are semantically equal.
func AssertYAMLEquals(t testing.TB, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedMap, actualMap interface{}

	err := yaml.Unmarshal([]byte(expected), &expectedMap)
	require.NoError(t, err, "failed to parse expected YAML")

	err = yaml.Unmarshal([]byte(actual), &actualMap)
	require.NoError(t, err, "failed to parse actual YAML")

	assert.Equal(t, expectedMap, actualMap, msgAndArgs...)
}
