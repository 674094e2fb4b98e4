// Package testutil provides fixtures, manifest builders and assertions shared
// by sunstone tests.
package testutil

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//go:embed fixtures/*
var fixturesFS embed.FS

// WriteTempFile writes content to dir/filename, creating parent directories
// named in filename, and returns the path.
func WriteTempFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "failed to create parent of %s", filename)
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err, "failed to write temp file: %s", filename)

	return path
}

// LoadFixture loads a file from the embedded fixtures directory.
func LoadFixture(t *testing.T, name string) []byte {
	t.Helper()

	content, err := fixturesFS.ReadFile("fixtures/" + name)
	require.NoError(t, err, "failed to load fixture: %s", name)

	return content
}

// WriteFixtureToDir copies a fixture to dir/destName and returns the path.
func WriteFixtureToDir(t *testing.T, dir, fixtureName, destName string) string {
	t.Helper()

	return WriteTempFile(t, dir, destName, string(LoadFixture(t, fixtureName)))
}

// SettingsFixture writes the settings.yaml fixture under a temporary
// directory and returns its path.
func SettingsFixture(t *testing.T) string {
	t.Helper()

	return WriteFixtureToDir(t, t.TempDir(), "settings.yaml", "sunstone.yaml")
}
