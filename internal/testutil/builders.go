package testutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// TestManifest is a plugin manifest for testing.
type TestManifest struct {
	Name        string
	Version     string
	Description string
	Requires    map[string]string
}

// ManifestBuilder builds test plugin manifests.
type ManifestBuilder struct {
	manifest TestManifest
}

// NewManifestBuilder creates a builder for a plugin named name at 1.0.0.
func NewManifestBuilder(name string) *ManifestBuilder {
	return &ManifestBuilder{
		manifest: TestManifest{
			Name:     name,
			Version:  "1.0.0",
			Requires: make(map[string]string),
		},
	}
}

// WithVersion sets the plugin version.
func (b *ManifestBuilder) WithVersion(version string) *ManifestBuilder {
	b.manifest.Version = version
	return b
}

// WithDescription sets the plugin description.
func (b *ManifestBuilder) WithDescription(description string) *ManifestBuilder {
	b.manifest.Description = description
	return b
}

// Requires adds a peer requirement.
func (b *ManifestBuilder) Requires(peer, rng string) *ManifestBuilder {
	b.manifest.Requires[peer] = rng
	return b
}

// Build returns the constructed manifest.
func (b *ManifestBuilder) Build() TestManifest {
	return b.manifest
}

// ToYAML converts the manifest to YAML, with requirements sorted by peer.
func (m TestManifest) ToYAML() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("name: %s\n", m.Name))
	sb.WriteString(fmt.Sprintf("version: %q\n", m.Version))
	if m.Description != "" {
		sb.WriteString(fmt.Sprintf("description: %q\n", m.Description))
	}

	if len(m.Requires) > 0 {
		peers := make([]string, 0, len(m.Requires))
		for peer := range m.Requires {
			peers = append(peers, peer)
		}
		sort.Strings(peers)

		sb.WriteString("requires:\n")
		for _, peer := range peers {
			sb.WriteString(fmt.Sprintf("  %s: %q\n", peer, m.Requires[peer]))
		}
	}

	return sb.String()
}

// WriteTo writes the manifest to dir/<name>/plugin.yaml and returns the
// plugin directory.
func (m TestManifest) WriteTo(t *testing.T, dir string) string {
	t.Helper()

	WriteTempFile(t, dir, filepath.Join(m.Name, "plugin.yaml"), m.ToYAML())
	return filepath.Join(dir, m.Name)
}

// PluginDir writes every manifest into a fresh temporary search path and
// returns it.
func PluginDir(t *testing.T, manifests ...TestManifest) string {
	t.Helper()

	dir := t.TempDir()
	for _, m := range manifests {
		m.WriteTo(t, dir)
	}
	return dir
}
