// Package plugin provides plugin declaration, manifest discovery, lifecycle
// tracking and the dependency graph that orders plugins for initialization.
package plugin

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// InitFunc is a plugin's load-phase callback. It registers the plugin's
// dependencies through the Context.
type InitFunc func(ctx *Context) error

// Manifest describes a plugin's metadata as written in plugin.yaml.
type Manifest struct {
	// Name is the plugin identifier (e.g., "server", "redis")
	Name string `yaml:"name"`
	// Version is the semantic version (e.g., "1.0.0")
	Version string `yaml:"version"`
	// Description is a brief description of the plugin
	Description string `yaml:"description,omitempty"`
	// Requires maps peer plugin names to version ranges (e.g., ">=1.0.0")
	Requires map[string]string `yaml:"requires,omitempty"`
}

// Plugin is a named, versioned group of dependency registrations.
type Plugin struct {
	// Name is the plugin identifier
	Name string
	// Version is the plugin's semantic version
	Version string
	// Description is a brief description of the plugin
	Description string
	// Requires maps peer plugin names to version ranges
	Requires map[string]string
	// Path is the directory the manifest was loaded from, if any
	Path string

	mu          sync.Mutex
	initializer InitFunc
	lifecycle   *lifecycle
}

// New declares a plugin. The requires map is copied.
func New(name, version string, requires map[string]string) *Plugin {
	reqs := make(map[string]string, len(requires))
	for peer, rng := range requires {
		reqs[peer] = rng
	}
	return &Plugin{
		Name:     name,
		Version:  version,
		Requires: reqs,
	}
}

// FromManifest creates a plugin from a loaded manifest.
func FromManifest(m Manifest, path string) *Plugin {
	p := New(m.Name, m.Version, m.Requires)
	p.Description = m.Description
	p.Path = path
	return p
}

// Initializer sets the load-phase callback and returns the plugin.
func (p *Plugin) Initializer(fn InitFunc) *Plugin {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initializer = fn
	return p
}

// Init runs the initializer, if any, against ctx.
func (p *Plugin) Init(ctx *Context) error {
	p.mu.Lock()
	fn := p.initializer
	p.mu.Unlock()

	if fn == nil {
		return nil
	}
	if err := fn(ctx); err != nil {
		return err
	}
	return ctx.Err()
}

// Peers returns the names of required plugins, sorted.
func (p *Plugin) Peers() []string {
	peers := make([]string, 0, len(p.Requires))
	for peer := range p.Requires {
		peers = append(peers, peer)
	}
	sort.Strings(peers)
	return peers
}

// Manifest returns the plugin's metadata.
func (p *Plugin) Manifest() Manifest {
	reqs := make(map[string]string, len(p.Requires))
	for peer, rng := range p.Requires {
		reqs[peer] = rng
	}
	return Manifest{
		Name:        p.Name,
		Version:     p.Version,
		Description: p.Description,
		Requires:    reqs,
	}
}

// String returns a human-readable plugin description.
func (p *Plugin) String() string {
	return fmt.Sprintf("%s@%s", p.Name, p.Version)
}

// namePattern allows lowercase names with digits, dots, dashes and underscores.
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9._-]*$`)

// ValidateManifest checks that a manifest has a valid name and version and
// that every requirement has a parseable range.
func ValidateManifest(m *Manifest) error {
	ve := &ValidationError{}

	switch {
	case m.Name == "":
		ve.Add("name is required. Example: name: my-plugin")
	case len(m.Name) > 64:
		ve.Addf("plugin name %q is too long (maximum 64 characters)", m.Name)
	case !namePattern.MatchString(m.Name):
		ve.Addf("plugin name %q must start with a lowercase letter and contain only lowercase letters, digits, '.', '-' or '_'", m.Name)
	}

	if m.Version == "" {
		ve.Add("version is required. Example: version: 1.0.0 (use semantic versioning)")
	} else if err := ValidateSemver(m.Version); err != nil {
		ve.Addf("version %q is not valid semantic versioning. Examples: 1.0.0, 1.2.3-beta.1, 2.0.0+build.123", m.Version)
	}

	peers := make([]string, 0, len(m.Requires))
	for peer := range m.Requires {
		peers = append(peers, peer)
	}
	sort.Strings(peers)
	for _, peer := range peers {
		if strings.TrimSpace(peer) == "" {
			ve.Add("requires contains an empty plugin name")
			continue
		}
		if peer == m.Name {
			ve.Addf("plugin %q cannot require itself", m.Name)
		}
		if err := ValidateRange(m.Requires[peer]); err != nil {
			ve.Addf("requires.%s: %v", peer, err)
		}
	}

	if ve.HasErrors() {
		return ve
	}
	return nil
}
