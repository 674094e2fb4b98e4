package plugin

import (
	"context"
	"sort"
	"sync"

	"github.com/felixgeelhaar/sunstone/internal/ports"
)

type nameSet map[string]struct{}

func (s nameSet) sorted() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Graph links plugins by their declared requirements and orders them for
// initialization. It is safe for concurrent use.
type Graph struct {
	mu           sync.RWMutex
	plugins      map[string]*Plugin
	order        []string
	dependencies map[string]nameSet
	dependents   map[string]nameSet
	prioritized  []string
	resolved     bool
	logger       ports.Logger
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithLogger sets the logger used for resolution diagnostics.
func WithLogger(logger ports.Logger) GraphOption {
	return func(g *Graph) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGraph creates an empty plugin graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		plugins:      make(map[string]*Plugin),
		dependencies: make(map[string]nameSet),
		dependents:   make(map[string]nameSet),
		logger:       ports.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds a plugin to the graph.
// Returns ErrNilPlugin if plugin is nil, ErrEmptyPluginName if name is empty,
// or PluginExistsError if a plugin with the same name is already registered.
// Registering invalidates any previous resolution.
func (g *Graph) Register(p *Plugin) error {
	if p == nil {
		return ErrNilPlugin
	}
	if p.Name == "" {
		return ErrEmptyPluginName
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.plugins[p.Name]; exists {
		return &PluginExistsError{Name: p.Name}
	}
	g.plugins[p.Name] = p
	g.order = append(g.order, p.Name)
	g.resolved = false
	g.prioritized = nil

	g.logger.Debug(context.Background(), "plugin registered",
		ports.F("plugin", p.Name),
		ports.F("version", p.Version))
	return nil
}

// Resolve links every plugin to the peers it requires, checking that each
// peer is registered and that its version satisfies the required range.
// Plugins are checked in registration order and peers in name order; the
// first failure is returned and the previous links are left untouched.
func (g *Graph) Resolve() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	deps := make(map[string]nameSet, len(g.plugins))
	dependents := make(map[string]nameSet, len(g.plugins))
	for _, name := range g.order {
		deps[name] = nameSet{}
		dependents[name] = nameSet{}
	}

	for _, name := range g.order {
		p := g.plugins[name]
		for _, peer := range p.Peers() {
			rng := p.Requires[peer]
			target, ok := g.plugins[peer]
			if !ok {
				return &MissingDependencyError{Plugin: name, Dependency: peer, Range: rng}
			}

			ok, err := Satisfies(target.Version, rng)
			if err != nil {
				return &VersionMismatchError{
					Plugin:     name,
					Dependency: peer,
					Version:    target.Version,
					Range:      rng,
					Malformed:  true,
					Err:        err,
				}
			}
			if !ok {
				return &VersionMismatchError{Plugin: name, Dependency: peer, Version: target.Version, Range: rng}
			}

			deps[name][peer] = struct{}{}
			dependents[peer][name] = struct{}{}
		}
	}

	g.dependencies = deps
	g.dependents = dependents
	g.resolved = true
	g.prioritized = nil

	g.logger.Debug(context.Background(), "plugin graph resolved", ports.F("plugins", len(g.order)))
	return nil
}

// Prioritize computes the initialization order: every plugin appears after all
// of its dependencies. Plugins without dependencies come first, in
// registration order. Each following pass walks the unplaced plugins in
// registration order and places those whose dependencies are all placed. It
// requires a successful Resolve since the last Register.
func (g *Graph) Prioritize() ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.resolved {
		return nil, ErrNotResolved
	}

	placed := make(map[string]bool, len(g.order))
	order := make([]string, 0, len(g.order))
	remaining := make([]string, 0, len(g.order))

	for _, name := range g.order {
		if len(g.dependencies[name]) == 0 {
			placed[name] = true
			order = append(order, name)
			continue
		}
		remaining = append(remaining, name)
	}

	for len(remaining) > 0 {
		next := remaining[:0:0]
		progress := false

		for _, name := range remaining {
			if g.ready(name, placed) {
				placed[name] = true
				order = append(order, name)
				progress = true
				continue
			}
			next = append(next, name)
		}

		if !progress {
			return nil, &UnresolvableGraphError{Remaining: next}
		}
		remaining = next
	}

	g.prioritized = order
	g.logger.Debug(context.Background(), "plugin graph prioritized", ports.F("order", order))
	return append([]string(nil), order...), nil
}

func (g *Graph) ready(name string, placed map[string]bool) bool {
	for dep := range g.dependencies[name] {
		if !placed[dep] {
			return false
		}
	}
	return true
}

// Get returns a plugin by name.
func (g *Graph) Get(name string) (*Plugin, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, ok := g.plugins[name]
	return p, ok
}

// List returns all plugins in registration order.
func (g *Graph) List() []*Plugin {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.collect(g.order)
}

// Len returns the number of registered plugins.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.plugins)
}

// Dependencies returns the names of the plugins name requires, sorted.
// It is empty until Resolve succeeds.
func (g *Graph) Dependencies(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.dependencies[name].sorted()
}

// Dependents returns the names of the plugins that require name, sorted.
// It is empty until Resolve succeeds.
func (g *Graph) Dependents(name string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.dependents[name].sorted()
}

// Prioritized returns the last computed initialization order, or nil.
func (g *Graph) Prioritized() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.prioritized == nil {
		return nil
	}
	return append([]string(nil), g.prioritized...)
}

// Filter returns a view of the plugins matching pred, in prioritized order
// when available and registration order otherwise.
func (g *Graph) Filter(pred Predicate) *View {
	g.mu.RLock()
	names := g.order
	if g.prioritized != nil {
		names = g.prioritized
	}
	plugins := g.collect(names)
	g.mu.RUnlock()

	return NewView(plugins).Filter(pred)
}

func (g *Graph) collect(names []string) []*Plugin {
	out := make([]*Plugin, 0, len(names))
	for _, name := range names {
		out = append(out, g.plugins[name])
	}
	return out
}
