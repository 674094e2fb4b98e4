// Package app wires plugins, their dependency graph and the injector into a
// runnable host.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/felixgeelhaar/sunstone/internal/domain/defaults"
	"github.com/felixgeelhaar/sunstone/internal/domain/inject"
	"github.com/felixgeelhaar/sunstone/internal/domain/plugin"
	"github.com/felixgeelhaar/sunstone/internal/ports"
)

// MainName is the dependency resolved by Run before plugins are started.
const MainName = "main"

// Host owns a plugin graph and the injector plugins register into.
type Host struct {
	mu           sync.Mutex
	id           string
	graph        *plugin.Graph
	injector     *inject.Injector
	logger       ports.Logger
	order        []string
	bootstrapped bool
	failed       error
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger passed to the graph, the injector and the host.
func WithLogger(logger ports.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithID overrides the generated run id.
func WithID(id string) Option {
	return func(h *Host) {
		if id != "" {
			h.id = id
		}
	}
}

// New creates an empty host.
func New(opts ...Option) *Host {
	h := &Host{
		id:     defaults.UUID(),
		logger: ports.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.logger = h.logger.With(ports.F("run_id", h.id))
	h.graph = plugin.NewGraph(plugin.WithLogger(h.logger))
	h.injector = inject.New(inject.WithLogger(h.logger))
	return h
}

// ID returns the run id attached to every log line of this host.
func (h *Host) ID() string { return h.id }

// Injector returns the injector plugins register into.
func (h *Host) Injector() *inject.Injector { return h.injector }

// Graph returns the plugin graph.
func (h *Host) Graph() *plugin.Graph { return h.graph }

// Plugin declares a plugin and returns it so an initializer can be attached.
func (h *Host) Plugin(name, version string, requires map[string]string) (*plugin.Plugin, error) {
	p := plugin.New(name, version, requires)
	if err := h.Add(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Add registers an existing plugin, for example one built from a manifest.
func (h *Host) Add(p *plugin.Plugin) error {
	if p == nil {
		return plugin.ErrNilPlugin
	}

	m := p.Manifest()
	if err := plugin.ValidateManifest(&m); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bootstrapped {
		return ErrAlreadyBootstrapped
	}
	if h.failed != nil {
		return fmt.Errorf("%w: %w", ErrBootstrapFailed, h.failed)
	}
	return h.graph.Register(p)
}

// Order returns the initialization order computed by Bootstrap.
func (h *Host) Order() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.order)
}

// Plugins returns a view of the plugins in initialization order once
// bootstrapped, registration order before.
func (h *Host) Plugins() *plugin.View {
	return h.graph.Filter(nil)
}

// Bootstrap resolves and prioritizes the plugin graph, runs every initializer
// in order and finally invokes every registered extension.
//
// Registration errors inside an initializer are logged and skipped. Any other
// initializer error fails the plugin and aborts the bootstrap.
//
// Graph errors leave the host untouched, so plugins can be added and Bootstrap
// retried. Once initializers have run, a failure is final: later calls return
// ErrBootstrapFailed.
func (h *Host) Bootstrap(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.bootstrapped {
		return ErrAlreadyBootstrapped
	}
	if h.failed != nil {
		return fmt.Errorf("%w: %w", ErrBootstrapFailed, h.failed)
	}

	if err := h.graph.Resolve(); err != nil {
		return fmt.Errorf("resolving plugin graph: %w", err)
	}
	order, err := h.graph.Prioritize()
	if err != nil {
		return fmt.Errorf("prioritizing plugin graph: %w", err)
	}
	h.logger.Info(ctx, "plugin graph resolved", ports.F("order", order))

	if err := h.initializeAll(ctx, order); err != nil {
		h.failed = err
		h.logger.Error(ctx, "bootstrap failed", ports.Err(err))
		return err
	}

	h.order = order
	h.bootstrapped = true
	return nil
}

// initializeAll runs the initializers in order, then every extension.
func (h *Host) initializeAll(ctx context.Context, order []string) error {
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, _ := h.graph.Get(name)
		if err := h.initialize(ctx, p); err != nil {
			return err
		}
	}

	extensions := h.injector.Filter(inject.Match(inject.Fields{Kind: inject.KindExtension}))
	if err := extensions.InvokeAll(); err != nil {
		return fmt.Errorf("running extensions: %w", err)
	}
	h.logger.Debug(ctx, "extensions applied", ports.F("count", extensions.Len()))
	return nil
}

func (h *Host) initialize(ctx context.Context, p *plugin.Plugin) error {
	err := p.Init(plugin.NewContext(p, h.injector))
	if err != nil && !registrationOnly(err) {
		if ferr := p.Fail(err); ferr != nil {
			h.logger.Warn(ctx, "lifecycle transition rejected", ports.Err(ferr))
		}
		h.logger.Error(ctx, "plugin initialization failed", ports.F("plugin", p.Name), ports.Err(err))
		return &PluginError{Plugin: p.Name, Phase: PhaseInitialize, Err: err}
	}
	if err != nil {
		h.logger.Warn(ctx, "plugin registrations skipped", ports.F("plugin", p.Name), ports.Err(err))
	}

	if err := p.Transition(plugin.EventInitialize); err != nil {
		return &PluginError{Plugin: p.Name, Phase: PhaseInitialize, Err: err}
	}
	h.logger.Debug(ctx, "plugin initialized", ports.F("plugin", p.String()))
	return nil
}

// registrationOnly reports whether err consists solely of rejected
// descriptors.
func registrationOnly(err error) bool {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			if !inject.IsValidationError(e) {
				return false
			}
		}
		return true
	}
	return inject.IsValidationError(err)
}

// Run resolves the "main" dependency when one is registered and then starts
// every plugin.
func (h *Host) Run(ctx context.Context) error {
	if !h.isBootstrapped() {
		return ErrNotBootstrapped
	}

	if h.injector.Has(MainName) {
		if _, err := h.injector.Get(MainName); err != nil {
			return fmt.Errorf("resolving %s: %w", MainName, err)
		}
	}
	return h.Start(ctx, nil)
}

// Start starts the plugins matching pred, or all plugins when pred is nil, in
// initialization order. A plugin's "<name>:starter" callback is invoked when
// registered. Plugins already started are skipped.
func (h *Host) Start(ctx context.Context, pred plugin.Predicate) error {
	if !h.isBootstrapped() {
		return ErrNotBootstrapped
	}

	view := h.graph.Filter(pred).Filter(plugin.InState(plugin.StateInitialized, plugin.StateStopped))
	return view.Each(func(p *plugin.Plugin) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.hook(ctx, p, plugin.StarterName(p.Name), PhaseStart); err != nil {
			return err
		}
		if err := p.Transition(plugin.EventStart); err != nil {
			return &PluginError{Plugin: p.Name, Phase: PhaseStart, Err: err}
		}
		h.logger.Info(ctx, "plugin started", ports.F("plugin", p.String()))
		return nil
	})
}

// Stop stops every started plugin in reverse initialization order, invoking
// "<name>:stopper" when registered. It keeps going after a failure and
// returns every error joined.
func (h *Host) Stop(ctx context.Context) error {
	if !h.isBootstrapped() {
		return ErrNotBootstrapped
	}

	running := h.graph.Filter(plugin.InState(plugin.StateStarted)).Plugins()
	slices.Reverse(running)

	var errs []error
	for _, p := range running {
		if err := h.hook(ctx, p, plugin.StopperName(p.Name), PhaseStop); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.Transition(plugin.EventStop); err != nil {
			errs = append(errs, &PluginError{Plugin: p.Name, Phase: PhaseStop, Err: err})
			continue
		}
		h.logger.Info(ctx, "plugin stopped", ports.F("plugin", p.String()))
	}
	return errors.Join(errs...)
}

// hook invokes a lifecycle callback if registered and fails the plugin when
// it returns an error.
func (h *Host) hook(ctx context.Context, p *plugin.Plugin, name, phase string) error {
	if !h.injector.Has(name) {
		return nil
	}
	if err := h.injector.Invoke(name); err != nil {
		if ferr := p.Fail(err); ferr != nil {
			h.logger.Warn(ctx, "lifecycle transition rejected", ports.Err(ferr))
		}
		h.logger.Error(ctx, "plugin "+phase+" failed", ports.F("plugin", p.Name), ports.Err(err))
		return &PluginError{Plugin: p.Name, Phase: phase, Err: err}
	}
	return nil
}

func (h *Host) isBootstrapped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bootstrapped
}
