package inject

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/felixgeelhaar/sunstone/internal/ports"
)

// SelfName is the name under which every Injector registers itself.
const SelfName = "injector"

// CoreOwner owns descriptors registered by the runtime itself.
const CoreOwner = "core"

// entry is the registry record for one descriptor plus its memoized value.
type entry struct {
	desc     Descriptor
	requires []string
	resolved bool
	value    any
}

// Injector holds dependency descriptors and resolves them on demand.
// It is safe for concurrent use; each name is constructed at most once.
//
// Producers that require SelfName receive a handle bound to the resolution in
// progress. Lookups made through it continue that resolution, so a runtime
// Get that leads back to a name under construction fails with a
// *CyclicDependencyError.
type Injector struct {
	*registry
	path []string
}

// registry is the state shared by an Injector and its scoped handles.
type registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	flights singleflight.Group
	logger  ports.Logger
}

// Option configures an Injector.
type Option func(*Injector)

// WithLogger sets the logger used for registration diagnostics.
func WithLogger(logger ports.Logger) Option {
	return func(i *Injector) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New creates an empty Injector that can inject itself under SelfName.
func New(opts ...Option) *Injector {
	i := &Injector{registry: &registry{
		entries: make(map[string]*entry),
		logger:  ports.Discard(),
	}}
	for _, opt := range opts {
		opt(i)
	}

	i.insert(Descriptor{
		Name:     SelfName,
		Kind:     KindValue,
		Owner:    CoreOwner,
		Producer: Value{V: i},
	})
	return i
}

// Register validates d and, on success, inserts it or replaces a previous
// descriptor with the same name. Rejected descriptors are logged and returned
// as a *ValidationError; the injector is left unchanged. Surrounding whitespace
// is dropped from every name the descriptor carries.
func (i *Injector) Register(d Descriptor) error {
	ctx := context.Background()
	d = normalize(d)

	result := Validate(d)
	if !result.Valid() {
		for _, fe := range result.Errors {
			i.logger.Warn(ctx, "dependency rejected",
				ports.F("name", d.Name),
				ports.F("owner", d.Owner),
				ports.F("field", fe.Field),
				ports.F("code", string(fe.Code)),
				ports.F("reason", fe.Message))
		}
		return &ValidationError{Name: d.Name, Errors: result.Errors}
	}

	if replaced := i.insert(d); replaced != nil {
		i.logger.Warn(ctx, "dependency overwritten",
			ports.F("name", d.Name),
			ports.F("previous_owner", replaced.desc.Owner),
			ports.F("owner", d.Owner))
	} else {
		i.logger.Debug(ctx, "dependency registered",
			ports.F("name", d.Name),
			ports.F("kind", string(d.Kind)),
			ports.F("owner", d.Owner))
	}
	return nil
}

// insert stores d and returns the entry it replaced, if any.
func (i *Injector) insert(d Descriptor) *entry {
	d.Producer = freeze(d.Producer)
	e := &entry{desc: d, requires: d.Requires()}
	if v, ok := d.Producer.(Value); ok {
		e.resolved = true
		e.value = v.V
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	prev, exists := i.entries[d.Name]
	if !exists {
		i.order = append(i.order, d.Name)
	}
	i.entries[d.Name] = e
	return prev
}

// Unregister removes a descriptor and its memoized value. It reports whether
// the name was registered.
func (i *Injector) Unregister(name string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.entries[name]; !ok {
		return false
	}
	delete(i.entries, name)
	for idx, n := range i.order {
		if n == name {
			i.order = append(i.order[:idx], i.order[idx+1:]...)
			break
		}
	}
	return true
}

// Has reports whether name is registered.
func (i *Injector) Has(name string) bool {
	_, ok := i.lookup(name)
	return ok
}

// Descriptor returns the descriptor registered under name.
func (i *Injector) Descriptor(name string) (Descriptor, bool) {
	e, ok := i.lookup(name)
	if !ok {
		return Descriptor{}, false
	}
	return e.desc, true
}

// Resolved reports whether name has a memoized value.
func (i *Injector) Resolved(name string) bool {
	e, ok := i.lookup(name)
	if !ok {
		return false
	}
	_, done := i.cached(e)
	return done
}

// Names returns the registered names in registration order.
func (i *Injector) Names() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	out := make([]string, len(i.order))
	copy(out, i.order)
	return out
}

// Len returns the number of registered descriptors.
func (i *Injector) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Filter returns a view over the descriptors matching pred, in registration
// order. It does not resolve anything.
func (i *Injector) Filter(pred Predicate) *View {
	i.mu.RLock()
	descs := make([]Descriptor, 0, len(i.order))
	for _, name := range i.order {
		descs = append(descs, i.entries[name].desc)
	}
	i.mu.RUnlock()

	return newView(i, descs).Filter(pred)
}

// scoped returns a handle sharing i's registry whose lookups run beneath path.
func (i *Injector) scoped(path []string) *Injector {
	return &Injector{registry: i.registry, path: path}
}

func (i *Injector) lookup(name string) (*entry, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	e, ok := i.entries[name]
	return e, ok
}

func (i *Injector) cached(e *entry) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return e.value, e.resolved
}

func (i *Injector) store(e *entry, v any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	e.value = v
	e.resolved = true
}
