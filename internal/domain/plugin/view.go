package plugin

import (
	"github.com/felixgeelhaar/sunstone/internal/domain/query"
)

// Predicate selects plugins.
type Predicate func(*Plugin) bool

// InState matches plugins in any of the given lifecycle states.
func InState(states ...State) Predicate {
	return func(p *Plugin) bool {
		current := p.State()
		for _, s := range states {
			if current == s {
				return true
			}
		}
		return false
	}
}

// Named matches plugins whose name is in names.
func Named(names ...string) Predicate {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(p *Plugin) bool {
		return set[p.Name]
	}
}

// View is an ordered snapshot of plugins.
type View struct {
	items query.View[*Plugin]
}

// NewView returns a view over plugins in the given order.
func NewView(plugins []*Plugin) *View {
	return &View{items: query.New(plugins)}
}

// Filter narrows the view. A nil predicate keeps every plugin.
func (v *View) Filter(pred Predicate) *View {
	return &View{items: v.items.Filter(pred)}
}

// Plugins returns the plugins in the view.
func (v *View) Plugins() []*Plugin {
	return v.items.Items()
}

// Names returns the plugin names in order.
func (v *View) Names() []string {
	names, _ := query.Map(v.items, func(p *Plugin) (string, error) {
		return p.Name, nil
	})
	return names
}

// Len returns the number of plugins in the view.
func (v *View) Len() int {
	return v.items.Len()
}

// Each calls fn for every plugin in order and stops at the first error.
func (v *View) Each(fn func(*Plugin) error) error {
	return v.items.Each(fn)
}
