package inject

import (
	"github.com/felixgeelhaar/sunstone/internal/domain/query"
)

// Predicate selects descriptors.
type Predicate func(Descriptor) bool

// Fields matches descriptors by attribute. Empty fields match anything.
type Fields struct {
	Kind  Kind
	Owner string
	Name  string
}

// Match returns a Predicate that is true when every non-empty field equals the
// descriptor's attribute.
func Match(f Fields) Predicate {
	return func(d Descriptor) bool {
		if f.Kind != "" && d.Kind != f.Kind {
			return false
		}
		if f.Owner != "" && d.Owner != f.Owner {
			return false
		}
		if f.Name != "" && d.Name != f.Name {
			return false
		}
		return true
	}
}

// View is an ordered snapshot of descriptors taken from an Injector.
// Filtering never resolves; Values and InvokeAll go through the Injector.
type View struct {
	injector *Injector
	items    query.View[Descriptor]
}

func newView(i *Injector, descs []Descriptor) *View {
	return &View{injector: i, items: query.New(descs)}
}

// Filter narrows the view. A nil predicate keeps every descriptor.
func (v *View) Filter(pred Predicate) *View {
	return &View{injector: v.injector, items: v.items.Filter(pred)}
}

// Descriptors returns the descriptors in the view.
func (v *View) Descriptors() []Descriptor {
	return v.items.Items()
}

// Names returns the descriptor names in order.
func (v *View) Names() []string {
	names, _ := query.Map(v.items, func(d Descriptor) (string, error) {
		return d.Name, nil
	})
	return names
}

// Len returns the number of descriptors in the view.
func (v *View) Len() int {
	return v.items.Len()
}

// Values resolves every descriptor in order through the Injector, so results
// are constructed and memoized as by Get.
func (v *View) Values() ([]any, error) {
	return query.Map(v.items, func(d Descriptor) (any, error) {
		return v.injector.Get(d.Name)
	})
}

// InvokeAll invokes every descriptor in order and stops at the first error.
func (v *View) InvokeAll() error {
	return v.items.Each(func(d Descriptor) error {
		return v.injector.Invoke(d.Name)
	})
}
