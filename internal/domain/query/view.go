// Package query provides read-only, re-filterable snapshots used to operate on
// subsets of registered dependencies and plugins.
package query

// View is an immutable, ordered snapshot of items. Filtering returns a new
// View and never touches the source it was taken from.
type View[T any] struct {
	items []T
}

// New returns a View over a copy of items, preserving their order.
func New[T any](items []T) View[T] {
	copied := make([]T, len(items))
	copy(copied, items)
	return View[T]{items: copied}
}

// Filter returns a View holding the items that satisfy pred, in order.
// A nil predicate matches every item.
func (v View[T]) Filter(pred func(T) bool) View[T] {
	out := make([]T, 0, len(v.items))
	for _, item := range v.items {
		if pred == nil || pred(item) {
			out = append(out, item)
		}
	}
	return View[T]{items: out}
}

// Items returns a copy of the items.
func (v View[T]) Items() []T {
	out := make([]T, len(v.items))
	copy(out, v.items)
	return out
}

// Len returns the number of items.
func (v View[T]) Len() int {
	return len(v.items)
}

// Each calls fn for every item in order and stops at the first error.
func (v View[T]) Each(fn func(T) error) error {
	for _, item := range v.items {
		if err := fn(item); err != nil {
			return err
		}
	}
	return nil
}

// Map applies fn to every item in order and collects the results. It stops at
// the first error.
func Map[T, U any](v View[T], fn func(T) (U, error)) ([]U, error) {
	out := make([]U, 0, len(v.items))
	for _, item := range v.items {
		u, err := fn(item)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
