package inject

import "strings"

// Kind tags the role a descriptor plays. The set is open: plugins may define
// their own kinds (for example "router") and query them through Filter.
type Kind string

// Well-known kinds.
const (
	KindFactory   Kind = "factory"
	KindValue     Kind = "value"
	KindAlias     Kind = "alias"
	KindAdapter   Kind = "adapter"
	KindModule    Kind = "module"
	KindExtension Kind = "extension"
	KindCallback  Kind = "callback"
)

// FactoryFunc constructs a dependency from its resolved requirements, passed
// positionally in the order of Factory.Requires.
type FactoryFunc func(args ...any) (any, error)

// CallbackFunc runs for effect with its resolved requirements.
type CallbackFunc func(args ...any) error

// Producer is the sealed set of ways a descriptor yields its value:
// Factory, Value, Alias or Callback.
type Producer interface {
	requirements() []string
	producer()
}

// Factory is invoked at most once; its result is memoized.
type Factory struct {
	Requires []string
	Fn       FactoryFunc
}

// Value is a precomputed dependency. A nil V is still an explicit value.
type Value struct {
	V any
}

// Alias resolves to the value of the Target dependency.
type Alias struct {
	Target string
}

// Callback is invoked for effect only and is never memoized. Lifecycle hooks
// such as "<plugin>:starter" are callbacks.
type Callback struct {
	Requires []string
	Fn       CallbackFunc
}

func (f Factory) requirements() []string  { return f.Requires }
func (Value) requirements() []string      { return nil }
func (a Alias) requirements() []string    { return []string{a.Target} }
func (c Callback) requirements() []string { return c.Requires }

func (Factory) producer()  {}
func (Value) producer()    {}
func (Alias) producer()    {}
func (Callback) producer() {}

// Descriptor identifies one injectable capability.
type Descriptor struct {
	// Name is the unique key within an Injector.
	Name string
	// Kind is the role tag used for querying.
	Kind Kind
	// Owner is the plugin that registered the descriptor.
	Owner string
	// Producer yields the dependency.
	Producer Producer
}

// Requires returns a copy of the ordered dependency names the producer needs.
// It is never nil for a descriptor with a producer.
func (d Descriptor) Requires() []string {
	if d.Producer == nil {
		return nil
	}
	reqs := d.Producer.requirements()
	out := make([]string, len(reqs))
	copy(out, reqs)
	return out
}

// freeze copies the variant's requirement slice so callers cannot mutate a
// registered descriptor through the slice they passed in.
func freeze(p Producer) Producer {
	switch v := p.(type) {
	case Factory:
		v.Requires = append([]string{}, v.Requires...)
		return v
	case Callback:
		v.Requires = append([]string{}, v.Requires...)
		return v
	default:
		return p
	}
}

// normalize trims the descriptor's name, kind, owner and every name its
// producer refers to.
func normalize(d Descriptor) Descriptor {
	d.Name = strings.TrimSpace(d.Name)
	d.Kind = Kind(strings.TrimSpace(string(d.Kind)))
	d.Owner = strings.TrimSpace(d.Owner)

	switch p := d.Producer.(type) {
	case Factory:
		p.Requires = trimAll(p.Requires)
		d.Producer = p
	case Callback:
		p.Requires = trimAll(p.Requires)
		d.Producer = p
	case Alias:
		p.Target = strings.TrimSpace(p.Target)
		d.Producer = p
	}
	return d
}

func trimAll(names []string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimSpace(n)
	}
	return out
}
