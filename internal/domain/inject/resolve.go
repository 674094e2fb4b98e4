package inject

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/sunstone/internal/ports"
)

// Get returns the value of the named dependency, constructing it and its
// requirements on first use. Successful results are memoized; failures are not.
// Called on a handle passed to a producer, Get continues that producer's
// resolution.
func (i *Injector) Get(name string) (any, error) {
	e, ok := i.lookup(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	if _, isCallback := e.desc.Producer.(Callback); isCallback {
		return nil, &NotResolvableError{Name: name}
	}
	if v, done := i.cached(e); done {
		return i.bind(v, i.path), nil
	}

	if err := i.checkCycles(name); err != nil {
		return nil, err
	}
	return i.resolve(name, i.path)
}

// Invoke resolves the requirements of the named callback or factory and calls
// it for effect. The result is discarded and nothing is memoized.
func (i *Injector) Invoke(name string) error {
	e, ok := i.lookup(name)
	if !ok {
		return &NotFoundError{Name: name}
	}
	switch e.desc.Producer.(type) {
	case Value, Alias:
		return &NotInvocableError{Name: name, Kind: e.desc.Kind}
	}

	if err := cycleAt(i.path, name); err != nil {
		return err
	}
	if err := i.checkCycles(name); err != nil {
		return err
	}
	args, err := i.resolveArgs(name, e.requires, extend(i.path, name))
	if err != nil {
		return err
	}

	i.logger.Debug(context.Background(), "invoking dependency",
		ports.F("name", name),
		ports.F("kind", string(e.desc.Kind)))
	_, err = construct(name, e.desc.Producer, args)
	return err
}

// resolve builds name with path holding the names currently under
// construction in this call chain.
func (i *Injector) resolve(name string, path []string) (any, error) {
	e, ok := i.lookup(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	if _, isCallback := e.desc.Producer.(Callback); isCallback {
		return nil, &NotResolvableError{Name: name}
	}
	if v, done := i.cached(e); done {
		return i.bind(v, path), nil
	}
	if err := cycleAt(path, name); err != nil {
		return nil, err
	}

	v, err, _ := i.flights.Do(name, func() (any, error) {
		if v, done := i.cached(e); done {
			return v, nil
		}

		next := extend(path, name)
		args, err := i.resolveArgs(name, e.requires, next)
		if err != nil {
			return nil, err
		}
		v, err := construct(name, e.desc.Producer, args)
		if err != nil {
			return nil, err
		}

		i.store(e, v)
		i.logger.Debug(context.Background(), "dependency resolved",
			ports.F("name", name),
			ports.F("kind", string(e.desc.Kind)),
			ports.F("owner", e.desc.Owner))
		return v, nil
	})
	return v, err
}

// bind hands out a handle scoped to path in place of the injector itself.
func (i *Injector) bind(v any, path []string) any {
	if inj, ok := v.(*Injector); ok && inj.registry == i.registry && len(path) > 0 {
		return i.scoped(path)
	}
	return v
}

// cycleAt reports a cycle when name is already under construction on path.
func cycleAt(path []string, name string) error {
	for idx, p := range path {
		if p == name {
			cycle := append(append([]string{}, path[idx:]...), name)
			return &CyclicDependencyError{Cycle: cycle}
		}
	}
	return nil
}

func extend(path []string, name string) []string {
	return append(append(make([]string, 0, len(path)+1), path...), name)
}

// resolveArgs resolves requires left to right. Failures other than cycles are
// wrapped in a ResolutionError naming the dependent.
func (i *Injector) resolveArgs(name string, requires []string, path []string) ([]any, error) {
	args := make([]any, len(requires))
	for idx, req := range requires {
		v, err := i.resolve(req, path)
		if err != nil {
			if IsCyclicDependency(err) {
				return nil, err
			}
			return nil, &ResolutionError{Name: name, Err: err}
		}
		args[idx] = v
	}
	return args, nil
}

// checkCycles walks the unresolved part of the requirement graph reachable
// from root. Unknown names are skipped; resolution reports them.
func (i *Injector) checkCycles(root string) error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := 0
			for idx, p := range path {
				if p == name {
					start = idx
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), name)
			return &CyclicDependencyError{Cycle: cycle}
		}

		e, ok := i.lookup(name)
		if !ok {
			state[name] = done
			return nil
		}
		if _, resolved := i.cached(e); resolved {
			state[name] = done
			return nil
		}

		state[name] = visiting
		path = append(path, name)
		for _, req := range e.requires {
			if err := visit(req); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[name] = done
		return nil
	}

	return visit(root)
}

// construct runs a producer with its resolved arguments. Panics are recovered
// into a ProducerError.
func construct(name string, p Producer, args []any) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			v = nil
			err = &ProducerError{Name: name, Err: cause, Panic: true}
		}
	}()

	switch p := p.(type) {
	case Factory:
		out, err := p.Fn(args...)
		if err != nil {
			return nil, &ProducerError{Name: name, Err: err}
		}
		return out, nil
	case Callback:
		if err := p.Fn(args...); err != nil {
			return nil, &ProducerError{Name: name, Err: err}
		}
		return nil, nil
	case Alias:
		return args[0], nil
	case Value:
		return p.V, nil
	default:
		return nil, fmt.Errorf("dependency %q has no producer", name)
	}
}
