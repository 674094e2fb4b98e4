package inject

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInjector_Get_Memoizes(t *testing.T) {
	t.Parallel()

	inj := New()
	var calls int
	require.NoError(t, inj.Register(factory("conn", nil, func(...any) (any, error) {
		calls++
		return &struct{ id int }{id: calls}, nil
	})))

	first, err := inj.Get("conn")
	require.NoError(t, err)
	for range 5 {
		again, err := inj.Get("conn")
		require.NoError(t, err)
		assert.Same(t, first, again)
	}
	assert.Equal(t, 1, calls)
}

func TestInjector_Get_ConcurrentConstructsOnce(t *testing.T) {
	t.Parallel()

	inj := New()
	var calls atomic.Int32
	require.NoError(t, inj.Register(factory("slow", nil, func(...any) (any, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return "ready", nil
	})))
	require.NoError(t, inj.Register(factory("user", []string{"slow"}, func(args ...any) (any, error) {
		return args[0].(string) + "!", nil
	})))

	var wg sync.WaitGroup
	results := make([]any, 32)
	errs := make([]error, 32)
	for idx := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			name := "slow"
			if idx%2 == 0 {
				name = "user"
			}
			results[idx], errs[idx] = inj.Get(name)
		}(idx)
	}
	wg.Wait()

	for idx := range results {
		require.NoError(t, errs[idx])
		if idx%2 == 0 {
			assert.Equal(t, "ready!", results[idx])
		} else {
			assert.Equal(t, "ready", results[idx])
		}
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestInjector_Get_ArgumentsInDeclaredOrder(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(value("host", "test", "localhost")))
	require.NoError(t, inj.Register(value("port", "test", 6379)))
	require.NoError(t, inj.Register(factory("addr", []string{"port", "host"}, func(args ...any) (any, error) {
		require.Len(t, args, 2)
		return args, nil
	})))

	got, err := inj.Get("addr")
	require.NoError(t, err)
	assert.Equal(t, []any{6379, "localhost"}, got)
}

func TestInjector_Get_ResolvesInjector(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(value("impl.memory", "store", "memory")))
	require.NoError(t, inj.Register(Descriptor{
		Name:  "store",
		Kind:  KindAdapter,
		Owner: "store",
		Producer: Factory{
			Requires: []string{SelfName},
			Fn: func(args ...any) (any, error) {
				return args[0].(*Injector).Get("impl.memory")
			},
		},
	}))

	got, err := inj.Get("store")
	require.NoError(t, err)
	assert.Equal(t, "memory", got)
}

func TestInjector_Get_RuntimeCycleThroughInjector(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(Descriptor{
		Name:  "store",
		Kind:  KindAdapter,
		Owner: "store",
		Producer: Factory{
			Requires: []string{SelfName},
			Fn: func(args ...any) (any, error) {
				return args[0].(*Injector).Get("memory")
			},
		},
	}))
	require.NoError(t, inj.Register(factory("memory", []string{"store"}, func(args ...any) (any, error) {
		return args[0], nil
	})))

	done := make(chan error, 1)
	go func() {
		_, err := inj.Get("store")
		done <- err
	}()

	select {
	case err := <-done:
		var cycle *CyclicDependencyError
		require.ErrorAs(t, err, &cycle)
		assert.Equal(t, []string{"store", "memory", "store"}, cycle.Cycle)
	case <-time.After(2 * time.Second):
		t.Fatal("Get blocked on a cycle formed at construction time")
	}
	assert.False(t, inj.Resolved("store"))
	assert.False(t, inj.Resolved("memory"))
}

func TestInjector_ScopedHandleOutlivesResolution(t *testing.T) {
	t.Parallel()

	inj := New()
	var kept *Injector
	require.NoError(t, inj.Register(factory("svc", []string{SelfName}, func(args ...any) (any, error) {
		kept = args[0].(*Injector)
		return "svc", nil
	})))

	_, err := inj.Get("svc")
	require.NoError(t, err)
	require.NotNil(t, kept)

	got, err := kept.Get("svc")
	require.NoError(t, err)
	assert.Equal(t, "svc", got)

	require.NoError(t, kept.Register(value("late", "test", 42)))
	assert.True(t, inj.Has("late"))

	self, err := inj.Get(SelfName)
	require.NoError(t, err)
	assert.Same(t, inj, self)
}

func TestInjector_Get_Alias(t *testing.T) {
	t.Parallel()

	inj := New()
	var calls int
	require.NoError(t, inj.Register(factory("postgres", nil, func(...any) (any, error) {
		calls++
		return &struct{}{}, nil
	})))
	require.NoError(t, inj.Register(Descriptor{Name: "db", Kind: KindAlias, Owner: "test", Producer: Alias{Target: "postgres"}}))

	viaAlias, err := inj.Get("db")
	require.NoError(t, err)
	direct, err := inj.Get("postgres")
	require.NoError(t, err)

	assert.Same(t, direct, viaAlias)
	assert.Equal(t, 1, calls)
}

func TestInjector_Get_Cycle(t *testing.T) {
	t.Parallel()

	inj := New()
	var calls int
	fn := func(...any) (any, error) {
		calls++
		return nil, nil
	}
	require.NoError(t, inj.Register(factory("a", []string{"b"}, fn)))
	require.NoError(t, inj.Register(factory("b", []string{"a"}, fn)))

	_, err := inj.Get("a")
	require.Error(t, err)
	assert.True(t, IsCyclicDependency(err))

	var ce *CyclicDependencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"a", "b", "a"}, ce.Cycle)
	assert.Equal(t, "cyclic dependency detected: a -> b -> a", ce.Error())
	assert.Zero(t, calls)
}

func TestInjector_Get_CycleBelowRoot(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(factory("app", []string{"x"}, okFactory)))
	require.NoError(t, inj.Register(factory("x", []string{"y"}, okFactory)))
	require.NoError(t, inj.Register(factory("y", []string{"z"}, okFactory)))
	require.NoError(t, inj.Register(factory("z", []string{"x"}, okFactory)))

	_, err := inj.Get("app")
	var ce *CyclicDependencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"x", "y", "z", "x"}, ce.Cycle)
}

func TestInjector_Get_NotFoundVersusResolutionError(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(factory("api", []string{"cache"}, okFactory)))

	_, err := inj.Get("nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsResolutionError(err))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = inj.Get("api")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.True(t, IsResolutionError(err))
	assert.True(t, errors.Is(err, ErrNotFound))

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "api", re.Name)
	assert.Equal(t, `resolving "api": dependency "cache" not found`, err.Error())
}

func TestInjector_Get_ProducerFailureNotMemoized(t *testing.T) {
	t.Parallel()

	inj := New()
	attempts := 0
	require.NoError(t, inj.Register(factory("flaky", nil, func(...any) (any, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("connection refused")
		}
		return "connected", nil
	})))

	_, err := inj.Get("flaky")
	require.Error(t, err)
	assert.True(t, IsProducerError(err))
	assert.False(t, inj.Resolved("flaky"))

	got, err := inj.Get("flaky")
	require.NoError(t, err)
	assert.Equal(t, "connected", got)
	assert.Equal(t, 2, attempts)
}

func TestInjector_Get_RecoversPanic(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(factory("boom", nil, func(args ...any) (any, error) {
		_ = args[3]
		return nil, nil
	})))
	require.NoError(t, inj.Register(factory("words", nil, func(...any) (any, error) {
		panic("bad config")
	})))

	_, err := inj.Get("boom")
	var pe *ProducerError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Panic)
	assert.Equal(t, "boom", pe.Name)

	_, err = inj.Get("words")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, `producer for "words" panicked: bad config`, err.Error())
}

func TestInjector_Get_Callback(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(Descriptor{
		Name: "hook", Kind: KindCallback, Owner: "test",
		Producer: Callback{Fn: func(...any) error { return nil }},
	}))
	require.NoError(t, inj.Register(factory("needs-hook", []string{"hook"}, okFactory)))

	_, err := inj.Get("hook")
	var nr *NotResolvableError
	require.ErrorAs(t, err, &nr)

	_, err = inj.Get("needs-hook")
	assert.True(t, IsResolutionError(err))
	require.ErrorAs(t, err, &nr)
	assert.Equal(t, "hook", nr.Name)
}

func TestInjector_Invoke(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(value("greeting", "test", "hello")))

	var seen []any
	require.NoError(t, inj.Register(Descriptor{
		Name: "server:starter", Kind: KindCallback, Owner: "server",
		Producer: Callback{
			Requires: []string{"greeting"},
			Fn: func(args ...any) error {
				seen = append(seen, args[0])
				return nil
			},
		},
	}))

	require.NoError(t, inj.Invoke("server:starter"))
	require.NoError(t, inj.Invoke("server:starter"))
	assert.Equal(t, []any{"hello", "hello"}, seen)
	assert.False(t, inj.Resolved("server:starter"))
}

func TestInjector_Invoke_Factory(t *testing.T) {
	t.Parallel()

	inj := New()
	var calls int
	require.NoError(t, inj.Register(factory("task", nil, func(...any) (any, error) {
		calls++
		return calls, nil
	})))

	require.NoError(t, inj.Invoke("task"))
	require.NoError(t, inj.Invoke("task"))
	assert.Equal(t, 2, calls)
	assert.False(t, inj.Resolved("task"))
}

func TestInjector_Invoke_Errors(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(value("v", "test", 1)))
	require.NoError(t, inj.Register(Descriptor{Name: "a", Kind: KindAlias, Owner: "test", Producer: Alias{Target: "v"}}))
	require.NoError(t, inj.Register(Descriptor{
		Name: "fails", Kind: KindCallback, Owner: "test",
		Producer: Callback{Fn: func(...any) error { return errors.New("port in use") }},
	}))
	require.NoError(t, inj.Register(Descriptor{
		Name: "orphan", Kind: KindCallback, Owner: "test",
		Producer: Callback{Requires: []string{"ghost"}, Fn: func(...any) error { return nil }},
	}))

	assert.True(t, IsNotFound(inj.Invoke("missing")))

	var ni *NotInvocableError
	require.ErrorAs(t, inj.Invoke("v"), &ni)
	assert.Equal(t, KindValue, ni.Kind)
	require.ErrorAs(t, inj.Invoke("a"), &ni)

	err := inj.Invoke("fails")
	assert.True(t, IsProducerError(err))
	assert.ErrorContains(t, err, "port in use")

	assert.True(t, IsResolutionError(inj.Invoke("orphan")))
}

func TestResolve_Typed(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(value("port", "test", 8080)))
	require.NoError(t, inj.Register(value("nothing", "test", nil)))

	port, err := Resolve[int](inj, "port")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	self, err := Resolve[*Injector](inj, SelfName)
	require.NoError(t, err)
	assert.Same(t, inj, self)

	s, err := Resolve[string](inj, "nothing")
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = Resolve[string](inj, "port")
	var wt *WrongTypeError
	require.ErrorAs(t, err, &wt)
	assert.Equal(t, "string", wt.Want)
	assert.Equal(t, "int", wt.Got)

	assert.Equal(t, 8080, MustResolve[int](inj, "port"))
	assert.Panics(t, func() { MustResolve[int](inj, "missing") })
}
