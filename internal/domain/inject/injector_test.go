package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/sunstone/internal/adapters/logging"
	"github.com/felixgeelhaar/sunstone/internal/ports"
)

func value(name, owner string, v any) Descriptor {
	return Descriptor{Name: name, Kind: KindValue, Owner: owner, Producer: Value{V: v}}
}

func factory(name string, requires []string, fn FactoryFunc) Descriptor {
	return Descriptor{Name: name, Kind: KindFactory, Owner: "test", Producer: Factory{Requires: requires, Fn: fn}}
}

func TestNew_RegistersItself(t *testing.T) {
	t.Parallel()

	inj := New()

	assert.True(t, inj.Has(SelfName))
	assert.Equal(t, 1, inj.Len())

	d, ok := inj.Descriptor(SelfName)
	require.True(t, ok)
	assert.Equal(t, KindValue, d.Kind)
	assert.Equal(t, CoreOwner, d.Owner)

	got, err := inj.Get(SelfName)
	require.NoError(t, err)
	assert.Same(t, inj, got)
}

func TestInjector_Register_Rejected(t *testing.T) {
	t.Parallel()

	logger := logging.NewMemoryLogger()
	inj := New(WithLogger(logger))

	err := inj.Register(Descriptor{Name: "broken", Producer: Factory{}})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "broken", ve.Name)
	assert.Len(t, ve.Errors, 3)

	assert.False(t, inj.Has("broken"))
	assert.Len(t, logger.EntriesAt(ports.LevelWarn), 3)
	assert.Empty(t, inj.Filter(Match(Fields{Name: "broken"})).Names())
}

func TestInjector_Register_TrimsNames(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(value(" db ", " test ", "pg")))
	require.NoError(t, inj.Register(Descriptor{Name: "conn", Kind: KindAlias, Owner: "test", Producer: Alias{Target: " db"}}))
	require.NoError(t, inj.Register(factory("pool", []string{"db "}, func(args ...any) (any, error) {
		return args[0], nil
	})))

	assert.Equal(t, []string{SelfName, "db", "conn", "pool"}, inj.Names())

	d, ok := inj.Descriptor("db")
	require.True(t, ok)
	assert.Equal(t, "test", d.Owner)

	for _, name := range []string{"db", "conn", "pool"} {
		got, err := inj.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, "pg", got, name)
	}

	err := inj.Register(value("  ", "test", 1))
	assert.True(t, IsValidationError(err))
}

func TestInjector_Register_Overwrite(t *testing.T) {
	t.Parallel()

	logger := logging.NewMemoryLogger()
	inj := New(WithLogger(logger))

	require.NoError(t, inj.Register(value("port", "first", 80)))
	require.NoError(t, inj.Register(value("host", "first", "localhost")))

	got, err := inj.Get("port")
	require.NoError(t, err)
	assert.Equal(t, 80, got)

	require.NoError(t, inj.Register(value("port", "second", 8080)))

	got, err = inj.Get("port")
	require.NoError(t, err)
	assert.Equal(t, 8080, got)

	d, _ := inj.Descriptor("port")
	assert.Equal(t, "second", d.Owner)
	assert.Equal(t, []string{SelfName, "port", "host"}, inj.Names())

	warns := logger.EntriesAt(ports.LevelWarn)
	require.Len(t, warns, 1)
	assert.Equal(t, "dependency overwritten", warns[0].Message)
	assert.Equal(t, "first", warns[0].Fields["previous_owner"])
}

func TestInjector_Register_OverwriteDiscardsCache(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(factory("n", nil, func(...any) (any, error) { return 1, nil })))

	_, err := inj.Get("n")
	require.NoError(t, err)
	assert.True(t, inj.Resolved("n"))

	require.NoError(t, inj.Register(factory("n", nil, func(...any) (any, error) { return 2, nil })))
	assert.False(t, inj.Resolved("n"))

	got, err := inj.Get("n")
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestInjector_RequiresAreCopied(t *testing.T) {
	t.Parallel()

	inj := New()
	reqs := []string{"a", "b"}
	require.NoError(t, inj.Register(factory("c", reqs, okFactory)))

	reqs[0] = "mutated"

	d, ok := inj.Descriptor("c")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, d.Requires())

	d.Requires()[1] = "mutated"
	d, _ = inj.Descriptor("c")
	assert.Equal(t, []string{"a", "b"}, d.Requires())
}

func TestInjector_Unregister(t *testing.T) {
	t.Parallel()

	inj := New()
	require.NoError(t, inj.Register(value("a", "test", 1)))
	require.NoError(t, inj.Register(value("b", "test", 2)))

	assert.True(t, inj.Unregister("a"))
	assert.False(t, inj.Unregister("a"))

	assert.False(t, inj.Has("a"))
	assert.Equal(t, []string{SelfName, "b"}, inj.Names())

	_, err := inj.Get("a")
	assert.True(t, IsNotFound(err))
}

func TestDescriptor_RequiresWithoutProducer(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Descriptor{Name: "x"}.Requires())
	assert.Equal(t, []string{}, value("x", "test", 1).Requires())
	assert.Equal(t, []string{"db"}, Descriptor{Producer: Alias{Target: "db"}}.Requires())
}
