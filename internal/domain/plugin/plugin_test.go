package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/sunstone/internal/domain/inject"
)

func TestNew_CopiesRequires(t *testing.T) {
	t.Parallel()

	reqs := map[string]string{"redis": "^2.0.0"}
	p := New("sessions", "1.0.0", reqs)
	reqs["redis"] = "^3.0.0"

	assert.Equal(t, "^2.0.0", p.Requires["redis"])
	assert.Equal(t, "sessions@1.0.0", p.String())
}

func TestPlugin_Peers(t *testing.T) {
	t.Parallel()

	p := New("web", "1.0.0", map[string]string{"store": "*", "auth": "*", "logger": "*"})
	assert.Equal(t, []string{"auth", "logger", "store"}, p.Peers())
	assert.Empty(t, New("base", "1.0.0", nil).Peers())
}

func TestPlugin_ManifestRoundTrip(t *testing.T) {
	t.Parallel()

	m := Manifest{Name: "redis", Version: "2.0.0", Description: "cache", Requires: map[string]string{"core": "*"}}
	p := FromManifest(m, "/plugins/redis")

	assert.Equal(t, "/plugins/redis", p.Path)
	assert.Equal(t, m, p.Manifest())
}

func TestPlugin_Init(t *testing.T) {
	t.Parallel()

	inj := inject.New()
	p := New("greeter", "1.0.0", nil).Initializer(func(ctx *Context) error {
		ctx.Value("greeting", "hello")
		return nil
	})

	require.NoError(t, p.Init(NewContext(p, inj)))

	d, ok := inj.Descriptor("greeting")
	require.True(t, ok)
	assert.Equal(t, "greeter", d.Owner)
}

func TestPlugin_Init_Errors(t *testing.T) {
	t.Parallel()

	inj := inject.New()

	failing := New("failing", "1.0.0", nil).Initializer(func(*Context) error {
		return errors.New("no config")
	})
	assert.EqualError(t, failing.Init(NewContext(failing, inj)), "no config")

	invalid := New("invalid", "1.0.0", nil).Initializer(func(ctx *Context) error {
		ctx.Factory("", nil, nil)
		return nil
	})
	err := invalid.Init(NewContext(invalid, inj))
	require.Error(t, err)
	assert.True(t, inject.IsValidationError(err))

	assert.NoError(t, New("empty", "1.0.0", nil).Init(NewContext(New("empty", "1.0.0", nil), inj)))
}

func TestValidateManifest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		manifest Manifest
		wantErrs int
		contains string
	}{
		{
			name:     "valid",
			manifest: Manifest{Name: "redis", Version: "1.0.0", Requires: map[string]string{"core": "^1.0.0"}},
		},
		{
			name:     "missing name and version",
			manifest: Manifest{},
			wantErrs: 2,
			contains: "name is required",
		},
		{
			name:     "bad name",
			manifest: Manifest{Name: "Redis Cache", Version: "1.0.0"},
			wantErrs: 1,
			contains: "must start with a lowercase letter",
		},
		{
			name:     "bad version",
			manifest: Manifest{Name: "redis", Version: "one"},
			wantErrs: 1,
			contains: "not valid semantic versioning",
		},
		{
			name:     "bad requirements",
			manifest: Manifest{Name: "redis", Version: "1.0.0", Requires: map[string]string{"redis": "*", "core": "bogus range"}},
			wantErrs: 2,
			contains: "requires.core",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateManifest(&tt.manifest)
			if tt.wantErrs == 0 {
				assert.NoError(t, err)
				return
			}

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Len(t, ve.Errors, tt.wantErrs)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
