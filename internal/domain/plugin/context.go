package plugin

import (
	"errors"

	"github.com/felixgeelhaar/sunstone/internal/domain/inject"
)

// Hook name suffixes for lifecycle callbacks.
const (
	StarterSuffix = ":starter"
	StopperSuffix = ":stopper"
)

// StarterName returns the name of plugin's start callback.
func StarterName(plugin string) string { return plugin + StarterSuffix }

// StopperName returns the name of plugin's stop callback.
func StopperName(plugin string) string { return plugin + StopperSuffix }

// Context is handed to a plugin's initializer. Every registration is owned by
// the plugin. Methods chain; registration errors are collected and reported
// by Err.
type Context struct {
	plugin   *Plugin
	injector *inject.Injector
	errs     []error
}

// NewContext returns a registrar for p backed by injector.
func NewContext(p *Plugin, injector *inject.Injector) *Context {
	return &Context{plugin: p, injector: injector}
}

// Plugin returns the plugin being initialized.
func (c *Context) Plugin() *Plugin { return c.plugin }

// Injector returns the injector registrations go to.
func (c *Context) Injector() *inject.Injector { return c.injector }

// Err returns every registration error, joined.
func (c *Context) Err() error {
	return errors.Join(c.errs...)
}

// Register adds a raw descriptor. An empty Owner defaults to the plugin name,
// which allows custom kinds such as "router".
func (c *Context) Register(d inject.Descriptor) *Context {
	if d.Owner == "" {
		d.Owner = c.plugin.Name
	}
	if err := c.injector.Register(d); err != nil {
		c.errs = append(c.errs, err)
	}
	return c
}

// Factory registers a memoized constructor.
func (c *Context) Factory(name string, requires []string, fn inject.FactoryFunc) *Context {
	return c.Register(inject.Descriptor{
		Name:     name,
		Kind:     inject.KindFactory,
		Producer: inject.Factory{Requires: requires, Fn: fn},
	})
}

// Value registers a precomputed value.
func (c *Context) Value(name string, v any) *Context {
	return c.Register(inject.Descriptor{
		Name:     name,
		Kind:     inject.KindValue,
		Producer: inject.Value{V: v},
	})
}

// Module registers an already constructed library or package handle.
func (c *Context) Module(name string, v any) *Context {
	return c.Register(inject.Descriptor{
		Name:     name,
		Kind:     inject.KindModule,
		Producer: inject.Value{V: v},
	})
}

// Alias registers name as another name for target.
func (c *Context) Alias(name, target string) *Context {
	return c.Register(inject.Descriptor{
		Name:     name,
		Kind:     inject.KindAlias,
		Producer: inject.Alias{Target: target},
	})
}

// Adapter registers a factory that picks an implementation at resolution time,
// typically by requiring the injector and a setting.
func (c *Context) Adapter(name string, requires []string, fn inject.FactoryFunc) *Context {
	return c.Register(inject.Descriptor{
		Name:     name,
		Kind:     inject.KindAdapter,
		Producer: inject.Factory{Requires: requires, Fn: fn},
	})
}

// Extension registers a callback that mutates existing dependencies. The host
// invokes every extension once, after all initializers have run.
func (c *Context) Extension(name string, requires []string, fn inject.CallbackFunc) *Context {
	return c.Register(inject.Descriptor{
		Name:     name,
		Kind:     inject.KindExtension,
		Producer: inject.Callback{Requires: requires, Fn: fn},
	})
}

// Callback registers an effect-only function run through Invoke.
func (c *Context) Callback(name string, requires []string, fn inject.CallbackFunc) *Context {
	return c.Register(inject.Descriptor{
		Name:     name,
		Kind:     inject.KindCallback,
		Producer: inject.Callback{Requires: requires, Fn: fn},
	})
}

// Starter registers the plugin's start callback.
func (c *Context) Starter(requires []string, fn inject.CallbackFunc) *Context {
	return c.Callback(StarterName(c.plugin.Name), requires, fn)
}

// Stopper registers the plugin's stop callback.
func (c *Context) Stopper(requires []string, fn inject.CallbackFunc) *Context {
	return c.Callback(StopperName(c.plugin.Name), requires, fn)
}
