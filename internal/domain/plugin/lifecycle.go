package plugin

import (
	"sync"

	"github.com/felixgeelhaar/statekit"
)

// State is a plugin's lifecycle state.
type State string

const (
	registered  = "registered"
	initialized = "initialized"
	started     = "started"
	stopped     = "stopped"
	failed      = "failed"
)

// Lifecycle states.
const (
	StateRegistered  State = registered
	StateInitialized State = initialized
	StateStarted     State = started
	StateStopped     State = stopped
	StateFailed      State = failed
)

// Lifecycle events.
const (
	EventInitialize = "INITIALIZE"
	EventStart      = "START"
	EventStop       = "STOP"
	EventFail       = "FAIL"
)

// LifecycleContext is the statekit context carried by a plugin's machine.
type LifecycleContext struct {
	Plugin string
	Err    error
}

type lifecycle struct {
	mu     sync.Mutex
	plugin string
	interp *statekit.Interpreter[LifecycleContext]
	ctx    *LifecycleContext
}

func newLifecycle(plugin string) (*lifecycle, error) {
	lc := &lifecycle{plugin: plugin, ctx: &LifecycleContext{Plugin: plugin}}

	machine, err := statekit.NewMachine[LifecycleContext]("plugin-" + plugin).
		WithInitial(registered).
		WithContext(*lc.ctx).
		WithAction("recordFailure", func(_ *LifecycleContext, event statekit.Event) {
			if err, ok := event.Payload.(error); ok {
				lc.ctx.Err = err
			}
		}).
		State(registered).
		On(EventInitialize).Target(initialized).
		On(EventFail).Target(failed).Done().
		State(initialized).
		On(EventStart).Target(started).
		On(EventFail).Target(failed).Done().
		State(started).
		On(EventStop).Target(stopped).
		On(EventFail).Target(failed).Done().
		State(stopped).
		On(EventStart).Target(started).Done().
		State(failed).
		OnEntry("recordFailure").
		On(EventStop).Target(stopped).Done().
		Build()
	if err != nil {
		return nil, err
	}

	lc.interp = statekit.NewInterpreter(machine)
	lc.interp.Start()
	return lc, nil
}

func (lc *lifecycle) state() State {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return State(lc.interp.State().Value)
}

// send applies event and returns a LifecycleError when the current state has
// no transition for it.
func (lc *lifecycle) send(event string, payload any) error {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	before := State(lc.interp.State().Value)
	lc.interp.Send(statekit.Event{Type: statekit.EventType(event), Payload: payload})
	if State(lc.interp.State().Value) == before {
		return &LifecycleError{Plugin: lc.plugin, State: before, Event: event}
	}
	return nil
}

func (lc *lifecycle) failure() error {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return lc.ctx.Err
}

// ensureLifecycle lazily builds the plugin's state machine.
func (p *Plugin) ensureLifecycle() (*lifecycle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lifecycle == nil {
		lc, err := newLifecycle(p.Name)
		if err != nil {
			return nil, err
		}
		p.lifecycle = lc
	}
	return p.lifecycle, nil
}

// State returns the plugin's lifecycle state.
func (p *Plugin) State() State {
	lc, err := p.ensureLifecycle()
	if err != nil {
		return StateFailed
	}
	return lc.state()
}

// Transition applies a lifecycle event. Events the current state does not
// accept return a *LifecycleError and leave the state unchanged.
func (p *Plugin) Transition(event string) error {
	lc, err := p.ensureLifecycle()
	if err != nil {
		return err
	}
	return lc.send(event, nil)
}

// Fail moves the plugin to StateFailed and records cause.
func (p *Plugin) Fail(cause error) error {
	lc, err := p.ensureLifecycle()
	if err != nil {
		return err
	}
	return lc.send(EventFail, cause)
}

// Failure returns the error recorded by Fail, if any.
func (p *Plugin) Failure() error {
	lc, err := p.ensureLifecycle()
	if err != nil {
		return err
	}
	return lc.failure()
}
