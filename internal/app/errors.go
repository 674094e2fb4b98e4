package app

import (
	"errors"
	"fmt"
)

// Sentinel errors for host state.
var (
	ErrAlreadyBootstrapped = errors.New("host already bootstrapped")
	ErrNotBootstrapped     = errors.New("host not bootstrapped")
	ErrBootstrapFailed     = errors.New("host bootstrap failed")
)

// Host phases reported by PluginError.
const (
	PhaseInitialize = "initialize"
	PhaseStart      = "start"
	PhaseStop       = "stop"
)

// PluginError reports a plugin that failed during a host phase.
type PluginError struct {
	Plugin string
	Phase  string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %s failed: %v", e.Plugin, e.Phase, e.Err)
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

// IsPluginError returns true if err is a PluginError.
func IsPluginError(err error) bool {
	var pe *PluginError
	return errors.As(err, &pe)
}
