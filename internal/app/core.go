package app

import (
	"errors"

	"github.com/felixgeelhaar/sunstone/internal/domain/config"
	"github.com/felixgeelhaar/sunstone/internal/domain/defaults"
	"github.com/felixgeelhaar/sunstone/internal/domain/inject"
	"github.com/felixgeelhaar/sunstone/internal/domain/plugin"
	"github.com/felixgeelhaar/sunstone/internal/ports"
)

// Core plugin identity.
const (
	CoreName    = inject.CoreOwner
	CoreVersion = "1.0.0"
)

// Dependencies registered by the core plugin.
const (
	SettingsName  = "settings"
	LoggerName    = "logger"
	RunIDName     = "run_id"
	AddressName   = "address"
	UUIDName      = "uuid"
	RandomName    = "random"
	TimestampName = "timestamp"
)

// Core returns the builtin plugin that exposes settings, the logger, the run
// id and the default value generators to every other plugin.
//
// Generators are registered as values holding functions, so every call yields
// a fresh result: uuid is func() string, random is func() (string, error) and
// timestamp is func() int64.
func Core(settings *config.Settings, logger ports.Logger, runID string) *plugin.Plugin {
	return plugin.New(CoreName, CoreVersion, nil).Initializer(func(c *plugin.Context) error {
		if settings == nil {
			return errors.New("settings are required")
		}
		if logger == nil {
			logger = ports.Discard()
		}

		c.Value(SettingsName, settings).
			Value(LoggerName, logger).
			Value(RunIDName, runID).
			Value(UUIDName, defaults.UUID).
			Value(RandomName, defaults.RandomFunc(defaults.DefaultRandomBytes)).
			Value(TimestampName, defaults.Timestamp).
			Factory(AddressName, []string{SettingsName}, func(args ...any) (any, error) {
				return args[0].(*config.Settings).Address(), nil
			})
		return nil
	})
}

// UseCore registers the core plugin with the host's logger and run id.
func (h *Host) UseCore(settings *config.Settings) error {
	return h.Add(Core(settings, h.logger, h.id))
}
