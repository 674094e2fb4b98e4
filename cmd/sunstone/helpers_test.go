package main

import (
	"testing"

	"github.com/felixgeelhaar/sunstone/internal/domain/config"
)

// resetGlobals restores every package-level flag after the test and clears
// the environment variables settings read.
func resetGlobals(t *testing.T) {
	t.Helper()

	saved := struct {
		cfgFile, logFormat, settingsFormat string
		verbose, validateJSON              bool
		settingsInit, settingsShowSecrets  bool
		setValues                          []string
		inspectKind, inspectOwner          string
	}{
		cfgFile, logFormat, settingsFormat,
		verbose, validateJSON,
		settingsInit, settingsShowSecrets,
		setValues,
		inspectKind, inspectOwner,
	}

	cfgFile, logFormat, settingsFormat = "", "", string(config.FormatYAML)
	verbose, validateJSON = false, false
	settingsInit, settingsShowSecrets = false, false
	setValues = nil
	inspectKind, inspectOwner = "", ""

	for _, key := range config.Keys {
		t.Setenv(config.EnvVar(key), "")
	}

	t.Cleanup(func() {
		cfgFile, logFormat, settingsFormat = saved.cfgFile, saved.logFormat, saved.settingsFormat
		verbose, validateJSON = saved.verbose, saved.validateJSON
		settingsInit, settingsShowSecrets = saved.settingsInit, saved.settingsShowSecrets
		setValues = saved.setValues
		inspectKind, inspectOwner = saved.inspectKind, saved.inspectOwner
	})
}
