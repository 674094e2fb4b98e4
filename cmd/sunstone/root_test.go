package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/sunstone/internal/domain/config"
)

func TestRootCommand_UseLine(t *testing.T) {
	assert.Equal(t, "sunstone", rootCmd.Use)
}

func TestRootCommand_HasPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	for _, name := range []string{"config", "verbose", "log-format", "set"} {
		t.Run(name, func(t *testing.T) {
			assert.NotNil(t, flags.Lookup(name))
		})
	}
	assert.Equal(t, "v", flags.Lookup("verbose").Shorthand)
}

func TestRootCommand_Subcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"version", "plan", "graph", "validate", "inspect", "settings"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestSettingsOverrides(t *testing.T) {
	resetGlobals(t)

	setValues = []string{"port=8080", " host =0.0.0.0", "plugin_paths=a=b"}
	logFormat = "json"
	verbose = true

	overrides, err := settingsOverrides()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		config.KeyPort:        "8080",
		config.KeyHost:        "0.0.0.0",
		config.KeyPluginPaths: "a=b",
		config.KeyLogFormat:   "json",
		config.KeyLogLevel:    "debug",
	}, overrides)

	setValues = []string{"port"}
	_, err = settingsOverrides()
	assert.True(t, config.IsUserError(err, config.ErrCodeValidationFailed))
}

func TestLoadSettings_FlagsBeatEnvironment(t *testing.T) {
	resetGlobals(t)

	t.Setenv("SUNSTONE_PORT", "4000")
	t.Setenv("SUNSTONE_HOST", "env-host")
	setValues = []string{"port=5000"}

	s, err := loadSettings()
	require.NoError(t, err)
	assert.Equal(t, 5000, s.Port)
	assert.Equal(t, "env-host", s.Host)
}

func TestFormatError(t *testing.T) {
	resetGlobals(t)

	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t, "boom", formatError(errors.New("boom")))
	})

	t.Run("user error", func(t *testing.T) {
		err := &config.UserError{
			Code:       config.ErrCodeConfigParse,
			Message:    "failed to parse yaml settings file",
			Context:    "sunstone.yaml",
			Suggestion: "Check the yaml syntax.",
			Underlying: errors.New("line 2: mapping values are not allowed"),
		}
		msg := formatError(err)
		assert.Contains(t, msg, "failed to parse yaml settings file (at sunstone.yaml)")
		assert.Contains(t, msg, "Suggestion: Check the yaml syntax.")
		assert.NotContains(t, msg, "Technical details")

		verbose = true
		defer func() { verbose = false }()
		assert.Contains(t, formatError(err), "Technical details: line 2")
	})

	t.Run("error list", func(t *testing.T) {
		list := config.NewErrorList()
		list.AddValidation(config.KeyPort, "0 is out of range", "Use a port between 1 and 65535.")
		list.AddValidation(config.KeyLogFormat, `unknown format "xml"`, "Use text or json.")

		msg := formatError(list)
		assert.Contains(t, msg, "port: 0 is out of range (at port)")
		assert.Contains(t, msg, "Use text or json.")
	})
}

func TestPrintErrorTo(t *testing.T) {
	resetGlobals(t)

	var buf bytes.Buffer
	printErrorTo(&buf, errors.New("boom"))
	assert.Contains(t, buf.String(), "Error:")
	assert.Contains(t, buf.String(), "boom")
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)

	assert.Contains(t, buf.String(), "sunstone dev")
	assert.Contains(t, buf.String(), "commit: none")
}
