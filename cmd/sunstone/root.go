package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/sunstone/internal/adapters/logging"
	"github.com/felixgeelhaar/sunstone/internal/domain/config"
	"github.com/felixgeelhaar/sunstone/internal/ports"
)

var (
	// Global flags
	cfgFile   string
	verbose   bool
	logFormat string
	setValues []string
)

var rootCmd = &cobra.Command{
	Use:   "sunstone",
	Short: "A plugin host built on a dependency injection engine",
	Long: `Sunstone loads plugins, orders them by their declared peer requirements
and wires their dependencies through a shared injector:
  Discover → Resolve → Prioritize → Initialize → Start`,
	SilenceErrors: true, // We handle error formatting ourselves
	SilenceUsage:  true, // Don't show usage on error
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (.yaml, .json, .toml or .ini)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().StringArrayVar(&setValues, "set", nil, "override a setting, e.g. --set port=8080")

	registerFlagCompletions()

	rootCmd.AddCommand(versionCmd)
}

// settingsOverrides turns the global flags into setting overrides.
func settingsOverrides() (map[string]string, error) {
	overrides := make(map[string]string, len(setValues)+2)
	for _, kv := range setValues {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, &config.UserError{
				Code:       config.ErrCodeValidationFailed,
				Message:    fmt.Sprintf("invalid --set value %q", kv),
				Suggestion: "Use key=value, for example --set port=8080. Keys: " + strings.Join(config.Keys, ", "),
			}
		}
		overrides[strings.TrimSpace(key)] = value
	}
	if logFormat != "" {
		overrides[config.KeyLogFormat] = logFormat
	}
	if verbose {
		overrides[config.KeyLogLevel] = config.VerboseLogLevel
	}
	return overrides, nil
}

// loadSettings resolves settings from --config, the environment and flags.
func loadSettings() (*config.Settings, error) {
	overrides, err := settingsOverrides()
	if err != nil {
		return nil, err
	}
	return config.Load(config.LoadOptions{Path: cfgFile, Overrides: overrides})
}

// newLogger returns a console logger on w configured from s.
func newLogger(w io.Writer, s *config.Settings) ports.Logger {
	level, err := s.Level()
	if err != nil {
		level = ports.LevelInfo
	}
	return logging.NewConsoleLogger(
		logging.WithOutput(w),
		logging.WithLevel(level),
		logging.WithJSONFormat(s.LogFormat == "json"),
	)
}

// formatError returns a user-friendly error message.
// With verbose=false: shows only the user message and suggestion.
// With verbose=true: also shows the underlying technical error.
func formatError(err error) string {
	var list *config.ErrorList
	if errors.As(err, &list) {
		parts := make([]string, 0, list.Len())
		for _, ue := range list.Errors() {
			parts = append(parts, formatUserError(ue))
		}
		return strings.Join(parts, "\n\n")
	}

	var userErr *config.UserError
	if errors.As(err, &userErr) {
		return formatUserError(userErr)
	}
	return err.Error()
}

func formatUserError(userErr *config.UserError) string {
	msg := userErr.Message
	if userErr.Context != "" {
		msg += fmt.Sprintf(" (at %s)", userErr.Context)
	}
	if userErr.Suggestion != "" {
		msg += fmt.Sprintf("\n\nSuggestion: %s", userErr.Suggestion)
	}
	if verbose && userErr.Underlying != nil {
		msg += fmt.Sprintf("\n\nTechnical details: %v", userErr.Underlying)
	}
	return msg
}

// printError prints an error message to stderr with proper formatting.
func printError(err error) {
	printErrorTo(os.Stderr, err)
}

// printErrorTo prints an error message to the given writer.
func printErrorTo(w io.Writer, err error) {
	_, _ = fmt.Fprintf(w, "%s %s\n", styles.Error.Render("Error:"), formatError(err))
}

// registerFlagCompletions sets up custom completions for global flags.
func registerFlagCompletions() {
	_ = rootCmd.RegisterFlagCompletionFunc("config", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"yaml", "yml", "json", "toml", "ini"}, cobra.ShellCompDirectiveFilterFileExt
	})

	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{
			"text\tHuman readable lines",
			"json\tOne JSON object per line",
		}, cobra.ShellCompDirectiveNoFileComp
	})

	_ = rootCmd.RegisterFlagCompletionFunc("set", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		keys := make([]string, len(config.Keys))
		for i, key := range config.Keys {
			keys[i] = key + "="
		}
		return keys, cobra.ShellCompDirectiveNoSpace | cobra.ShellCompDirectiveNoFileComp
	})
}
