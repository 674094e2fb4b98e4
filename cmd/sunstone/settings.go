package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/sunstone/internal/domain/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the resolved settings",
	Long: `Settings prints the configuration after applying, lowest first:
defaults, the --config file, environment variables and --set flags.

Environment variables:
  SUNSTONE_HOST, SUNSTONE_PORT, REDIS_HOST, REDIS_PORT,
  SUNSTONE_COOKIE_SECRET, SUNSTONE_LOG_LEVEL, SUNSTONE_LOG_FORMAT,
  SUNSTONE_PLUGIN_PATHS

Examples:
  sunstone settings
  sunstone settings --format toml
  sunstone settings --config sunstone.yaml --init`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSettings(cmd.OutOrStdout())
	},
}

var (
	settingsFormat      string
	settingsInit        bool
	settingsShowSecrets bool
)

func init() {
	rootCmd.AddCommand(settingsCmd)

	settingsCmd.Flags().StringVarP(&settingsFormat, "format", "f", string(config.FormatYAML), "output format (yaml, json, toml, ini)")
	settingsCmd.Flags().BoolVar(&settingsInit, "init", false, "write the resolved settings to --config if the file does not exist")
	settingsCmd.Flags().BoolVar(&settingsShowSecrets, "show-secrets", false, "print the cookie secret instead of a mask")
}

const secretMask = "********"

func runSettings(w io.Writer) error {
	if settingsInit && cfgFile == "" {
		return &config.UserError{
			Code:       config.ErrCodeConfigWrite,
			Message:    "--init needs a settings file",
			Suggestion: "Pass --config, for example --config sunstone.yaml.",
		}
	}

	format, err := parseFormat(settingsFormat)
	if err != nil {
		return err
	}

	overrides, err := settingsOverrides()
	if err != nil {
		return err
	}
	s, err := config.Load(config.LoadOptions{
		Path:           cfgFile,
		Overrides:      overrides,
		WriteIfMissing: settingsInit,
	})
	if err != nil {
		return err
	}

	shown := *s
	if !settingsShowSecrets {
		shown.CookieSecret = secretMask
	}
	data, err := config.Marshal(format, &shown)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func parseFormat(name string) (config.Format, error) {
	switch f := config.Format(name); f {
	case config.FormatYAML, config.FormatJSON, config.FormatTOML, config.FormatINI:
		return f, nil
	default:
		return "", &config.UserError{
			Code:       config.ErrCodeUnsupportedFormat,
			Message:    fmt.Sprintf("unsupported output format %q", name),
			Suggestion: "Use one of: yaml, json, toml, ini",
		}
	}
}
