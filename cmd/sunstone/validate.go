package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/sunstone/internal/domain/config"
	"github.com/felixgeelhaar/sunstone/internal/domain/plugin"
	"github.com/felixgeelhaar/sunstone/internal/ports"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dirs...]",
	Short: "Validate plugin manifests and their requirements",
	Long: `Validate checks every plugin manifest and the requirements between plugins
without initializing anything.

This command is designed for CI pipelines.

Exit codes:
  0 - All manifests valid and the graph resolves
  1 - Invalid manifests or unresolvable requirements

Examples:
  sunstone validate
  sunstone validate ./plugins --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

var validateJSON bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output results as JSON")
}

// validationReport is the outcome of validating a set of plugin directories.
type validationReport struct {
	Valid   []string `json:"valid"`
	Invalid []string `json:"invalid,omitempty"`
	Graph   string   `json:"graph,omitempty"`
	Order   []string `json:"order,omitempty"`
}

func (r *validationReport) ok() bool {
	return len(r.Invalid) == 0 && r.Graph == ""
}

func runValidate(ctx context.Context, out, errOut io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}

	paths := pluginPaths(args, s)
	result, err := discoverPlugins(ctx, paths)
	if err != nil {
		return err
	}

	report := buildValidationReport(result, newLogger(errOut, s))
	if validateJSON {
		if err := outputValidationJSON(out, report); err != nil {
			return err
		}
	} else {
		outputValidationText(out, report)
	}

	if !report.ok() {
		return &config.UserError{
			Code:       config.ErrCodeValidationFailed,
			Message:    fmt.Sprintf("%d problem(s) found", problemCount(report)),
			Suggestion: "Fix the manifests listed above and run 'sunstone validate' again.",
		}
	}
	return nil
}

func buildValidationReport(result *plugin.DiscoveryResult, logger ports.Logger) *validationReport {
	report := &validationReport{Valid: make([]string, 0, len(result.Plugins))}
	for _, de := range result.Errors {
		report.Invalid = append(report.Invalid, de.Error())
	}

	g := plugin.NewGraph(plugin.WithLogger(logger))
	for _, p := range result.Plugins {
		if err := g.Register(p); err != nil {
			report.Invalid = append(report.Invalid, fmt.Sprintf("%s: %v", p.Path, err))
			continue
		}
		report.Valid = append(report.Valid, p.String())
	}

	if err := g.Resolve(); err != nil {
		report.Graph = err.Error()
		return report
	}
	order, err := g.Prioritize()
	if err != nil {
		report.Graph = err.Error()
		return report
	}
	report.Order = order
	return report
}

func problemCount(r *validationReport) int {
	n := len(r.Invalid)
	if r.Graph != "" {
		n++
	}
	return n
}

func outputValidationJSON(w io.Writer, report *validationReport) error {
	output := struct {
		OK bool `json:"ok"`
		*validationReport
	}{OK: report.ok(), validationReport: report}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputValidationText(w io.Writer, report *validationReport) {
	for _, name := range report.Valid {
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.Success.Render("✓"), name)
	}
	for _, msg := range report.Invalid {
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.Error.Render("✗"), msg)
	}
	if report.Graph != "" {
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.Error.Render("✗"), report.Graph)
		return
	}
	if report.ok() {
		_, _ = fmt.Fprintf(w, "\n%s\n", styles.Success.Render("All plugins valid."))
	}
}
