package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/felixgeelhaar/sunstone/internal/app"
	"github.com/felixgeelhaar/sunstone/internal/domain/config"
	"github.com/felixgeelhaar/sunstone/internal/domain/inject"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [dirs...]",
	Short: "Bootstrap the host and list registered dependencies",
	Long: `Inspect bootstraps a host with the builtin core plugin and every discovered
plugin, then lists the registered dependencies grouped by kind.

Plugins are initialized but never started.

Examples:
  sunstone inspect
  sunstone inspect --kind factory
  sunstone inspect --owner core`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

var (
	inspectKind  string
	inspectOwner string
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVar(&inspectKind, "kind", "", "only show dependencies of this kind")
	inspectCmd.Flags().StringVar(&inspectOwner, "owner", "", "only show dependencies registered by this plugin")
}

func runInspect(ctx context.Context, out, errOut io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(errOut, s)

	host := app.New(app.WithLogger(logger))
	if err := host.UseCore(s); err != nil {
		return err
	}

	result, err := discoverPlugins(ctx, pluginPaths(args, s))
	if err != nil {
		return err
	}
	printDiscoveryErrors(errOut, result)
	for _, p := range result.Plugins {
		if err := host.Add(p); err != nil {
			return duplicateError(p, err)
		}
	}

	if err := host.Bootstrap(ctx); err != nil {
		if isGraphError(err) {
			return graphError(err)
		}
		return &config.UserError{
			Code:       config.ErrCodeBootstrapFailed,
			Message:    "bootstrap failed",
			Suggestion: "Run with --verbose for the full plugin log.",
			Underlying: err,
		}
	}

	view := host.Injector().Filter(inject.Match(inject.Fields{
		Kind:  inject.Kind(inspectKind),
		Owner: inspectOwner,
	}))
	return printDescriptors(out, host.Injector(), view)
}

// printDescriptors lists descriptors grouped by kind, kinds in order of first
// registration.
func printDescriptors(w io.Writer, inj *inject.Injector, view *inject.View) error {
	if view.Len() == 0 {
		_, _ = fmt.Fprintln(w, "No dependencies match.")
		return nil
	}

	var kinds []inject.Kind
	groups := make(map[inject.Kind][]inject.Descriptor)
	for _, d := range view.Descriptors() {
		if _, seen := groups[d.Kind]; !seen {
			kinds = append(kinds, d.Kind)
		}
		groups[d.Kind] = append(groups[d.Kind], d)
	}

	caser := cases.Title(language.English)
	for _, kind := range kinds {
		descs := groups[kind]
		heading := fmt.Sprintf("%s (%d)", caser.String(string(kind)), len(descs))
		_, _ = fmt.Fprintf(w, "\n%s\n", styles.Heading.Render(heading))

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, d := range descs {
			requires := "-"
			if reqs := d.Requires(); len(reqs) > 0 {
				requires = fmt.Sprint(reqs)
			}
			status := styles.Muted.Render("lazy")
			if inj.Resolved(d.Name) {
				status = styles.Success.Render("resolved")
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", d.Name, d.Owner, requires, status)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
