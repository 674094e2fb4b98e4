package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/sunstone/internal/domain/plugin"
)

var planCmd = &cobra.Command{
	Use:   "plan [dirs...]",
	Short: "Show the order plugins would be initialized in",
	Long: `Plan discovers plugin manifests (plugin.yaml) in the given directories,
checks every declared requirement and prints the initialization order.

Directories default to the plugin_paths setting, then ./plugins.

Examples:
  sunstone plan
  sunstone plan ./plugins ./vendor/plugins`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(ctx context.Context, out, errOut io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(errOut, s)

	g, result, err := loadGraph(ctx, logger, pluginPaths(args, s))
	printDiscoveryErrors(errOut, result)
	if err != nil {
		return err
	}

	if err := g.Resolve(); err != nil {
		return graphError(err)
	}
	order, err := g.Prioritize()
	if err != nil {
		return graphError(err)
	}

	return printPlan(out, g, order)
}

func printPlan(w io.Writer, g *plugin.Graph, order []string) error {
	_, _ = fmt.Fprintf(w, "\n%s\n\n", styles.Title.Render("Plugin Plan"))

	if len(order) == 0 {
		_, _ = fmt.Fprintln(w, "No plugins found.")
		_, _ = fmt.Fprintln(w, "")
		_, _ = fmt.Fprintln(w, "Add a directory containing plugin.yaml, for example:")
		_, _ = fmt.Fprintln(w, "  plugins/hello/plugin.yaml")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tNAME\tVERSION\tREQUIRES")
	_, _ = fmt.Fprintln(tw, "─\t────\t───────\t────────")
	for i, name := range order {
		p, _ := g.Get(name)
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, p.Name, p.Version, formatRequires(p))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "\n%s\n", styles.Success.Render(fmt.Sprintf("%d plugin(s) ready", len(order))))
	return nil
}
