package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/sunstone/internal/domain/config"
	"github.com/felixgeelhaar/sunstone/internal/domain/plugin"
)

var graphCmd = &cobra.Command{
	Use:   "graph <plugin> [dirs...]",
	Short: "Show what a plugin requires and what requires it",
	Long: `Graph resolves the discovered plugins and prints the direct dependencies
and dependents of one plugin.

Examples:
  sunstone graph server
  sunstone graph server ./plugins`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGraph(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(ctx context.Context, out, errOut io.Writer, name string, dirs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	logger := newLogger(errOut, s)

	paths := pluginPaths(dirs, s)
	g, result, err := loadGraph(ctx, logger, paths)
	printDiscoveryErrors(errOut, result)
	if err != nil {
		return err
	}

	p, ok := g.Get(name)
	if !ok {
		return &config.UserError{
			Code:       config.ErrCodePluginNotFound,
			Message:    fmt.Sprintf("plugin %q not found", name),
			Context:    strings.Join(paths, ", "),
			Suggestion: "Run 'sunstone plan' to list the discovered plugins.",
		}
	}

	if err := g.Resolve(); err != nil {
		return graphError(err)
	}

	printGraph(out, g, p)
	return nil
}

func printGraph(w io.Writer, g *plugin.Graph, p *plugin.Plugin) {
	_, _ = fmt.Fprintf(w, "\n%s\n", styles.Title.Render(p.String()))
	if p.Description != "" {
		_, _ = fmt.Fprintf(w, "%s\n", styles.Muted.Render(p.Description))
	}

	section := func(title string, names []string, describe func(string) string) {
		_, _ = fmt.Fprintf(w, "\n%s\n", styles.Heading.Render(title))
		if len(names) == 0 {
			_, _ = fmt.Fprintln(w, "  (none)")
			return
		}
		for _, n := range names {
			_, _ = fmt.Fprintf(w, "  %s\n", describe(n))
		}
	}

	section("Dependencies", g.Dependencies(p.Name), func(n string) string {
		dep, _ := g.Get(n)
		return fmt.Sprintf("%s  %s", dep.String(), styles.Muted.Render("requires "+p.Requires[n]))
	})
	section("Dependents", g.Dependents(p.Name), func(n string) string {
		dep, _ := g.Get(n)
		return dep.String()
	})
}
