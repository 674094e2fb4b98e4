package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/sunstone/internal/domain/config"
	"github.com/felixgeelhaar/sunstone/internal/domain/plugin"
	"github.com/felixgeelhaar/sunstone/internal/ports"
)

// defaultPluginDir is searched when neither arguments nor settings name any
// plugin paths.
const defaultPluginDir = "plugins"

// pluginPaths picks search paths: arguments first, then settings.
func pluginPaths(args []string, s *config.Settings) []string {
	if len(args) > 0 {
		return args
	}
	if len(s.PluginPaths) > 0 {
		return s.PluginPaths
	}
	return []string{defaultPluginDir}
}

// discoverPlugins loads every manifest under paths.
func discoverPlugins(ctx context.Context, paths []string) (*plugin.DiscoveryResult, error) {
	result, err := plugin.NewLoader(paths...).Discover(ctx)
	if err != nil {
		return nil, &config.UserError{
			Code:       config.ErrCodePluginDiscovery,
			Message:    "plugin discovery interrupted",
			Context:    strings.Join(paths, ", "),
			Underlying: err,
		}
	}
	return result, nil
}

// loadGraph discovers manifests under paths and registers them in a graph.
// Discovery errors are returned in the result, not as an error.
func loadGraph(ctx context.Context, logger ports.Logger, paths []string) (*plugin.Graph, *plugin.DiscoveryResult, error) {
	result, err := discoverPlugins(ctx, paths)
	if err != nil {
		return nil, nil, err
	}

	g := plugin.NewGraph(plugin.WithLogger(logger))
	for _, p := range result.Plugins {
		if err := g.Register(p); err != nil {
			return nil, result, duplicateError(p, err)
		}
	}
	return g, result, nil
}

func duplicateError(p *plugin.Plugin, err error) error {
	return &config.UserError{
		Code:       config.ErrCodePluginDiscovery,
		Message:    err.Error(),
		Context:    p.Path,
		Suggestion: "Plugin names must be unique across all search paths. Rename or remove one of them.",
		Underlying: err,
	}
}

// graphError turns resolver errors into actionable user errors.
func graphError(err error) error {
	ue := &config.UserError{
		Code:       config.ErrCodeGraphUnresolved,
		Message:    err.Error(),
		Underlying: err,
	}

	var missing *plugin.MissingDependencyError
	var mismatch *plugin.VersionMismatchError
	var cycle *plugin.UnresolvableGraphError

	switch {
	case errors.As(err, &missing):
		ue.Context = missing.Plugin
		ue.Suggestion = fmt.Sprintf("Add plugin %q to a search path, or remove it from the requires of %q.",
			missing.Dependency, missing.Plugin)
	case errors.As(err, &mismatch) && mismatch.Malformed:
		ue.Context = mismatch.Plugin
		ue.Suggestion = fmt.Sprintf("Fix the range %q, for example ^1.2.0 or >=1.0.0 <2.0.0.", mismatch.Range)
	case errors.As(err, &mismatch):
		ue.Context = mismatch.Plugin
		ue.Suggestion = fmt.Sprintf("Upgrade %q to a version matching %s, or relax the range.",
			mismatch.Dependency, mismatch.Range)
	case errors.As(err, &cycle):
		ue.Suggestion = fmt.Sprintf("Remove the circular requirement among: %s.", strings.Join(cycle.Remaining, ", "))
	}
	return ue
}

// isGraphError reports whether err comes from resolving or ordering plugins.
func isGraphError(err error) bool {
	return plugin.IsMissingDependency(err) ||
		plugin.IsVersionMismatch(err) ||
		plugin.IsUnresolvableGraph(err)
}

// printDiscoveryErrors writes one warning line per manifest that failed to
// load.
func printDiscoveryErrors(w io.Writer, result *plugin.DiscoveryResult) {
	if result == nil {
		return
	}
	for _, de := range result.Errors {
		_, _ = fmt.Fprintf(w, "%s %s\n", styles.Warning.Render("warning:"), de.Error())
	}
}

// formatRequires renders a plugin's requirements as "peer range" pairs.
func formatRequires(p *plugin.Plugin) string {
	if len(p.Requires) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(p.Requires))
	for _, peer := range p.Peers() {
		rng := p.Requires[peer]
		if rng == "" {
			rng = "*"
		}
		parts = append(parts, peer+" "+rng)
	}
	return strings.Join(parts, ", ")
}
