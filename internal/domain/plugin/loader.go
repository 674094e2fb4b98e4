package plugin

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ManifestFile is the manifest name looked up in each plugin directory.
	ManifestFile = "plugin.yaml"

	// maxManifestSize limits manifest file size to prevent memory exhaustion (256KB).
	maxManifestSize int64 = 256 * 1024
)

// Discoverer finds plugins in configured locations.
type Discoverer interface {
	// Discover finds all plugins in configured locations.
	// The context can be used for cancellation.
	Discover(ctx context.Context) (*DiscoveryResult, error)

	// LoadFromPath loads a plugin from a specific path.
	LoadFromPath(path string) (*Plugin, error)
}

// Loader discovers plugin manifests on the filesystem. Each search path is
// scanned one level deep for directories holding a plugin.yaml.
type Loader struct {
	// SearchPaths are directories to search for plugins
	SearchPaths []string
}

// Ensure Loader implements Discoverer.
var _ Discoverer = (*Loader)(nil)

// NewLoader creates a loader over the given search paths.
func NewLoader(paths ...string) *Loader {
	return &Loader{SearchPaths: paths}
}

// WithSearchPaths sets custom search paths.
func (l *Loader) WithSearchPaths(paths ...string) *Loader {
	l.SearchPaths = paths
	return l
}

// Discover finds all plugins in search paths.
// Returns a DiscoveryResult containing both successfully loaded plugins and any errors.
func (l *Loader) Discover(ctx context.Context) (*DiscoveryResult, error) {
	result := &DiscoveryResult{
		Plugins: make([]*Plugin, 0),
		Errors:  make([]DiscoveryError, 0),
	}

	for _, searchPath := range l.SearchPaths {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		plugins, errs := l.discoverInPath(ctx, searchPath)
		result.Plugins = append(result.Plugins, plugins...)
		result.Errors = append(result.Errors, errs...)
	}

	return result, nil
}

// discoverInPath loads every plugin directory directly under searchPath, in
// directory-name order. A search path that is itself a plugin directory is
// loaded as one plugin.
func (l *Loader) discoverInPath(ctx context.Context, searchPath string) ([]*Plugin, []DiscoveryError) {
	if _, err := os.Stat(filepath.Join(searchPath, ManifestFile)); err == nil {
		p, err := l.LoadFromPath(searchPath)
		if err != nil {
			return nil, []DiscoveryError{{Path: searchPath, Err: err}}
		}
		return []*Plugin{p}, nil
	}

	entries, err := os.ReadDir(searchPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []DiscoveryError{{Path: searchPath, Err: err}}
	}

	plugins := make([]*Plugin, 0, len(entries))
	errs := make([]DiscoveryError, 0)

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return plugins, errs
		default:
		}

		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(searchPath, entry.Name())
		p, err := l.LoadFromPath(pluginPath)
		if err != nil {
			if err == ErrManifestNotFound {
				continue
			}
			errs = append(errs, DiscoveryError{Path: pluginPath, Err: err})
			continue
		}
		plugins = append(plugins, p)
	}

	return plugins, errs
}

// LoadFromPath loads a plugin from the plugin.yaml in dir.
func (l *Loader) LoadFromPath(dir string) (*Plugin, error) {
	manifest, err := ReadManifest(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	return FromManifest(*manifest, dir), nil
}

// ReadManifest reads and validates a single manifest file.
func ReadManifest(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, ErrManifestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", filepath.Base(path), err)
	}

	if info.Size() > maxManifestSize {
		return nil, &ManifestSizeError{
			Size:  info.Size(),
			Limit: maxManifestSize,
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxManifestSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	if err := ValidateManifest(&manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return &manifest, nil
}
