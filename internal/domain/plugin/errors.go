package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling.
var (
	// ErrNilPlugin indicates a nil plugin was provided.
	ErrNilPlugin = errors.New("plugin cannot be nil")
	// ErrEmptyPluginName indicates a plugin name was empty.
	ErrEmptyPluginName = errors.New("plugin name cannot be empty")
	// ErrManifestNotFound indicates plugin.yaml was not found.
	ErrManifestNotFound = errors.New("plugin.yaml not found")
	// ErrNotResolved indicates Prioritize was called without a successful
	// Resolve since the last registration.
	ErrNotResolved = errors.New("plugin graph has not been resolved")
)

// PluginExistsError indicates a plugin is already registered.
//
//nolint:revive // plugin.PluginExistsError reads better at call sites than plugin.ExistsError
type PluginExistsError struct {
	Name string
}

func (e *PluginExistsError) Error() string {
	return fmt.Sprintf("plugin %q already registered", e.Name)
}

// MissingDependencyError indicates a plugin requires a peer that is not
// registered.
type MissingDependencyError struct {
	Plugin     string
	Dependency string
	Range      string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("plugin %q requires %q (%s), which is not registered", e.Plugin, e.Dependency, e.Range)
}

// VersionMismatchError indicates a peer's version does not satisfy the
// required range. Malformed is set when the version or range cannot be parsed.
type VersionMismatchError struct {
	Plugin     string
	Dependency string
	Version    string
	Range      string
	Malformed  bool
	Err        error
}

func (e *VersionMismatchError) Error() string {
	if e.Malformed {
		return fmt.Sprintf("plugin %q requires %q %s, but version %q cannot be checked: %v",
			e.Plugin, e.Dependency, e.Range, e.Version, e.Err)
	}
	return fmt.Sprintf("plugin %q requires %q %s, found %s", e.Plugin, e.Dependency, e.Range, e.Version)
}

func (e *VersionMismatchError) Unwrap() error {
	return e.Err
}

// UnresolvableGraphError indicates no initialization order exists, typically
// because of a dependency cycle among Remaining.
type UnresolvableGraphError struct {
	Remaining []string
}

func (e *UnresolvableGraphError) Error() string {
	return fmt.Sprintf("cannot order plugins, unresolvable dependencies among: %s", strings.Join(e.Remaining, ", "))
}

// LifecycleError indicates an event that is not allowed in the plugin's
// current lifecycle state.
type LifecycleError struct {
	Plugin string
	State  State
	Event  string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("plugin %q cannot handle %s while %s", e.Plugin, e.Event, e.State)
}

// ValidationError collects multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// Add adds an error message to the collection.
func (e *ValidationError) Add(msg string) {
	e.Errors = append(e.Errors, msg)
}

// Addf adds a formatted error message to the collection.
func (e *ValidationError) Addf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are validation errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// DiscoveryError represents an error loading a specific plugin.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("loading plugin at %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// DiscoveryResult captures both successful loads and errors.
type DiscoveryResult struct {
	Plugins []*Plugin
	Errors  []DiscoveryError
}

// HasErrors returns true if there were errors during discovery.
func (r *DiscoveryResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ManifestSizeError indicates a manifest exceeds the size limit.
type ManifestSizeError struct {
	Size  int64
	Limit int64
}

func (e *ManifestSizeError) Error() string {
	return fmt.Sprintf("manifest size %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

// IsPluginExists returns true if the error indicates a plugin already exists.
func IsPluginExists(err error) bool {
	var existsErr *PluginExistsError
	return errors.As(err, &existsErr)
}

// IsMissingDependency returns true if a required peer is not registered.
func IsMissingDependency(err error) bool {
	var missingErr *MissingDependencyError
	return errors.As(err, &missingErr)
}

// IsVersionMismatch returns true if a peer's version does not satisfy a range.
func IsVersionMismatch(err error) bool {
	var mismatchErr *VersionMismatchError
	return errors.As(err, &mismatchErr)
}

// IsUnresolvableGraph returns true if no initialization order exists.
func IsUnresolvableGraph(err error) bool {
	var graphErr *UnresolvableGraphError
	return errors.As(err, &graphErr)
}

// IsLifecycleError returns true if the error is an illegal lifecycle event.
func IsLifecycleError(err error) bool {
	var lifecycleErr *LifecycleError
	return errors.As(err, &lifecycleErr)
}

// IsValidationError returns true if the error is a validation error.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsManifestSizeError returns true if the error is a manifest size violation.
func IsManifestSizeError(err error) bool {
	var sizeErr *ManifestSizeError
	return errors.As(err, &sizeErr)
}
