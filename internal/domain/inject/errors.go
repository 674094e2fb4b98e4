package inject

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is matched by errors.Is for every NotFoundError.
var ErrNotFound = errors.New("dependency not found")

// NotFoundError is returned when a name is not registered.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "dependency " + strconv.Quote(e.Name) + " not found"
}

// Is makes errors.Is(err, ErrNotFound) succeed.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CyclicDependencyError reports a requirement chain that returns to a
// dependency still under construction.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %s", strings.Join(e.Cycle, " -> "))
}

// ProducerError wraps a failure raised by a factory or callback, including a
// recovered panic.
type ProducerError struct {
	Name  string
	Err   error
	Panic bool
}

func (e *ProducerError) Error() string {
	if e.Panic {
		return fmt.Sprintf("producer for %q panicked: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("producer for %q failed: %v", e.Name, e.Err)
}

func (e *ProducerError) Unwrap() error {
	return e.Err
}

// ResolutionError means Name is registered but one of its requirements could
// not be resolved. Err carries the underlying cause.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving %q: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NotInvocableError is returned by Invoke for values and aliases.
type NotInvocableError struct {
	Name string
	Kind Kind
}

func (e *NotInvocableError) Error() string {
	return fmt.Sprintf("dependency %q (%s) has no function to invoke", e.Name, e.Kind)
}

// NotResolvableError is returned by Get for callbacks, which only run through
// Invoke.
type NotResolvableError struct {
	Name string
}

func (e *NotResolvableError) Error() string {
	return fmt.Sprintf("dependency %q is a callback and can only be invoked", e.Name)
}

// WrongTypeError is returned by Resolve when the value has a different type.
type WrongTypeError struct {
	Name string
	Want string
	Got  string
}

func (e *WrongTypeError) Error() string {
	return "dependency " + strconv.Quote(e.Name) + " has type " + e.Got + ", want " + e.Want
}

// IsNotFound reports whether name itself is unregistered. It is false when
// name exists but one of its requirements is missing.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) && !IsResolutionError(err)
}

// IsResolutionError reports whether a registered dependency failed because of
// one of its requirements.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// IsCyclicDependency reports whether err contains a CyclicDependencyError.
func IsCyclicDependency(err error) bool {
	var ce *CyclicDependencyError
	return errors.As(err, &ce)
}

// IsProducerError reports whether err contains a ProducerError.
func IsProducerError(err error) bool {
	var pe *ProducerError
	return errors.As(err, &pe)
}

// IsValidationError reports whether err is a rejected registration.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
