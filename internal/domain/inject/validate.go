package inject

import (
	"fmt"
	"strings"
)

// ErrorCode is a stable identifier for a descriptor validation failure.
type ErrorCode string

// Validation error codes.
const (
	CodeNameRequired        ErrorCode = "NAME_REQUIRED"
	CodeKindRequired        ErrorCode = "KIND_REQUIRED"
	CodeOwnerRequired       ErrorCode = "OWNER_REQUIRED"
	CodeProducerRequired    ErrorCode = "PRODUCER_REQUIRED"
	CodeProducerNotCallable ErrorCode = "PRODUCER_NOT_CALLABLE"
	CodeAliasTargetRequired ErrorCode = "ALIAS_TARGET_REQUIRED"
	CodeAliasSelf           ErrorCode = "ALIAS_SELF"
	CodeRequiresEmptyName   ErrorCode = "REQUIRES_EMPTY_NAME"
	CodeRequiresSelf        ErrorCode = "REQUIRES_SELF"
)

// FieldError is one independent validation failure.
type FieldError struct {
	Field   string
	Code    ErrorCode
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationResult collects every failure found in a descriptor.
type ValidationResult struct {
	Errors []FieldError
}

// Valid reports whether no failures were found.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Has reports whether a failure with the given code was found.
func (r ValidationResult) Has(code ErrorCode) bool {
	for _, e := range r.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func (r *ValidationResult) add(field string, code ErrorCode, format string, args ...any) {
	r.Errors = append(r.Errors, FieldError{
		Field:   field,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	})
}

// Validate checks a descriptor without registering it. It never panics and
// reports all failures, not just the first.
func Validate(d Descriptor) ValidationResult {
	var r ValidationResult

	name := strings.TrimSpace(d.Name)
	if name == "" {
		r.add("name", CodeNameRequired, "name is required")
	}
	if strings.TrimSpace(string(d.Kind)) == "" {
		r.add("kind", CodeKindRequired, "kind is required (e.g. %q, %q)", KindFactory, KindValue)
	}
	if strings.TrimSpace(d.Owner) == "" {
		r.add("owner", CodeOwnerRequired, "owner is required (the registering plugin)")
	}

	switch p := d.Producer.(type) {
	case nil:
		r.add("producer", CodeProducerRequired, "a factory, value, alias or callback is required")
	case Factory:
		if p.Fn == nil {
			r.add("producer", CodeProducerNotCallable, "factory function is nil")
		}
	case Callback:
		if p.Fn == nil {
			r.add("producer", CodeProducerNotCallable, "callback function is nil")
		}
	case Alias:
		target := strings.TrimSpace(p.Target)
		if target == "" {
			r.add("producer", CodeAliasTargetRequired, "alias target is required")
		} else if name != "" && target == name {
			r.add("producer", CodeAliasSelf, "alias %q cannot target itself", name)
		}
	case Value:
	}

	if _, isAlias := d.Producer.(Alias); d.Producer != nil && !isAlias {
		for i, req := range d.Producer.requirements() {
			field := fmt.Sprintf("requires[%d]", i)
			switch strings.TrimSpace(req) {
			case "":
				r.add(field, CodeRequiresEmptyName, "dependency name is empty")
			case name:
				r.add(field, CodeRequiresSelf, "%q cannot require itself", name)
			}
		}
	}

	return r
}

// ValidationError is returned by Register when a descriptor is rejected.
type ValidationError struct {
	Name   string
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	label := e.Name
	if label == "" {
		label = "<unnamed>"
	}
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("invalid dependency %q: %s", label, strings.Join(msgs, "; "))
}
