package typedb

import (
	"fmt"
	"strings"
)

// NullLiteralError reports an absent value reaching the literal formatter.
// TypeQL has no null literal; absent values must be routed through clause
// elision instead.
type NullLiteralError struct {
	Key string
}

func (e *NullLiteralError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("cannot format nil value for %q: typeql has no null literal", e.Key)
	}
	return "cannot format nil value: typeql has no null literal"
}

// DuplicatePlaceholderError reports placeholder names appearing more than once
// in a single template.
type DuplicatePlaceholderError struct {
	Names []string
}

func (e *DuplicatePlaceholderError) Error() string {
	return fmt.Sprintf("duplicate placeholders in template: %s", strings.Join(e.Names, ", "))
}

// UnusedParameterError reports supplied parameters without a matching placeholder.
type UnusedParameterError struct {
	Names []string
}

func (e *UnusedParameterError) Error() string {
	return fmt.Sprintf("parameters without placeholder: %s", strings.Join(e.Names, ", "))
}

// MissingParameterError reports placeholders without a supplied parameter.
type MissingParameterError struct {
	Names []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("placeholders without parameter: %s", strings.Join(e.Names, ", "))
}

// NullInReadError reports absent values in a strict (read) template build.
type NullInReadError struct {
	Names []string
}

func (e *NullInReadError) Error() string {
	return fmt.Sprintf("nil values are not allowed in read templates (keys: %s); match absence with a negation pattern instead",
		strings.Join(e.Names, ", "))
}

// AuthBootstrapError reports that neither the rotated nor the default
// credentials were accepted during the first connect.
type AuthBootstrapError struct {
	Err error
}

func (e *AuthBootstrapError) Error() string {
	return fmt.Sprintf("credential bootstrap failed with both rotated and default passwords: %v", e.Err)
}

func (e *AuthBootstrapError) Unwrap() error { return e.Err }

// ConnectionExhaustedError reports that all connection attempts failed.
type ConnectionExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ConnectionExhaustedError) Error() string {
	return fmt.Sprintf("connection failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectionExhaustedError) Unwrap() error { return e.Err }

// TransactionError wraps a failure inside a schema/read/write transaction.
type TransactionError struct {
	Kind TransactionKind
	Err  error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s transaction failed: %v", e.Kind, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
