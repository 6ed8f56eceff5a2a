package content

import "fmt"

// ValidationError reports a violated field constraint
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFoundError reports an absent or invisible entity
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

// AuthenticationError is returned when credentials or the caller's
// identity cannot be established
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func NewAuthenticationError(message string) error {
	return &AuthenticationError{Message: message}
}

// AuthorizationError is returned when the caller does not own the entity
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

func NewAuthorizationError() error {
	return &AuthorizationError{Message: "you do not have permission to perform this action"}
}

// ConflictError reports a unique constraint the caller cannot resolve
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) error {
	return &ConflictError{Message: message}
}

// DependencyError wraps a failure of the blob store or the delivery channel
type DependencyError struct {
	Dependency string
	Err        error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// AggregateError means a derived counter could not be recomputed and may
// be stale until the next successful recomputation
type AggregateError struct {
	Aggregate string
	ParentID  string
	Err       error
}

func (e *AggregateError) Error() string {
	return fmt.Sprintf("failed to recompute %s for %s: %v", e.Aggregate, e.ParentID, e.Err)
}

func (e *AggregateError) Unwrap() error {
	return e.Err
}
