package errors

import (
	"errors"
	"fmt"
	"time"
)

// Type classifies a service error by its failure domain.
type Type string

// Service error types produced by the core and its services.
const (
	TypeNetwork        Type = "network"
	TypeTimeout        Type = "timeout"
	TypeValidation     Type = "validation"
	TypeAuthentication Type = "authentication"
	TypePermission     Type = "permission"
	TypeNotFound       Type = "not_found"
	TypeInternal       Type = "internal"
	TypeExternal       Type = "external"
)

// Class separates errors the caller can retry from errors the caller
// must fix in their registration or configuration code.
type Class int

const (
	// ClassOperational represents runtime errors from service operations.
	// These may be transient and are candidates for retry by the caller.
	ClassOperational Class = iota
	// ClassConfiguration represents fatal wiring errors: duplicate
	// registrations, missing required dependencies, dependency cycles.
	// Retrying never helps; the registration code must change.
	ClassConfiguration
)

// String returns the string representation of Class
func (c Class) String() string {
	switch c {
	case ClassOperational:
		return "operational"
	case ClassConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Registry configuration errors
	ErrAlreadyRegistered   = errors.New("service already registered")
	ErrNotRegistered       = errors.New("service not registered")
	ErrMissingDependency   = errors.New("required dependency not registered")
	ErrCircularDependency  = errors.New("circular dependency detected")
	ErrHasDependents       = errors.New("service has registered dependents")
	ErrInvalidRegistration = errors.New("invalid registration")

	// Service lifecycle errors
	ErrDisposed         = errors.New("service is disposed")
	ErrNotInitialized   = errors.New("service not initialized")
	ErrInitializeFailed = errors.New("service initialization failed")
	ErrDisposeFailed    = errors.New("service disposal failed")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")
)

// ServiceError is the standard error carried by every failure surfaced
// from the core. It preserves the cause chain through Unwrap and keeps
// the original error available in Details under "original_error".
type ServiceError struct {
	Type      Type
	Class     Class
	Message   string
	Code      string
	Details   map[string]any
	Timestamp time.Time
	Err       error
}

// Error implements the error interface
func (se *ServiceError) Error() string {
	if se.Err != nil && se.Message != "" {
		return fmt.Sprintf("%s: %v", se.Message, se.Err)
	}
	if se.Message != "" {
		return se.Message
	}
	if se.Err != nil {
		return se.Err.Error()
	}
	return string(se.Type)
}

// Unwrap returns the underlying error
func (se *ServiceError) Unwrap() error {
	return se.Err
}

// WithCode attaches a machine-readable code and returns the error.
func (se *ServiceError) WithCode(code string) *ServiceError {
	se.Code = code
	return se
}

// WithDetail attaches a structured detail and returns the error.
func (se *ServiceError) WithDetail(key string, value any) *ServiceError {
	if se.Details == nil {
		se.Details = make(map[string]any)
	}
	se.Details[key] = value
	return se
}

// New creates a new operational service error of the given type.
func New(t Type, message string) *ServiceError {
	return &ServiceError{
		Type:      t,
		Class:     ClassOperational,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a new operational service error with a formatted message.
func Newf(t Type, format string, args ...any) *ServiceError {
	return New(t, fmt.Sprintf(format, args...))
}

// NewConfiguration creates a new configuration error. Configuration
// errors are always validation-typed and never retryable.
func NewConfiguration(message string) *ServiceError {
	se := New(TypeValidation, message)
	se.Class = ClassConfiguration
	return se
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// newWrapped builds a ServiceError around err with the standard context
// format, recording the original error under Details["original_error"].
func newWrapped(t Type, class Class, err error, component, method, action string) *ServiceError {
	se := &ServiceError{
		Type:      t,
		Class:     class,
		Message:   fmt.Sprintf("%s.%s: %s failed", component, method, action),
		Timestamp: time.Now(),
		Err:       err,
		Details: map[string]any{
			"original_error": err.Error(),
			"component":      component,
			"operation":      method,
		},
	}
	return se
}

// WrapTyped wraps an error as an operational service error of the given type.
func WrapTyped(err error, t Type, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newWrapped(t, ClassOperational, err, component, method, action)
}

// WrapInternal wraps an error as an internal service error. If the cause
// already carries a service error type, that type is preserved so the
// original classification survives re-wrapping at package boundaries.
func WrapInternal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	t := TypeInternal
	class := ClassOperational
	var se *ServiceError
	if errors.As(err, &se) {
		t = se.Type
		class = se.Class
	}
	return newWrapped(t, class, err, component, method, action)
}

// WrapConfiguration wraps an error as a fatal configuration error.
func WrapConfiguration(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return newWrapped(TypeValidation, ClassConfiguration, err, component, method, action)
}

// IsConfiguration reports whether err is a fatal configuration error.
// Callers use this to decide between "fix my registration code" and
// "retry the operation".
func IsConfiguration(err error) bool {
	if err == nil {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Class == ClassConfiguration
	}
	return errors.Is(err, ErrAlreadyRegistered) ||
		errors.Is(err, ErrNotRegistered) ||
		errors.Is(err, ErrMissingDependency) ||
		errors.Is(err, ErrCircularDependency) ||
		errors.Is(err, ErrHasDependents) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig)
}

// IsType reports whether err carries the given service error type.
func IsType(err error, t Type) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Type == t
	}
	return false
}

// TypeOf returns the service error type of err, or TypeInternal for
// errors that carry no classification.
func TypeOf(err error) Type {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Type
	}
	return TypeInternal
}
