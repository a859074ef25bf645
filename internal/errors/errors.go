// Package errors provides error handling utilities.
package errors

import (
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeInvalidGraphSpec indicates a malformed node/edge specification
	TypeInvalidGraphSpec Type = "INVALID_GRAPH_SPEC"

	// TypeEdgeNotFound indicates a referenced edge is absent from a model
	TypeEdgeNotFound Type = "EDGE_NOT_FOUND"

	// TypeNoPathFound indicates start and goal are disconnected or unknown
	TypeNoPathFound Type = "NO_PATH_FOUND"

	// TypeUserNotFound indicates a referenced user does not exist
	TypeUserNotFound Type = "USER_NOT_FOUND"

	// TypeModelNotFound indicates a referenced model does not exist
	TypeModelNotFound Type = "MODEL_NOT_FOUND"

	// TypeRequestNotFound indicates a referenced update request does not exist
	TypeRequestNotFound Type = "REQUEST_NOT_FOUND"

	// TypeInsufficientBalance indicates a token balance below the required cost
	TypeInsufficientBalance Type = "INSUFFICIENT_BALANCE"

	// TypeDuplicateRequest indicates a pending update already exists for a model
	TypeDuplicateRequest Type = "DUPLICATE_REQUEST"

	// TypeRequestResolved indicates an update request is already terminal
	TypeRequestResolved Type = "REQUEST_RESOLVED"

	// TypeExecutionTimeout indicates a caller-imposed deadline was exceeded
	TypeExecutionTimeout Type = "EXECUTION_TIMEOUT"

	// TypeInvalidDate indicates a malformed date bound on a history query
	TypeInvalidDate Type = "INVALID_DATE"

	// TypeForbidden indicates the requester lacks the required role
	TypeForbidden Type = "FORBIDDEN"

	// TypeInvalidInput indicates an input validation error
	TypeInvalidInput Type = "INVALID_INPUT"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == t
	}
	return false
}

// TypeOf returns the type of a domain error, or TypeInternal for others
func TypeOf(err error) Type {
	if e, ok := err.(*Error); ok {
		return e.Type
	}
	return TypeInternal
}

// InvalidGraphSpec creates a graph specification error
func InvalidGraphSpec(format string, args ...interface{}) *Error {
	return Newf(TypeInvalidGraphSpec, format, args...)
}

// EdgeNotFound creates an edge lookup error
func EdgeNotFound(edgeKey string) *Error {
	return Newf(TypeEdgeNotFound, "edge not found: %s", edgeKey)
}

// NoPathFound creates a path search error
func NoPathFound(start, goal string) *Error {
	return Newf(TypeNoPathFound, "no path between %s and %s", start, goal)
}

// UserNotFound creates a user lookup error
func UserNotFound(email string) *Error {
	return Newf(TypeUserNotFound, "user not found: %s", email)
}

// ModelNotFound creates a model lookup error
func ModelNotFound(ref string) *Error {
	return Newf(TypeModelNotFound, "model not found: %s", ref)
}

// RequestNotFound creates an update request lookup error
func RequestNotFound(id string) *Error {
	return Newf(TypeRequestNotFound, "update request not found: %s", id)
}

// InsufficientBalance creates a balance error
func InsufficientBalance(email string) *Error {
	return Newf(TypeInsufficientBalance, "insufficient token balance for user %s", email)
}

// DuplicateRequest creates a duplicate pending request error
func DuplicateRequest(modelID string) *Error {
	return Newf(TypeDuplicateRequest, "a pending update request already exists for model %s", modelID)
}

// RequestResolved creates an already-terminal request error
func RequestResolved(id string) *Error {
	return Newf(TypeRequestResolved, "update request already resolved: %s", id)
}

// Forbidden creates an authorization error
func Forbidden(message string) *Error {
	return New(TypeForbidden, message)
}

// InvalidInput creates an input validation error
func InvalidInput(message string) *Error {
	return New(TypeInvalidInput, message)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
