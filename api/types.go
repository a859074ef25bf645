// Package api - Thin HTTP layer over the engine
// The API is only responsible for input ingestion, engine orchestration
// and output serialization. It never performs graph or billing logic.
package api

import (
	"net/http"

	"tokengraph/internal/errors"
)

// CreateModelRequest is the body of POST /models
type CreateModelRequest struct {
	Name  string             `json:"name"`
	Nodes int                `json:"nodes"`
	Edges map[string]float64 `json:"edges"`
}

// ExecuteRequest is the body of POST /models/execute
type ExecuteRequest struct {
	Model string `json:"model"`
	Start string `json:"start"`
	Goal  string `json:"goal"`
}

// UpdateRequestBody is the body of POST /models/update
type UpdateRequestBody struct {
	Model string             `json:"model"`
	Edges map[string]float64 `json:"edges"`
}

// RefillRequest is the body of POST /refill
type RefillRequest struct {
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

// ErrorResponse is the uniform error envelope
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody carries the error kind and message
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusByType maps error kinds to HTTP status codes. The mapping is
// transport policy only; the core never sees status codes.
var statusByType = map[errors.Type]int{
	errors.TypeInvalidGraphSpec:    http.StatusBadRequest,
	errors.TypeEdgeNotFound:        http.StatusBadRequest,
	errors.TypeNoPathFound:         http.StatusNotFound,
	errors.TypeUserNotFound:        http.StatusNotFound,
	errors.TypeModelNotFound:       http.StatusNotFound,
	errors.TypeRequestNotFound:     http.StatusNotFound,
	errors.TypeInsufficientBalance: http.StatusUnauthorized,
	errors.TypeDuplicateRequest:    http.StatusBadRequest,
	errors.TypeRequestResolved:     http.StatusConflict,
	errors.TypeExecutionTimeout:    http.StatusRequestTimeout,
	errors.TypeInvalidDate:         http.StatusBadRequest,
	errors.TypeForbidden:           http.StatusForbidden,
	errors.TypeInvalidInput:        http.StatusBadRequest,
	errors.TypeInternal:            http.StatusInternalServerError,
}

// httpStatus resolves the status code for a domain error
func httpStatus(err error) int {
	if status, ok := statusByType[errors.TypeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
