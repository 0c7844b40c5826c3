package graphql

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCircuitOpen is returned when an operation failed too often recently
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrInvalidDocument is returned for documents that do not parse or do
	// not hold exactly one named operation
	ErrInvalidDocument = errors.New("invalid graphql document")

	// ErrUnexpectedStatus is returned for non-200 responses
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrNoData is returned when a response carries neither data nor errors
	ErrNoData = errors.New("graphql response has no data")
)

// Location points into the query document
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is one entry of a response's errors array
type GraphQLError struct {
	Extensions map[string]any `json:"extensions,omitempty"`
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Locations  []Location     `json:"locations,omitempty"`
}

// ResponseError carries the errors the server reported for an operation
type ResponseError struct {
	Operation string
	Errors    []GraphQLError
}

func (e *ResponseError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return fmt.Sprintf("graphql %s failed: %s", e.Operation, strings.Join(msgs, "; "))
}

// Code returns the extensions.code of the first error, if any
func (e *ResponseError) Code() string {
	for _, ge := range e.Errors {
		if code, ok := ge.Extensions["code"].(string); ok {
			return code
		}
	}
	return ""
}

// IsNotFound reports whether the server answered NOT_FOUND
func IsNotFound(err error) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.Code() == "NOT_FOUND"
}
