package github

import (
	"errors"
	"fmt"
)

// ErrorKind classifies API failures so callers can react per record
// without parsing error strings.
type ErrorKind string

const (
	// KindTransport covers network and auth failures reaching the API.
	KindTransport ErrorKind = "transport_error"
	// KindGraphQL covers requests the API accepted but rejected with an
	// errors array (bad id, permissions, already-resolved thread).
	KindGraphQL ErrorKind = "graphql_error"
	// KindNotFound covers absent resources, e.g. a deleted comment.
	KindNotFound ErrorKind = "not_found"
)

// APIError carries the failure class plus the platform's message verbatim.
type APIError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *APIError) Unwrap() error { return e.Err }

func transportErr(err error) *APIError {
	return &APIError{Kind: KindTransport, Err: err}
}

func graphqlErr(message string) *APIError {
	return &APIError{Kind: KindGraphQL, Message: message}
}

func notFoundErr(message string) *APIError {
	return &APIError{Kind: KindNotFound, Message: message}
}

// KindOf returns the error kind for err, defaulting to KindTransport for
// anything that is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransport
}

// IsNotFound reports whether err represents an absent resource.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
