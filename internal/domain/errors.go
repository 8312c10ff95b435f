package domain

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrConstraintViolation = errors.New("constraint violation")
)

const AuthenticationErrorMessage = "You must be logged in to view this content"

// ActionError is an error whose code and message are safe to show callers.
type ActionError struct {
	Code    int
	Message string
}

func (e *ActionError) Error() string {
	return e.Message
}

func NewAuthenticationError() *ActionError {
	return &ActionError{Code: http.StatusUnauthorized, Message: AuthenticationErrorMessage}
}

func NewForbiddenError() *ActionError {
	return &ActionError{Code: http.StatusForbidden, Message: "You are not allowed to perform this action"}
}

func NewRateLimitedError() *ActionError {
	return &ActionError{Code: http.StatusTooManyRequests, Message: "Too many requests"}
}

// IsAuthenticationError reports whether err is a 401 ActionError.
func IsAuthenticationError(err error) bool {
	var ae *ActionError
	return errors.As(err, &ae) && ae.Code == http.StatusUnauthorized
}

// ValidationError carries one message per offending field.
type ValidationError struct {
	Entity string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	prefix := "validation failed"
	if e.Entity != "" {
		prefix = e.Entity + " " + prefix
	}
	return prefix + ": " + strings.Join(parts, "; ")
}

// Add records msg for field unless one is already present.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// OrNil returns e when it holds at least one field error.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
