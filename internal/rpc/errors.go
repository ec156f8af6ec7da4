package rpc

import (
	"errors"
	"fmt"
)

// Zend-style JSON-RPC error codes surfaced by getblock.
const (
	codeInvalidParameter = -8
	codeBlockNotFound    = -5
)

// RPCError is the error object returned by the node in a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// AuthError indicates the node rejected the configured credentials.
// It is never retried.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (HTTP %d)", e.Status)
}

// InvalidHeightError indicates the node has no block at the requested height.
// It is never retried.
type InvalidHeightError struct {
	Height uint64
	Cause  *RPCError
}

func (e *InvalidHeightError) Error() string {
	return fmt.Sprintf("invalid height %d: %s", e.Height, e.Cause.Message)
}

func (e *InvalidHeightError) Unwrap() error {
	return e.Cause
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsInvalidHeight reports whether err is (or wraps) an InvalidHeightError.
func IsInvalidHeight(err error) bool {
	var heightErr *InvalidHeightError
	return errors.As(err, &heightErr)
}
