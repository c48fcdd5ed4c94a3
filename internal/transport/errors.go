// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents a failed round trip to the backend.
type ClientError struct {
	Type    ErrorType
	Status  int
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg += " (HTTP " + strconv.Itoa(e.Status) + ")"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same Type, so the sentinels below work
// with errors.Is.
func (e *ClientError) Is(target error) bool {
	var t *ClientError
	if !errors.As(target, &t) {
		return false
	}
	return t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeBadRequest
	ErrTypeForbidden
	ErrTypeServer
	ErrTypeRateLimited
	ErrTypeInvalidResponse
)

// String returns a short name for logs.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeUnreachable:
		return "unreachable"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeBadRequest:
		return "bad_request"
	case ErrTypeForbidden:
		return "forbidden"
	case ErrTypeServer:
		return "server"
	case ErrTypeRateLimited:
		return "rate_limited"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrUnreachable     = &ClientError{Type: ErrTypeUnreachable, Message: "server unreachable"}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrBadRequest      = &ClientError{Type: ErrTypeBadRequest, Message: "request rejected"}
	ErrForbidden       = &ClientError{Type: ErrTypeForbidden, Message: "access denied"}
	ErrServer          = &ClientError{Type: ErrTypeServer, Message: "server error"}
	ErrRateLimited     = &ClientError{Type: ErrTypeRateLimited, Message: "too many requests"}
	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid response"}
)

// TypeOf returns the ErrorType of err, or ErrTypeUnknown when err is not a
// *ClientError.
func TypeOf(err error) ErrorType {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrTypeUnknown
}

// classifyDoError maps an http.Client.Do failure to a ClientError.
func classifyDoError(err error) *ClientError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeUnreachable, Message: "server unreachable", Cause: err}
}

// classifyStatus maps a non-2xx status to a ClientError.
func classifyStatus(resp *http.Response) *ClientError {
	code := resp.StatusCode
	switch {
	case code == http.StatusBadRequest:
		return &ClientError{Type: ErrTypeBadRequest, Status: code, Message: "request rejected"}
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return &ClientError{Type: ErrTypeForbidden, Status: code, Message: "access denied"}
	case code == http.StatusTooManyRequests:
		return &ClientError{Type: ErrTypeRateLimited, Status: code, Message: "too many requests"}
	case code >= 500:
		return &ClientError{Type: ErrTypeServer, Status: code, Message: "server error"}
	default:
		return &ClientError{Type: ErrTypeInvalidResponse, Status: code, Message: "unexpected status " + resp.Status}
	}
}
