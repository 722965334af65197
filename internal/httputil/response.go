// Package httputil shapes every handler response into the uniform
// envelope: a success flag, a payload, and a human-readable message.
// Auth failures stay generic; nothing here surfaces internals.
package httputil

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the uniform envelope returned by every endpoint.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// OK returns a successful response with an optional message.
func OK(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Message: message})
}

// Created returns a successful creation response.
func Created(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusCreated, Response{Success: true, Data: data, Message: message})
}

// Paginated returns a successful list response with pagination metadata.
func Paginated(c echo.Context, data interface{}, total int64, page, limit int) error {
	meta := BuildMeta(total, page, limit)
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Meta: &meta})
}

// BadRequest returns a validation or invalid-state failure.
func BadRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}

// Unauthorized rejects a request with no resolvable identity. The
// message never distinguishes why resolution failed.
func Unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, Response{
		Success: false,
		Error:   "Unauthorized: please provide a valid authentication token",
	})
}

// Forbidden rejects an authenticated caller the policy denies. It may
// name the required role but never reveals whether the target exists.
func Forbidden(c echo.Context, requiredRole string) error {
	msg := "Forbidden: you don't have permission to perform this action"
	if requiredRole != "" {
		msg = "Forbidden: this action requires " + requiredRole + " role"
	}
	return c.JSON(http.StatusForbidden, Response{Success: false, Error: msg})
}

// NotFound reports an absent resource. Only used after an access check
// already passed.
func NotFound(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, Response{Success: false, Error: resource + " not found"})
}

// Conflict reports a uniqueness violation.
func Conflict(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, Response{Success: false, Error: message})
}

// Internal reports a server-side failure without surfacing details.
func Internal(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, Response{Success: false, Error: message})
}

// Unavailable reports a disabled or unreachable collaborator.
func Unavailable(c echo.Context, message string) error {
	return c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: message})
}
