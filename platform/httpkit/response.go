// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"
	"sync/atomic"

	"engagement_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

var exposeInternalErrors atomic.Bool

// ExposeInternalErrors controls whether untyped error text reaches clients.
// Only development environments should enable it.
func ExposeInternalErrors(enabled bool) {
	exposeInternalErrors.Store(enabled)
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details interface{}) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// HandleError maps domain errors to HTTP responses.
// If the error chain contains an *apperr.Error, its Kind determines the status
// code. Any other error is an internal failure and its text is hidden unless
// ExposeInternalErrors is on.
// Returns true if an error was handled, false otherwise.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		status := domainErr.HTTPStatus()
		message := domainErr.Message
		if status >= http.StatusInternalServerError && domainErr.Kind == apperr.KindInternal && !exposeInternalErrors.Load() {
			message = "internal server error"
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, ErrorResponse{
			Error:   message,
			Code:    domainErr.Code,
			Details: domainErr.Details,
		})
		return true
	}

	_ = c.Error(err)
	resp := ErrorResponse{Error: "internal server error", Code: apperr.CodeInternal}
	if exposeInternalErrors.Load() {
		resp.Details = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	return true
}
