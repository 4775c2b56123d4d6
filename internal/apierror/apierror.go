// Package apierror renders the JSON error envelope shared by every endpoint:
//
//	{"error": {"code": "...", "message": "...", "details": {"field": "message"}}}
package apierror

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Code is a machine-readable error category.
type Code string

// Error codes.
const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeInternal     Code = "INTERNAL_ERROR"
)

// Body is the inner error object.
type Body struct {
	Code    Code              `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Envelope wraps Body under the "error" key.
type Envelope struct {
	Error Body `json:"error"`
}

// New builds an envelope.
func New(code Code, message string, details map[string]string) Envelope {
	return Envelope{Error: Body{Code: code, Message: message, Details: details}}
}

// Abort writes the envelope with the given status and stops the handler chain.
func Abort(c *gin.Context, status int, code Code, message string, details map[string]string) {
	c.AbortWithStatusJSON(status, New(code, message, details))
}

// Validation aborts with a VALIDATION_ERROR at the given status.
// The click endpoint reports 400 and the admin listing reports 422.
func Validation(c *gin.Context, status int, message string, details map[string]string) {
	Abort(c, status, CodeValidation, message, details)
}

// NotFound aborts with 404 NOT_FOUND.
func NotFound(c *gin.Context, message string) {
	Abort(c, http.StatusNotFound, CodeNotFound, message, nil)
}

// Internal aborts with 500 INTERNAL_ERROR. The cause is never exposed to the caller.
func Internal(c *gin.Context) {
	Abort(c, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred", nil)
}
