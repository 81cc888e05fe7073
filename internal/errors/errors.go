package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/todo-api/internal/constants"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeConflict = "CONFLICT"

	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// APIError is the body of every error response. RequestID echoes the
// X-Request-ID of the failed request when one was assigned.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// RespondWithError writes err and aborts the remaining handlers
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	if err.RequestID == "" {
		err.RequestID = c.GetString(constants.ContextKeyRequestID)
	}
	c.AbortWithStatusJSON(statusCode, err)
}

func respond(c *gin.Context, statusCode int, code, message, fallback string) {
	if message == "" {
		message = fallback
	}
	RespondWithError(c, statusCode, &APIError{Code: code, Message: message})
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, ErrCodeUnauthorized, message, "Authentication required")
}

// InvalidCredentials sends the 400 of a failed login. The message does not
// tell an unknown username from a wrong password.
func InvalidCredentials(c *gin.Context) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidCredentials, "Invalid username or password", "")
}

func Forbidden(c *gin.Context, message string) {
	respond(c, http.StatusForbidden, ErrCodeForbidden, message, "Access denied")
}

func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrCodeNotFound, message, "Resource not found")
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, ErrCodeInvalidInput, message, "Invalid request")
}

// BadRequestWithDetails sends a 400 response naming what was wrong
func BadRequestWithDetails(c *gin.Context, message string, details any) {
	RespondWithError(c, http.StatusBadRequest, &APIError{Code: ErrCodeInvalidInput, Message: message, Details: details})
}

func Conflict(c *gin.Context, message string) {
	respond(c, http.StatusConflict, ErrCodeConflict, message, "Resource conflict")
}

// TooManyRequests sends a 429 response; the caller sets Retry-After
func TooManyRequests(c *gin.Context) {
	respond(c, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Too many requests, slow down", "")
}

// InternalError sends a 500 response. The cause is attached to the gin
// context for the request logger and never reaches the client.
func InternalError(c *gin.Context, cause error) {
	if cause != nil {
		_ = c.Error(cause)
	}
	respond(c, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", "")
}
