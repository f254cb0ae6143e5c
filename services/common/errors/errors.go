package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any Error of the same kind, so wrapped copies satisfy errors.Is
// against the package-level sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == e.Message
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of kind carrying err as its cause.
func Wrap(kind *Error, err error) *Error {
	return &Error{Code: kind.Code, Message: kind.Message, Err: err}
}

// Wrapf is Wrap with a formatted cause.
func Wrapf(kind *Error, format string, args ...interface{}) *Error {
	return Wrap(kind, fmt.Errorf(format, args...))
}

// From finds the application error in err's chain, falling back to an internal error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err)
}

var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden          = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
)

// Remote collaborators
var (
	ErrRemoteUnavailable   = New(http.StatusServiceUnavailable, "Remote store unavailable", nil)
	ErrUploadFailure       = New(http.StatusBadGateway, "Image upload failed", nil)
	ErrDeleteFailure       = New(http.StatusBadGateway, "Image delete failed", nil)
	ErrNotificationFailure = New(http.StatusBadGateway, "Order confirmation email could not be sent", nil)
)

var (
	ErrValidation         = New(http.StatusBadRequest, "Validation failed", nil)
	ErrConfirmRequired    = New(http.StatusBadRequest, "Deletion must be confirmed with confirm=true", nil)
	ErrAlreadyExists      = New(http.StatusConflict, "Account already exists", nil)
	ErrInvalidCredentials = New(http.StatusUnauthorized, "Invalid credentials", nil)
	ErrInvalidToken       = New(http.StatusUnauthorized, "Invalid token", nil)
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (v *ValidationError) Error() string {
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v *ValidationError) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == ErrValidation.Code && t.Message == ErrValidation.Message
}

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var vErr *ValidationError
		if errors.As(err, &vErr) {
			c.AbortWithStatusJSON(ErrValidation.Code, gin.H{
				"error":  ErrValidation.Message,
				"fields": vErr.Fields,
			})
			return
		}

		appErr := From(err)
		if appErr.Code >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.FullPath()),
				zap.String("request_id", c.GetString("request_id")),
				zap.Error(err),
			)
		}
		c.AbortWithStatusJSON(appErr.Code, gin.H{"error": appErr.Message})
	}
}
