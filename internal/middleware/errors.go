package middleware

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/inkwell/backend/internal/errors"
	"github.com/inkwell/backend/internal/logger"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// errorResponse is the envelope every failure is rendered into. Handlers never
// write error JSON themselves; they attach the error with c.Error and this
// middleware renders it.
type errorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors,omitempty"`
	Stack      string   `json:"stack,omitempty"`
}

// ErrorHandler normalizes every error attached to the context into the shared
// envelope. Stack traces are included only outside production.
func ErrorHandler(environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		resp := normalize(err, environment)

		if resp.StatusCode >= http.StatusInternalServerError {
			logger.Log.Error("request failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.String("request_id", c.GetString("request_id")),
				zap.Error(err),
			)
		}
		RecordError(errorType(resp.StatusCode), c.FullPath())

		// A handler may have already written a status via AbortWithStatus;
		// -1 tells gin to keep it.
		if c.Writer.Written() {
			return
		}
		c.JSON(resp.StatusCode, resp)
	}
}

func normalize(err error, environment string) errorResponse {
	var apiErr *apierrors.APIError
	if stderrors.As(err, &apiErr) {
		return errorResponse{
			StatusCode: apiErr.StatusCode,
			Message:    apiErr.Message,
			Success:    false,
			Errors:     apiErr.Errors,
		}
	}

	// Malformed request bodies: empty, truncated, syntactically broken JSON,
	// or a field of the wrong type. These are client errors, not 500s.
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case stderrors.Is(err, io.EOF), stderrors.Is(err, io.ErrUnexpectedEOF):
		return errorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    "Request body is missing or incomplete",
			Success:    false,
		}
	case stderrors.As(err, &syntaxErr):
		return errorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    "Request body is not valid JSON",
			Success:    false,
		}
	case stderrors.As(err, &typeErr):
		msg := "Request body is malformed"
		if typeErr.Field != "" {
			msg = fmt.Sprintf("Invalid value for field: %s", typeErr.Field)
		}
		return errorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    msg,
			Success:    false,
		}
	}

	// Uniqueness violation that slipped past the up-front existence check.
	// The postgres driver is pgx-based, so real violations surface as
	// *pgconn.PgError; *pq.Error is matched too for raw lib/pq connections.
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == "23505" {
		dup := apierrors.Duplicate(constraintField(pgErr.ConstraintName))
		return errorResponse{
			StatusCode: dup.StatusCode,
			Message:    dup.Message,
			Success:    false,
		}
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) && pqErr.Code == "23505" {
		dup := apierrors.Duplicate(constraintField(pqErr.Constraint))
		return errorResponse{
			StatusCode: dup.StatusCode,
			Message:    dup.Message,
			Success:    false,
		}
	}

	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) {
		messages := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			messages = append(messages, validationMessage(fe))
		}
		return errorResponse{
			StatusCode: http.StatusBadRequest,
			Message:    strings.Join(messages, ", "),
			Success:    false,
			Errors:     messages,
		}
	}

	resp := errorResponse{
		StatusCode: http.StatusInternalServerError,
		Message:    "Internal Server Error",
		Success:    false,
	}
	if environment != "production" {
		resp.Message = err.Error()
		resp.Stack = string(debug.Stack())
	}
	return resp
}

// constraintField maps a unique-constraint name like "idx_users_email" back to
// the field it protects.
func constraintField(constraint string) string {
	for _, field := range []string{"email", "username", "name"} {
		if strings.Contains(constraint, field) {
			return field
		}
	}
	if constraint != "" {
		return constraint
	}
	return "field"
}

func validationMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func errorType(statusCode int) string {
	switch {
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "none"
	}
}

// Recovery converts a panic into the standard 500 envelope instead of gin's
// default plain-text response.
func Recovery(environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path),
					zap.String("stack", string(debug.Stack())),
				)
				resp := errorResponse{
					StatusCode: http.StatusInternalServerError,
					Message:    "Internal Server Error",
					Success:    false,
				}
				if environment != "production" {
					resp.Message = fmt.Sprint(r)
					resp.Stack = string(debug.Stack())
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()
		c.Next()
	}
}
