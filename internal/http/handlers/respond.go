package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/tasktracker/internal/domain/task"
	"github.com/geocoder89/tasktracker/internal/domain/user"
	"github.com/geocoder89/tasktracker/internal/http/middlewares"
	"github.com/geocoder89/tasktracker/internal/identity"
	"github.com/geocoder89/tasktracker/internal/policy"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if v, ok := ctx.Get(middlewares.CtxRequestID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string, details interface{}) {
	RespondError(ctx, http.StatusConflict, code, message, details)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

// redirect ends the request with a 303 so browsers follow with a GET.
func redirect(ctx *gin.Context, location string) {
	ctx.Redirect(http.StatusSeeOther, location)
	ctx.Abort()
}

func fieldDetails(field, rule, message string) gin.H {
	return gin.H{"fields": []FieldError{{Field: field, Rule: rule, Message: message}}}
}

// respondServiceError maps domain errors to responses. what names the
// operation in the generic 500 message and the log line.
func respondServiceError(ctx *gin.Context, log *slog.Logger, err error, what string) {
	switch {
	case errors.Is(err, policy.ErrForbidden):
		if !middlewares.IdentityFromContext(ctx).IsAuthenticated() {
			redirect(ctx, middlewares.LoginPath)
			return
		}
		redirect(ctx, "/")
	case errors.Is(err, task.ErrValidation):
		RespondBadRequest(ctx, "Invalid task", gin.H{"reason": err.Error()})
	case errors.Is(err, user.ErrMissingEmail):
		RespondBadRequest(ctx, "Invalid request body", fieldDetails("officeEmail", "required", "is required"))
	case errors.Is(err, user.ErrDuplicateEmail):
		RespondConflict(ctx, "email_taken", "Office email is already in use.", fieldDetails("officeEmail", "unique", "is already in use"))
	case errors.Is(err, user.ErrRoleConflict):
		RespondConflict(ctx, "manager_exists", "A manager account already exists.", fieldDetails("role", "unique", "only one manager is allowed"))
	case errors.Is(err, identity.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
	case errors.Is(err, task.ErrNotFound):
		RespondNotFound(ctx, "Task not found")
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "Employee not found")
	default:
		if log == nil {
			log = slog.Default()
		}
		log.ErrorContext(ctx.Request.Context(), what+" failed",
			"err", err,
			"request_id", requestIDFrom(ctx),
		)
		RespondInternal(ctx, "Could not "+what)
	}
}
