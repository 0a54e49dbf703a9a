package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/SAP-F-2025/marks-service/internal/services"
	"github.com/SAP-F-2025/marks-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging functionality for all handlers
type BaseHandler struct {
	logger utils.Logger
}

// NewBaseHandler creates a new base handler with logging capability
func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{
		logger: logger,
	}
}

// LogRequest logs incoming HTTP requests through the request-scoped logger,
// which already carries request_id, method and path
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	utils.GetLoggerFromContext(c, h.logger).Debug(message, additionalFields...)
}

// LogError logs error details through the request-scoped logger
func (h *BaseHandler) LogError(c *gin.Context, err error, message string, additionalFields ...interface{}) {
	utils.GetLoggerFromContext(c, h.logger).LogError(err, message, additionalFields...)
}

// RespondWithError sends a consistent error response
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		Message: message,
		Details: details,
		Code:    code,
	})
}

// RespondWithSuccess sends a consistent success response
func (h *BaseHandler) RespondWithSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, SuccessResponse{
		Message: message,
		Data:    data,
	})
}

// handleServiceError maps service error kinds to HTTP responses
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.RespondWithError(c, http.StatusBadRequest, CodeValidationFailed, "Validation failed", validationErrors)
		return
	}

	var preconditionError *services.PreconditionError
	if errors.As(err, &preconditionError) {
		h.RespondWithError(c, http.StatusConflict, CodePreconditionFailed, preconditionError.Reason.Error(), nil)
		return
	}

	switch {
	case errors.Is(err, services.ErrAssessmentNotFound):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, "Assessment not found", nil)
	case errors.Is(err, services.ErrClassNotFound):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, "Class not found", nil)
	case errors.Is(err, services.ErrSubjectNotFound):
		h.RespondWithError(c, http.StatusNotFound, CodeNotFound, "Subject not found", err.Error())
	case services.IsTransient(err), errors.Is(err, context.DeadlineExceeded):
		h.LogError(c, err, "Transient service error")
		h.RespondWithError(c, http.StatusServiceUnavailable, CodeUnavailable, "Service temporarily unavailable, please retry", nil)
	default:
		h.LogError(c, err, "Unexpected service error")
		h.RespondWithError(c, http.StatusInternalServerError, CodeInternal, "Internal server error", nil)
	}
}

// respondInvalidRequest reports a request that could not be bound
func (h *BaseHandler) respondInvalidRequest(c *gin.Context, err error) {
	h.RespondWithError(c, http.StatusBadRequest, CodeInvalidRequest, "Invalid request payload", err.Error())
}
