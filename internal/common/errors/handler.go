// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorHandler writes API errors as JSON with a status derived from the error code.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorResponse is the body returned for every failed API call.
type ErrorResponse struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
	Details string    `json:"details,omitempty"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleHTTPError normalizes err, logs it and writes the response.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := h.normalizeError(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(r, stdErr, status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Message: stdErr.Message,
		Code:    stdErr.Code,
		Details: publicDetails(stdErr, status),
	})
}

// normalizeError ensures we always have a StandardError
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus maps an error code to the response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeProspectNotFound, ErrCodeFollowUpNotFound, ErrCodeSettingsNotFound:
		return http.StatusNotFound
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeAuthentication:
		return http.StatusUnauthorized
	case ErrCodeInvalidRequest, ErrCodeSettingsValidation, ErrCodeProspectValidation, ErrCodeFollowUpValidation:
		return http.StatusBadRequest
	case ErrCodeDuplicateFollowUp:
		return http.StatusConflict
	case ErrCodeExternalService, ErrCodeCRMImportFailed, ErrCodeMailSyncFailed:
		return http.StatusBadGateway
	case ErrCodeTimeout, ErrCodeQueryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Internal failure details stay in the log.
func publicDetails(stdErr *StandardError, status int) string {
	if status >= http.StatusInternalServerError {
		return ""
	}
	return stdErr.Details
}

func (h *ErrorHandler) logError(r *http.Request, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"method":        r.Method,
		"path":          r.URL.Path,
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields)
		return
	}
	h.logger.Warn("request rejected", fields)
}
