// Package errors provides standardized error handling for the follow-up service.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeProspectNotFound   ErrorCode = "PROSPECT_NOT_FOUND"
	ErrCodeFollowUpNotFound   ErrorCode = "FOLLOW_UP_NOT_FOUND"
	ErrCodeSettingsNotFound   ErrorCode = "SETTINGS_NOT_FOUND"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrCodeSettingsValidation ErrorCode = "SETTINGS_VALIDATION_FAILED"
	ErrCodeProspectValidation ErrorCode = "PROSPECT_VALIDATION_FAILED"
	ErrCodeFollowUpValidation ErrorCode = "FOLLOW_UP_VALIDATION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeDuplicateFollowUp        ErrorCode = "DUPLICATE_PENDING_FOLLOW_UP"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeIndexingFailed                ErrorCode = "SEARCH_INDEXING_FAILED"

	ErrCodeNotificationSendFailed       ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeNotificationPermissionDenied ErrorCode = "NOTIFICATION_PERMISSION_DENIED"

	ErrCodeAuthentication  ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeCRMImportFailed ErrorCode = "CRM_IMPORT_FAILED"
	ErrCodeMailSyncFailed  ErrorCode = "MAIL_SYNC_FAILED"
	ErrCodeTimeout         ErrorCode = "TIMEOUT_ERROR"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewProspectNotFoundError creates a non-retryable not-found error for a prospect id.
func NewProspectNotFoundError(prospectID string) *StandardError {
	return newError(ErrCodeProspectNotFound, "Prospect not found", fmt.Sprintf("prospectId: %s", prospectID), false)
}

// NewFollowUpNotFoundError creates a non-retryable not-found error for a follow-up id.
func NewFollowUpNotFoundError(followUpID string) *StandardError {
	return newError(ErrCodeFollowUpNotFound, "Follow-up not found", fmt.Sprintf("followUpId: %s", followUpID), false)
}

func NewSettingsNotFoundError(userID string) *StandardError {
	return newError(ErrCodeSettingsNotFound, "Follow-up settings not found", fmt.Sprintf("userId: %s", userID), false)
}

// NewForbiddenError is returned when the caller does not own the resource.
func NewForbiddenError(details string) *StandardError {
	return newError(ErrCodeForbidden, "Forbidden", details, false)
}

func NewInvalidRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidRequest, "Invalid request", details, false)
}

// NewSettingsValidationError reports rejected follow-up settings values.
func NewSettingsValidationError(details string) *StandardError {
	return newError(ErrCodeSettingsValidation, "Follow-up settings validation failed", details, false)
}

func NewProspectValidationError(details string) *StandardError {
	return newError(ErrCodeProspectValidation, "Prospect validation failed", details, false)
}

func NewFollowUpValidationError(details string) *StandardError {
	return newError(ErrCodeFollowUpValidation, "Follow-up validation failed", details, false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryName string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("query: %s, error: %s", queryName, err.Error()), true)
}

func NewQueryTimeoutError(queryName string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("query: %s", queryName), true)
}

// NewDatabaseInsertFailedError creates a retryable database insert error.
func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Database insert operation failed", err.Error(), true)
}

// NewDuplicateFollowUpError means a pending automatic follow-up already exists for the prospect.
func NewDuplicateFollowUpError(prospectID string) *StandardError {
	return newError(ErrCodeDuplicateFollowUp, "Pending follow-up already exists",
		fmt.Sprintf("prospectId: %s", prospectID), false)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Cache unavailable", err.Error(), true)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewIndexingFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexingFailed, "Elasticsearch indexing error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

// NewNotificationPermissionDeniedError is terminal for a scheduler session.
func NewNotificationPermissionDeniedError(userID string) *StandardError {
	return newError(ErrCodeNotificationPermissionDenied, "Notification permission denied",
		fmt.Sprintf("userId: %s", userID), false)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details, false)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true)
}

func NewCRMImportFailedError(err error) *StandardError {
	return newError(ErrCodeCRMImportFailed, "CRM contact import failed", err.Error(), true)
}

func NewMailSyncFailedError(err error) *StandardError {
	return newError(ErrCodeMailSyncFailed, "Mailbox sync failed", err.Error(), true)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandardError unwraps err into a *StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// GetRetryCount returns the recommended retry count for background jobs.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeIndexingFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeExternalService,
		ErrCodeCRMImportFailed,
		ErrCodeMailSyncFailed:
		return 3

	case ErrCodeQueryTimeout, ErrCodeTimeout, ErrCodeCacheUnavailable:
		return 2

	default:
		return 0
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "FORBIDDEN") || strings.Contains(codeStr, "AUTHENTICATION") || strings.Contains(codeStr, "PERMISSION"):
		return "AUTH"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "DUPLICATE"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "EXTERNAL") || strings.Contains(codeStr, "CRM") || strings.Contains(codeStr, "MAIL") || strings.Contains(codeStr, "TIMEOUT"):
		return "EXTERNAL"
	default:
		return "UNKNOWN"
	}
}
