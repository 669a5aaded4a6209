package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode identifies a class of application error.
type ErrorCode string

const (
	// Generic codes
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"

	// Ledger codes
	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeBelowMinimum      ErrorCode = "BELOW_MINIMUM_THRESHOLD"
	ErrCodeDuplicateReferral ErrorCode = "DUPLICATE_REFERRAL"
	ErrCodeAdCooldown        ErrorCode = "AD_COOLDOWN_ACTIVE"
	ErrCodeWalletNotBound    ErrorCode = "WALLET_NOT_BOUND"

	// Reward-ad provider codes
	ErrCodeProviderUnavailable   ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderTimeout       ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderBlocked       ErrorCode = "PROVIDER_BLOCKED"
	ErrCodeProviderMisconfigured ErrorCode = "PROVIDER_MISCONFIGURED"

	// Infrastructure codes
	ErrCodeDatabaseError     ErrorCode = "DATABASE_ERROR"
	ErrCodeRemoteSyncFailure ErrorCode = "REMOTE_SYNC_FAILURE"
	ErrCodeTelegramAPI       ErrorCode = "TELEGRAM_API_ERROR"
)

// AppError is the typed application error carried across layers. Ledger
// failures reach clients as structured results built from this type, never as
// raw panics or opaque strings.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	UserID    int64                  `json:"user_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the failure may succeed on a later attempt.
// Provider and sync failures are transient; ledger rejections are not.
func (e *AppError) IsRetryable() bool {
	switch e.Code {
	case ErrCodeProviderUnavailable, ErrCodeProviderTimeout, ErrCodeRemoteSyncFailure, ErrCodeDatabaseError:
		return true
	}
	return false
}

// WithDetail attaches a structured detail to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRequestID tags the error with the originating request id.
func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// WithUserID tags the error with the affected user id.
func (e *AppError) WithUserID(userID int64) *AppError {
	e.UserID = userID
	return e
}

// New creates a new application error.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Newf creates a new application error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Common constructors

// NewValidationError reports a malformed or out-of-range input value.
func NewValidationError(field, reason string) *AppError {
	return Newf(ErrCodeValidation, "Validation failed for field '%s': %s", field, reason).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// NewUserNotFoundError reports a missing ledger account.
func NewUserNotFoundError(userID int64) *AppError {
	return Newf(ErrCodeUserNotFound, "User not found: %d", userID).
		WithUserID(userID)
}

// NewInsufficientFundsError reports a rejected debit. The message states the
// computed shortfall so the client can render it directly.
func NewInsufficientFundsError(currency string, shortfall float64) *AppError {
	return Newf(ErrCodeInsufficientFunds, "Insufficient balance for withdrawal. You are missing %s %s", formatAmount(currency, shortfall), currency).
		WithDetail("currency", currency).
		WithDetail("shortfall", shortfall)
}

// NewBelowMinimumError reports a withdrawal under the configured minimum. The
// message names the minimum and the caller's current converted value.
func NewBelowMinimumError(unit string, minimum, converted float64) *AppError {
	return Newf(ErrCodeBelowMinimum, "Insufficient balance for withdrawal. Minimum required: %g %s (you have %.2f %s)", minimum, unit, converted, unit).
		WithDetail("unit", unit).
		WithDetail("minimum", minimum).
		WithDetail("converted", converted)
}

// NewDuplicateReferralError reports an already-recorded referral. Idempotent
// no-op for callers, not a hard failure.
func NewDuplicateReferralError(referredID int64) *AppError {
	return Newf(ErrCodeDuplicateReferral, "Referral already recorded: %d", referredID).
		WithDetail("referred_id", referredID)
}

// NewDatabaseError wraps a storage failure.
func NewDatabaseError(operation string, err error) *AppError {
	return Wrapf(err, ErrCodeDatabaseError, "Store operation failed: %s", operation).
		WithDetail("operation", operation)
}

// NewProviderError classifies a reward-ad provider failure.
func NewProviderError(code ErrorCode, reason string, err error) *AppError {
	return Wrapf(err, code, "Reward ad provider failed: %s", reason).
		WithDetail("reason", reason)
}

// NewRemoteSyncError wraps a best-effort mirror failure. Always non-fatal.
func NewRemoteSyncError(operation string, err error) *AppError {
	return Wrapf(err, ErrCodeRemoteSyncFailure, "Remote sync failed: %s", operation).
		WithDetail("operation", operation)
}

// formatAmount renders NOZ with two decimals and integer currencies without.
func formatAmount(currency string, v float64) string {
	if currency == "KFCY" {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// AsAppError extracts an AppError from err, unwrapping as needed.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// From coerces any error into an AppError, wrapping unknown errors as
// internal.
func From(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Wrap(err, ErrCodeInternal, "Internal server error")
}
