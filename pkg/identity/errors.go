package identity

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Code is a provider error code, normalized across backends
type Code string

// Normalized provider error codes
const (
	CodeInvalidEmail       Code = "INVALID_EMAIL"
	CodeUserDisabled       Code = "USER_DISABLED"
	CodeUserNotFound       Code = "EMAIL_NOT_FOUND"
	CodeInvalidPassword    Code = "INVALID_PASSWORD"
	CodeInvalidCredentials Code = "INVALID_LOGIN_CREDENTIALS"
	CodeEmailExists        Code = "EMAIL_EXISTS"
	CodeWeakPassword       Code = "WEAK_PASSWORD"
	CodeRateLimited        Code = "TOO_MANY_ATTEMPTS_TRY_LATER"
	CodeNetworkFailure     Code = "NETWORK_REQUEST_FAILED"
	CodeUserCancelled      Code = "USER_CANCELLED"
	CodeCredentialTooOld   Code = "CREDENTIAL_TOO_OLD_LOGIN_AGAIN"
	CodeInvalidMFACode     Code = "INVALID_VERIFICATION_CODE"
	CodeMFARequired        Code = "SECOND_FACTOR_REQUIRED"
	CodeNoCurrentUser      Code = "NO_CURRENT_USER"
	CodeNoEnrollment       Code = "NO_ENROLLMENT"
)

// Error is a typed provider error carrying the normalized code
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes errors.Is match on the code so sentinel comparisons work across
// backend instances.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// NewError creates a typed error with the given code
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Sentinel errors for errors.Is checks
var (
	ErrNoCurrentUser = &Error{Code: CodeNoCurrentUser}
	ErrNoEnrollment  = &Error{Code: CodeNoEnrollment}
	ErrUserCancelled = &Error{Code: CodeUserCancelled}
	ErrEmailExists   = &Error{Code: CodeEmailExists}
	ErrWeakPassword  = &Error{Code: CodeWeakPassword}
)

// userMessages is the fixed, finite set of user-facing messages. Translate
// never returns anything outside this set plus the generic fallback.
var userMessages = map[Code]string{
	CodeInvalidEmail:       "Invalid email address",
	CodeUserDisabled:       "This account has been disabled",
	CodeUserNotFound:       "No account found with this email",
	CodeInvalidPassword:    "Invalid email or password",
	CodeInvalidCredentials: "Invalid email or password",
	CodeEmailExists:        "An account with this email already exists",
	CodeWeakPassword:       "Password is too weak. Use at least 8 characters",
	CodeRateLimited:        "Too many failed attempts. Please try again later",
	CodeNetworkFailure:     "Network error. Please check your connection",
	CodeUserCancelled:      "Sign-in was cancelled",
	CodeCredentialTooOld:   "Please sign in again to continue",
	CodeInvalidMFACode:     "Invalid verification code",
	CodeNoCurrentUser:      "No user is currently signed in",
	CodeNoEnrollment:       "No authenticator is set up for this account",
}

const genericMessage = "An unexpected error occurred"

// Translate maps any error to one of the fixed user-facing messages. The
// mapping is total: unrecognized errors (including nil) produce the generic
// message; unknown provider codes are additionally logged with full detail
// for diagnostics and never surface raw to the caller.
func Translate(err error) string {
	if err == nil {
		return genericMessage
	}

	var provErr *Error
	if errors.As(err, &provErr) {
		if msg, ok := userMessages[provErr.Code]; ok {
			return msg
		}
		logrus.WithFields(logrus.Fields{
			"code":    provErr.Code,
			"message": provErr.Message,
		}).Error("unhandled identity provider error")
		return genericMessage
	}

	logrus.WithError(err).Error("unhandled identity error")
	return genericMessage
}
