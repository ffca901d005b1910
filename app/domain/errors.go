package domain

import "errors"

// Session and profile errors
var (
	// Provider errors
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailNotConfirmed   = errors.New("email not confirmed")
	ErrRateLimited         = errors.New("rate limited")
	ErrProviderUnreachable = errors.New("identity provider unreachable")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Profile-store errors
	ErrProfileNotFound       = errors.New("profile not found")
	ErrRecursivePolicy       = errors.New("recursive row policy")
	ErrPrivilegedUnavailable = errors.New("privileged profile lookup unavailable")

	// Authorization errors
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrIdentityRequired = errors.New("identity required")

	// Validation errors
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidEmail = errors.New("invalid email")
)

// IsRecursivePolicy reports whether an error carries the recursive-policy
// misconfiguration signature: the store's own access policy referencing
// itself while evaluating access to the requested row.
func IsRecursivePolicy(err error) bool {
	return errors.Is(err, ErrRecursivePolicy)
}

// ErrorSeverity grades user-facing auth errors.
type ErrorSeverity string

const (
	SeverityInfo    ErrorSeverity = "info"
	SeverityWarning ErrorSeverity = "warning"
	SeverityError   ErrorSeverity = "error"
)

// AuthError is the normalized user-facing shape every provider error is
// collapsed into before it leaves this service. It is returned as a typed
// result from auth operations, never panicked or thrown.
type AuthError struct {
	Code            string        `json:"code"`
	Title           string        `json:"title"`
	Message         string        `json:"message"`
	Severity        ErrorSeverity `json:"severity"`
	SuggestedAction string        `json:"suggested_action,omitempty"`
	Cause           error         `json:"-"`
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return e.Title + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Title + ": " + e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// Auth error codes
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeNetwork            = "NETWORK_ERROR"
	ErrCodeSignUpFailed       = "SIGNUP_FAILED"
	ErrCodeIdentityRequired   = "IDENTITY_REQUIRED"
	ErrCodeProfileWrite       = "PROFILE_WRITE_FAILED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewLoginFailedError normalizes a rejected-credentials failure.
func NewLoginFailedError(cause error) *AuthError {
	return &AuthError{
		Code:            ErrCodeInvalidCredentials,
		Title:           "Login Failed",
		Message:         "The email or password you entered is incorrect.",
		Severity:        SeverityError,
		SuggestedAction: "Check your credentials and try again, or reset your password.",
		Cause:           cause,
	}
}

// NewEmailNotConfirmedError normalizes an unconfirmed-email failure.
func NewEmailNotConfirmedError(cause error) *AuthError {
	return &AuthError{
		Code:            ErrCodeEmailNotConfirmed,
		Title:           "Email Not Confirmed",
		Message:         "Your email address has not been confirmed yet.",
		Severity:        SeverityWarning,
		SuggestedAction: "Check your inbox for the confirmation email.",
		Cause:           cause,
	}
}

// NewRateLimitedError normalizes a provider rate-limit failure.
func NewRateLimitedError(cause error) *AuthError {
	return &AuthError{
		Code:            ErrCodeRateLimited,
		Title:           "Too Many Attempts",
		Message:         "Too many attempts in a short period.",
		Severity:        SeverityWarning,
		SuggestedAction: "Wait a few minutes before trying again.",
		Cause:           cause,
	}
}

// NewNetworkError normalizes a provider connectivity failure.
func NewNetworkError(cause error) *AuthError {
	return &AuthError{
		Code:            ErrCodeNetwork,
		Title:           "Connection Problem",
		Message:         "We could not reach the sign-in service.",
		Severity:        SeverityError,
		SuggestedAction: "Check your connection and try again.",
		Cause:           cause,
	}
}

// NewSignUpFailedError normalizes a registration failure.
func NewSignUpFailedError(cause error) *AuthError {
	return &AuthError{
		Code:            ErrCodeSignUpFailed,
		Title:           "Sign Up Failed",
		Message:         "We could not create your account.",
		Severity:        SeverityError,
		SuggestedAction: "Try again, or contact support if the problem persists.",
		Cause:           cause,
	}
}

// NewIdentityRequiredError reports an operation invoked without a signed-in
// identity.
func NewIdentityRequiredError() *AuthError {
	return &AuthError{
		Code:     ErrCodeIdentityRequired,
		Title:    "Not Signed In",
		Message:  "You must be signed in to do that.",
		Severity: SeverityError,
		Cause:    ErrIdentityRequired,
	}
}

// NewProfileWriteError reports a failed durable profile write.
func NewProfileWriteError(cause error) *AuthError {
	return &AuthError{
		Code:            ErrCodeProfileWrite,
		Title:           "Profile Update Failed",
		Message:         "Your profile changes could not be saved.",
		Severity:        SeverityError,
		SuggestedAction: "Try again in a moment.",
		Cause:           cause,
	}
}
