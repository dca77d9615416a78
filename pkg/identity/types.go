package identity

import "time"

// User is the identity-provider-issued principal. It is replaced wholesale
// on every provider state change and cleared on sign-out.
type User struct {
	UID           string `json:"uid"`
	Email         string `json:"email,omitempty"` // empty pre-verification for some providers
	DisplayName   string `json:"display_name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	PhotoURL      string `json:"photo_url,omitempty"`
	PhoneNumber   string `json:"phone_number,omitempty"`
}

// OAuthProvider identifies an interactive OAuth sign-in provider
type OAuthProvider string

const (
	ProviderGoogle    OAuthProvider = "google"
	ProviderGitHub    OAuthProvider = "github"
	ProviderMicrosoft OAuthProvider = "microsoft"
)

// MFAResolver is the opaque handle returned when a sign-in attempt is
// challenged with a second factor. It carries the pending credential needed
// to complete the challenge and stays usable across failed attempts.
type MFAResolver struct {
	// PendingCredential is the provider-issued half-finished sign-in.
	PendingCredential string

	// EnrollmentID identifies the TOTP factor to challenge.
	EnrollmentID string

	// Hint is a display hint for the challenged factor, e.g. the factor
	// name shown to the user.
	Hint string
}

// EnrollmentSecret is returned when starting TOTP enrollment
type EnrollmentSecret struct {
	// Secret is the opaque shared secret, passed back verbatim to
	// CompleteEnrollment.
	Secret string

	// SessionInfo ties the finalize call to the start call.
	SessionInfo string

	// ProvisioningURI is the otpauth:// URI encoded into the QR code.
	ProvisioningURI string
}

// SignInResult is the outcome of any sign-in style operation. Exactly one of
// User or Resolver is set: a pending second-factor challenge is reported
// through MFARequired/Resolver instead of an error.
type SignInResult struct {
	User        *User
	MFARequired bool
	Resolver    *MFAResolver
}

// Session is the provider-side session handle owned by a Client instance.
// Each Client holds exactly one session; tests may construct multiple
// clients without interference.
type Session struct {
	User         *User
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}
