package identity

import (
	"context"
	"fmt"

	"github.com/mondoohq/console-core/pkg/config"
)

// Client is the capability interface over the external identity provider.
// Implementations hold exactly one session and are safe for concurrent use.
//
// All sign-in style methods share the second-factor contract: a pending MFA
// challenge is reported through SignInResult.MFARequired with a usable
// Resolver, not as an error. All other failures are typed *Error values.
type Client interface {
	// Init completes any deferred backend setup. It must be called (and
	// must succeed) before any other method.
	Init(ctx context.Context) error

	SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error)
	SignUpWithPassword(ctx context.Context, email, password string) (*SignInResult, error)
	SignInWithOAuth(ctx context.Context, provider OAuthProvider) (*SignInResult, error)
	SignInWithSSO(ctx context.Context, orgID string) (*SignInResult, error)

	// SignOut invalidates the local session. It is idempotent.
	SignOut(ctx context.Context) error

	SendPasswordReset(ctx context.Context, email string) error
	// SendEmailVerification requires a signed-in principal and fails with
	// ErrNoCurrentUser otherwise.
	SendEmailVerification(ctx context.Context) error

	// Subscribe registers a listener invoked on every sign-in, sign-out,
	// and token refresh, in delivery order. The returned function removes
	// the listener. The listener receives nil when nobody is signed in.
	Subscribe(fn func(user *User)) (unsubscribe func())

	// IDToken returns the current bearer credential, refreshing it when
	// forceRefresh is set or the token is stale. It returns "" with a nil
	// error when nobody is signed in.
	IDToken(ctx context.Context, forceRefresh bool) (string, error)

	// MFA operations.
	GenerateEnrollmentSecret(ctx context.Context) (*EnrollmentSecret, error)
	CompleteEnrollment(ctx context.Context, secret *EnrollmentSecret, code string) error
	ResolveChallenge(ctx context.Context, resolver *MFAResolver, code string) (*User, error)
	RemoveEnrollment(ctx context.Context) error
	HasEnrollment(ctx context.Context) (bool, error)
}

// SessionRestorer is implemented by backends whose refresh handle can be
// exported and exchanged for a new session later, letting a fresh process
// resume a previous sign-in. RestoreSession notifies session-change
// listeners like any other sign-in.
type SessionRestorer interface {
	// RefreshHandle returns the persistable refresh token, or "" when
	// nobody is signed in.
	RefreshHandle() string

	RestoreSession(ctx context.Context, refreshToken string) (*User, error)
}

// NewClient constructs the backend selected by the identity configuration.
// The choice is made exactly once here; callers never branch on the
// provider again.
func NewClient(cfg config.IdentityConfig, opts ...Option) (Client, error) {
	switch cfg.Provider {
	case config.AuthProviderDevelopment:
		return NewMockClient(), nil
	case config.AuthProviderREST:
		return NewRESTClient(cfg, opts...), nil
	case config.AuthProviderOIDC:
		return NewOIDCClient(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("unknown auth provider: %s", cfg.Provider)
	}
}

// SSOProviderConfig describes an organization's SAML identity provider
type SSOProviderConfig struct {
	// SSOURL is the IdP's SSO endpoint the browser is sent to.
	SSOURL string

	// IssuerURL is the IdP entity ID.
	IssuerURL string

	// CertificatePEM is the IdP signing certificate.
	CertificatePEM string
}

// SSOConfigLookup resolves an organization ID to its SAML provider
// configuration.
type SSOConfigLookup func(ctx context.Context, orgID string) (*SSOProviderConfig, error)

// Option customizes backend construction
type Option func(*options)

type options struct {
	ssoLookup    SSOConfigLookup
	identityURL  string
	tokenURL     string
	oauthClients map[OAuthProvider]OAuthClientConfig
}

// OAuthClientConfig holds the client registration for one OAuth provider
type OAuthClientConfig struct {
	ClientID     string
	ClientSecret string
}

// WithSSOLookup installs the resolver used to find an organization's SAML
// provider settings.
func WithSSOLookup(lookup SSOConfigLookup) Option {
	return func(o *options) { o.ssoLookup = lookup }
}

// WithEndpoints overrides the identity platform base URLs, primarily for
// tests.
func WithEndpoints(identityURL, tokenURL string) Option {
	return func(o *options) {
		o.identityURL = identityURL
		o.tokenURL = tokenURL
	}
}

// WithOAuthClient registers the client credentials for an interactive OAuth
// provider.
func WithOAuthClient(provider OAuthProvider, cfg OAuthClientConfig) Option {
	return func(o *options) {
		if o.oauthClients == nil {
			o.oauthClients = map[OAuthProvider]OAuthClientConfig{}
		}
		o.oauthClients[provider] = cfg
	}
}
