package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/mondoohq/console-core/pkg/config"
)

// OIDCClient implements Client against a generic OpenID Connect authority.
// Second factors are enforced by the authority inside its hosted flow, so
// the TOTP enrollment operations report no local enrollment.
type OIDCClient struct {
	sessionState

	issuerURL    string
	clientID     string
	clientSecret string
	redirectURL  string
	callbackAddr string
	logger       *logrus.Entry

	initOnce sync.Once
	initErr  error
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauthCfg *oauth2.Config
}

// NewOIDCClient creates the OIDC backend. Discovery is deferred to Init.
func NewOIDCClient(cfg config.IdentityConfig, opts ...Option) *OIDCClient {
	redirectURL := cfg.OIDCRedirectURL
	if redirectURL == "" {
		redirectURL = fmt.Sprintf("http://%s/callback", cfg.CallbackAddr)
	}
	return &OIDCClient{
		issuerURL:    cfg.OIDCIssuerURL,
		clientID:     cfg.OIDCClientID,
		clientSecret: cfg.OIDCClientSecret,
		redirectURL:  redirectURL,
		callbackAddr: cfg.CallbackAddr,
		logger:       logrus.WithField("component", "identity-oidc"),
	}
}

// Init discovers the authority and prepares the token verifier. It must
// succeed before any sign-in call.
func (c *OIDCClient) Init(ctx context.Context) error {
	c.initOnce.Do(func() {
		provider, err := oidc.NewProvider(ctx, c.issuerURL)
		if err != nil {
			c.initErr = fmt.Errorf("failed to discover OIDC provider: %w", err)
			return
		}
		c.provider = provider
		c.verifier = provider.Verifier(&oidc.Config{ClientID: c.clientID})
		c.oauthCfg = &oauth2.Config{
			ClientID:     c.clientID,
			ClientSecret: c.clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  c.redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile", "offline_access"},
		}
	})
	return c.initErr
}

// SignInWithPassword uses the resource-owner password grant
func (c *OIDCClient) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	token, err := c.oauthCfg.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		return nil, NewError(CodeInvalidCredentials, err.Error())
	}
	return c.sessionFromToken(ctx, token)
}

// SignUpWithPassword is not available through a generic authority; account
// creation happens in the authority's own console.
func (c *OIDCClient) SignUpWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	return nil, fmt.Errorf("the OIDC auth provider does not support self-registration")
}

// SignInWithOAuth runs the authorization-code flow against the authority.
// The named social provider is passed as a connection hint; the authority
// decides how to honor it.
func (c *OIDCClient) SignInWithOAuth(ctx context.Context, provider OAuthProvider) (*SignInResult, error) {
	return c.interactiveSignIn(ctx, oauth2.SetAuthURLParam("connection", string(provider)))
}

// SignInWithSSO runs the authorization-code flow with an organization hint
func (c *OIDCClient) SignInWithSSO(ctx context.Context, orgID string) (*SignInResult, error) {
	return c.interactiveSignIn(ctx, oauth2.SetAuthURLParam("organization", orgID))
}

// interactiveSignIn drives a browser-based code flow over the loopback
// callback endpoint.
func (c *OIDCClient) interactiveSignIn(ctx context.Context, authOpts ...oauth2.AuthCodeOption) (*SignInResult, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}

	state := uuid.NewString()
	authURL := c.oauthCfg.AuthCodeURL(state, authOpts...)

	values, err := awaitCallback(ctx, c.callbackAddr, "/callback", authURL, c.logger)
	if err != nil {
		return nil, err
	}
	if values.Get("state") != state {
		return nil, NewError(CodeNetworkFailure, "OIDC state mismatch")
	}
	code := values.Get("code")
	if code == "" {
		return nil, NewError(CodeNetworkFailure, "missing authorization code")
	}

	token, err := c.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, NewError(CodeNetworkFailure, err.Error())
	}
	return c.sessionFromToken(ctx, token)
}

// sessionFromToken verifies the ID token and installs the session
func (c *OIDCClient) sessionFromToken(ctx context.Context, token *oauth2.Token) (*SignInResult, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, NewError(CodeInvalidCredentials, "missing id_token in response")
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, NewError(CodeInvalidCredentials, err.Error())
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		PhoneNumber   string `json:"phone_number"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse ID token claims: %w", err)
	}

	user := &User{
		UID:           idToken.Subject,
		Email:         claims.Email,
		DisplayName:   claims.Name,
		EmailVerified: claims.EmailVerified,
		PhotoURL:      claims.Picture,
		PhoneNumber:   claims.PhoneNumber,
	}

	c.set(&Session{
		User:         user,
		IDToken:      rawIDToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    idToken.Expiry,
	})
	return &SignInResult{User: user}, nil
}

// SignOut invalidates the local session. Idempotent.
func (c *OIDCClient) SignOut(ctx context.Context) error {
	c.clear()
	return nil
}

// SendPasswordReset is delegated to the authority's hosted reset flow
func (c *OIDCClient) SendPasswordReset(ctx context.Context, email string) error {
	return fmt.Errorf("the OIDC auth provider handles password resets in its hosted flow")
}

// SendEmailVerification is delegated to the authority
func (c *OIDCClient) SendEmailVerification(ctx context.Context) error {
	if c.current() == nil {
		return ErrNoCurrentUser
	}
	return fmt.Errorf("the OIDC auth provider handles email verification in its hosted flow")
}

// IDToken returns the current bearer credential, refreshing when stale
func (c *OIDCClient) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	session := c.current()
	if session == nil {
		return "", nil
	}
	if !forceRefresh && !tokenStale(session.IDToken, session.ExpiresAt) {
		return session.IDToken, nil
	}
	if session.RefreshToken == "" || c.oauthCfg == nil {
		return session.IDToken, nil
	}

	src := c.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: session.RefreshToken})
	token, err := src.Token()
	if err != nil {
		return "", NewError(CodeCredentialTooOld, err.Error())
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		rawIDToken = token.AccessToken
	}
	expiry := token.Expiry
	if expiry.IsZero() {
		expiry = time.Now().Add(time.Hour)
	}
	if user, ok := c.updateToken(rawIDToken, token.RefreshToken, expiry); ok {
		c.notify(user)
	}
	return rawIDToken, nil
}

// GenerateEnrollmentSecret is unavailable; the authority owns MFA
func (c *OIDCClient) GenerateEnrollmentSecret(ctx context.Context) (*EnrollmentSecret, error) {
	if c.current() == nil {
		return nil, ErrNoCurrentUser
	}
	return nil, fmt.Errorf("the OIDC auth provider manages second factors in its hosted flow")
}

// CompleteEnrollment is unavailable; the authority owns MFA
func (c *OIDCClient) CompleteEnrollment(ctx context.Context, secret *EnrollmentSecret, code string) error {
	return fmt.Errorf("the OIDC auth provider manages second factors in its hosted flow")
}

// ResolveChallenge is unavailable; the authority completes challenges
// inside its hosted flow before issuing tokens.
func (c *OIDCClient) ResolveChallenge(ctx context.Context, resolver *MFAResolver, code string) (*User, error) {
	return nil, fmt.Errorf("the OIDC auth provider manages second factors in its hosted flow")
}

// RemoveEnrollment is unavailable; the authority owns MFA
func (c *OIDCClient) RemoveEnrollment(ctx context.Context) error {
	if c.current() == nil {
		return ErrNoCurrentUser
	}
	return ErrNoEnrollment
}

// HasEnrollment always reports false; enrollment state lives in the
// authority.
func (c *OIDCClient) HasEnrollment(ctx context.Context) (bool, error) {
	if c.current() == nil {
		return false, ErrNoCurrentUser
	}
	return false, nil
}
