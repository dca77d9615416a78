package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mondoohq/console-core/pkg/config"
)

const (
	defaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL    = "https://securetoken.googleapis.com/v1/token"

	totpIssuer = "Mondoo"
)

// RESTClient talks to the hosted identity platform's documented REST API.
// One instance owns one session.
type RESTClient struct {
	sessionState

	apiKey       string
	authDomain   string
	identityURL  string
	tokenURL     string
	callbackAddr string
	httpClient   *http.Client
	ssoLookup    SSOConfigLookup
	oauthClients map[OAuthProvider]OAuthClientConfig
	logger       *logrus.Entry
}

// NewRESTClient creates the REST backend from identity configuration
func NewRESTClient(cfg config.IdentityConfig, opts ...Option) *RESTClient {
	o := &options{
		identityURL: defaultIdentityURL,
		tokenURL:    defaultTokenURL,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &RESTClient{
		apiKey:       cfg.APIKey,
		authDomain:   cfg.AuthDomain,
		identityURL:  o.identityURL,
		tokenURL:     o.tokenURL,
		callbackAddr: cfg.CallbackAddr,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		ssoLookup:    o.ssoLookup,
		oauthClients: o.oauthClients,
		logger:       logrus.WithField("component", "identity"),
	}
}

// Init validates the backend configuration
func (c *RESTClient) Init(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("identity API key is required")
	}
	return nil
}

// signInResponse is the shape shared by the password, sign-up, IdP, and MFA
// finalize endpoints.
type signInResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	PhotoURL     string `json:"photoUrl"`

	// Set instead of idToken when a second factor is pending.
	MFAPendingCredential string          `json:"mfaPendingCredential"`
	MFAInfo              []mfaEnrollment `json:"mfaInfo"`
}

type mfaEnrollment struct {
	MFAEnrollmentID string `json:"mfaEnrollmentId"`
	DisplayName     string `json:"displayName"`
}

// SignInWithPassword signs in with email and password
func (c *RESTClient) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	var resp signInResponse
	err := c.post(ctx, "/accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.completeSignIn(ctx, &resp)
}

// SignUpWithPassword creates a new principal
func (c *RESTClient) SignUpWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	var resp signInResponse
	err := c.post(ctx, "/accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.completeSignIn(ctx, &resp)
}

// completeSignIn turns a raw sign-in response into a SignInResult, handling
// the pending second-factor case.
func (c *RESTClient) completeSignIn(ctx context.Context, resp *signInResponse) (*SignInResult, error) {
	if resp.MFAPendingCredential != "" {
		resolver := &MFAResolver{
			PendingCredential: resp.MFAPendingCredential,
		}
		if len(resp.MFAInfo) > 0 {
			resolver.EnrollmentID = resp.MFAInfo[0].MFAEnrollmentID
			resolver.Hint = resp.MFAInfo[0].DisplayName
		}
		return &SignInResult{MFARequired: true, Resolver: resolver}, nil
	}

	session := &Session{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiryFrom(resp.ExpiresIn),
	}

	user, err := c.lookupUser(ctx, resp.IDToken)
	if err != nil {
		// The lookup is best-effort detail; fall back to the sign-in
		// response fields.
		c.logger.WithError(err).Debug("account lookup after sign-in failed")
		user = &User{
			UID:         resp.LocalID,
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
			PhotoURL:    resp.PhotoURL,
		}
	}
	session.User = user

	c.set(session)
	return &SignInResult{User: user}, nil
}

type lookupResponse struct {
	Users []struct {
		LocalID       string          `json:"localId"`
		Email         string          `json:"email"`
		DisplayName   string          `json:"displayName"`
		EmailVerified bool            `json:"emailVerified"`
		PhotoURL      string          `json:"photoUrl"`
		PhoneNumber   string          `json:"phoneNumber"`
		MFAInfo       []mfaEnrollment `json:"mfaInfo"`
	} `json:"users"`
}

// lookupUser fetches the account record for an ID token
func (c *RESTClient) lookupUser(ctx context.Context, idToken string) (*User, error) {
	var resp lookupResponse
	err := c.post(ctx, "/accounts:lookup", map[string]any{"idToken": idToken}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Users) == 0 {
		return nil, NewError(CodeNoCurrentUser, "account lookup returned no users")
	}
	u := resp.Users[0]
	return &User{
		UID:           u.LocalID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified,
		PhotoURL:      u.PhotoURL,
		PhoneNumber:   u.PhoneNumber,
	}, nil
}

// SignInWithOAuth runs the interactive OAuth flow for the named provider and
// signs the resulting credential into the identity platform.
func (c *RESTClient) SignInWithOAuth(ctx context.Context, provider OAuthProvider) (*SignInResult, error) {
	cred, err := c.runOAuthFlow(ctx, provider)
	if err != nil {
		return nil, err
	}
	return c.signInWithIdp(ctx, cred)
}

// SignInWithSSO runs the organization's SAML flow and signs the assertion
// into the identity platform under the saml.<orgID> provider.
func (c *RESTClient) SignInWithSSO(ctx context.Context, orgID string) (*SignInResult, error) {
	cred, err := c.runSAMLFlow(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return c.signInWithIdp(ctx, cred)
}

// idpCredential is a provider credential ready for the signInWithIdp
// endpoint.
type idpCredential struct {
	RequestURI string
	PostBody   string
}

// signInWithIdp exchanges an external provider credential for a session.
// The MFA contract is the same as for password sign-in.
func (c *RESTClient) signInWithIdp(ctx context.Context, cred *idpCredential) (*SignInResult, error) {
	var resp signInResponse
	err := c.post(ctx, "/accounts:signInWithIdp", map[string]any{
		"requestUri":        cred.RequestURI,
		"postBody":          cred.PostBody,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return c.completeSignIn(ctx, &resp)
}

// SignOut invalidates the local session. Safe to call repeatedly.
func (c *RESTClient) SignOut(ctx context.Context) error {
	c.clear()
	return nil
}

// SendPasswordReset sends a password reset email
func (c *RESTClient) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "/accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

// SendEmailVerification sends a verification email to the signed-in
// principal.
func (c *RESTClient) SendEmailVerification(ctx context.Context) error {
	token, _, err := c.requireSession(ctx)
	if err != nil {
		return err
	}
	return c.post(ctx, "/accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     token,
	}, nil)
}

// IDToken returns the current bearer credential, refreshing when stale
func (c *RESTClient) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	session := c.current()
	if session == nil {
		return "", nil
	}
	if !forceRefresh && !tokenStale(session.IDToken, session.ExpiresAt) {
		return session.IDToken, nil
	}
	return c.refreshToken(ctx, session)
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// refreshToken exchanges the session's refresh token for a fresh ID token
func (c *RESTClient) refreshToken(ctx context.Context, session *Session) (string, error) {
	resp, err := c.exchangeRefreshToken(ctx, session.RefreshToken)
	if err != nil {
		return "", err
	}

	// A token refresh counts as a session change.
	if user, ok := c.updateToken(resp.IDToken, resp.RefreshToken, expiryFrom(resp.ExpiresIn)); ok {
		c.notify(user)
	}
	return resp.IDToken, nil
}

// exchangeRefreshToken calls the secure-token endpoint with a refresh
// token and returns the raw grant response.
func (c *RESTClient) exchangeRefreshToken(ctx context.Context, refreshToken string) (*refreshResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.tokenURL+"?key="+url.QueryEscape(c.apiKey),
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewError(CodeNetworkFailure, err.Error())
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewError(CodeNetworkFailure, err.Error())
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, parseProviderError(body)
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	return &resp, nil
}

// RefreshHandle returns the session's refresh token for persistence, or
// "" when nobody is signed in.
func (c *RESTClient) RefreshHandle() string {
	session := c.current()
	if session == nil {
		return ""
	}
	return session.RefreshToken
}

// RestoreSession mints a new session from a persisted refresh token and
// notifies session-change listeners, so a fresh process can resume a
// previous sign-in without credentials.
func (c *RESTClient) RestoreSession(ctx context.Context, refreshToken string) (*User, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}

	resp, err := c.exchangeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := c.lookupUser(ctx, resp.IDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up restored account: %w", err)
	}

	stored := resp.RefreshToken
	if stored == "" {
		stored = refreshToken
	}
	c.set(&Session{
		User:         user,
		IDToken:      resp.IDToken,
		RefreshToken: stored,
		ExpiresAt:    expiryFrom(resp.ExpiresIn),
	})
	return user, nil
}

// GenerateEnrollmentSecret starts TOTP enrollment for the signed-in
// principal and returns the provisioning URI plus the opaque secret.
func (c *RESTClient) GenerateEnrollmentSecret(ctx context.Context) (*EnrollmentSecret, error) {
	token, user, err := c.requireSession(ctx)
	if err != nil {
		return nil, err
	}

	var resp struct {
		TOTPSessionInfo struct {
			SharedSecretKey string `json:"sharedSecretKey"`
			SessionInfo     string `json:"sessionInfo"`
		} `json:"totpSessionInfo"`
	}
	err = c.post(ctx, "/accounts/mfaEnrollment:start", map[string]any{
		"idToken":            token,
		"totpEnrollmentInfo": map[string]any{},
	}, &resp)
	if err != nil {
		return nil, err
	}

	account := user.Email
	if account == "" {
		account = "user"
	}
	uri := fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s",
		url.PathEscape(totpIssuer), url.PathEscape(account),
		url.QueryEscape(resp.TOTPSessionInfo.SharedSecretKey), url.QueryEscape(totpIssuer))

	return &EnrollmentSecret{
		Secret:          resp.TOTPSessionInfo.SharedSecretKey,
		SessionInfo:     resp.TOTPSessionInfo.SessionInfo,
		ProvisioningURI: uri,
	}, nil
}

// CompleteEnrollment finalizes TOTP enrollment with a code from the
// authenticator app.
func (c *RESTClient) CompleteEnrollment(ctx context.Context, secret *EnrollmentSecret, code string) error {
	token, _, err := c.requireSession(ctx)
	if err != nil {
		return err
	}
	return c.post(ctx, "/accounts/mfaEnrollment:finalize", map[string]any{
		"idToken":     token,
		"displayName": "Authenticator App",
		"totpVerificationInfo": map[string]any{
			"sessionInfo":      secret.SessionInfo,
			"verificationCode": code,
		},
	}, nil)
}

// ResolveChallenge completes a pending sign-in with a second-factor code.
// On failure the resolver stays usable for another attempt.
func (c *RESTClient) ResolveChallenge(ctx context.Context, resolver *MFAResolver, code string) (*User, error) {
	if resolver == nil {
		return nil, NewError(CodeInvalidMFACode, "no pending challenge")
	}

	var resp signInResponse
	err := c.post(ctx, "/accounts/mfaSignIn:finalize", map[string]any{
		"mfaPendingCredential": resolver.PendingCredential,
		"mfaEnrollmentId":      resolver.EnrollmentID,
		"totpVerificationInfo": map[string]any{
			"verificationCode": code,
		},
	}, &resp)
	if err != nil {
		return nil, err
	}

	result, err := c.completeSignIn(ctx, &resp)
	if err != nil {
		return nil, err
	}
	return result.User, nil
}

// RemoveEnrollment withdraws the TOTP factor
func (c *RESTClient) RemoveEnrollment(ctx context.Context) error {
	token, _, err := c.requireSession(ctx)
	if err != nil {
		return err
	}

	enrollmentID, err := c.enrollmentID(ctx, token)
	if err != nil {
		return err
	}
	if enrollmentID == "" {
		return ErrNoEnrollment
	}

	return c.post(ctx, "/accounts/mfaEnrollment:withdraw", map[string]any{
		"idToken":         token,
		"mfaEnrollmentId": enrollmentID,
	}, nil)
}

// HasEnrollment reports whether the signed-in principal has a TOTP factor
func (c *RESTClient) HasEnrollment(ctx context.Context) (bool, error) {
	token, _, err := c.requireSession(ctx)
	if err != nil {
		return false, err
	}
	enrollmentID, err := c.enrollmentID(ctx, token)
	if err != nil {
		return false, err
	}
	return enrollmentID != "", nil
}

// enrollmentID finds the first enrolled factor's ID, or "" when none exists
func (c *RESTClient) enrollmentID(ctx context.Context, idToken string) (string, error) {
	var resp lookupResponse
	err := c.post(ctx, "/accounts:lookup", map[string]any{"idToken": idToken}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Users) == 0 || len(resp.Users[0].MFAInfo) == 0 {
		return "", nil
	}
	return resp.Users[0].MFAInfo[0].MFAEnrollmentID, nil
}

// requireSession returns the current token and user, or ErrNoCurrentUser
func (c *RESTClient) requireSession(ctx context.Context) (string, *User, error) {
	session := c.current()
	if session == nil || session.User == nil {
		return "", nil, ErrNoCurrentUser
	}

	token, err := c.IDToken(ctx, false)
	if err != nil {
		return "", nil, err
	}
	return token, session.User, nil
}

// post sends a JSON request to the identity API and decodes the response
// into out (which may be nil).
func (c *RESTClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.identityURL+path+"?key="+url.QueryEscape(c.apiKey),
		bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewError(CodeNetworkFailure, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewError(CodeNetworkFailure, err.Error())
	}

	if resp.StatusCode != http.StatusOK {
		return parseProviderError(respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// parseProviderError maps a provider error body to a typed Error. Provider
// messages sometimes carry detail after the code ("WEAK_PASSWORD : ...").
func parseProviderError(body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return NewError(CodeNetworkFailure, strings.TrimSpace(string(body)))
	}

	code, detail, _ := strings.Cut(errResp.Error.Message, " : ")
	return NewError(Code(strings.TrimSpace(code)), strings.TrimSpace(detail))
}

// expiryFrom converts an expires-in seconds string to an absolute deadline
func expiryFrom(expiresIn string) time.Time {
	secs, err := strconv.Atoi(expiresIn)
	if err != nil || secs <= 0 {
		secs = 3600
	}
	return time.Now().Add(time.Duration(secs) * time.Second)
}
