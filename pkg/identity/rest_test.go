package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mondoohq/console-core/pkg/config"
)

// fakeIdentityServer emulates the identity platform's REST endpoints
type fakeIdentityServer struct {
	t *testing.T

	mu sync.Mutex
	// password per email; accounts added via signUp
	accounts map[string]string
	// emails with a pending TOTP factor
	mfaEnrolled map[string]bool
	// code accepted by MFA finalize
	totpCode string

	refreshCalls int
	oobRequests  []string
}

func newFakeIdentityServer(t *testing.T) (*fakeIdentityServer, *httptest.Server) {
	f := &fakeIdentityServer{
		t:           t,
		accounts:    map[string]string{"alice@example.com": "hunter22"},
		mfaEnrolled: map[string]bool{},
		totpCode:    "123456",
	}
	srv := httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeIdentityServer) fail(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": code},
	})
}

func (f *fakeIdentityServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		body = map[string]any{}
	}

	switch r.URL.Path {
	case "/v1/accounts:signInWithPassword":
		email, _ := body["email"].(string)
		password, _ := body["password"].(string)
		stored, ok := f.accounts[email]
		if !ok {
			f.fail(w, http.StatusBadRequest, "EMAIL_NOT_FOUND")
			return
		}
		if stored != password {
			f.fail(w, http.StatusBadRequest, "INVALID_LOGIN_CREDENTIALS")
			return
		}
		if f.mfaEnrolled[email] {
			json.NewEncoder(w).Encode(map[string]any{
				"mfaPendingCredential": "pending-" + email,
				"mfaInfo": []map[string]any{
					{"mfaEnrollmentId": "enroll-1", "displayName": "Authenticator App"},
				},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-" + email,
			"email":        email,
			"idToken":      "token-" + email,
			"refreshToken": "refresh-" + email,
			"expiresIn":    "3600",
		})

	case "/v1/accounts:signUp":
		email, _ := body["email"].(string)
		password, _ := body["password"].(string)
		if _, exists := f.accounts[email]; exists {
			f.fail(w, http.StatusBadRequest, "EMAIL_EXISTS")
			return
		}
		if len(password) < 6 {
			f.fail(w, http.StatusBadRequest, "WEAK_PASSWORD : Password should be at least 6 characters")
			return
		}
		f.accounts[email] = password
		json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-" + email,
			"email":        email,
			"idToken":      "token-" + email,
			"refreshToken": "refresh-" + email,
			"expiresIn":    "3600",
		})

	case "/v1/accounts:lookup":
		idToken, _ := body["idToken"].(string)
		email := strings.TrimPrefix(idToken, "token-")
		if !strings.Contains(email, "@") {
			// Refreshed tokens are opaque; the fake owns one account.
			email = "alice@example.com"
		}
		user := map[string]any{
			"localId":       "uid-" + email,
			"email":         email,
			"displayName":   "Test User",
			"emailVerified": true,
		}
		if f.mfaEnrolled[email] {
			user["mfaInfo"] = []map[string]any{{"mfaEnrollmentId": "enroll-1"}}
		}
		json.NewEncoder(w).Encode(map[string]any{"users": []any{user}})

	case "/v1/accounts:sendOobCode":
		reqType, _ := body["requestType"].(string)
		f.oobRequests = append(f.oobRequests, reqType)
		json.NewEncoder(w).Encode(map[string]any{})

	case "/v1/accounts/mfaSignIn:finalize":
		info, _ := body["totpVerificationInfo"].(map[string]any)
		code, _ := info["verificationCode"].(string)
		if code != f.totpCode {
			f.fail(w, http.StatusBadRequest, "INVALID_VERIFICATION_CODE")
			return
		}
		pending, _ := body["mfaPendingCredential"].(string)
		email := pending[len("pending-"):]
		json.NewEncoder(w).Encode(map[string]any{
			"localId":      "uid-" + email,
			"email":        email,
			"idToken":      "token-" + email,
			"refreshToken": "refresh-" + email,
			"expiresIn":    "3600",
		})

	case "/v1/accounts/mfaEnrollment:start":
		json.NewEncoder(w).Encode(map[string]any{
			"totpSessionInfo": map[string]any{
				"sharedSecretKey": "SECRETKEY",
				"sessionInfo":     "session-1",
			},
		})

	case "/v1/accounts/mfaEnrollment:finalize":
		json.NewEncoder(w).Encode(map[string]any{})

	case "/v1/accounts/mfaEnrollment:withdraw":
		json.NewEncoder(w).Encode(map[string]any{})

	case "/v1/token":
		f.refreshCalls++
		json.NewEncoder(w).Encode(map[string]any{
			"id_token":      fmt.Sprintf("refreshed-%d", f.refreshCalls),
			"refresh_token": "refresh-next",
			"expires_in":    "3600",
		})

	default:
		f.t.Errorf("unexpected request path: %s", r.URL.Path)
		f.fail(w, http.StatusNotFound, "NOT_FOUND")
	}
}

func newTestRESTClient(t *testing.T) (*fakeIdentityServer, *RESTClient) {
	fake, srv := newFakeIdentityServer(t)
	client := NewRESTClient(config.IdentityConfig{
		Provider: config.AuthProviderREST,
		APIKey:   "test-key",
	}, WithEndpoints(srv.URL+"/v1", srv.URL+"/v1/token"))
	require.NoError(t, client.Init(context.Background()))
	return fake, client
}

func TestRESTClient_SignInWithPassword(t *testing.T) {
	_, client := newTestRESTClient(t)

	result, err := client.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.NotNil(t, result.User)
	assert.False(t, result.MFARequired)
	assert.Equal(t, "alice@example.com", result.User.Email)
	assert.Equal(t, "uid-alice@example.com", result.User.UID)
	assert.True(t, result.User.EmailVerified)

	token, err := client.IDToken(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "token-alice@example.com", token)
}

func TestRESTClient_SignInWrongPassword(t *testing.T) {
	_, client := newTestRESTClient(t)

	_, err := client.SignInWithPassword(context.Background(), "alice@example.com", "nope")
	require.Error(t, err)

	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, CodeInvalidCredentials, provErr.Code)
	assert.Equal(t, "Invalid email or password", Translate(err))
}

func TestRESTClient_SignInUnknownAccount(t *testing.T) {
	_, client := newTestRESTClient(t)

	_, err := client.SignInWithPassword(context.Background(), "ghost@example.com", "pw")
	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, CodeUserNotFound, provErr.Code)
}

func TestRESTClient_SignUp(t *testing.T) {
	_, client := newTestRESTClient(t)

	result, err := client.SignUpWithPassword(context.Background(), "bob@example.com", "secret99")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", result.User.Email)
}

func TestRESTClient_SignUpErrors(t *testing.T) {
	_, client := newTestRESTClient(t)

	// Duplicate account.
	_, err := client.SignUpWithPassword(context.Background(), "alice@example.com", "whatever1")
	assert.ErrorIs(t, err, ErrEmailExists)

	// Weak password, with provider detail after the code.
	_, err = client.SignUpWithPassword(context.Background(), "carol@example.com", "pw")
	assert.ErrorIs(t, err, ErrWeakPassword)
	assert.Equal(t, "Password is too weak. Use at least 8 characters", Translate(err))
}

func TestRESTClient_MFAChallenge(t *testing.T) {
	fake, client := newTestRESTClient(t)
	fake.mfaEnrolled["alice@example.com"] = true

	result, err := client.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.True(t, result.MFARequired)
	require.NotNil(t, result.Resolver)
	assert.Nil(t, result.User)

	// Wrong code: typed error, resolver stays usable.
	_, err = client.ResolveChallenge(context.Background(), result.Resolver, "000000")
	var provErr *Error
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, CodeInvalidMFACode, provErr.Code)

	// Correct code with the same resolver completes the sign-in.
	user, err := client.ResolveChallenge(context.Background(), result.Resolver, "123456")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestRESTClient_SignOutIdempotent(t *testing.T) {
	_, client := newTestRESTClient(t)

	_, err := client.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	require.NoError(t, client.SignOut(context.Background()))
	require.NoError(t, client.SignOut(context.Background()))

	token, err := client.IDToken(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRESTClient_SubscribeDelivery(t *testing.T) {
	_, client := newTestRESTClient(t)

	var events []*User
	unsubscribe := client.Subscribe(func(u *User) {
		events = append(events, u)
	})

	_, err := client.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, client.SignOut(context.Background()))

	require.Len(t, events, 2)
	assert.Equal(t, "alice@example.com", events[0].Email)
	assert.Nil(t, events[1])

	unsubscribe()
	_, err = client.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestRESTClient_ForceRefresh(t *testing.T) {
	fake, client := newTestRESTClient(t)

	_, err := client.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	token, err := client.IDToken(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-1", token)
	assert.Equal(t, 1, fake.refreshCalls)

	// The refreshed token is now current; no further refresh without
	// force.
	token, err = client.IDToken(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-1", token)
	assert.Equal(t, 1, fake.refreshCalls)
}

func TestRESTClient_RefreshHandle(t *testing.T) {
	_, client := newTestRESTClient(t)
	assert.Empty(t, client.RefreshHandle())

	_, err := client.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "refresh-alice@example.com", client.RefreshHandle())
}

func TestRESTClient_RestoreSession(t *testing.T) {
	fake, client := newTestRESTClient(t)

	var notified []*User
	client.Subscribe(func(u *User) { notified = append(notified, u) })

	user, err := client.RestoreSession(context.Background(), "refresh-alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, 1, fake.refreshCalls)

	// The restored session is live: a bearer is available without a
	// further exchange and the rotated handle is persistable.
	token, err := client.IDToken(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-1", token)
	assert.Equal(t, "refresh-next", client.RefreshHandle())
	assert.Equal(t, 1, fake.refreshCalls)

	require.Len(t, notified, 1)
	require.NotNil(t, notified[0])
	assert.Equal(t, "alice@example.com", notified[0].Email)
}

func TestRESTClient_RestoreSessionEmptyToken(t *testing.T) {
	_, client := newTestRESTClient(t)

	_, err := client.RestoreSession(context.Background(), "")
	require.Error(t, err)
}

func TestRESTClient_IDTokenUnauthenticated(t *testing.T) {
	_, client := newTestRESTClient(t)

	token, err := client.IDToken(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRESTClient_SendPasswordReset(t *testing.T) {
	fake, client := newTestRESTClient(t)

	require.NoError(t, client.SendPasswordReset(context.Background(), "alice@example.com"))
	assert.Equal(t, []string{"PASSWORD_RESET"}, fake.oobRequests)
}

func TestRESTClient_SendEmailVerificationRequiresUser(t *testing.T) {
	fake, client := newTestRESTClient(t)

	err := client.SendEmailVerification(context.Background())
	assert.ErrorIs(t, err, ErrNoCurrentUser)

	_, err = client.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)
	require.NoError(t, client.SendEmailVerification(context.Background()))
	assert.Equal(t, []string{"VERIFY_EMAIL"}, fake.oobRequests)
}

func TestRESTClient_Enrollment(t *testing.T) {
	fake, client := newTestRESTClient(t)

	// All MFA ops require a signed-in principal.
	_, err := client.GenerateEnrollmentSecret(context.Background())
	assert.ErrorIs(t, err, ErrNoCurrentUser)

	_, err = client.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	require.NoError(t, err)

	enrolled, err := client.HasEnrollment(context.Background())
	require.NoError(t, err)
	assert.False(t, enrolled)

	err = client.RemoveEnrollment(context.Background())
	assert.ErrorIs(t, err, ErrNoEnrollment)

	secret, err := client.GenerateEnrollmentSecret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SECRETKEY", secret.Secret)
	assert.Contains(t, secret.ProvisioningURI, "otpauth://totp/")
	assert.Contains(t, secret.ProvisioningURI, "secret=SECRETKEY")

	require.NoError(t, client.CompleteEnrollment(context.Background(), secret, "123456"))

	fake.mu.Lock()
	fake.mfaEnrolled["alice@example.com"] = true
	fake.mu.Unlock()

	enrolled, err = client.HasEnrollment(context.Background())
	require.NoError(t, err)
	assert.True(t, enrolled)

	require.NoError(t, client.RemoveEnrollment(context.Background()))
}
