package identity

import "context"

// mockUser is the fixed placeholder principal for local development
var mockUser = &User{
	UID:           "dev-user-123",
	Email:         "dev@example.com",
	DisplayName:   "Dev User",
	EmailVerified: true,
}

// MockClient is the always-authenticated development backend. Sign-in style
// calls succeed immediately with the fixed principal; side-effecting calls
// are no-ops.
type MockClient struct {
	sessionState
}

// NewMockClient creates the development backend with the mock principal
// already signed in.
func NewMockClient() *MockClient {
	c := &MockClient{}
	c.session = &Session{User: mockUser, IDToken: "mock-token"}
	return c
}

// Init is a no-op
func (c *MockClient) Init(ctx context.Context) error { return nil }

// SignInWithPassword returns the mock principal
func (c *MockClient) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	c.set(&Session{User: mockUser, IDToken: "mock-token"})
	return &SignInResult{User: mockUser}, nil
}

// SignUpWithPassword returns the mock principal
func (c *MockClient) SignUpWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	c.set(&Session{User: mockUser, IDToken: "mock-token"})
	return &SignInResult{User: mockUser}, nil
}

// SignInWithOAuth returns the mock principal without any interactive flow
func (c *MockClient) SignInWithOAuth(ctx context.Context, provider OAuthProvider) (*SignInResult, error) {
	c.set(&Session{User: mockUser, IDToken: "mock-token"})
	return &SignInResult{User: mockUser}, nil
}

// SignInWithSSO returns the mock principal without any federated flow
func (c *MockClient) SignInWithSSO(ctx context.Context, orgID string) (*SignInResult, error) {
	c.set(&Session{User: mockUser, IDToken: "mock-token"})
	return &SignInResult{User: mockUser}, nil
}

// SignOut clears the mock session
func (c *MockClient) SignOut(ctx context.Context) error {
	c.clear()
	return nil
}

// SendPasswordReset is a no-op
func (c *MockClient) SendPasswordReset(ctx context.Context, email string) error { return nil }

// SendEmailVerification is a no-op
func (c *MockClient) SendEmailVerification(ctx context.Context) error { return nil }

// IDToken returns the fixed development token
func (c *MockClient) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	session := c.current()
	if session == nil {
		return "", nil
	}
	return session.IDToken, nil
}

// GenerateEnrollmentSecret returns a placeholder enrollment
func (c *MockClient) GenerateEnrollmentSecret(ctx context.Context) (*EnrollmentSecret, error) {
	if c.current() == nil {
		return nil, ErrNoCurrentUser
	}
	return &EnrollmentSecret{Secret: "mock-secret", ProvisioningURI: "otpauth://totp/mock"}, nil
}

// CompleteEnrollment is a no-op
func (c *MockClient) CompleteEnrollment(ctx context.Context, secret *EnrollmentSecret, code string) error {
	return nil
}

// ResolveChallenge returns the mock principal
func (c *MockClient) ResolveChallenge(ctx context.Context, resolver *MFAResolver, code string) (*User, error) {
	c.set(&Session{User: mockUser, IDToken: "mock-token"})
	return mockUser, nil
}

// RemoveEnrollment reports no enrollment
func (c *MockClient) RemoveEnrollment(ctx context.Context) error { return ErrNoEnrollment }

// HasEnrollment reports no enrollment
func (c *MockClient) HasEnrollment(ctx context.Context) (bool, error) { return false, nil }
