package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mondoohq/console-core/pkg/identity"
)

// Status is the sign-in lifecycle state of a Machine.
type Status string

// Machine statuses.
const (
	// StatusIdle is the state before Start has been called.
	StatusIdle Status = "idle"

	// StatusLoading covers both initial session discovery and an
	// in-flight sign-in or sign-up.
	StatusLoading Status = "loading"

	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"

	// StatusMFARequired means a sign-in is paused on a pending
	// second-factor challenge. The resolver stays usable across
	// failed attempts.
	StatusMFARequired Status = "mfa_required"

	// StatusMFAVerifying means a challenge code is being checked.
	StatusMFAVerifying Status = "mfa_verifying"

	// StatusError holds a display-ready message from a failed sign-in
	// or sign-up until ClearError is called.
	StatusError Status = "error"
)

// ErrSignInInProgress is returned when a sign-in style call arrives while
// another one is still in flight. The second call is ignored; the first
// one's outcome wins.
var ErrSignInInProgress = errors.New("sign-in already in progress")

// Snapshot is a point-in-time view of the machine, delivered to
// subscribers after every transition.
type Snapshot struct {
	Status Status
	User   *identity.User

	// Error is the display-ready message held in StatusError, or the
	// retry message shown alongside StatusMFARequired after a failed
	// code. Empty otherwise.
	Error string
}

// Machine is the auth state machine for one console session. All
// transitions are serialized behind an internal mutex; methods are safe
// for concurrent use.
type Machine struct {
	client identity.Client
	logger *logrus.Entry

	mu           sync.Mutex
	status       Status
	user         *identity.User
	resolver     *identity.MFAResolver
	errMsg       string
	sessionStart time.Time

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	unsubscribe func()
}

// NewMachine wraps the given identity client. Call Start before any
// other method.
func NewMachine(client identity.Client, logger *logrus.Entry) *Machine {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Machine{
		client: client,
		logger: logger.WithField("component", "auth"),
		status: StatusIdle,
	}
}

// Start initializes the identity backend and begins observing its
// session changes. The machine moves to StatusLoading immediately and
// settles to authenticated or unauthenticated once the backend reports
// the initial session.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	m.setLocked(StatusLoading, nil, nil, "")
	m.mu.Unlock()

	if err := m.client.Init(ctx); err != nil {
		m.mu.Lock()
		m.setLocked(StatusError, nil, nil, identity.Translate(err))
		m.mu.Unlock()
		return err
	}

	m.unsubscribe = m.client.Subscribe(m.onSessionChange)

	// Settle the initial state. Backends that restore a persisted
	// session report it through the subscription; a quiet backend means
	// nobody is signed in.
	m.mu.Lock()
	if m.status == StatusLoading {
		m.setLocked(StatusUnauthenticated, nil, nil, "")
	}
	m.mu.Unlock()
	return nil
}

// Close stops observing the identity backend. It does not sign out.
func (m *Machine) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Status: m.status, User: m.user, Error: m.errMsg}
}

// Status returns the current status.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// User returns the signed-in principal, or nil.
func (m *Machine) User() *identity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// SessionStart reports when the current session was established. The
// zero time means nobody is signed in.
func (m *Machine) SessionStart() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionStart
}

// Subscribe registers fn to receive a Snapshot after every transition.
// The returned function removes the subscription. Callbacks run on the
// transitioning goroutine and must not call back into the Machine.
func (m *Machine) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	if m.subs == nil {
		m.subs = make(map[int]func(Snapshot))
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

// SignInWithPassword runs the password sign-in flow. While it is in
// flight the status is loading; a second overlapping sign-in call of
// any kind fails fast with ErrSignInInProgress.
func (m *Machine) SignInWithPassword(ctx context.Context, email, password string) error {
	return m.signIn(func() (*identity.SignInResult, error) {
		return m.client.SignInWithPassword(ctx, email, password)
	})
}

// SignUpWithPassword creates a new account and signs it in.
func (m *Machine) SignUpWithPassword(ctx context.Context, email, password string) error {
	return m.signIn(func() (*identity.SignInResult, error) {
		return m.client.SignUpWithPassword(ctx, email, password)
	})
}

// SignInWithOAuth runs the provider-hosted interactive flow.
func (m *Machine) SignInWithOAuth(ctx context.Context, provider identity.OAuthProvider) error {
	return m.signIn(func() (*identity.SignInResult, error) {
		return m.client.SignInWithOAuth(ctx, provider)
	})
}

// SignInWithSSO runs the organization-scoped federated flow.
func (m *Machine) SignInWithSSO(ctx context.Context, orgID string) error {
	return m.signIn(func() (*identity.SignInResult, error) {
		return m.client.SignInWithSSO(ctx, orgID)
	})
}

// signIn guards the overlapping-call contract and applies the shared
// outcome transitions for every sign-in variant.
func (m *Machine) signIn(do func() (*identity.SignInResult, error)) error {
	m.mu.Lock()
	switch m.status {
	case StatusLoading, StatusMFAVerifying:
		m.mu.Unlock()
		return ErrSignInInProgress
	}
	m.setLocked(StatusLoading, nil, nil, "")
	m.mu.Unlock()

	res, err := do()

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		msg := identity.Translate(err)
		if errors.Is(err, identity.ErrUserCancelled) {
			// A dismissed provider flow is not a failure worth an
			// error screen.
			m.setLocked(StatusUnauthenticated, nil, nil, "")
			return err
		}
		m.setLocked(StatusError, nil, nil, msg)
		return err
	}
	if res.MFARequired {
		m.setLocked(StatusMFARequired, nil, res.Resolver, "")
		return nil
	}
	m.setLocked(StatusAuthenticated, res.User, nil, "")
	return nil
}

// ResolveChallenge submits a second-factor code for the pending
// challenge. A wrong code returns to mfa_required with a retry message
// and the same resolver; a correct one completes the sign-in.
func (m *Machine) ResolveChallenge(ctx context.Context, code string) error {
	m.mu.Lock()
	if m.status != StatusMFARequired {
		m.mu.Unlock()
		return errors.New("no pending mfa challenge")
	}
	resolver := m.resolver
	m.setLocked(StatusMFAVerifying, nil, resolver, "")
	m.mu.Unlock()

	user, err := m.client.ResolveChallenge(ctx, resolver, code)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.setLocked(StatusMFARequired, nil, resolver, identity.Translate(err))
		return err
	}
	m.setLocked(StatusAuthenticated, user, nil, "")
	return nil
}

// Resolver returns the pending second-factor challenge, or nil.
func (m *Machine) Resolver() *identity.MFAResolver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolver
}

// SignOut invalidates the session and moves to unauthenticated from any
// state. It is idempotent.
func (m *Machine) SignOut(ctx context.Context) error {
	err := m.client.SignOut(ctx)
	m.mu.Lock()
	m.setLocked(StatusUnauthenticated, nil, nil, "")
	m.mu.Unlock()
	return err
}

// ClearError leaves the error state, returning to authenticated or
// unauthenticated depending on whether a principal is held. It is a
// no-op in any other status.
func (m *Machine) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status != StatusError {
		return
	}
	if m.user != nil {
		m.setLocked(StatusAuthenticated, m.user, nil, "")
		return
	}
	m.setLocked(StatusUnauthenticated, nil, nil, "")
}

// Token returns the bearer credential for outgoing requests. It returns
// "" with a nil error when nobody is signed in and never blocks beyond
// the adapter's own refresh call.
func (m *Machine) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	authenticated := m.status == StatusAuthenticated
	m.mu.Unlock()
	if !authenticated {
		return "", nil
	}
	return m.client.IDToken(ctx, false)
}

// HasMFA reports whether the signed-in principal has a second factor
// enrolled, consulting the identity backend's enrolled-factor list.
func (m *Machine) HasMFA(ctx context.Context) (bool, error) {
	return m.client.HasEnrollment(ctx)
}

// onSessionChange is the identity backend's subscription callback. It
// absorbs externally driven changes: a restored session, a token
// refresh, or a provider-side sign-out.
func (m *Machine) onSessionChange(user *identity.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user != nil {
		if m.status == StatusAuthenticated && m.user != nil && m.user.UID == user.UID {
			// Token refresh for the same principal, nothing to do.
			return
		}
		m.setLocked(StatusAuthenticated, user, nil, "")
		return
	}
	if m.status == StatusAuthenticated {
		m.setLocked(StatusUnauthenticated, nil, nil, "")
	}
}

// setLocked applies a transition and notifies subscribers. Callers must
// hold mu. The (status, user, resolver) triple is validated so no
// transition can leave the machine claiming authentication without a
// principal, or a pending challenge without a resolver.
func (m *Machine) setLocked(status Status, user *identity.User, resolver *identity.MFAResolver, errMsg string) {
	if status == StatusAuthenticated && user == nil {
		m.logger.Error("refusing authenticated transition without a principal")
		status, errMsg = StatusError, "An unexpected error occurred. Please try again."
	}
	if (status == StatusMFARequired || status == StatusMFAVerifying) && resolver == nil {
		m.logger.Error("refusing mfa transition without a resolver")
		status, errMsg = StatusError, "An unexpected error occurred. Please try again."
	}

	m.status = status
	m.user = user
	m.resolver = resolver
	m.errMsg = errMsg
	switch status {
	case StatusAuthenticated:
		if m.sessionStart.IsZero() {
			m.sessionStart = time.Now()
		}
	case StatusUnauthenticated:
		m.sessionStart = time.Time{}
	}

	snap := Snapshot{Status: m.status, User: m.user, Error: m.errMsg}
	m.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.subMu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}
