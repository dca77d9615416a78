package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mondoohq/console-core/pkg/config"
)

func TestRefresherTickIsNoopWhenUnauthenticated(t *testing.T) {
	m := startedMachine(t, &fakeIdentity{})
	r := NewRefresher(m, config.SessionConfig{}, nil)

	r.Tick(context.Background())
	assert.Equal(t, StatusUnauthenticated, m.Status())
}

func TestRefresherEnforcesMaxSessionDuration(t *testing.T) {
	m := startedMachine(t, &fakeIdentity{token: "tok"})
	require.NoError(t, m.SignInWithPassword(context.Background(), "alice@example.com", "hunter22"))

	r := NewRefresher(m, config.SessionConfig{MaxDuration: time.Nanosecond}, nil)
	time.Sleep(time.Millisecond)

	r.Tick(context.Background())
	assert.Equal(t, StatusUnauthenticated, m.Status())
}

func TestRefresherKeepsFreshSession(t *testing.T) {
	m := startedMachine(t, &fakeIdentity{token: "tok"})
	require.NoError(t, m.SignInWithPassword(context.Background(), "alice@example.com", "hunter22"))

	r := NewRefresher(m, config.SessionConfig{MaxDuration: time.Hour}, nil)
	r.Tick(context.Background())
	assert.Equal(t, StatusAuthenticated, m.Status())
}

func TestRefresherStartStop(t *testing.T) {
	m := startedMachine(t, &fakeIdentity{})
	r := NewRefresher(m, config.SessionConfig{RefreshInterval: time.Second}, nil)

	require.NoError(t, r.Start())
	r.Stop()
}
