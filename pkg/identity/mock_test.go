package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClientSignIn(t *testing.T) {
	c := NewMockClient()
	require.NoError(t, c.Init(context.Background()))

	res, err := c.SignInWithPassword(context.Background(), "anything@example.com", "pw")
	require.NoError(t, err)
	assert.False(t, res.MFARequired)
	require.NotNil(t, res.User)
	assert.Equal(t, "dev-user-123", res.User.UID)

	tok, err := c.IDToken(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "mock-token", tok)

	has, err := c.HasEnrollment(context.Background())
	require.NoError(t, err)
	assert.False(t, has)

	err = c.RemoveEnrollment(context.Background())
	assert.ErrorIs(t, err, ErrNoEnrollment)
}
