package observability

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(timeout time.Duration) *ShutdownManager {
	logger := NewLogger("error", "text", "test", &bytes.Buffer{})
	return NewShutdownManager(logger, timeout)
}

func TestShutdownRunsAllFuncs(t *testing.T) {
	m := newTestManager(time.Second)

	var ran int32
	for i := 0; i < 3; i++ {
		m.Register(func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}

	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&ran))
}

func TestShutdownCollectsErrors(t *testing.T) {
	m := newTestManager(time.Second)
	m.Register(func(ctx context.Context) error { return nil })
	m.Register(func(ctx context.Context) error { return errors.New("boom") })

	err := m.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 errors")
}

func TestShutdownTimeout(t *testing.T) {
	m := newTestManager(time.Second)
	m.Register(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestShutdownNoFuncs(t *testing.T) {
	m := newTestManager(0)
	require.NoError(t, m.Run(context.Background()))
}
