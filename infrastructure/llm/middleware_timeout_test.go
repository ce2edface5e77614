package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutMiddleware_SlowRequestTimesOut(t *testing.T) {
	core := NewMockCoreLLM("test-model", "too late")
	core.SetDelay(func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	wrapped := TimeoutMiddleware(10 * time.Millisecond)(core)

	_, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTimeoutMiddleware_FastRequestSucceeds(t *testing.T) {
	core := NewMockCoreLLM("test-model", "in time")
	wrapped := TimeoutMiddleware(time.Second)(core)

	response, _, _, err := wrapped.DoRequest(context.Background(), "prompt", nil)
	require.NoError(t, err)
	assert.Equal(t, "in time", response)
}
