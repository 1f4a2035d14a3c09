package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGo_WaitReturnsValue(t *testing.T) {
	release := make(chan struct{})
	tk := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 7, nil
	})

	_, ok, _ := tk.Peek()
	assert.False(t, ok)

	close(release)
	v, err := tk.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, ok, err = tk.Peek()
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestGo_CancelStopsWork(t *testing.T) {
	tk := Go(context.Background(), func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	tk.Cancel()

	_, err := tk.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGo_WaitHonoursCallerContext(t *testing.T) {
	release := make(chan struct{})
	tk := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	defer func() {
		close(release)
		_, _ = tk.Wait(context.Background())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := tk.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGo_PanicBecomesError(t *testing.T) {
	tk := Go(context.Background(), func(ctx context.Context) (int, error) {
		panic("boom")
	})
	_, err := tk.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDone(t *testing.T) {
	want := errors.New("x")
	_, err := Done(0, want).Wait(context.Background())
	assert.ErrorIs(t, err, want)
}
