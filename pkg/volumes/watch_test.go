package volumes

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchFiresOnCreate(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{root}, 20*time.Millisecond, 0, func() { calls.Add(1) })
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	// a burst of mounts should coalesce into one refresh
	require.Eventually(t, func() bool {
		for _, name := range []string{"USB-A", "USB-B"} {
			_ = os.Mkdir(filepath.Join(root, name), 0o755)
		}
		return calls.Load() >= 2
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatchInterval(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	go func() { _ = Watch(ctx, nil, time.Second, 10*time.Millisecond, func() { calls.Add(1) }) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestWatchSkipsMissingRoot(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	err := Watch(ctx, []string{filepath.Join(t.TempDir(), "absent")}, time.Second, 0, func() { calls.Add(1) })
	assert.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
