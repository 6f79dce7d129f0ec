package build

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunner_CoalescesPendingRequests(t *testing.T) {
	release := make(chan struct{})
	started := make(chan TriggerType, 10)
	var mu sync.Mutex
	var ran []TriggerType

	r := NewRunner(func(_ context.Context, tr TriggerType) {
		started <- tr
		<-release
		mu.Lock()
		ran = append(ran, tr)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.True(t, r.Trigger(TriggerInitial))
	require.Equal(t, TriggerInitial, <-started)

	// One build running: the first request queues, the rest coalesce.
	require.True(t, r.Trigger(TriggerWatch))
	require.False(t, r.Trigger(TriggerWatch))
	require.False(t, r.Trigger(TriggerScheduled))

	release <- struct{}{}
	require.Equal(t, TriggerWatch, <-started)
	release <- struct{}{}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(ran) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.Empty(t, started)
}
