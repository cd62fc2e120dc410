package isr_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osprey-embedded/heliumcore/internal/event"
	"github.com/osprey-embedded/heliumcore/internal/isr"
)

func waitPending(t *testing.T, events *event.Set, p event.Priority) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if p2, ok := events.NextPending(); ok && p2 == p {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("priority %d never went pending", p)
}

func TestLineFireSetsEvent(t *testing.T) {
	var events event.Set
	line := isr.NewLine("uart", 0, &events, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go line.Run(ctx)

	line.Fire()
	waitPending(t, &events, 0)
}

func TestLineDisablesItselfUntilRearmed(t *testing.T) {
	var events event.Set
	fired := make(chan struct{}, 8)
	line := isr.NewLine("uart", 0, &events, func() { fired <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go line.Run(ctx)

	line.Fire()
	require.Eventually(t, func() bool { return len(fired) == 1 }, time.Second, time.Millisecond)
	events.Clear(0)

	// The line disabled itself at vector entry; further Fires before
	// Rearm are simulated-hardware no-ops, exactly like a masked NVIC
	// line that never re-asserts to the core.
	line.Fire()
	line.Fire()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, len(fired))
	assert.False(t, events.Any())

	line.Rearm()
	line.Fire()
	require.Eventually(t, func() bool { return len(fired) == 2 }, time.Second, time.Millisecond)
}
