package eventbus

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_DeliversToSubscribers(t *testing.T) {
	bus := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan TranscriptChangedPayload, 1)
	bus.SubscribeTranscriptChanged(func(p TranscriptChangedPayload) { got <- p })

	go bus.Start(ctx)
	bus.PublishTranscriptChanged(TranscriptChangedPayload{Path: "a.jsonl"})

	select {
	case p := <-got:
		assert.Equal(t, "a.jsonl", p.Path)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestEventBus_DropWhenFull(t *testing.T) {
	bus := New(1)

	var drops atomic.Int32
	bus.OnDrop(func(Event, any) { drops.Add(1) })

	// Not started, so the second publish cannot be buffered.
	bus.PublishTuiStarted(TUIStartedPayload{})
	bus.PublishTuiStarted(TUIStartedPayload{})

	assert.Equal(t, int32(1), drops.Load())
}

func TestEventBus_PanicRecovered(t *testing.T) {
	bus := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	panicked := make(chan any, 1)
	bus.OnPanic(func(_ Event, _ any, r any) { panicked <- r })

	delivered := make(chan struct{}, 1)
	bus.SubscribeSessionOpened(func(SessionOpenedPayload) { panic("boom") })
	bus.SubscribeSessionOpened(func(SessionOpenedPayload) { delivered <- struct{}{} })

	go bus.Start(ctx)
	bus.PublishSessionOpened(SessionOpenedPayload{MessageID: 1})

	select {
	case r := <-panicked:
		require.Equal(t, "boom", r)
	case <-time.After(time.Second):
		t.Fatal("panic hook not called")
	}

	select {
	case <-delivered:
	case <-time.After(time.Second):
		t.Fatal("second subscriber not called after panic")
	}
}
