package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBus_SubscribePublish(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, unsub := Subscribe[BuildStarted](bus, 1)
	defer unsub()

	evt := BuildStarted{BuildID: "abc", Full: true, StartedAt: time.Now()}
	require.NoError(t, bus.Publish(context.Background(), evt))

	got := <-ch
	require.Equal(t, "abc", got.BuildID)
	require.True(t, got.Full)
}

func TestBus_TypedDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	started, unsub1 := Subscribe[BuildStarted](bus, 1)
	defer unsub1()
	finished, unsub2 := Subscribe[BuildFinished](bus, 1)
	defer unsub2()

	require.NoError(t, bus.Publish(context.Background(), BuildFinished{BuildID: "x"}))

	select {
	case got := <-finished:
		require.Equal(t, "x", got.BuildID)
	default:
		t.Fatal("expected a BuildFinished delivery")
	}

	select {
	case got := <-started:
		t.Fatalf("unexpected BuildStarted delivery: %+v", got)
	default:
	}
}

func TestBus_PublishBlocksUntilContextCanceled(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	// Unbuffered subscription that nobody drains.
	_, unsub := Subscribe[BuildStarted](bus, 0)
	defer unsub()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := bus.Publish(ctx, BuildStarted{BuildID: "stuck"})
	require.Error(t, err)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, unsub := Subscribe[PageFailed](bus, 1)
	unsub()

	_, open := <-ch
	require.False(t, open, "unsubscribe closes the channel")

	require.NoError(t, bus.Publish(context.Background(), PageFailed{Source: "a.md"}))
}

func TestBus_CloseClosesSubscriptions(t *testing.T) {
	bus := NewBus()
	ch, _ := Subscribe[BuildFinished](bus, 1)

	bus.Close()

	_, open := <-ch
	require.False(t, open)
	require.Error(t, bus.Publish(context.Background(), BuildFinished{}))
}

func TestBus_PublishNilFails(t *testing.T) {
	bus := NewBus()
	defer bus.Close()
	require.Error(t, bus.Publish(context.Background(), nil))
}

func TestBeforeUpdate_RequestRestartInvokesCallback(t *testing.T) {
	called := false
	evt := NewBeforeUpdate("b1", []string{"a.md"}, func() { called = true })

	evt.RequestRestart()
	require.True(t, called)
	require.Equal(t, []string{"a.md"}, evt.Changed)
}
