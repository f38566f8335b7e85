package notifications

import (
	"context"
	"testing"
	"time"

	"postchain/internal/ledger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishEvent_NilClient(t *testing.T) {
	// Notifier with nil Redis should return nil error (fail-open/noop)
	n := NewNotifier(nil)
	err := n.PublishEvent(context.Background(), &ledger.Event{Type: ledger.EventPostCreated})
	assert.NoError(t, err)
}

func TestNotifier_PublishAndSubscribe(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan *ledger.Event, 2)
	require.NoError(t, n.StartSubscriber(ctx, func(event *ledger.Event, _ []byte) {
		events <- event
	}))

	// give the subscriber goroutine time to attach
	time.Sleep(50 * time.Millisecond)

	want := &ledger.Event{
		Type:       ledger.EventPostCreated,
		PostID:     1,
		Creator:    "alice",
		ContentRef: "cid123",
		Timestamp:  10,
	}
	require.NoError(t, n.PublishEvent(ctx, want))

	select {
	case got := <-events:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestNotifier_SubscriberStopsOnCancel(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())

	events := make(chan *ledger.Event, 2)
	require.NoError(t, n.StartSubscriber(ctx, func(event *ledger.Event, _ []byte) {
		events <- event
	}))

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, n.PublishEvent(context.Background(), &ledger.Event{Type: ledger.EventPostLiked, PostID: 1}))

	select {
	case <-events:
		t.Fatal("subscriber should not receive events after cancel")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub()
	client := &Client{hub: h, send: make(chan []byte, 1), principal: "alice"}
	h.conns[client] = struct{}{}

	h.Broadcast([]byte(`{"type":"post-created"}`))

	select {
	case payload := <-client.send:
		assert.JSONEq(t, `{"type":"post-created"}`, string(payload))
	default:
		t.Fatal("expected payload in client buffer")
	}

	// a full buffer is skipped, not blocked on
	h.Broadcast([]byte(`first`))
	h.Broadcast([]byte(`second`))
	assert.Len(t, client.send, 1)
}
