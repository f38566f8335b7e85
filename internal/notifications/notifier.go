// Package notifications relays committed ledger events to subscribers over
// Redis pub/sub and WebSocket.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"runtime/debug"

	"postchain/internal/ledger"

	"github.com/redis/go-redis/v9"
)

// EventsChannel is the Redis channel carrying committed ledger events.
const EventsChannel = "ledger:events"

// Notifier publishes ledger events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishEvent sends a committed ledger event to the events channel. A nil
// Redis client makes publishing a no-op so the ledger keeps working without
// a broker.
func (n *Notifier) PublishEvent(ctx context.Context, event *ledger.Event) error {
	if n.rdb == nil || event == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, EventsChannel, payload).Err()
}

// StartSubscriber subscribes to the events channel and calls onEvent for
// each incoming event until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onEvent func(event *ledger.Event, raw []byte)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, EventsChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in event subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					var event ledger.Event
					if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
						log.Printf("event subscriber: dropping undecodable payload: %v", err)
						return
					}
					onEvent(&event, []byte(msg.Payload))
				}()
			}
		}
	}()

	return nil
}
