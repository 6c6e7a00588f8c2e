// Package broker implements the in-process event distribution layer
// that fans order and table state changes out to live display
// connections.  It is a process-wide topic registry: producers publish
// structured payloads to a topic and every connection subscribed to
// that topic at the instant of publish receives its own copy.  The
// same contract could be served by an external message broker for
// multi-instance deployments; single-instance deployments use this
// in-memory implementation.
package broker

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Topics the order engine publishes on.
const (
	TopicOrderUpdates = "order_updates" // newly created orders
	TopicOrderStatus  = "order_status"  // order status transitions
	TopicTableUpdates = "table_updates" // table occupancy changes
)

// subscriberBuffer is the per-connection event buffer.  A subscriber
// that falls this far behind starts losing events instead of slowing
// the publisher or its peers down.
const subscriberBuffer = 32

// Broker is the publish/subscribe contract between the order engine
// and live connections.  Implementations must be safe for concurrent
// use from any number of goroutines.
type Broker interface {
	Subscribe(topic string) *Subscription
	Unsubscribe(sub *Subscription)
	Publish(topic string, payload any)
}

// Subscription is one live connection's membership in a single topic
// group.  Events arrive on Events in publish order; the channel is
// closed when the subscription is removed.
type Subscription struct {
	id     string
	topic  string
	events chan any
	closed bool // guarded by the owning broker's mutex
}

// Events returns the channel the subscriber receives payloads on.
func (s *Subscription) Events() <-chan any { return s.events }

// Topic returns the topic this subscription belongs to.
func (s *Subscription) Topic() string { return s.topic }

// Memory is the in-memory Broker.  A mutex serializes registry
// mutation; delivery itself never blocks because sends are buffered
// and non-blocking.
type Memory struct {
	mu     sync.Mutex
	topics map[string]map[string]*Subscription
}

// NewMemory returns an empty in-memory broker.
func NewMemory() *Memory {
	return &Memory{topics: make(map[string]map[string]*Subscription)}
}

// Subscribe registers a new connection under topic and returns its
// subscription handle.  There is no history replay: only events
// published after this call are delivered.
func (b *Memory) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		topic:  topic,
		events: make(chan any, subscriberBuffer),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	group, ok := b.topics[topic]
	if !ok {
		group = make(map[string]*Subscription)
		b.topics[topic] = group
	}
	group[sub.id] = sub
	return sub
}

// Unsubscribe removes a subscription from its topic group and closes
// its event channel.  It is idempotent and safe to call from any exit
// path, including abnormal disconnects.
func (b *Memory) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.events)
	if group, ok := b.topics[sub.topic]; ok {
		delete(group, sub.id)
		if len(group) == 0 {
			delete(b.topics, sub.topic)
		}
	}
}

// Publish delivers payload to every subscription currently registered
// under topic.  Delivery is independent per subscriber: a full buffer
// means that one subscriber drops the event (logged) while the rest
// still receive it, and the publisher never blocks.  Publishing to a
// topic with no subscribers is a no-op.
func (b *Memory) Publish(topic string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.topics[topic] {
		select {
		case sub.events <- payload:
		default:
			log.Printf("broker: dropping event for slow subscriber %s on topic %q", sub.id, topic)
		}
	}
}
