package broker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receive pulls one event with a timeout so a delivery bug fails the
// test instead of hanging it.
func receive(t *testing.T, sub *Subscription) any {
	t.Helper()
	select {
	case ev, ok := <-sub.Events():
		require.True(t, ok, "event channel closed unexpectedly")
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func assertEmpty(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event: %#v", ev)
	default:
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewMemory()
	a := b.Subscribe(TopicOrderUpdates)
	c := b.Subscribe(TopicOrderUpdates)

	b.Publish(TopicOrderUpdates, "hello")
	assert.Equal(t, "hello", receive(t, a))
	assert.Equal(t, "hello", receive(t, c))
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	b := NewMemory()
	b.Publish(TopicOrderUpdates, "before")

	sub := b.Subscribe(TopicOrderUpdates)
	assertEmpty(t, sub)

	b.Publish(TopicOrderUpdates, "after")
	assert.Equal(t, "after", receive(t, sub))
}

func TestTopicsAreIsolated(t *testing.T) {
	b := NewMemory()
	orders := b.Subscribe(TopicOrderUpdates)
	tables := b.Subscribe(TopicTableUpdates)

	b.Publish(TopicTableUpdates, "seated")
	assertEmpty(t, orders)
	assert.Equal(t, "seated", receive(t, tables))
}

func TestUnsubscribeStopsDeliveryAndCloses(t *testing.T) {
	b := NewMemory()
	sub := b.Subscribe(TopicOrderStatus)
	b.Unsubscribe(sub)

	b.Publish(TopicOrderStatus, "late")
	_, ok := <-sub.Events()
	assert.False(t, ok, "channel should be closed after unsubscribe")

	// Idempotent: a second call must not panic on the closed channel.
	b.Unsubscribe(sub)
	b.Unsubscribe(nil)
}

func TestPublishToEmptyTopicIsNoop(t *testing.T) {
	b := NewMemory()
	b.Publish("nobody_listens", "dropped")
}

func TestSlowSubscriberDoesNotStarvePeers(t *testing.T) {
	b := NewMemory()
	slow := b.Subscribe(TopicOrderUpdates)
	fast := b.Subscribe(TopicOrderUpdates)

	// Fill every buffer, then drain only the fast subscriber.
	for i := 0; i < subscriberBuffer; i++ {
		b.Publish(TopicOrderUpdates, i)
	}
	for i := 0; i < subscriberBuffer; i++ {
		assert.Equal(t, i, receive(t, fast))
	}

	// The slow subscriber's buffer is full: it loses this event, the
	// fast one still gets it and the publisher does not block.
	b.Publish(TopicOrderUpdates, "extra")
	assert.Equal(t, "extra", receive(t, fast))

	for i := 0; i < subscriberBuffer; i++ {
		assert.Equal(t, i, receive(t, slow))
	}
	assertEmpty(t, slow)
}

func TestConcurrentPublishAndUnsubscribe(t *testing.T) {
	b := NewMemory()
	sub := b.Subscribe(TopicOrderUpdates)

	const publishers = 8
	const perPublisher = 50

	var drained sync.WaitGroup
	drained.Add(1)
	received := 0
	go func() {
		defer drained.Done()
		for range sub.Events() {
			received++
		}
	}()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				b.Publish(TopicOrderUpdates, i)
			}
		}()
	}
	wg.Wait()
	b.Unsubscribe(sub)
	drained.Wait()

	// Drops are allowed under burst, duplicates and stray events are not.
	assert.LessOrEqual(t, received, publishers*perPublisher)
	assert.Positive(t, received)
}
