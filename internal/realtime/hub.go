// Package realtime fans out task snapshots to subscribers. Each subscriber
// sees the latest state: a slow reader loses intermediate events, never the
// newest one.
package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taskey/taskey-api/internal/metrics"
)

// Event is one pushed change on a topic.
type Event struct {
	Topic   string      `json:"topic"`
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

// TaskTopic names the topic carrying snapshots of one task.
func TaskTopic(taskID uint64) string {
	return fmt.Sprintf("task:%d", taskID)
}

type subscription struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

func (s *subscription) deliver(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
		return
	default:
	}
	// Drop the oldest pending event to make room for the newest.
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- ev:
	default:
	}
}

func (s *subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Hub is an in-process publish/subscribe registry.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]map[*subscription]struct{}
	buffer  int
	metrics *metrics.Metrics
}

// NewHub creates a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int, m *metrics.Metrics) *Hub {
	if buffer < 1 {
		buffer = 1
	}
	return &Hub{
		subs:    make(map[string]map[*subscription]struct{}),
		buffer:  buffer,
		metrics: m,
	}
}

// Subscribe registers for events on topic. The returned channel is closed when
// ctx is done or cancel is called, whichever comes first.
func (h *Hub) Subscribe(ctx context.Context, topic string) (<-chan Event, func()) {
	sub := &subscription{ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[*subscription]struct{})
	}
	h.subs[topic][sub] = struct{}{}
	h.mu.Unlock()
	h.metrics.SubscriberOpened()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			h.mu.Lock()
			delete(h.subs[topic], sub)
			if len(h.subs[topic]) == 0 {
				delete(h.subs, topic)
			}
			h.mu.Unlock()
			sub.close()
			h.metrics.SubscriberClosed()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	return sub.ch, cancel
}

// Publish delivers ev to every subscriber of its topic without blocking and
// returns the number of subscribers reached.
func (h *Hub) Publish(ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.RLock()
	targets := make([]*subscription, 0, len(h.subs[ev.Topic]))
	for sub := range h.subs[ev.Topic] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		sub.deliver(ev)
	}
	return len(targets)
}

// Subscribers returns the number of open subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
