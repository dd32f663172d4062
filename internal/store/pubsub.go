package store

import (
	"strings"
	"sync"
)

// subscriberBuffer bounds each subscriber's delivery queue. A subscriber
// that falls behind loses messages instead of blocking the publisher.
const subscriberBuffer = 64

// Message is one published payload tagged with its originating channel.
type Message struct {
	Channel string
	Payload string
}

// Topic is the broadcast sender for one channel or pattern. It is created
// lazily on first subscribe and shared by every receiver; unsubscription
// removes the receiver but never tears the topic down.
type Topic struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func newTopic() *Topic {
	return &Topic{subs: make(map[*Subscription]struct{})}
}

// Subscription is one receiver's handle on a topic. Messages arrive on C.
type Subscription struct {
	C     chan Message
	topic *Topic
}

func (t *Topic) subscribe() *Subscription {
	sub := &Subscription{
		C:     make(chan Message, subscriberBuffer),
		topic: t,
	}
	t.mu.Lock()
	t.subs[sub] = struct{}{}
	t.mu.Unlock()
	return sub
}

// Close detaches the receiver from its topic.
func (sub *Subscription) Close() {
	sub.topic.mu.Lock()
	delete(sub.topic.subs, sub)
	sub.topic.mu.Unlock()
}

// publish offers msg to every receiver. A receiver with a full buffer is
// lagged: the message is dropped for it and delivery moves on.
func (t *Topic) publish(msg Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for sub := range t.subs {
		select {
		case sub.C <- msg:
		default:
		}
	}
}

// Subscribe returns (creating if absent) a receiver on the exact channel.
func (s *Store) Subscribe(channel string) *Subscription {
	s.mu.Lock()
	t, ok := s.channels[channel]
	if !ok {
		t = newTopic()
		s.channels[channel] = t
	}
	s.mu.Unlock()
	return t.subscribe()
}

// PSubscribe returns (creating if absent) a receiver on a prefix pattern.
// The pattern is the literal channel name with a trailing '*' stripped;
// matching is a plain string-prefix test, not a glob.
func (s *Store) PSubscribe(pattern string) *Subscription {
	prefix := strings.TrimSuffix(pattern, "*")

	s.mu.Lock()
	t, ok := s.patterns[prefix]
	if !ok {
		t = newTopic()
		s.patterns[prefix] = t
	}
	s.mu.Unlock()
	return t.subscribe()
}

// Publish delivers the message to the exact-channel topic, if present, and
// to every pattern topic whose prefix matches the channel. The return value
// counts topics fired, not live receivers.
func (s *Store) Publish(channel, payload string) int {
	msg := Message{Channel: channel, Payload: payload}

	s.mu.Lock()
	targets := make([]*Topic, 0, 1)
	if t, ok := s.channels[channel]; ok {
		targets = append(targets, t)
	}
	for prefix, t := range s.patterns {
		if strings.HasPrefix(channel, prefix) {
			targets = append(targets, t)
		}
	}
	s.mu.Unlock()

	for _, t := range targets {
		t.publish(msg)
	}
	return len(targets)
}
