package bus

import (
	"context"
	"sync"
)

// FakeClient is an in-process Client used by unit and scenario tests
// (no broker dependency). Publish records every publish for assertions
// and does not deliver to subscribers; Deliver simulates an inbound
// message.
type FakeClient struct {
	mu          sync.Mutex
	connected   bool
	handlers    map[string]MessageHandler
	Published   []FakePublish
}

// FakePublish records one call to Publish.
type FakePublish struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// NewFakeClient constructs an empty fake bus client.
func NewFakeClient() *FakeClient {
	return &FakeClient{handlers: make(map[string]MessageHandler)}
}

func (f *FakeClient) Connect(_ context.Context) error { f.connected = true; return nil }
func (f *FakeClient) Disconnect()                     { f.connected = false }
func (f *FakeClient) IsConnected() bool                { return f.connected }

func (f *FakeClient) Subscribe(topic string, _ byte, handler MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *FakeClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	f.Published = append(f.Published, FakePublish{Topic: topic, QoS: qos, Retained: retained, Payload: payload})
	f.mu.Unlock()
	return nil
}

// Deliver simulates an inbound message arriving on topic, invoking
// every subscribed handler whose topic matches exactly or via a
// single-level "+" wildcard segment, the way a real broker would
// fan out a publish to matching subscriptions (test helper, not part
// of Client).
func (f *FakeClient) Deliver(topic string, payload []byte) {
	f.mu.Lock()
	var matched []MessageHandler
	for subTopic, h := range f.handlers {
		if topicMatches(subTopic, topic) {
			matched = append(matched, h)
		}
	}
	f.mu.Unlock()
	for _, h := range matched {
		h(&fakeMessage{topic: topic, payload: payload})
	}
}

// topicMatches reports whether publishTopic satisfies subscription,
// treating "+" as matching exactly one "/"-delimited segment.
func topicMatches(subscription, publishTopic string) bool {
	subParts := splitTopic(subscription)
	pubParts := splitTopic(publishTopic)
	if len(subParts) != len(pubParts) {
		return false
	}
	for i, s := range subParts {
		if s != "+" && s != pubParts[i] {
			return false
		}
	}
	return true
}

func splitTopic(topic string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(topic); i++ {
		if topic[i] == '/' {
			parts = append(parts, topic[start:i])
			start = i + 1
		}
	}
	parts = append(parts, topic[start:])
	return parts
}

// LastPublished returns the most recent publish to topic, or nil.
func (f *FakeClient) LastPublished(topic string) *FakePublish {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.Published) - 1; i >= 0; i-- {
		if f.Published[i].Topic == topic {
			return &f.Published[i]
		}
	}
	return nil
}

// AllPublished returns every recorded publish to topic, oldest first.
func (f *FakeClient) AllPublished(topic string) []FakePublish {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []FakePublish
	for _, p := range f.Published {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Topic() string   { return m.topic }
func (m *fakeMessage) Payload() []byte { return m.payload }
func (m *fakeMessage) Ack()            {}
