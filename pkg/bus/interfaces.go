// Package bus defines the publish/subscribe transport boundary
// (spec.md §6): topics, binary self-describing map-based payload
// codec, and the Client/Message interfaces the orchestrator depends
// on. Grounded on the teacher's pkg/mqtt/interfaces.go, generalised
// from a single MessageHandler shape to the same shape (no change
// needed: the teacher's abstraction already matches the spec's
// transport boundary exactly).
package bus

import "context"

// Client is a publish/subscribe transport connection.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect()
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Publish(topic string, qos byte, retained bool, payload []byte) error
	IsConnected() bool
}

// MessageHandler receives one inbound message.
type MessageHandler func(Message)

// Message is one received publish.
type Message interface {
	Topic() string
	Payload() []byte
	Ack()
}
