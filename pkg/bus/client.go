package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Options configures the MQTT-backed client.
type Options struct {
	BrokerAddress string
	ClientID      string
	Username      string
	Password      string
}

type mqttClient struct {
	client pahomqtt.Client
	logger *slog.Logger
}

// NewMQTTClient builds a bus Client backed by Paho (grounded on the
// teacher's pkg/mqtt/client.go connection-option idiom).
func NewMQTTClient(opts Options, logger *slog.Logger) Client {
	copts := pahomqtt.NewClientOptions()
	copts.AddBroker(opts.BrokerAddress)

	clientID := opts.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("lidar2d-agent-%d", time.Now().Unix())
	}
	copts.SetClientID(clientID)

	if opts.Username != "" {
		copts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		copts.SetPassword(opts.Password)
	}

	copts.SetCleanSession(true)
	copts.SetAutoReconnect(true)
	copts.SetConnectRetry(true)
	copts.SetConnectRetryInterval(5 * time.Second)
	copts.SetMaxReconnectInterval(30 * time.Second)

	copts.OnConnect = func(c pahomqtt.Client) {
		logger.Info("connected to broker", "broker", opts.BrokerAddress)
	}
	copts.OnConnectionLost = func(c pahomqtt.Client, err error) {
		logger.Warn("broker connection lost", "error", err)
	}

	return &mqttClient{client: pahomqtt.NewClient(copts), logger: logger}
}

func (m *mqttClient) Connect(ctx context.Context) error {
	token := m.client.Connect()
	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("bus: connect: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("bus: connect timeout: %w", ctx.Err())
	}
}

func (m *mqttClient) Disconnect() {
	m.client.Disconnect(250)
}

func (m *mqttClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	pahoHandler := func(c pahomqtt.Client, msg pahomqtt.Message) {
		handler(&mqttMessage{msg: msg})
	}
	token := m.client.Subscribe(topic, qos, pahoHandler)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("bus: subscribe %s: %w", topic, token.Error())
	}
	return nil
}

func (m *mqttClient) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := m.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("bus: publish %s: %w", topic, token.Error())
	}
	return nil
}

func (m *mqttClient) IsConnected() bool { return m.client.IsConnected() }

type mqttMessage struct{ msg pahomqtt.Message }

func (m *mqttMessage) Topic() string   { return m.msg.Topic() }
func (m *mqttMessage) Payload() []byte { return m.msg.Payload() }
func (m *mqttMessage) Ack()            { m.msg.Ack() }
