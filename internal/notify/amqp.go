package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/types"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	routingKeyEmergency = "escalation.emergency"
	routingKeyQuality   = "call.quality.degraded"
)

// AMQPNotifier publishes escalation and quality alerts to a topic
// exchange for downstream consumers (pager bridges, dashboards)
type AMQPNotifier struct {
	conn     *amqp091.Connection
	exchange string
	logger   zerolog.Logger
}

// NewAMQPNotifier connects to the broker and declares the alert
// exchange
func NewAMQPNotifier(url, exchange string, logger zerolog.Logger) (*AMQPNotifier, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(
		exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPNotifier{
		conn:     conn,
		exchange: exchange,
		logger:   logger.With().Str("component", "notify").Logger(),
	}, nil
}

// NotifyEmergency publishes an emergency-call alert
func (n *AMQPNotifier) NotifyEmergency(ctx context.Context, call types.EmergencyCall) error {
	return n.publish(ctx, routingKeyEmergency, call)
}

// NotifyQualityDegraded publishes a degraded-call alert
func (n *AMQPNotifier) NotifyQualityDegraded(ctx context.Context, session types.CallSession) error {
	return n.publish(ctx, routingKeyQuality, session)
}

func (n *AMQPNotifier) publish(ctx context.Context, key string, payload any) error {
	ch, err := n.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx, n.exchange, key, false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err == nil {
		n.logger.Debug().Str("key", key).Str("exchange", n.exchange).Msg("alert published")
	}
	return err
}

// Close shuts down the broker connection
func (n *AMQPNotifier) Close() error {
	return n.conn.Close()
}

// NoopNotifier drops all alerts, for local runs without a broker
type NoopNotifier struct{}

func (NoopNotifier) NotifyEmergency(ctx context.Context, call types.EmergencyCall) error {
	return nil
}

func (NoopNotifier) NotifyQualityDegraded(ctx context.Context, session types.CallSession) error {
	return nil
}

func (NoopNotifier) Close() error { return nil }
