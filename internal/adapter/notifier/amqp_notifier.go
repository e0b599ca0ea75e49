package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"staff-quiz/internal/config"
	"staff-quiz/internal/domain"
	"staff-quiz/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher is the part of *amqp.Channel the notifier needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier publishes training events to a topic exchange.
type AMQPNotifier struct {
	publisher  Publisher
	exchange   string
	routingKey string
	conn       *amqp.Connection
}

// NewAMQPNotifier wraps an existing publisher.
func NewAMQPNotifier(publisher Publisher, exchange, routingKey string) *AMQPNotifier {
	return &AMQPNotifier{publisher: publisher, exchange: exchange, routingKey: routingKey}
}

// DialAMQPNotifier connects to the broker and declares the exchange.
func DialAMQPNotifier(cfg config.NotifierConfig) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	n := NewAMQPNotifier(ch, cfg.Exchange, cfg.RoutingKey)
	n.conn = conn
	return n, nil
}

func (n *AMQPNotifier) NotifyAttemptRecorded(ctx context.Context, event domain.AttemptRecordedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal attempt event: %w", err)
	}
	err = n.publisher.PublishWithContext(ctx, n.exchange, n.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.AttemptID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish attempt event: %w", err)
	}
	logger.Get().Debug("Published attempt event",
		zap.String("attempt_id", event.AttemptID),
		zap.String("routing_key", n.routingKey))
	return nil
}

// Close releases the broker connection, if the notifier owns one.
func (n *AMQPNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

// NoopNotifier drops events. It is used when no broker is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyAttemptRecorded(context.Context, domain.AttemptRecordedEvent) error {
	return nil
}

var (
	_ domain.TrainingNotifier = (*AMQPNotifier)(nil)
	_ domain.TrainingNotifier = NoopNotifier{}
)
