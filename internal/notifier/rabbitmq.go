package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"directory-service/prometheus"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the notifier publishes through
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQNotifier publishes email jobs to a durable queue
type RabbitMQNotifier struct {
	conn  *amqp.Connection
	ch    Channel
	queue string
}

// NewRabbitMQNotifier dials the broker and declares the durable queue
func NewRabbitMQNotifier(url, queue string) (*RabbitMQNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &RabbitMQNotifier{conn: conn, ch: ch, queue: queue}, nil
}

// NewRabbitMQNotifierWithChannel publishes through an existing channel
func NewRabbitMQNotifierWithChannel(ch Channel, queue string) *RabbitMQNotifier {
	return &RabbitMQNotifier{ch: ch, queue: queue}
}

func (n *RabbitMQNotifier) Send(ctx context.Context, email, code, purpose string) error {
	err := n.publish(ctx, NewMessage(email, code, purpose))
	prometheus.RecordNotification(DriverRabbitMQ, err)
	return err
}

func (n *RabbitMQNotifier) publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	err = n.ch.PublishWithContext(ctx,
		"",      // exchange
		n.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish email job: %w", err)
	}
	return nil
}

func (n *RabbitMQNotifier) Close() error {
	if err := n.ch.Close(); err != nil {
		return err
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
