package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"directory-service/prometheus"

	"github.com/segmentio/kafka-go"
)

// Writer is the subset of kafka.Writer the notifier needs
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes email jobs to a topic, keyed by recipient
type KafkaNotifier struct {
	writer Writer
}

// NewKafkaNotifier creates a notifier writing to topic on brokers
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// NewKafkaNotifierWithWriter allows injecting a test writer
func NewKafkaNotifierWithWriter(w Writer) *KafkaNotifier {
	return &KafkaNotifier{writer: w}
}

func (n *KafkaNotifier) Send(ctx context.Context, email, code, purpose string) error {
	err := n.write(ctx, NewMessage(email, code, purpose))
	prometheus.RecordNotification(DriverKafka, err)
	return err
}

func (n *KafkaNotifier) write(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	if err := n.writer.WriteMessages(ctx, kafka.Message{Key: []byte(msg.To), Value: value}); err != nil {
		return fmt.Errorf("write email job: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
