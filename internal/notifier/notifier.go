package notifier

import (
	"context"
	"fmt"
	"time"

	"directory-service/internal/model"
	"directory-service/pkg/config"

	"go.uber.org/zap"
)

// Drivers
const (
	DriverLog      = "log"
	DriverRabbitMQ = "rabbitmq"
	DriverKafka    = "kafka"
)

// Notifier delivers a one-time code to its owner out of band
type Notifier interface {
	Send(ctx context.Context, email, code, purpose string) error
	Close() error
}

// Message is the email job handed to the delivery backend
type Message struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Purpose   string    `json:"purpose"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage builds the email job for an OTP
func NewMessage(email, code, purpose string) Message {
	return Message{
		To:        email,
		Subject:   subjectFor(purpose),
		Purpose:   purpose,
		Code:      code,
		CreatedAt: time.Now().UTC(),
	}
}

func subjectFor(purpose string) string {
	switch purpose {
	case model.PurposePasswordReset:
		return "Your password reset code"
	case model.PurposeEmailConfirmation:
		return "Confirm your email address"
	}
	return "Your verification code"
}

// New builds the notifier selected by cfg.Driver
func New(cfg *config.Config, log *zap.Logger) (Notifier, error) {
	switch cfg.Notifier.Driver {
	case "", DriverLog:
		return NewLogNotifier(log, cfg.IsDevelopment()), nil
	case DriverRabbitMQ:
		return NewRabbitMQNotifier(cfg.Notifier.RabbitMQURL, cfg.Notifier.Queue)
	case DriverKafka:
		return NewKafkaNotifier(cfg.Notifier.KafkaBrokers, cfg.Notifier.KafkaTopic), nil
	}
	return nil, fmt.Errorf("unknown notifier driver %q", cfg.Notifier.Driver)
}
