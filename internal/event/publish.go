package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExportCompletedKey  = "catalog.exported"
	PricingSubmittedKey = "pricing.submitted"
)

type ExportCompleted struct {
	Output   string `json:"output,omitempty"`
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
	Requests int    `json:"requests"`
	Reason   string `json:"reason"`
	Error    string `json:"error,omitempty"`
}

type PricingSubmitted struct {
	Updates    int    `json:"updates"`
	StatusCode int    `json:"statusCode,omitempty"`
	Accepted   bool   `json:"accepted"`
	Error      string `json:"error,omitempty"`
}

type message struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Publisher announces finished runs. Publishing is best effort: callers log
// a failure and carry on.
type Publisher interface {
	PublishExportCompleted(ctx context.Context, e ExportCompleted) error
	PublishPricingSubmitted(ctx context.Context, e PricingSubmitted) error
	Close()
}

type PublishingChannel interface {
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	Close() error
}

type RabbitPublisher struct {
	conn     *amqp.Connection
	ch       PublishingChannel
	exchange string
	logger   *log.Logger
}

func NewRabbitPublisher(uri, exchange string, logger *log.Logger) (*RabbitPublisher, error) {
	if logger == nil {
		logger = log.Default()
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq connection failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel creation failed: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("exchange declare failed: %w", err)
	}

	return &RabbitPublisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

func (p *RabbitPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func (p *RabbitPublisher) PublishExportCompleted(ctx context.Context, e ExportCompleted) error {
	return p.publish(ctx, ExportCompletedKey, e)
}

func (p *RabbitPublisher) PublishPricingSubmitted(ctx context.Context, e PricingSubmitted) error {
	return p.publish(ctx, PricingSubmittedKey, e)
}

func (p *RabbitPublisher) publish(ctx context.Context, key string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(message{
		Event:     key,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return err
	}

	if err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		key,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		},
	); err != nil {
		return err
	}

	p.logger.Printf("published %s to %s", key, p.exchange)
	return nil
}

// NewPublisher connects to uri, or returns a NopPublisher when uri is empty.
func NewPublisher(uri, exchange string, logger *log.Logger) (Publisher, error) {
	if uri == "" {
		return NopPublisher{}, nil
	}
	p, err := NewRabbitPublisher(uri, exchange, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishExportCompleted(context.Context, ExportCompleted) error   { return nil }
func (NopPublisher) PublishPricingSubmitted(context.Context, PricingSubmitted) error { return nil }
func (NopPublisher) Close()                                                          {}
