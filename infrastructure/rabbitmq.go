package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"application-intake/domain"
)

const publishTimeout = 5 * time.Second

// RabbitMQ publishes application events to a durable queue.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

// NewRabbitMQ connects to cfg.URL and declares cfg.Queue.
func NewRabbitMQ(cfg RabbitMQConfig) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	return &RabbitMQ{conn: conn, channel: ch, queue: q}, nil
}

const applicationSubmittedType = "application.submitted"

// PublishApplicationSubmitted sends evt as a persistent JSON message.
func (r *RabbitMQ) PublishApplicationSubmitted(ctx context.Context, evt domain.ApplicationSubmitted) error {
	msg, err := newApplicationSubmittedMessage(evt)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return r.channel.PublishWithContext(
		ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		msg,
	)
}

func newApplicationSubmittedMessage(evt domain.ApplicationSubmitted) (amqp.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode %s event: %w", applicationSubmittedType, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    evt.SubmittedAt,
		Type:         applicationSubmittedType,
		Body:         body,
	}, nil
}

func (r *RabbitMQ) Close() error {
	return errors.Join(r.channel.Close(), r.conn.Close())
}
