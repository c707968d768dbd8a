package config

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

const publishConfirmTimeout = 5 * time.Second

// identified messages carry their id into the AMQP message-id property
type identified interface {
	MessageID() string
}

// Publisher publishes JSON messages to durable queues and waits for the
// broker to confirm each one
type Publisher struct {
	channel  *amqp.Channel
	mu       sync.Mutex
	declared map[string]bool
}

// NewPublisher opens a confirm-mode channel on the shared connection
func NewPublisher() (*Publisher, error) {
	ch, err := openChannel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	return &Publisher{
		channel:  ch,
		declared: make(map[string]bool),
	}, nil
}

// Publish delivers message to queueName as a persistent JSON message
func (p *Publisher) Publish(queueName string, message interface{}) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}
	if m, ok := message.(identified); ok {
		msg.MessageId = m.MessageID()
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[queueName] {
		if _, err := declareQueue(p.channel, queueName); err != nil {
			return err
		}
		p.declared[queueName] = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishConfirmTimeout)
	defer cancel()
	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, "", queueName, false, false, msg)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queueName, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("no confirm for message on %s: %w", queueName, err)
	}
	if !acked {
		return fmt.Errorf("broker rejected message on %s", queueName)
	}

	log.WithFields(log.Fields{
		"queue":      queueName,
		"message_id": msg.MessageId,
	}).Debug("Published message")
	return nil
}

// Close closes the publisher channel
func (p *Publisher) Close() error {
	if p.channel == nil {
		return nil
	}
	return p.channel.Close()
}
