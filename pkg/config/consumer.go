package config

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// consumerPrefetch bounds unacknowledged deliveries per consumer
const consumerPrefetch = 16

type Consumer struct {
	channel *amqp.Channel
	queue   string
}

func NewConsumer(queueName string) (*Consumer, error) {
	ch, err := openChannel()
	if err != nil {
		return nil, err
	}
	q, err := declareQueue(ch, queueName)
	if err != nil {
		ch.Close()
		return nil, err
	}
	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set prefetch: %w", err)
	}
	return &Consumer{channel: ch, queue: q.Name}, nil
}

// Consume delivers messages to handler until ctx is cancelled or the channel
// closes. A failed message is requeued once; a redelivered message that fails
// again is dropped.
func (c *Consumer) Consume(ctx context.Context, handler func([]byte) error) error {
	msgs, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.queue, err)
	}

	log.Infof("Consumer is running on queue %s", c.queue)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("delivery channel for queue %s closed", c.queue)
			}
			c.handle(msg, handler)
		}
	}
}

func (c *Consumer) handle(msg amqp.Delivery, handler func([]byte) error) {
	err := handler(msg.Body)
	if err == nil {
		msg.Ack(false)
		return
	}
	fields := log.Fields{
		"queue":       c.queue,
		"message_id":  msg.MessageId,
		"redelivered": msg.Redelivered,
	}
	if msg.Redelivered {
		log.WithFields(fields).Errorf("Dropping message after retry: %v", err)
		msg.Nack(false, false)
		return
	}
	log.WithFields(fields).Warnf("Handle msg failed, requeueing: %v", err)
	msg.Nack(false, true)
}

func (c *Consumer) Close() error {
	return c.channel.Close()
}
