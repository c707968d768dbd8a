package config

import (
	"fmt"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

var RabbitMQ *amqp.Connection

const (
	rabbitMQDialAttempts = 8
	rabbitMQMaxBackoff   = 30 * time.Second
	rabbitMQHeartbeat    = 10 * time.Second
)

// AMQPURL builds the broker URL from the RABBITMQ_* settings
func (c *Config) AMQPURL() string {
	port, err := strconv.Atoi(c.RabbitMQPort)
	if err != nil {
		port = 5672
	}
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     c.RabbitMQHost,
		Port:     port,
		Username: c.RabbitMQUser,
		Password: c.RabbitMQPassword,
		Vhost:    "/",
	}
	return uri.String()
}

// InitRabbitMQ connects to the broker, backing off while it starts up
func InitRabbitMQ(cfg *Config) error {
	backoff := time.Second
	var err error
	for attempt := 1; attempt <= rabbitMQDialAttempts; attempt++ {
		var conn *amqp.Connection
		conn, err = amqp.DialConfig(cfg.AMQPURL(), amqp.Config{
			Heartbeat:  rabbitMQHeartbeat,
			Properties: amqp.Table{"connection_name": "nft-market"},
		})
		if err == nil {
			RabbitMQ = conn
			log.WithField("host", cfg.RabbitMQHost).Info("Connected to RabbitMQ")
			return nil
		}
		if attempt == rabbitMQDialAttempts {
			break
		}
		log.Warnf("RabbitMQ not reachable (attempt %d/%d): %v, retrying in %v", attempt, rabbitMQDialAttempts, err, backoff)
		time.Sleep(backoff)
		if backoff *= 2; backoff > rabbitMQMaxBackoff {
			backoff = rabbitMQMaxBackoff
		}
	}
	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", rabbitMQDialAttempts, err)
}

// CloseRabbitMQ closes the shared connection if open
func CloseRabbitMQ() {
	if RabbitMQ == nil {
		return
	}
	if err := RabbitMQ.Close(); err != nil {
		log.Warnf("Failed to close RabbitMQ connection: %v", err)
	}
	RabbitMQ = nil
}

// openChannel opens a channel on the shared connection
func openChannel() (*amqp.Channel, error) {
	if RabbitMQ == nil || RabbitMQ.IsClosed() {
		return nil, fmt.Errorf("RabbitMQ connection not initialized")
	}
	ch, err := RabbitMQ.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return ch, nil
}

// declareQueue declares the durable queue events are routed to
func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare queue %s: %w", name, err)
	}
	return q, nil
}
