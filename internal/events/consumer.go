package events

import (
	"context"
	"fmt"
	"math"

	"config_client/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	retryHeader       = "x-retry-count"
	DefaultMaxRetries = 3
)

// Handler processes one decoded event. A returned error triggers a retry.
type Handler func(ctx context.Context, ev UserEvent) error

type Consumer struct {
	conn       *amqp.Connection
	queue      string
	maxRetries int32
	metrics    *observability.Metrics
}

func NewConsumer(conn *amqp.Connection, queue string, metrics *observability.Metrics) *Consumer {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Consumer{
		conn:       conn,
		queue:      queue,
		maxRetries: DefaultMaxRetries,
		metrics:    metrics,
	}
}

// Run consumes the queue until ctx is cancelled or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context, id int, handler Handler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("consumer %d failed to open channel: %w", id, err)
	}
	defer ch.Close()

	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("consumer %d failed to set QoS: %w", id, err)
	}

	msgs, err := ch.ConsumeWithContext(
		ctx,
		c.queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consumer %d failed to start consuming messages: %w", id, err)
	}

	logrus.Infof("Consumer %d started on queue %s", id, c.queue)
	return c.consume(ctx, id, ch, msgs, handler)
}

func (c *Consumer) consume(ctx context.Context, id int, pub channelPublisher, msgs <-chan amqp.Delivery, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			logrus.Infof("Consumer %d stopping", id)
			return nil
		case msg, ok := <-msgs:
			if !ok {
				// cancelling ctx closes the delivery channel too
				if ctx.Err() != nil {
					logrus.Infof("Consumer %d stopping", id)
					return nil
				}
				return fmt.Errorf("consumer %d: delivery channel closed", id)
			}
			c.process(ctx, pub, msg, handler)
		}
	}
}

func (c *Consumer) process(ctx context.Context, pub channelPublisher, msg amqp.Delivery, handler Handler) {
	c.metrics.MessageConsumed(c.queue)

	ev, err := Decode(msg.Body)
	if err != nil {
		logrus.WithError(err).Error("Dropping malformed user event")
		c.metrics.MessageFailed(c.queue, "decode")
		_ = msg.Nack(false, false)
		return
	}

	retryCount := retryCountOf(msg.Headers)

	if err := handler(ctx, ev); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": ev.UserID,
			"action":  ev.Action,
			"retry":   retryCount,
		}).Error("Failed to handle user event")

		if retryCount >= c.maxRetries {
			c.metrics.MessageFailed(c.queue, "max_retries")
			_ = msg.Nack(false, false)
			return
		}

		if err := republishWithRetry(ctx, pub, &msg, retryCount+1); err != nil {
			logrus.WithError(err).Error("Failed to republish message")
			c.metrics.MessageFailed(c.queue, "republish_error")
			_ = msg.Nack(false, true)
			return
		}

		c.metrics.MessagePublished(c.queue)
		_ = msg.Ack(false)
		return
	}

	_ = msg.Ack(false)
}

func republishWithRetry(ctx context.Context, pub channelPublisher, msg *amqp.Delivery, retryCount int32) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retryHeader] = retryCount

	return pub.PublishWithContext(
		ctx,
		"",             // exchange
		msg.RoutingKey, // routing key (queue name)
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         msg.Body,
			Headers:      headers,
		},
	)
}

// retryCountOf reads the retry header; brokers may hand integers back in any width.
// Negative counts are treated as exhausted.
func retryCountOf(headers amqp.Table) int32 {
	var count int64
	switch v := headers[retryHeader].(type) {
	case int32:
		count = int64(v)
	case int64:
		count = v
	case int:
		count = int64(v)
	case int16:
		count = int64(v)
	case int8:
		count = int64(v)
	default:
		return 0
	}

	switch {
	case count < 0:
		return DefaultMaxRetries
	case count > math.MaxInt32:
		return math.MaxInt32
	}
	return int32(count)
}
