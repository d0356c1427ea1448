package events

import (
	"context"
	"encoding/json"
	"time"

	"config_client/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// channelPublisher is satisfied by *amqp.Channel.
type channelPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Publisher struct {
	ch      channelPublisher
	queue   string
	metrics *observability.Metrics
}

func NewPublisher(ch channelPublisher, queue string, metrics *observability.Metrics) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Publisher{ch: ch, queue: queue, metrics: metrics}
}

func (p *Publisher) PublishUserEvent(ctx context.Context, ev UserEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.ch.PublishWithContext(
		ctx,
		"",      // exchange
		p.queue, // routing key (queue name)
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	); err != nil {
		return err
	}

	p.metrics.MessagePublished(p.queue)
	return nil
}
