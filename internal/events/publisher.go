package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/middleware"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher announces cart writes as CartUpdated events. It satisfies
// cart.Notifier.
type Publisher struct {
	ch       amqpPublisher
	seq      *Sequencer
	producer string
}

type PublisherOptions struct {
	// Producer identifies this instance. Consumers skip their own events by
	// comparing it.
	Producer string
}

func NewPublisher(conn *amqp.Connection, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	return newPublisher(ch, opts), nil
}

func newPublisher(ch amqpPublisher, opts PublisherOptions) *Publisher {
	producer := opts.Producer
	if producer == "" {
		producer = DefaultProducer
	}
	return &Publisher{ch: ch, seq: NewSequencer(), producer: producer}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

var _ cart.Notifier = (*Publisher)(nil)

func (p *Publisher) Notify(ctx context.Context, key string, c cart.Cart) error {
	seq, err := p.seq.Next(key)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env, err := BuildCartUpdatedEvent(key, c, EnvelopeOptions{
		Sequence:      seq,
		Producer:      p.producer,
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err != nil {
		return err
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartUpdated envelope: %w", err)
	}
	return p.publishJSON(ctx, CartUpdatedRoutingKey, env.EventID, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   messageID,
			Timestamp:   time.Now().UTC(),
			Body:        body,
		},
	)
}
