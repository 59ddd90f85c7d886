package events

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
)

// Consumer turns CartUpdated events from other instances into a cart.Feed.
// Each Changes call binds its own exclusive, auto-deleted queue, so every
// instance sees every event.
type Consumer struct {
	conn     *amqp.Connection
	producer string
	log      zerolog.Logger
}

func NewConsumer(conn *amqp.Connection, producer string, logger zerolog.Logger) *Consumer {
	if producer == "" {
		producer = DefaultProducer
	}
	return &Consumer{conn: conn, producer: producer, log: logger}
}

var _ cart.Feed = (*Consumer)(nil)

func (c *Consumer) Changes(ctx context.Context) (<-chan string, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	msgs, err := subscribe(ch)
	if err != nil {
		ch.Close()
		return nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					c.log.Warn().Msg("cart.updated deliveries closed")
					return
				}
				key, ok, err := changedKey(msg.Body, c.producer)
				if err != nil {
					c.log.Warn().Err(err).Str("message_id", msg.MessageId).Msg("dropping malformed CartUpdated event")
					continue
				}
				if !ok {
					continue
				}
				select {
				case out <- key:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func subscribe(ch *amqp.Channel) (<-chan amqp.Delivery, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	q, err := ch.QueueDeclare(
		"",
		false, // durable
		true,  // autoDelete
		true,  // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, CartUpdatedRoutingKey, EventsExchange, false, nil); err != nil {
		return nil, fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(
		q.Name,
		"",
		true, // autoAck
		true, // exclusive
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return msgs, nil
}

// changedKey extracts the slot key from a CartUpdated delivery. Events this
// instance produced itself report ok=false.
func changedKey(body []byte, self string) (string, bool, error) {
	env, err := parseEnvelope(body)
	if err != nil {
		return "", false, err
	}
	if err := env.Validate(CartUpdatedEventName, CartUpdatedEventVersion); err != nil {
		return "", false, err
	}
	if env.Producer == self {
		return "", false, nil
	}
	return env.PartitionKey, true, nil
}
