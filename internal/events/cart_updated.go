package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
)

const (
	CartUpdatedEventName    = "CartUpdated"
	CartUpdatedEventVersion = 1
	CartUpdatedSchemaPath   = "contracts/events/cart/CartUpdated.v1.enveloped.schema.json"
	DefaultProducer         = "storefront"
)

// CartUpdatedPayload carries the cart as it was written. Consumers only need
// the slot key to invalidate, the rest is for auditing.
type CartUpdatedPayload struct {
	CartKey     string            `json:"cartKey"`
	Items       []CartUpdatedItem `json:"items"`
	ItemCount   int               `json:"itemCount"`
	TotalAmount decimal.Decimal   `json:"totalAmount"`
	Timestamp   time.Time         `json:"timestamp"`
}

type CartUpdatedItem struct {
	ProductID int64           `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type EnvelopeOptions struct {
	Sequence      int64
	Producer      string
	CorrelationID string
	CausationID   string
	EventID       string
	OccurredAt    time.Time
}

// BuildCartUpdatedEvent wraps the cart stored under key in a v1 envelope
// partitioned by that key.
func BuildCartUpdatedEvent(key string, c cart.Cart, opts EnvelopeOptions) (EventEnvelope, error) {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	producer := opts.Producer
	if producer == "" {
		producer = DefaultProducer
	}

	payload := CartUpdatedPayload{
		CartKey:     key,
		Items:       make([]CartUpdatedItem, 0, len(c.Items)),
		ItemCount:   c.Count(),
		TotalAmount: cart.Total(c),
		Timestamp:   occurredAt,
	}
	for _, it := range c.Items {
		payload.Items = append(payload.Items, CartUpdatedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.UnitPrice,
		})
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("marshal CartUpdated payload: %w", err)
	}

	return EventEnvelope{
		EventName:     CartUpdatedEventName,
		EventVersion:  CartUpdatedEventVersion,
		EventID:       eventID,
		CorrelationID: opts.CorrelationID,
		CausationID:   opts.CausationID,
		Producer:      producer,
		PartitionKey:  key,
		Sequence:      opts.Sequence,
		OccurredAt:    occurredAt,
		Schema:        CartUpdatedSchemaPath,
		Payload:       raw,
	}, nil
}
