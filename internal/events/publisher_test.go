package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/middleware"
)

type publishCall struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	calls []publishCall
	err   error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.calls = append(f.calls, publishCall{exchange: exchange, key: key, msg: msg})
	return f.err
}

func (f *fakeChannel) Close() error { return nil }

// withCorrelationID runs a request through the correlation middleware and
// returns the context the handler saw.
func withCorrelationID(t *testing.T, cid string) context.Context {
	t.Helper()
	var ctx context.Context
	h := middleware.CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx = r.Context()
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderCorrelationID, cid)
	h.ServeHTTP(httptest.NewRecorder(), req)
	return ctx
}

func TestPublisherNotify(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, PublisherOptions{Producer: "storefront-a"})
	ctx := withCorrelationID(t, "corr-1")

	if err := p.Notify(ctx, "carrito:s1", sampleCart()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := p.Notify(ctx, "carrito:s1", sampleCart()); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(ch.calls) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(ch.calls))
	}
	call := ch.calls[1]
	if call.exchange != EventsExchange || call.key != CartUpdatedRoutingKey {
		t.Fatalf("unexpected route %s/%s", call.exchange, call.key)
	}
	if call.msg.ContentType != "application/json" {
		t.Fatalf("unexpected content type %q", call.msg.ContentType)
	}

	var env EventEnvelope
	if err := json.Unmarshal(call.msg.Body, &env); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if env.Sequence != 2 {
		t.Fatalf("expected second event to carry sequence 2, got %d", env.Sequence)
	}
	if env.CorrelationID != "corr-1" || env.Producer != "storefront-a" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if call.msg.MessageId != env.EventID {
		t.Fatalf("message id %q does not match event id %q", call.msg.MessageId, env.EventID)
	}
}

func TestPublisherNotifyError(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newPublisher(ch, PublisherOptions{})
	if err := p.Notify(context.Background(), "carrito", sampleCart()); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestChangedKey(t *testing.T) {
	body := func(producer string) []byte {
		env, err := BuildCartUpdatedEvent("carrito:s7", sampleCart(), EnvelopeOptions{Producer: producer})
		if err != nil {
			t.Fatalf("build: %v", err)
		}
		b, err := json.Marshal(env)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return b
	}

	t.Run("other instance", func(t *testing.T) {
		key, ok, err := changedKey(body("storefront-b"), "storefront-a")
		if err != nil || !ok || key != "carrito:s7" {
			t.Fatalf("got key=%q ok=%v err=%v", key, ok, err)
		}
	})

	t.Run("own event skipped", func(t *testing.T) {
		_, ok, err := changedKey(body("storefront-a"), "storefront-a")
		if err != nil || ok {
			t.Fatalf("expected skip, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		if _, _, err := changedKey([]byte("{"), "storefront-a"); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("other event name", func(t *testing.T) {
		b := []byte(`{"eventName":"CartCheckedOut","eventVersion":1,"eventId":"x","partitionKey":"c"}`)
		if _, _, err := changedKey(b, "storefront-a"); err == nil {
			t.Fatalf("expected validation error")
		}
	})
}
