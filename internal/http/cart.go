package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/catalog"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/coerce"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/middleware"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/view"
)

const defaultKeepAlive = 15 * time.Second

// CartHandler exposes the session cart. Every /me route has a session id in
// context; the registry maps it to the session's slot key.
type CartHandler struct {
	carts     *cart.Registry
	catalog   ProductCatalog
	log       zerolog.Logger
	keepAlive time.Duration
	closing   <-chan struct{}
}

func NewCartHandler(carts *cart.Registry, c ProductCatalog, logger zerolog.Logger) *CartHandler {
	return &CartHandler{carts: carts, catalog: c, log: logger, keepAlive: defaultKeepAlive}
}

func (h *CartHandler) store(r *http.Request) *cart.Store {
	return h.carts.Open(r.Context(), middleware.GetSessionID(r.Context()))
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	c := h.store(r).Load(r.Context())
	writeJSON(w, http.StatusOK, view.NewCart(c))
}

func (h *CartHandler) Badge(w http.ResponseWriter, r *http.Request) {
	c := h.store(r).Load(r.Context())
	writeJSON(w, http.StatusOK, view.NewBadge(c))
}

type addItemRequest struct {
	ProductID json.RawMessage `json:"productId"`
	Quantity  json.RawMessage `json:"quantity"`
}

// AddItem adds a product from its detail page. Name, price and image come
// from the catalog, never from the request.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id, ok := coerce.Int(req.ProductID)
	if !ok || id <= 0 {
		writeError(w, r, http.StatusBadRequest, "productId must be a positive integer")
		return
	}
	qty := int64(1)
	if len(req.Quantity) > 0 {
		if qty, ok = coerce.Int(req.Quantity); !ok {
			writeError(w, r, http.StatusBadRequest, "quantity must be an integer")
			return
		}
	}

	d, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, view.DetailNotFound)
			return
		}
		h.log.Warn().Err(err).Int64("product_id", id).Msg("add to cart: product lookup failed")
		writeError(w, r, http.StatusBadGateway, "catalog request failed")
		return
	}

	n, err := view.ClampQuantity(qty, d.Stock)
	switch {
	case errors.Is(err, view.ErrInvalidQuantity):
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, view.ErrOutOfStock):
		writeError(w, r, http.StatusConflict, err.Error())
		return
	}

	c, err := h.store(r).AddOrMerge(r.Context(), view.LineItemFor(d, n))
	if err != nil {
		h.storageFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.NewCart(c))
}

type setQuantityRequest struct {
	Quantity json.RawMessage `json:"quantity"`
}

// SetQuantity replaces a line's quantity. Values below one and unknown
// products leave the cart unchanged.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "productId")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid productId")
		return
	}
	var req setQuantityRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	qty, ok := coerce.Int(req.Quantity)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "quantity must be an integer")
		return
	}

	c, err := h.store(r).SetQuantity(r.Context(), id, int(qty))
	if err != nil {
		h.storageFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.NewCart(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "productId")
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid productId")
		return
	}
	c, err := h.store(r).Remove(r.Context(), id)
	if err != nil {
		h.storageFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.NewCart(c))
}

// Save writes the view's current cart back to storage as-is.
func (h *CartHandler) Save(w http.ResponseWriter, r *http.Request) {
	s := h.store(r)
	if err := s.Persist(r.Context()); err != nil {
		h.storageFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.NewCart(s.Snapshot()))
}

// Stream sends the cart as server-sent events: the current state first, then
// every reconciled change until the client goes away or the server closes.
func (h *CartHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	s := h.store(r)
	updates, cancel := s.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, view.NewCart(s.Load(r.Context()))); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := h.keepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.closing:
			return
		case c, ok := <-updates:
			if !ok {
				return
			}
			if err := writeEvent(w, view.NewCart(c)); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, v view.Cart) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: cart\ndata: %s\n\n", b)
	return err
}

func (h *CartHandler) storageFailure(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error().Err(err).
		Str("correlation_id", middleware.GetCorrelationID(r.Context())).
		Msg("cart storage failed")
	writeError(w, r, http.StatusInternalServerError, "cart storage unavailable")
}
