package cart

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/coerce"
)

// persistedItem is the on-disk layout shared with the storefront UI:
// [{id, nombre, precio, imagen, cantidad}].
type persistedItem struct {
	ID       int64       `json:"id"`
	Nombre   string      `json:"nombre"`
	Precio   json.Number `json:"precio"`
	Imagen   string      `json:"imagen"`
	Cantidad int         `json:"cantidad"`
}

// rawItem keeps every field untyped so each one can be coerced on its own.
type rawItem struct {
	ID       json.RawMessage `json:"id"`
	Nombre   json.RawMessage `json:"nombre"`
	Precio   json.RawMessage `json:"precio"`
	Imagen   json.RawMessage `json:"imagen"`
	Cantidad json.RawMessage `json:"cantidad"`
}

// Encode serialises a cart into the persisted blob format.
func Encode(c Cart) ([]byte, error) {
	out := make([]persistedItem, 0, len(c.Items))
	for _, it := range c.Items {
		out = append(out, persistedItem{
			ID:       it.ProductID,
			Nombre:   it.Name,
			Precio:   json.Number(it.UnitPrice.String()),
			Imagen:   it.ImageRef,
			Cantidad: it.Quantity,
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return b, nil
}

// Decode parses a persisted blob. A blob that is not a JSON array is an
// error. Individual items whose id, price or quantity cannot be coerced, whose
// price is negative, or whose quantity is below 1 are dropped and counted.
// Repeated ids are folded into the first occurrence.
func Decode(blob []byte) (Cart, int, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(blob, &raws); err != nil {
		return Cart{}, 0, fmt.Errorf("decode cart: %w", err)
	}

	c := Cart{Items: make([]LineItem, 0, len(raws))}
	dropped := 0
	for _, raw := range raws {
		it, ok := decodeItem(raw)
		if !ok {
			dropped++
			continue
		}
		c = merge(c, it)
	}
	return c, dropped, nil
}

func decodeItem(raw json.RawMessage) (LineItem, bool) {
	var r rawItem
	if err := json.Unmarshal(raw, &r); err != nil {
		return LineItem{}, false
	}

	id, ok := coerce.Int(r.ID)
	if !ok {
		return LineItem{}, false
	}
	price, ok := coerce.Decimal(r.Precio)
	if !ok || price.IsNegative() {
		return LineItem{}, false
	}
	qty, ok := coerce.Int(r.Cantidad)
	if !ok || qty < 1 || qty > math.MaxInt {
		return LineItem{}, false
	}

	return LineItem{
		ProductID: id,
		Name:      coerce.String(r.Nombre),
		UnitPrice: price,
		ImageRef:  coerce.String(r.Imagen),
		Quantity:  int(qty),
	}, true
}
