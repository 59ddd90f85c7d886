package cart

import (
	"math"

	"github.com/shopspring/decimal"
)

// DefaultKey is the well-known slot key the storefront keeps its cart under.
const DefaultKey = "carrito"

// LineItem is one product entry in the cart. UnitPrice is captured when the
// product is first added and is never refreshed afterwards.
type LineItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageRef  string          `json:"imageRef,omitempty"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is UnitPrice * Quantity.
func (it LineItem) LineTotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Cart is an ordered list of line items, unique by ProductID.
type Cart struct {
	Items []LineItem `json:"items"`
}

func (c Cart) index(productID int64) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Find returns the line item for productID, if present.
func (c Cart) Find(productID int64) (LineItem, bool) {
	if i := c.index(productID); i >= 0 {
		return c.Items[i], true
	}
	return LineItem{}, false
}

// Len is the number of distinct products.
func (c Cart) Len() int { return len(c.Items) }

// Count is the total number of units across all lines (the badge count).
func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n = addQuantity(n, it.Quantity)
	}
	return n
}

func (c Cart) IsEmpty() bool { return len(c.Items) == 0 }

// Total sums unitPrice * quantity over every line. It has no side effects.
func Total(c Cart) decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Equal compares two carts line by line, order included.
func (c Cart) Equal(o Cart) bool {
	if len(c.Items) != len(o.Items) {
		return false
	}
	for i := range c.Items {
		a, b := c.Items[i], o.Items[i]
		if a.ProductID != b.ProductID || a.Name != b.Name || a.ImageRef != b.ImageRef ||
			a.Quantity != b.Quantity || !a.UnitPrice.Equal(b.UnitPrice) {
			return false
		}
	}
	return true
}

func (c Cart) clone() Cart {
	if c.Items == nil {
		return Cart{Items: []LineItem{}}
	}
	items := make([]LineItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// merge adds item to the cart. An existing line only grows its quantity; name,
// price and image keep the values from the first add.
func merge(c Cart, item LineItem) Cart {
	out := c.clone()
	if i := out.index(item.ProductID); i >= 0 {
		out.Items[i].Quantity = addQuantity(out.Items[i].Quantity, item.Quantity)
		return out
	}
	out.Items = append(out.Items, item)
	return out
}

// addQuantity sums two positive quantities, saturating at math.MaxInt.
func addQuantity(a, b int) int {
	if b > math.MaxInt-a {
		return math.MaxInt
	}
	return a + b
}

func withQuantity(c Cart, productID int64, quantity int) (Cart, bool) {
	i := c.index(productID)
	if i < 0 || c.Items[i].Quantity == quantity {
		return c, false
	}
	out := c.clone()
	out.Items[i].Quantity = quantity
	return out, true
}

func without(c Cart, productID int64) (Cart, bool) {
	i := c.index(productID)
	if i < 0 {
		return c, false
	}
	out := Cart{Items: make([]LineItem, 0, len(c.Items)-1)}
	out.Items = append(out.Items, c.Items[:i]...)
	out.Items = append(out.Items, c.Items[i+1:]...)
	return out, true
}
