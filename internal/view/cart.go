package view

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/catalog"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrOutOfStock      = errors.New("product is out of stock")
)

type CartLine struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	ImageRef  string          `json:"imageRef,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// Cart is the cart page state. It has no error field: a cart that cannot be
// read renders as empty.
type Cart struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
	Lines int             `json:"lines"`
	Empty bool            `json:"empty"`
}

func NewCart(c cart.Cart) Cart {
	v := Cart{
		Items: make([]CartLine, 0, len(c.Items)),
		Total: cart.Total(c),
		Count: c.Count(),
		Lines: c.Len(),
		Empty: c.IsEmpty(),
	}
	for _, it := range c.Items {
		v.Items = append(v.Items, CartLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			ImageRef:  it.ImageRef,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}
	return v
}

// Badge is the header counter: distinct lines and total units.
type Badge struct {
	Lines int `json:"lines"`
	Count int `json:"count"`
}

func NewBadge(c cart.Cart) Badge {
	return Badge{Lines: c.Len(), Count: c.Count()}
}

// ClampQuantity validates a requested add-to-cart quantity against stock.
// Requests above stock are reduced to stock.
func ClampQuantity(requested, stock int64) (int, error) {
	if requested < 1 {
		return 0, ErrInvalidQuantity
	}
	if stock <= 0 {
		return 0, ErrOutOfStock
	}
	if requested > stock {
		requested = stock
	}
	return int(requested), nil
}

// LineItemFor builds the line added from a product page. The list price is
// captured, not the offer price, matching what the storefront has always
// stored.
func LineItemFor(d catalog.ProductDetail, quantity int) cart.LineItem {
	return cart.LineItem{
		ProductID: d.ID,
		Name:      d.Name,
		UnitPrice: d.Price,
		ImageRef:  d.Image,
		Quantity:  quantity,
	}
}
