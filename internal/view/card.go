// Package view turns catalog data and carts into the JSON view state the
// storefront UI renders. Nothing here fails: upstream errors become an error
// message inside the view.
package view

import (
	"github.com/shopspring/decimal"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/catalog"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.RequireFromString("0.5")
)

type ProductCard struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Image           string          `json:"image"`
	Slug            string          `json:"slug"`
	Price           decimal.Decimal `json:"price"`
	FinalPrice      decimal.Decimal `json:"finalPrice"`
	HasDiscount     bool            `json:"hasDiscount"`
	DiscountPercent int64           `json:"discountPercent"`
	Stock           int64           `json:"stock"`
	OutOfStock      bool            `json:"outOfStock"`
}

// HasDiscount reports an offer price that is set and non-zero.
func HasDiscount(p catalog.Product) bool {
	return p.OfferPrice.Valid && !p.OfferPrice.Decimal.IsZero()
}

// FinalPrice is the offer price when there is a discount, else the list price.
func FinalPrice(p catalog.Product) decimal.Decimal {
	if HasDiscount(p) {
		return p.OfferPrice.Decimal
	}
	return p.Price
}

// DiscountPercent is round((price - offer) / price * 100), with halves
// rounded toward positive infinity as the storefront UI does. A zero price
// has no meaningful discount and yields 0.
func DiscountPercent(price, offer decimal.Decimal) int64 {
	if price.IsZero() {
		return 0
	}
	return price.Sub(offer).Div(price).Mul(hundred).Add(half).Floor().IntPart()
}

func Card(p catalog.Product) ProductCard {
	c := ProductCard{
		ID:         p.ID,
		Name:       p.Name,
		Image:      p.Image,
		Slug:       p.Slug,
		Price:      p.Price,
		FinalPrice: FinalPrice(p),
		Stock:      p.Stock,
		OutOfStock: p.Stock <= 0,
	}
	if HasDiscount(p) {
		c.HasDiscount = true
		c.DiscountPercent = DiscountPercent(p.Price, p.OfferPrice.Decimal)
	}
	return c
}
