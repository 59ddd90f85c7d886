package view

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/catalog"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/clients"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func offer(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func TestCard(t *testing.T) {
	tests := []struct {
		name        string
		product     catalog.Product
		final       string
		hasDiscount bool
		percent     int64
		outOfStock  bool
	}{
		{
			name:    "no offer",
			product: catalog.Product{ID: 1, Price: dec("99.99"), Stock: 4},
			final:   "99.99",
		},
		{
			name:        "offer",
			product:     catalog.Product{ID: 2, Price: dec("100"), OfferPrice: offer("75"), Stock: 1},
			final:       "75",
			hasDiscount: true,
			percent:     25,
		},
		{
			name:        "percent rounds half up",
			product:     catalog.Product{ID: 3, Price: dec("40"), OfferPrice: offer("39.8"), Stock: 1},
			final:       "39.8",
			hasDiscount: true,
			percent:     1,
		},
		{
			name:    "zero offer is no offer",
			product: catalog.Product{ID: 4, Price: dec("50"), OfferPrice: offer("0"), Stock: 2},
			final:   "50",
		},
		{
			name:        "zero price",
			product:     catalog.Product{ID: 5, Price: decimal.Zero, OfferPrice: offer("10"), Stock: 2},
			final:       "10",
			hasDiscount: true,
		},
		{
			name:       "out of stock",
			product:    catalog.Product{ID: 6, Price: dec("20"), Stock: 0},
			final:      "20",
			outOfStock: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Card(tt.product)
			require.True(t, dec(tt.final).Equal(c.FinalPrice), "final price %s", c.FinalPrice)
			require.Equal(t, tt.hasDiscount, c.HasDiscount)
			require.Equal(t, tt.percent, c.DiscountPercent)
			require.Equal(t, tt.outOfStock, c.OutOfStock)
			require.Equal(t, tt.product.ID, c.ID)
		})
	}
}

func TestDiscountPercentRounding(t *testing.T) {
	tests := []struct {
		price, offer string
		want         int64
	}{
		{"40", "39.8", 1},
		{"100", "75", 25},
		{"90", "60", 33},
		{"40", "40.2", 0},
		{"8", "9", -12},
		{"80", "90", -12},
		{"0", "5", 0},
	}
	for _, tt := range tests {
		t.Run(tt.price+"/"+tt.offer, func(t *testing.T) {
			require.Equal(t, tt.want, DiscountPercent(dec(tt.price), dec(tt.offer)))
		})
	}
}

func TestListing(t *testing.T) {
	q := catalog.Query{Page: 2, PageSize: 10}
	page := catalog.Page{
		Products: []catalog.Product{{ID: 1, Price: dec("10"), Stock: 1}, {ID: 2, Price: dec("20")}},
		Total:    12,
	}

	l := NewListing(ListingTitle(q, catalog.DefaultCategory), q, page)
	require.Equal(t, "Equipaciones", l.Title)
	require.Equal(t, 2, l.Count)
	require.Equal(t, 12, l.Total)
	require.Equal(t, 2, l.Page)
	require.Empty(t, l.EmptyMessage)
	require.True(t, l.Products[1].OutOfStock)

	empty := NewListing("Productos", q, catalog.Page{})
	require.Equal(t, EmptyListingMessage, empty.EmptyMessage)
	require.NotNil(t, empty.Products)
}

func TestListingTitle(t *testing.T) {
	require.Equal(t, "Equipaciones", ListingTitle(catalog.Query{}, 0))
	require.Equal(t, "Equipaciones", ListingTitle(catalog.Query{Category: 1}, 1))
	require.Equal(t, "Productos", ListingTitle(catalog.Query{Category: 1, Subcategory: 4}, 1))
	require.Equal(t, "Productos", ListingTitle(catalog.Query{Category: 3}, 1))
}

func TestListingError(t *testing.T) {
	l := ListingError("Productos", catalog.Query{}, errors.New("dial tcp: refused"))
	require.Equal(t, ListingFailed, l.Error)
	require.Empty(t, l.Products)

	l = ListingError("Productos", catalog.Query{}, fmt.Errorf("list: %w", &clients.APIError{Upstream: "catalog", Message: "Categoría inválida"}))
	require.Equal(t, "Categoría inválida", l.Error)
}

func TestDetail(t *testing.T) {
	name := "Equipaciones"
	d := NewDetail(catalog.ProductDetail{
		Product:      catalog.Product{ID: 7, Name: "Camiseta", Price: dec("90"), OfferPrice: offer("60"), Stock: 3},
		CategoryName: &name,
	})
	require.NotNil(t, d.Product)
	require.Equal(t, ProductsBackLink, d.BackLink)
	require.Equal(t, int64(33), d.Product.DiscountPercent)
	require.Equal(t, []string{}, d.Product.Images)
	require.Equal(t, "Equipaciones", *d.Product.CategoryName)
}

func TestDetailError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", fmt.Errorf("get: %w", catalog.ErrNotFound), DetailNotFound},
		{"upstream 404", &clients.UpstreamError{Upstream: "catalog", StatusCode: 404}, DetailNotFound},
		{"upstream message", &clients.APIError{Upstream: "catalog", Message: "Producto inactivo"}, "Producto inactivo"},
		{"transport", errors.New("timeout"), DetailFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DetailError(tt.err)
			require.Nil(t, d.Product)
			require.Equal(t, tt.want, d.Error)
			require.Equal(t, ProductsBackLink, d.BackLink)
		})
	}
}

func TestRoster(t *testing.T) {
	r := NewRoster(nil)
	require.Equal(t, EmptyRosterMessage, r.EmptyMessage)
	require.NotNil(t, r.Players)

	r = NewRoster([]catalog.Player{{ID: 1, Name: "Pedri"}})
	require.Equal(t, 1, r.Count)
	require.Empty(t, r.EmptyMessage)

	r = RosterError(errors.New("boom"))
	require.Equal(t, RosterFailed, r.Error)
}

func TestCartView(t *testing.T) {
	c := cart.Cart{Items: []cart.LineItem{
		{ProductID: 1, Name: "Camiseta", UnitPrice: dec("89.90"), Quantity: 2},
		{ProductID: 2, Name: "Bufanda", UnitPrice: dec("15"), Quantity: 1},
	}}

	v := NewCart(c)
	require.False(t, v.Empty)
	require.Equal(t, 3, v.Count)
	require.Equal(t, 2, v.Lines)
	require.True(t, dec("194.80").Equal(v.Total), "total %s", v.Total)
	require.True(t, dec("179.80").Equal(v.Items[0].LineTotal))

	empty := NewCart(cart.Cart{})
	require.True(t, empty.Empty)
	require.NotNil(t, empty.Items)
	require.True(t, empty.Total.IsZero())

	require.Equal(t, Badge{Lines: 2, Count: 3}, NewBadge(c))
}

func TestClampQuantity(t *testing.T) {
	tests := []struct {
		name      string
		requested int64
		stock     int64
		want      int
		err       error
	}{
		{"within stock", 2, 5, 2, nil},
		{"clamped to stock", 9, 5, 5, nil},
		{"zero requested", 0, 5, 0, ErrInvalidQuantity},
		{"negative requested", -1, 5, 0, ErrInvalidQuantity},
		{"out of stock", 1, 0, 0, ErrOutOfStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClampQuantity(tt.requested, tt.stock)
			require.ErrorIs(t, err, tt.err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestLineItemForUsesListPrice(t *testing.T) {
	it := LineItemFor(catalog.ProductDetail{
		Product: catalog.Product{ID: 3, Name: "Balón", Price: dec("30"), OfferPrice: offer("25"), Image: "b.jpg"},
	}, 2)
	require.Equal(t, cart.LineItem{ProductID: 3, Name: "Balón", UnitPrice: dec("30"), ImageRef: "b.jpg", Quantity: 2}, it)
}
