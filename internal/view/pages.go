package view

import (
	"errors"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/catalog"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/clients"
)

const (
	EmptyListingMessage = "No hay productos disponibles en esta categoría"
	EmptyRosterMessage  = "No hay jugadores disponibles"
	ListingFailed       = "Error al cargar los productos"
	DetailFailed        = "Error al cargar el producto"
	DetailNotFound      = "Producto no encontrado"
	RosterFailed        = "Error al cargar jugadores"
	ProductsBackLink    = "/productos"
)

type Listing struct {
	Title        string        `json:"title"`
	Products     []ProductCard `json:"products"`
	Count        int           `json:"count"`
	Total        int           `json:"total"`
	Page         int           `json:"page,omitempty"`
	PageSize     int           `json:"pageSize,omitempty"`
	Error        string        `json:"error,omitempty"`
	EmptyMessage string        `json:"emptyMessage,omitempty"`
}

// ListingTitle names the listing after the filter it resolves to.
func ListingTitle(q catalog.Query, defaultCategory int64) string {
	name, id := q.Filter(defaultCategory)
	if name == "categoria" && id == catalog.DefaultCategory {
		return "Equipaciones"
	}
	return "Productos"
}

func NewListing(title string, q catalog.Query, page catalog.Page) Listing {
	l := Listing{
		Title:    title,
		Products: make([]ProductCard, 0, len(page.Products)),
		Total:    page.Total,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	for _, p := range page.Products {
		l.Products = append(l.Products, Card(p))
	}
	l.Count = len(l.Products)
	if l.Count == 0 {
		l.EmptyMessage = EmptyListingMessage
	}
	return l
}

func ListingError(title string, q catalog.Query, err error) Listing {
	return Listing{
		Title:    title,
		Products: []ProductCard{},
		Page:     q.Page,
		PageSize: q.PageSize,
		Error:    message(err, ListingFailed),
	}
}

type DetailProduct struct {
	ProductCard
	Description        string   `json:"description"`
	Images             []string `json:"images"`
	CategoryName       *string  `json:"categoryName"`
	SubcategoryName    *string  `json:"subcategoryName"`
	SubSubcategoryName *string  `json:"subSubcategoryName"`
	Active             bool     `json:"active"`
}

type Detail struct {
	Product  *DetailProduct `json:"product,omitempty"`
	Error    string         `json:"error,omitempty"`
	BackLink string         `json:"backLink"`
}

func NewDetail(d catalog.ProductDetail) Detail {
	images := d.Images
	if images == nil {
		images = []string{}
	}
	return Detail{
		Product: &DetailProduct{
			ProductCard:        Card(d.Product),
			Description:        d.Description,
			Images:             images,
			CategoryName:       d.CategoryName,
			SubcategoryName:    d.SubcategoryName,
			SubSubcategoryName: d.SubSubcategoryName,
			Active:             d.Active,
		},
		BackLink: ProductsBackLink,
	}
}

func DetailError(err error) Detail {
	msg := message(err, DetailFailed)
	if errors.Is(err, catalog.ErrNotFound) {
		msg = DetailNotFound
	}
	return Detail{Error: msg, BackLink: ProductsBackLink}
}

type Roster struct {
	Players      []catalog.Player `json:"players"`
	Count        int              `json:"count"`
	Error        string           `json:"error,omitempty"`
	EmptyMessage string           `json:"emptyMessage,omitempty"`
}

func NewRoster(players []catalog.Player) Roster {
	if players == nil {
		players = []catalog.Player{}
	}
	r := Roster{Players: players, Count: len(players)}
	if r.Count == 0 {
		r.EmptyMessage = EmptyRosterMessage
	}
	return r
}

func RosterError(err error) Roster {
	return Roster{Players: []catalog.Player{}, Error: message(err, RosterFailed)}
}

// message surfaces upstream {error} text to the shopper and hides everything
// else behind fallback.
func message(err error, fallback string) string {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
