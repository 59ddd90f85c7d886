// Package catalog is the wire model of the product catalog and team roster
// upstream. Every numeric and boolean field is decoded defensively since the
// upstream sends numbers as JSON numbers or as strings depending on the row.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/coerce"
)

var ErrNotFound = errors.New("not found")

type Product struct {
	ID               int64               `json:"id"`
	Name             string              `json:"nombre"`
	Description      string              `json:"descripcion"`
	Price            decimal.Decimal     `json:"precio"`
	OfferPrice       decimal.NullDecimal `json:"precio_oferta"`
	Image            string              `json:"imagen"`
	Slug             string              `json:"slug"`
	Stock            int64               `json:"stock"`
	SubSubcategoryID *int64              `json:"id_sub_subcategoria"`
	Active           bool                `json:"activo"`
	CreatedAt        string              `json:"creado_en"`
}

type rawProduct struct {
	ID               json.RawMessage `json:"id"`
	Name             json.RawMessage `json:"nombre"`
	Description      json.RawMessage `json:"descripcion"`
	Price            json.RawMessage `json:"precio"`
	OfferPrice       json.RawMessage `json:"precio_oferta"`
	Image            json.RawMessage `json:"imagen"`
	Slug             json.RawMessage `json:"slug"`
	Stock            json.RawMessage `json:"stock"`
	SubSubcategoryID json.RawMessage `json:"id_sub_subcategoria"`
	Active           json.RawMessage `json:"activo"`
	CreatedAt        json.RawMessage `json:"creado_en"`
}

// UnmarshalJSON rejects a product without an integral id or a numeric price.
// The other fields fall back to their zero value when malformed.
func (p *Product) UnmarshalJSON(data []byte) error {
	var r rawProduct
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	id, ok := coerce.Int(r.ID)
	if !ok {
		return fmt.Errorf("product: invalid id %s", r.ID)
	}
	price, ok := coerce.Decimal(r.Price)
	if !ok {
		return fmt.Errorf("product %d: invalid precio %s", id, r.Price)
	}
	offer, ok := coerce.NullDecimal(r.OfferPrice)
	if !ok {
		offer = decimal.NullDecimal{}
	}
	stock, _ := coerce.Int(r.Stock)
	subSub, _ := coerce.NullInt(r.SubSubcategoryID)

	*p = Product{
		ID:               id,
		Name:             coerce.String(r.Name),
		Description:      coerce.String(r.Description),
		Price:            price,
		OfferPrice:       offer,
		Image:            coerce.String(r.Image),
		Slug:             coerce.String(r.Slug),
		Stock:            stock,
		SubSubcategoryID: subSub,
		Active:           coerce.Bool(r.Active),
		CreatedAt:        coerce.String(r.CreatedAt),
	}
	return nil
}

// ProductDetail is a product plus its category names and gallery.
type ProductDetail struct {
	Product
	CategoryName       *string  `json:"categoria_nombre"`
	SubcategoryName    *string  `json:"subcategoria_nombre"`
	SubSubcategoryName *string  `json:"sub_subcategoria_nombre"`
	Images             []string `json:"imagenes"`
}

func (d *ProductDetail) UnmarshalJSON(data []byte) error {
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var r struct {
		CategoryName       json.RawMessage `json:"categoria_nombre"`
		SubcategoryName    json.RawMessage `json:"subcategoria_nombre"`
		SubSubcategoryName json.RawMessage `json:"sub_subcategoria_nombre"`
		Images             json.RawMessage `json:"imagenes"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}

	// A gallery that is not an array counts as no gallery.
	var gallery []json.RawMessage
	_ = json.Unmarshal(r.Images, &gallery)
	images := make([]string, 0, len(gallery))
	for _, raw := range gallery {
		if s := coerce.String(raw); s != "" {
			images = append(images, s)
		}
	}

	*d = ProductDetail{
		Product:            p,
		CategoryName:       coerce.NullString(r.CategoryName),
		SubcategoryName:    coerce.NullString(r.SubcategoryName),
		SubSubcategoryName: coerce.NullString(r.SubSubcategoryName),
		Images:             images,
	}
	return nil
}

// Page is one listing response. Total is the upstream's total row count
// when it reports one, otherwise the number of products returned.
type Page struct {
	Products []Product `json:"productos"`
	Total    int       `json:"total"`
	// Dropped counts rows that could not be decoded into a Product.
	Dropped int `json:"-"`
}

type Player struct {
	ID       int64  `json:"id_jugador"`
	Name     string `json:"nombre"`
	Position string `json:"posicion,omitempty"`
	Image    string `json:"image,omitempty"`
}

func (p *Player) UnmarshalJSON(data []byte) error {
	var r struct {
		ID       json.RawMessage `json:"id_jugador"`
		Name     json.RawMessage `json:"nombre"`
		Position json.RawMessage `json:"posicion"`
		Image    json.RawMessage `json:"image"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	id, ok := coerce.Int(r.ID)
	if !ok {
		return fmt.Errorf("player: invalid id_jugador %s", r.ID)
	}
	*p = Player{
		ID:       id,
		Name:     coerce.String(r.Name),
		Position: coerce.String(r.Position),
		Image:    coerce.String(r.Image),
	}
	return nil
}
