package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/catalog"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/coerce"
)

const (
	productListPath   = "productos_categoria.php"
	productDetailPath = "producto_detalle.php"
)

type CatalogClient struct {
	c               *Client
	defaultCategory int64
}

func NewCatalogClient(c *Client, defaultCategory int64) *CatalogClient {
	if defaultCategory <= 0 {
		defaultCategory = catalog.DefaultCategory
	}
	return &CatalogClient{c: c, defaultCategory: defaultCategory}
}

// ListProducts fetches one listing page. The upstream answers either a bare
// array or {productos, total}; rows that are not valid products are skipped
// and counted in Page.Dropped.
func (cc *CatalogClient) ListProducts(ctx context.Context, q catalog.Query) (catalog.Page, error) {
	body, err := cc.c.getJSON(ctx, productListPath, q.Values(cc.defaultCategory))
	if err != nil {
		return catalog.Page{}, err
	}
	page, err := decodePage(body)
	if err != nil {
		return catalog.Page{}, fmt.Errorf("%s: %w", cc.c.Name, err)
	}
	return page, nil
}

// GetProduct fetches one product. A missing product is catalog.ErrNotFound.
func (cc *CatalogClient) GetProduct(ctx context.Context, id int64) (catalog.ProductDetail, error) {
	body, err := cc.c.getJSON(ctx, productDetailPath, url.Values{"id": {strconv.FormatInt(id, 10)}})
	if err != nil {
		return catalog.ProductDetail{}, err
	}

	body = bytes.TrimSpace(body)
	// Some deployments wrap the row in a one-element array.
	if len(body) > 0 && body[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(body, &rows); err != nil {
			return catalog.ProductDetail{}, fmt.Errorf("decode product %d: %w", id, err)
		}
		if len(rows) == 0 {
			return catalog.ProductDetail{}, fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
		}
		body = rows[0]
	}
	if isEmptyDocument(body) {
		return catalog.ProductDetail{}, fmt.Errorf("product %d: %w", id, catalog.ErrNotFound)
	}

	var d catalog.ProductDetail
	if err := json.Unmarshal(body, &d); err != nil {
		return catalog.ProductDetail{}, fmt.Errorf("decode product %d: %w", id, err)
	}
	return d, nil
}

func isEmptyDocument(b []byte) bool {
	switch string(bytes.TrimSpace(b)) {
	case "", "null", "{}", "false":
		return true
	}
	return false
}

func decodePage(body []byte) (catalog.Page, error) {
	body = bytes.TrimSpace(body)
	var rows []json.RawMessage
	total := -1

	switch {
	case len(body) > 0 && body[0] == '[':
		if err := json.Unmarshal(body, &rows); err != nil {
			return catalog.Page{}, fmt.Errorf("decode listing: %w", err)
		}
	case len(body) > 0 && body[0] == '{':
		var env struct {
			Productos json.RawMessage `json:"productos"`
			Total     json.RawMessage `json:"total"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return catalog.Page{}, fmt.Errorf("decode listing: %w", err)
		}
		if len(env.Productos) > 0 && !bytes.Equal(env.Productos, []byte("null")) {
			if err := json.Unmarshal(env.Productos, &rows); err != nil {
				return catalog.Page{}, fmt.Errorf("decode listing productos: %w", err)
			}
		}
		if n, ok := coerce.Int(env.Total); ok && n >= 0 {
			total = int(n)
		}
	case isEmptyDocument(body):
	default:
		return catalog.Page{}, fmt.Errorf("decode listing: unexpected payload %s", snippet(body))
	}

	page := catalog.Page{Products: make([]catalog.Product, 0, len(rows))}
	for _, row := range rows {
		var p catalog.Product
		if err := json.Unmarshal(row, &p); err != nil {
			page.Dropped++
			continue
		}
		page.Products = append(page.Products, p)
	}
	page.Total = total
	if total < 0 {
		page.Total = len(page.Products)
	}
	return page, nil
}
