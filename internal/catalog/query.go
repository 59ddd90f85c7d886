package catalog

import (
	"net/url"
	"strconv"
)

// DefaultCategory is the kits category the storefront lists when no filter
// is given.
const DefaultCategory int64 = 1

// Query selects a product listing. Only the most specific filter set is sent:
// SubSubcategory wins over Subcategory, which wins over Category. Zero means
// unset.
type Query struct {
	Category       int64
	Subcategory    int64
	SubSubcategory int64
	Page           int
	PageSize       int
}

// Filter returns the upstream parameter name and id the query resolves to.
func (q Query) Filter(defaultCategory int64) (string, int64) {
	switch {
	case q.SubSubcategory > 0:
		return "subsubcategoria", q.SubSubcategory
	case q.Subcategory > 0:
		return "subcategoria", q.Subcategory
	case q.Category > 0:
		return "categoria", q.Category
	}
	if defaultCategory <= 0 {
		defaultCategory = DefaultCategory
	}
	return "categoria", defaultCategory
}

// Values encodes the query for productos_categoria.php.
func (q Query) Values(defaultCategory int64) url.Values {
	name, id := q.Filter(defaultCategory)
	v := url.Values{}
	v.Set(name, strconv.FormatInt(id, 10))
	if q.Page > 0 {
		v.Set("numero_pagina", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("filas_pagina", strconv.Itoa(q.PageSize))
	}
	return v
}
