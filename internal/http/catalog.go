package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/catalog"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/middleware"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/view"
)

// CatalogHandler serves the read-only views. Upstream failures never become
// HTTP errors here: they are rendered into the view's error field.
type CatalogHandler struct {
	catalog         ProductCatalog
	roster          PlayerRoster
	defaultCategory int64
	log             zerolog.Logger
}

func NewCatalogHandler(c ProductCatalog, r PlayerRoster, defaultCategory int64, logger zerolog.Logger) *CatalogHandler {
	if defaultCategory <= 0 {
		defaultCategory = catalog.DefaultCategory
	}
	return &CatalogHandler{catalog: c, roster: r, defaultCategory: defaultCategory, log: logger}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := listingQuery(r)
	title := view.ListingTitle(q, h.defaultCategory)

	page, err := h.catalog.ListProducts(r.Context(), q)
	if err != nil {
		h.logFailure(r, err, "product listing failed")
		writeJSON(w, http.StatusOK, view.ListingError(title, q, err))
		return
	}
	if page.Dropped > 0 {
		h.log.Warn().Int("dropped", page.Dropped).Msg("skipped malformed products")
	}
	writeJSON(w, http.StatusOK, view.NewListing(title, q, page))
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSON(w, http.StatusOK, view.DetailError(catalog.ErrNotFound))
		return
	}

	d, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.logFailure(r, err, "product detail failed")
		writeJSON(w, http.StatusOK, view.DetailError(err))
		return
	}
	writeJSON(w, http.StatusOK, view.NewDetail(d))
}

func (h *CatalogHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.roster.ListPlayers(r.Context())
	if err != nil {
		h.logFailure(r, err, "roster failed")
		writeJSON(w, http.StatusOK, view.RosterError(err))
		return
	}
	writeJSON(w, http.StatusOK, view.NewRoster(players))
}

func (h *CatalogHandler) logFailure(r *http.Request, err error, msg string) {
	h.log.Warn().Err(err).
		Str("correlation_id", middleware.GetCorrelationID(r.Context())).
		Msg(msg)
}

// listingQuery reads the listing filters. Unparsable values count as unset.
func listingQuery(r *http.Request) catalog.Query {
	v := r.URL.Query()
	return catalog.Query{
		Category:       queryInt(v.Get("categoria")),
		Subcategory:    queryInt(v.Get("subcategoria")),
		SubSubcategory: queryInt(v.Get("subsubcategoria")),
		Page:           int(queryInt(v.Get("numero_pagina"))),
		PageSize:       int(queryInt(v.Get("filas_pagina"))),
	}
}

func queryInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
