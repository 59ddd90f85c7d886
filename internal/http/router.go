package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/cart"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/catalog"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/clients"
	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/middleware"
)

// ProductCatalog is the part of clients.CatalogClient the handlers use.
type ProductCatalog interface {
	ListProducts(ctx context.Context, q catalog.Query) (catalog.Page, error)
	GetProduct(ctx context.Context, id int64) (catalog.ProductDetail, error)
}

type PlayerRoster interface {
	ListPlayers(ctx context.Context) ([]catalog.Player, error)
}

type Deps struct {
	Logger           zerolog.Logger
	CORSAllowOrigins []string
	DefaultCategory  int64

	Catalog ProductCatalog
	Roster  PlayerRoster
	Carts   *cart.Registry

	HealthProbes []clients.HealthProbe

	// StreamKeepAlive is the comment interval on /me/cart/stream. Zero means 15s.
	StreamKeepAlive time.Duration
	// Closing ends every open /me/cart/stream. http.Server.Shutdown does not
	// cancel request contexts, so the server closes it when shutting down.
	Closing <-chan struct{}
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// outer -> inner
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(d.Logger))
	r.Use(middleware.Recover(d.Logger))
	r.Use(middleware.CORS(d.CORSAllowOrigins))
	r.Use(middleware.RequireSessionIDForMeRoutes)

	health := &HealthHandler{Probes: d.HealthProbes}
	r.Get("/health", health.Service)
	r.Get("/health/upstreams", health.Upstreams)

	cat := NewCatalogHandler(d.Catalog, d.Roster, d.DefaultCategory, d.Logger)
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", cat.ListProducts)
		r.Get("/products/{id}", cat.GetProduct)
		r.Get("/team", cat.ListPlayers)
	})

	carts := NewCartHandler(d.Carts, d.Catalog, d.Logger)
	carts.keepAlive = d.StreamKeepAlive
	carts.closing = d.Closing
	r.Route("/me/cart", func(r chi.Router) {
		r.Get("/", carts.GetCart)
		r.Get("/badge", carts.Badge)
		r.Get("/stream", carts.Stream)
		r.Post("/items", carts.AddItem)
		r.Put("/items/{productId}", carts.SetQuantity)
		r.Delete("/items/{productId}", carts.RemoveItem)
		r.Post("/save", carts.Save)
	})

	return r
}
