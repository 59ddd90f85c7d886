package httpapi

import (
	"net/http"
	"sync"

	"github.com/Pieroxdz/FCBarcelona-Ecommerce/internal/clients"
)

const serviceName = "storefront"

type HealthHandler struct {
	Probes []clients.HealthProbe
}

func (h *HealthHandler) Service(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": serviceName,
	})
}

// Upstreams probes every upstream concurrently. The service itself stays "ok"
// while upstreams are down; views degrade on their own.
func (h *HealthHandler) Upstreams(w http.ResponseWriter, r *http.Request) {
	results := make([]clients.HealthResult, len(h.Probes))

	var wg sync.WaitGroup
	wg.Add(len(h.Probes))
	for i := range h.Probes {
		i := i
		go func() {
			defer wg.Done()
			results[i] = clients.CheckHealth(r.Context(), h.Probes[i])
		}()
	}
	wg.Wait()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"service":  serviceName,
		"upstream": results,
	})
}
