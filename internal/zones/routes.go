package zones

import (
	"net/http"

	"github.com/JanSetu/JS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes mounts the zone endpoints. Reads are public; anything that
// mutates zones is coordinator-only.
func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	// Public routes - read-only access to zone data
	r.Get("/", h.ListZones)
	r.Get("/find-representative", h.FindRepresentative)
	r.Post("/geocode", h.Geocode)
	r.Get("/reverse-geocode", h.ReverseGeocode)
	r.Get("/{zone_id}", h.GetZone)

	// Coordinator routes - clustering and mapping administration
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))
		r.Use(middleware.RequireRole("coordinator"))

		r.Post("/run-clustering", h.RunClustering)
		r.Post("/map", h.MapZone)
		r.Post("/auto-assign/{issue_id}", h.AutoAssign)
		r.Get("/statistics", h.GetStatistics)
		r.Get("/runs", h.ListRuns)
	})

	return r
}
