package issues

import (
	"net/http"

	"github.com/JanSetu/JS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	// Public routes - anyone can browse reported issues
	r.Get("/", h.ListIssues)
	r.Get("/map", h.MapView)
	r.Get("/{issue_id}", h.GetIssue)

	// Reporting and the personal list require a logged-in citizen
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))

		r.Post("/", h.CreateIssue)
		r.Get("/mine", h.MyIssues)
	})

	return r
}
