package fieldops

import (
	"net/http"

	"github.com/JanSetu/JS-Backend/internal/auth"
	"github.com/JanSetu/JS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	// Coordinator routes - oversight and assignment
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))
		r.Use(middleware.RequireRole(auth.RoleCoordinator))

		r.Get("/dashboard", h.Dashboard)
		r.Get("/representatives", h.ListRepresentatives)
		r.Post("/representatives", h.CreateRepresentative)
		r.Patch("/users/{user_id}", h.UpdateUser)
		r.Post("/issues/{issue_id}/assign", h.AssignIssue)
	})

	// Representative routes - working the assigned queue
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))
		r.Use(middleware.RequireRole(auth.RoleRepresentative))

		r.Get("/my-issues", h.MyIssues)
		r.Patch("/issues/{issue_id}/status", h.UpdateIssueStatus)
	})

	return r
}
