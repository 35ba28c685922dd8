package auth

import (
	"net/http"

	"github.com/JanSetu/JS-Backend/internal/middleware"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(h *Handler, fetcher middleware.SessionFetcher) http.Handler {
	r := chi.NewRouter()

	r.Post("/signup", h.Signup)
	r.Post("/login", h.Login)
	r.Post("/verify-otp", h.VerifyOTP)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionMiddleware(fetcher))

		r.Get("/me", h.Me)
		r.Post("/logout", h.Logout)
	})

	return r
}
