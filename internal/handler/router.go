package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/dlanderos/cardtrack-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса cardtrack.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/user/register", h.Register)
		r.Post("/user/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.session.Middleware)

			r.Post("/user/logout", h.Logout)

			r.Get("/cards", h.GetCards)
			r.Post("/cards", h.AddCard)
			r.Patch("/cards/{cardID}", h.UpdateCard)
			r.Delete("/cards/{cardID}", h.RemoveCard)

			r.Get("/cards/summary", h.GetSummary)
			r.Get("/calendar/events", h.GetCalendarEvents)

			r.Get("/status", h.GetStatus)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
