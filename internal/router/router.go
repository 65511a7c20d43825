package router

import (
	"net/http"

	"medistore/internal/handler"
	"medistore/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth     *handler.AuthHandler
	Medicine *handler.MedicineHandler
	Order    *handler.OrderHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, verifier middleware.TokenVerifier, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// RequestID -> Recovery -> RealIP -> Logging -> CORS -> Authenticate
	// Recovery sits inside RequestID so panic responses carry a correlationId.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS)
	r.Use(middleware.Authenticate(verifier, logger))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	// Health check endpoint (no authentication required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.Auth.Signup)
			r.Post("/login", h.Auth.Login)
		})

		r.Get("/image/{id}", h.Medicine.Image)

		r.Route("/medicines", func(r chi.Router) {
			r.Get("/", h.Medicine.List)
			r.Get("/{id}", h.Medicine.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", h.Medicine.Create)
				r.Put("/{id}", h.Medicine.Update)
				r.Delete("/{id}", h.Medicine.Delete)
				r.Post("/{id}/restock", h.Medicine.Restock)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/", h.Order.List)
			r.Post("/", h.Order.Create)
			r.Get("/{id}", h.Order.Get)
			r.With(middleware.RequireAdmin).Put("/{id}", h.Order.UpdateStatus)
			r.Post("/{id}/prescription", h.Order.AttachPrescription)
			r.Get("/{id}/prescription", h.Order.GetPrescription)
			r.Get("/{id}/payment-link", h.Order.PaymentLink)
		})

		r.With(middleware.RequireAdmin).Get("/admin/stats", h.Order.Stats)
	})

	return r
}
