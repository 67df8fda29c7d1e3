package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/autoagora/autoagora-backend/internal/config"
	"github.com/autoagora/autoagora-backend/internal/handlers"
	"github.com/autoagora/autoagora-backend/internal/middleware"
)

// New builds the router with the full middleware stack and API surface.
func New(cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Admin-Token", "X-Webhook-Secret"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
	}
	r.Use(middleware.RateLimitMiddleware)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", handlers.Signup)
			r.Post("/signin", handlers.Signin)
			r.Post("/signout", handlers.Signout)
			r.Get("/me", handlers.GetMe)
			r.Put("/phone", handlers.ChangePhone)
		})

		r.Route("/verify", func(r chi.Router) {
			r.Post("/request", handlers.RequestVerificationCode)
			r.Post("/confirm", handlers.ConfirmVerificationCode)
		})

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", handlers.SearchListings)
			r.Post("/", handlers.CreateListing)
			r.Get("/my", handlers.MyListings)
			r.Get("/{id}", handlers.GetListing)
			r.Put("/{id}", handlers.UpdateListing)
			r.Delete("/{id}", handlers.DeleteListing)
			r.Post("/{id}/sold", handlers.MarkSold)
			r.Post("/{id}/available", handlers.MarkAvailable)
			r.Post("/{id}/renew", handlers.RenewListing)
		})

		r.Post("/upload", handlers.UploadImage)

		r.Route("/chat", func(r chi.Router) {
			r.Get("/history", handlers.ChatHistory)
			r.Get("/conversations", handlers.MyConversations)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/checkout", handlers.CreateCheckout)
			r.Post("/confirm", handlers.ConfirmPayment)
			r.Get("/my", handlers.MyPayments)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweep", handlers.SweepNow)
			r.Post("/unblock", handlers.UnblockIP)
		})
	})

	r.Get("/ws/chat", handlers.ChatWS)

	return r
}
