package billing_http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"billing/internal/app/billing"
	"billing/internal/app/users"
	"billing/internal/auth"
)

func RegisterRoutes(r chi.Router, b billing.BillingService, u users.UserService, tokens *auth.TokenManager, l *zap.Logger) {
	handler := NewBillingHandler(b, u, l.With(zap.String("component", "BillingHTTPHandler")))

	r.Route("/health", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Billing service is healthy!"))
		})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/register", handler.RegisterHandler)
		r.Post("/login", handler.LoginHandler)
		// Webhook шлюза: без пользовательской аутентификации.
		r.Post("/notify", handler.NotifyHandler)

		r.Group(func(r chi.Router) {
			r.Use(tokens.Middleware(l.With(zap.String("component", "AuthMiddleware"))))
			r.Post("/create", handler.CreatePaymentHandler)
			r.Get("/balance", handler.BalanceHandler)
		})
	})
}
