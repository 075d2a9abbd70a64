package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/k-code-yt/payment-verify/pkg/metrics"
)

type RouterDeps struct {
	Payments *PaymentHandler
	// optional
	Metrics *metrics.Metrics
	Feed    http.HandlerFunc
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LogMiddleware)
	// outside Recoverer so recovered panics are counted as 500s
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(Recoverer)
	r.Use(CORS)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	h := deps.Payments
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/verify-payment", h.VerifyPayment)
		r.Get("/payments", h.ListPayments)
		r.Post("/payments/verify", h.ManualVerify)
		if deps.Feed != nil {
			r.Get("/payments/stream", deps.Feed)
		}
	})

	return r
}
