package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fleetpay/topup-gateway/internal/auth"
	"github.com/fleetpay/topup-gateway/internal/config"
	"github.com/fleetpay/topup-gateway/internal/middleware"
	"github.com/fleetpay/topup-gateway/internal/services"
)

func NewRouter(cfg config.Config, gw *services.GatewayService, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())

	creds := auth.Credentials{
		Login:          cfg.PaynetLogin,
		Password:       cfg.PaynetPassword,
		PasswordBcrypt: cfg.PaynetPasswordBcrypt,
	}
	r.Route("/paynet", func(r chi.Router) {
		r.Use(middleware.BasicAuth(creds))
		r.Method(http.MethodPost, "/rpc", NewRPCHandler(gw, log))
	})

	return r
}
