package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/angelmondragon/farmacia-backend/pkg/config"
)

// CORS returns middleware that applies the configured allowed origins.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Farmacia-Token", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders:   []string{"Idempotent-Replayed", "X-Farmacia-Token", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}
