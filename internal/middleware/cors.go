package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const defaultFrontendOrigin = "http://localhost:3000"

// AllowedOrigins splits a comma-separated origin list, dropping blanks and duplicates
func AllowedOrigins(raw string) []string {
	parts := lo.Map(strings.Split(raw, ","), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	origins := lo.Uniq(lo.Compact(parts))
	if len(origins) == 0 {
		return []string{defaultFrontendOrigin}
	}
	return origins
}

// CORS lets the dashboard origins read the API and preflight uploads
func CORS(frontendURL string, logger *zap.Logger) func(http.Handler) http.Handler {
	origins := AllowedOrigins(frontendURL)
	logger.Info("cors_configured", zap.Strings("allowed_origins", origins))

	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})
	return c.Handler
}
