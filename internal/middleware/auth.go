package middleware

import (
	"net/http"

	logpkg "github.com/benvon/absolutely-right/internal/logger"
	"github.com/benvon/absolutely-right/internal/request"
	"go.uber.org/zap"
)

// TokenVerifier checks a bearer token
type TokenVerifier interface {
	Verify(token string) error
}

// BearerAuth rejects requests without a token the verifier accepts. The
// uploader treats 401 as fatal, so every rejection uses that status.
func BearerAuth(verifier TokenVerifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := request.BearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="absolutely-right"`)
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Missing or malformed Authorization header", logger)
				return
			}

			if err := verifier.Verify(token); err != nil {
				logger.Warn("token_verification_failed",
					zap.String("client_ip", request.ClientIP(r)),
					zap.String("error", logpkg.SanitizeError(err)),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="absolutely-right", error="invalid_token"`)
				respondErrorJSON(w, r, http.StatusUnauthorized, "Unauthorized", "Invalid or expired token", logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
