package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS returns a middleware that applies CORS headers for the given origins.
// Each entry must be a full origin (scheme + host, no trailing slash); an
// empty list allows every origin, matching the development default.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
	})
	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
