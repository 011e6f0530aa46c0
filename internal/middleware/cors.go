package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors allows credentialed requests from any origin in development and from
// the configured domain otherwise.
func Cors(development bool, domain string) Middleware {
	options := cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
	if development || domain == "" {
		options.AllowOriginFunc = func(origin string) bool { return true }
	} else {
		options.AllowedOrigins = []string{"https://" + domain}
	}
	return cors.New(options).Handler
}
