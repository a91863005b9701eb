package http

import (
	stdhttp "net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// CORSOptions is a narrow surface over go-chi/cors
type CORSOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// CORS wraps go-chi/cors with sane defaults applied
func CORS(o CORSOptions) func(stdhttp.Handler) stdhttp.Handler {
	methods := o.AllowedMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	headers := o.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}
	}
	return chicors.Handler(chicors.Options{
		AllowedOrigins:   o.AllowedOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   headers,
		AllowCredentials: o.AllowCredentials,
		MaxAge:           o.MaxAge,
	})
}

// Defaults is the middleware bundle for the admin surface
func Defaults() []func(stdhttp.Handler) stdhttp.Handler {
	return []func(stdhttp.Handler) stdhttp.Handler{
		chimw.RealIP,
		chimw.RequestID,
		chimw.Recoverer,
		chimw.Timeout(60 * time.Second),
		chimw.NoCache,
	}
}

// Heartbeat replies 200 OK to GET path, useful for LB health checks
func Heartbeat(path string) func(stdhttp.Handler) stdhttp.Handler {
	return chimw.Heartbeat(path)
}
