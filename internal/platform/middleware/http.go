// Package middleware holds the chi middleware shared by every route.
package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/janisto/ols-profile-service/internal/config"
	"github.com/janisto/ols-profile-service/internal/platform/respond"
)

// exposedHeaders are readable by browser clients on cross-origin responses.
var exposedHeaders = []string{
	"Link", "Location", "ETag", "Expires", "X-Cache", chimiddleware.RequestIDHeader,
	"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining",
}

// CORS applies the configured cross-origin policy.
func CORS(cfg config.HTTPConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.CORSMaxAge,
	})
}

const maxRequestIDLength = 128

// validRequestID accepts printable ASCII only, so client IDs cannot inject
// control characters into logs.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x20 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// RequestID reuses a valid inbound X-Request-Id or generates a UUID, stores
// it under chi's request ID key and echoes it on the response.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(chimiddleware.RequestIDHeader)
			if !validRequestID(id) {
				id = uuid.NewString()
			}
			ctx := context.WithValue(r.Context(), chimiddleware.RequestIDKey, id)
			w.Header().Set(chimiddleware.RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TrustedHost rejects requests whose Host is not in hosts with 400.
// "*" allows any host and "*.example.com" allows subdomains of example.com.
func TrustedHost(hosts []string) func(http.Handler) http.Handler {
	allowAll := len(hosts) == 0
	for _, h := range hosts {
		if h == "*" {
			allowAll = true
		}
	}
	return func(next http.Handler) http.Handler {
		if allowAll {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hostAllowed(r.Host, hosts) {
				respond.WriteProblem(w, r, http.StatusBadRequest, "invalid host header")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(hostport string, hosts []string) bool {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	for _, pattern := range hosts {
		pattern = strings.ToLower(pattern)
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			if strings.HasSuffix(host, "."+suffix) {
				return true
			}
			continue
		}
		if host == pattern {
			return true
		}
	}
	return false
}

// BodyLimit caps request bodies at n bytes. Zero or less disables the cap.
func BodyLimit(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if n <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > n {
				respond.WriteProblem(w, r, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

// Gzip compresses JSON and CBOR responses at level. Zero or less disables it.
func Gzip(level int) func(http.Handler) http.Handler {
	if level <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return chimiddleware.Compress(level,
		"application/json",
		"application/problem+json",
		"application/cbor",
		"application/problem+cbor",
		"text/html",
	)
}

// bodylessWriter discards writes after a 204 or 304 status.
type bodylessWriter struct {
	http.ResponseWriter
	discard bool
}

func (w *bodylessWriter) WriteHeader(code int) {
	if code == http.StatusNoContent || code == http.StatusNotModified {
		w.discard = true
		w.Header().Del("Content-Type")
		w.Header().Del("Content-Length")
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodylessWriter) Write(b []byte) (int, error) {
	if w.discard {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *bodylessWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// BodylessStatus drops any body and content type written with a 204 or 304
// status.
func BodylessStatus() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&bodylessWriter{ResponseWriter: w}, r)
		})
	}
}
