// Package respond renders RFC 9457 problem details for responses produced
// outside huma operations and defines the backend failure body.
package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/negotiation"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	applog "github.com/janisto/ols-profile-service/internal/platform/logging"
)

const (
	contentTypeProblemJSON = "application/problem+json"
	contentTypeProblemCBOR = "application/problem+cbor"
)

// ErrorSchemaPath is where the API serves the ErrorModel JSON schema.
var ErrorSchemaPath = "/v1/schemas/ErrorModel.json"

var problemFormats = []string{
	"application/json",
	contentTypeProblemJSON,
	contentTypeProblemCBOR,
	"application/cbor",
}

type problem struct {
	Schema string `json:"$schema,omitempty" cbor:"$schema,omitempty"`
	Title  string `json:"title,omitempty"   cbor:"title,omitempty"`
	Status int    `json:"status,omitempty"  cbor:"status,omitempty"`
	Detail string `json:"detail,omitempty"  cbor:"detail,omitempty"`
}

// wantsCBOR reports whether the Accept header prefers a CBOR representation.
// JSON wins ties and is the default.
func wantsCBOR(accept string) bool {
	if strings.TrimSpace(accept) == "" {
		return false
	}
	return strings.Contains(negotiation.SelectQValueFast(accept, problemFormats), "cbor")
}

// WriteProblem writes a problem details body negotiated from the request's
// Accept header.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	p := problem{
		Schema: ErrorSchemaPath,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}

	var (
		body []byte
		err  error
		ct   = contentTypeProblemJSON
	)
	if wantsCBOR(r.Header.Get("Accept")) {
		ct = contentTypeProblemCBOR
		body, err = cbor.Marshal(p)
	} else {
		body, err = json.Marshal(p)
	}
	if err != nil {
		applog.LogError(r.Context(), "failed to encode problem", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	h := w.Header()
	h.Set("Content-Type", ct)
	h.Set("Link", fmt.Sprintf(`<%s>; rel="describedBy"`, ErrorSchemaPath))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// NotFoundHandler renders 404 for unmatched routes.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteProblem(w, r, http.StatusNotFound, "resource not found")
	}
}

// MethodNotAllowedHandler renders 405 with an Allow header listing the
// methods the matched path accepts.
func MethodNotAllowedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
		}
		WriteProblem(w, r, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func allowedMethods(r *http.Request) []string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return nil
	}
	path := rctx.RoutePath
	if path == "" {
		path = r.URL.Path
	}
	if path == "" {
		path = "/"
	}

	var allowed []string
	for _, m := range []string{
		http.MethodGet, http.MethodHead, http.MethodPost,
		http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
	} {
		if rctx.Routes.Match(chi.NewRouteContext(), m, path) {
			allowed = append(allowed, m)
		}
	}
	return allowed
}

// responseWriter remembers whether the header was sent.
type responseWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Recoverer turns panics into 500 problem details and logs the stack.
// http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := &responseWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				applog.LogError(r.Context(), "panic recovered", fmt.Errorf("%v", rec),
					zap.ByteString("stack", debug.Stack()))
				if rw.wroteHeader {
					return
				}
				WriteProblem(rw, r, http.StatusInternalServerError, "internal server error")
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

// BackendProblem is the 500 body for a failed store or cache call.
type BackendProblem struct {
	Msg    string `json:"msg"              cbor:"msg"`
	Reason string `json:"reason,omitempty" cbor:"reason,omitempty"`
}

// Error implements error.
func (p *BackendProblem) Error() string {
	if p.Reason == "" {
		return p.Msg
	}
	return p.Msg + ": " + p.Reason
}

// GetStatus implements huma.StatusError.
func (p *BackendProblem) GetStatus() int {
	return http.StatusInternalServerError
}

// ContentType keeps the plain media type; the body is not a problem document.
func (p *BackendProblem) ContentType(ct string) string {
	switch ct {
	case contentTypeProblemJSON:
		return "application/json"
	case contentTypeProblemCBOR:
		return "application/cbor"
	}
	return ct
}

var _ huma.StatusError = (*BackendProblem)(nil)
