package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
)

func decodeProblem(t *testing.T, resp *httptest.ResponseRecorder) problem {
	t.Helper()
	var p problem
	var err error
	if strings.HasSuffix(resp.Header().Get("Content-Type"), "cbor") {
		err = cbor.Unmarshal(resp.Body.Bytes(), &p)
	} else {
		err = json.Unmarshal(resp.Body.Bytes(), &p)
	}
	if err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	return p
}

func TestNotFoundHandler(t *testing.T) {
	router := chi.NewRouter()
	router.NotFound(NotFoundHandler())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("expected application/problem+json, got %q", ct)
	}
	if link := resp.Header().Get("Link"); !strings.Contains(link, ErrorSchemaPath) || !strings.Contains(link, "describedBy") {
		t.Errorf("expected schema Link header, got %q", link)
	}
	p := decodeProblem(t, resp)
	if p.Status != http.StatusNotFound || p.Title != "Not Found" || p.Schema != ErrorSchemaPath {
		t.Errorf("unexpected problem %+v", p)
	}
}

func TestMethodNotAllowedHandler(t *testing.T) {
	router := chi.NewRouter()
	router.MethodNotAllowed(MethodNotAllowedHandler())
	router.Get("/v1/profiles", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	router.Post("/v1/profiles", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusCreated) })

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPatch, "/v1/profiles", nil))

	if resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.Code)
	}
	allow := resp.Header().Get("Allow")
	if !strings.Contains(allow, http.MethodGet) || !strings.Contains(allow, http.MethodPost) {
		t.Errorf("expected GET and POST in Allow, got %q", allow)
	}
	if strings.Contains(allow, http.MethodPatch) {
		t.Errorf("unexpected PATCH in Allow %q", allow)
	}
}

func TestProblemNegotiation(t *testing.T) {
	tests := []struct {
		accept   string
		wantCBOR bool
	}{
		{"", false},
		{"application/json", false},
		{"application/cbor", true},
		{"application/problem+cbor", true},
		{"application/json;q=0.5, application/cbor", true},
		{"application/cbor;q=0.5, application/json", false},
		{"text/html", false},
	}
	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			resp := httptest.NewRecorder()
			NotFoundHandler().ServeHTTP(resp, req)

			ct := resp.Header().Get("Content-Type")
			if tt.wantCBOR && ct != "application/problem+cbor" {
				t.Fatalf("expected CBOR, got %q", ct)
			}
			if !tt.wantCBOR && ct != "application/problem+json" {
				t.Fatalf("expected JSON, got %q", ct)
			}
			if p := decodeProblem(t, resp); p.Status != http.StatusNotFound {
				t.Errorf("unexpected status in body %d", p.Status)
			}
		})
	}
}

func TestRecovererReturnsProblem(t *testing.T) {
	handler := Recoverer()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
	p := decodeProblem(t, resp)
	if p.Detail != "internal server error" {
		t.Errorf("unexpected detail %q", p.Detail)
	}
	if strings.Contains(resp.Body.String(), "boom") {
		t.Error("panic value leaked into the response")
	}
}

func TestRecovererSkipsWriteAfterHeader(t *testing.T) {
	handler := Recoverer()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected original status to stand, got %d", resp.Code)
	}
	if resp.Body.Len() != 0 {
		t.Errorf("expected no problem body, got %q", resp.Body.String())
	}
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	handler := Recoverer()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestBackendProblem(t *testing.T) {
	p := &BackendProblem{Msg: "Cannot get profile datum", Reason: "timeout"}
	if p.GetStatus() != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", p.GetStatus())
	}
	if p.Error() != "Cannot get profile datum: timeout" {
		t.Errorf("unexpected error text %q", p.Error())
	}
	if ct := p.ContentType("application/problem+json"); ct != "application/json" {
		t.Errorf("expected plain json content type, got %q", ct)
	}

	body, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(body) != `{"msg":"Cannot get profile datum","reason":"timeout"}` {
		t.Errorf("unexpected body %s", body)
	}
}
