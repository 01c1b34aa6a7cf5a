package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
)

type whoamiOutput struct {
	Body struct {
		UID string `json:"uid"`
	}
}

func newTestAPI(verifier Verifier) *chi.Mux {
	router := chi.NewRouter()
	api := humachi.New(router, huma.DefaultConfig("AuthTest", "1.0.0"))
	api.UseMiddleware(Middleware(api, verifier))

	handler := func(ctx context.Context, _ *struct{}) (*whoamiOutput, error) {
		out := &whoamiOutput{}
		if user := UserFromContext(ctx); user != nil {
			out.Body.UID = user.UID
		}
		return out, nil
	}
	huma.Register(api, huma.Operation{
		OperationID: "secured",
		Method:      http.MethodGet,
		Path:        "/secured",
		Security:    Requirement(verifier),
	}, handler)
	huma.Register(api, huma.Operation{
		OperationID: "open",
		Method:      http.MethodGet,
		Path:        "/open",
	}, handler)
	return router
}

func get(router http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareAuthenticates(t *testing.T) {
	router := newTestAPI(&MockVerifier{Token: "good", User: TestUser()})

	rec := get(router, "/secured", "Bearer good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		UID string `json:"uid"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("json unmarshal: %v", err)
	}
	if out.UID != "test-user-123" {
		t.Errorf("expected caller in context, got %q", out.UID)
	}
}

func TestMiddlewareRejects(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		header string
		want   int
	}{
		{"no header", nil, "", http.StatusUnauthorized},
		{"wrong scheme", nil, "Basic xyz", http.StatusUnauthorized},
		{"wrong token", nil, "Bearer bad", http.StatusUnauthorized},
		{"expired", ErrExpiredToken, "Bearer good", http.StatusUnauthorized},
		{"unavailable", ErrUnavailable, "Bearer good", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestAPI(&MockVerifier{Token: "good", User: TestUser(), Err: tt.err})
			rec := get(router, "/secured", tt.header)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Errorf("expected WWW-Authenticate challenge, got %q", rec.Header().Get("WWW-Authenticate"))
			}
			if tt.want == http.StatusServiceUnavailable && rec.Header().Get("Retry-After") != "30" {
				t.Errorf("expected Retry-After, got %q", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestMiddlewareSkipsOpenOperations(t *testing.T) {
	router := newTestAPI(&MockVerifier{Err: ErrInvalidToken})
	if rec := get(router, "/open", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for open operation, got %d", rec.Code)
	}
}

func TestMiddlewareDisabled(t *testing.T) {
	router := newTestAPI(nil)
	if rec := get(router, "/secured", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without a verifier, got %d", rec.Code)
	}
}

func TestUserFromContext(t *testing.T) {
	if UserFromContext(context.Background()) != nil {
		t.Error("expected nil user on a bare context")
	}
	ctx := WithUser(context.Background(), TestUser())
	if user := UserFromContext(ctx); user == nil || user.UID != "test-user-123" {
		t.Errorf("expected test user, got %+v", user)
	}
}
