package auth

import (
	"context"
	"errors"
	"testing"

	fbauth "firebase.google.com/go/v4/auth"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    error
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"bearer token123", "token123", nil},
		{"  BEARER   token123  ", "token123", nil},
		{"", "", ErrNoToken},
		{"   ", "", ErrNoToken},
		{"token123", "", ErrInvalidToken},
		{"Basic dXNlcjpwYXNz", "", ErrInvalidToken},
		{"Bearer", "", ErrInvalidToken},
		{"Bearer a b", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if !errors.Is(err, tt.err) {
			t.Errorf("%q: expected error %v, got %v", tt.header, tt.err, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: expected token %q, got %q", tt.header, tt.want, got)
		}
	}
}

func TestRequirement(t *testing.T) {
	if Requirement(nil) != nil {
		t.Error("expected no requirement without a verifier")
	}
	req := Requirement(&MockVerifier{})
	if len(req) != 1 {
		t.Fatalf("expected one requirement, got %v", req)
	}
	if _, ok := req[0][SchemeName]; !ok {
		t.Errorf("expected %s scheme, got %v", SchemeName, req)
	}
}

type fakeTokenClient struct {
	token *fbauth.Token
	err   error
}

func (f *fakeTokenClient) VerifyIDTokenAndCheckRevoked(context.Context, string) (*fbauth.Token, error) {
	return f.token, f.err
}

func TestFirebaseVerifier(t *testing.T) {
	v := &FirebaseVerifier{client: &fakeTokenClient{token: &fbauth.Token{
		UID:    "uid-1",
		Claims: map[string]any{"email": "a@example.com"},
	}}}
	user, err := v.Verify(context.Background(), "tok")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if user.UID != "uid-1" || user.Email != "a@example.com" {
		t.Errorf("unexpected user %+v", user)
	}

	v = &FirebaseVerifier{client: &fakeTokenClient{err: errors.New("malformed")}}
	if _, err := v.Verify(context.Background(), "tok"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestMockVerifier(t *testing.T) {
	m := &MockVerifier{Token: "good", User: TestUser()}
	if user, err := m.Verify(context.Background(), "good"); err != nil || user.UID != "test-user-123" {
		t.Errorf("expected test user, got %+v %v", user, err)
	}
	if _, err := m.Verify(context.Background(), "bad"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	m.Err = ErrUnavailable
	if _, err := m.Verify(context.Background(), "good"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected configured error, got %v", err)
	}
}
