// Package auth verifies bearer tokens for profile operations and carries the
// caller's identity through the request context.
package auth

import (
	"context"
	"errors"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
)

// SchemeName is the OpenAPI security scheme guarded operations reference.
const SchemeName = "bearerAuth"

// User is the authenticated caller.
type User struct {
	UID   string
	Email string
}

var (
	ErrNoToken      = errors.New("missing authorization header")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired or revoked")
	ErrUnavailable  = errors.New("token verification unavailable")
)

// Verifier validates a bearer token and returns the caller.
type Verifier interface {
	Verify(ctx context.Context, token string) (*User, error)
}

// tokenVerifier is the subset of the Firebase auth client used here.
type tokenVerifier interface {
	VerifyIDTokenAndCheckRevoked(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier checks Firebase ID tokens, including revocation.
type FirebaseVerifier struct {
	client tokenVerifier
}

// NewFirebaseVerifier wraps a Firebase auth client.
func NewFirebaseVerifier(client *fbauth.Client) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*User, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, classify(err)
	}
	email, _ := token.Claims["email"].(string)
	return &User{UID: token.UID, Email: email}, nil
}

func classify(err error) error {
	switch {
	case fbauth.IsCertificateFetchFailed(err):
		return ErrUnavailable
	case fbauth.IsIDTokenExpired(err), fbauth.IsIDTokenRevoked(err), fbauth.IsUserDisabled(err):
		return ErrExpiredToken
	default:
		return ErrInvalidToken
	}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", ErrNoToken
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidToken
	}
	return token, nil
}

// Requirement returns the operation security for verifier, or nil when
// authentication is disabled.
func Requirement(verifier Verifier) []map[string][]string {
	if verifier == nil {
		return nil
	}
	return []map[string][]string{{SchemeName: {}}}
}

var _ Verifier = (*FirebaseVerifier)(nil)
