package auth

import "context"

// MockVerifier accepts a fixed token and returns a fixed user.
// An empty Token accepts any token.
type MockVerifier struct {
	Token string
	User  *User
	Err   error
}

func (m *MockVerifier) Verify(_ context.Context, token string) (*User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Token != "" && token != m.Token {
		return nil, ErrInvalidToken
	}
	return m.User, nil
}

// TestUser returns the caller used throughout tests.
func TestUser() *User {
	return &User{UID: "test-user-123", Email: "test@example.com"}
}

var _ Verifier = (*MockVerifier)(nil)
