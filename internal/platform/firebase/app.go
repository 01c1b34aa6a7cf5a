// Package firebase initialises the Firebase Admin SDK for token verification.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/janisto/ols-profile-service/internal/config"
	"github.com/janisto/ols-profile-service/internal/platform/auth"
)

// ErrNoProject is returned when no Firebase project is configured.
var ErrNoProject = errors.New("firebase project id is required")

// clientOptions reads the service account file, if any. Without one the SDK
// falls back to application default credentials.
func clientOptions(credentialsFile string) ([]option.ClientOption, error) {
	if credentialsFile == "" {
		return nil, nil
	}
	creds, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read firebase credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentialsJSON(creds)}, nil
}

// NewVerifier returns a token verifier for cfg, or nil when authentication
// is disabled.
func NewVerifier(ctx context.Context, cfg config.AuthConfig) (auth.Verifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.ProjectID == "" {
		return nil, ErrNoProject
	}
	opts, err := clientOptions(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return auth.NewFirebaseVerifier(client), nil
}
