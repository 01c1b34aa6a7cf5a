package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func missingEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.env")
}

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	_ = os.Unsetenv(key)
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"CLOUD_PROVIDER", "APP_PORT", "PORT", "REDIS_TTL", "MONGO_COLLECTION", "RATE_LIMIT_SECONDS"} {
		unsetEnv(t, k)
	}

	cfg, err := Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider != ProviderLocal {
		t.Errorf("expected local provider, got %q", cfg.Provider)
	}
	if cfg.App.Port != "8000" {
		t.Errorf("expected port 8000, got %q", cfg.App.Port)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Errorf("expected 1h TTL, got %v", cfg.Redis.TTL)
	}
	if cfg.Mongo.Collection != "Profile" {
		t.Errorf("expected Profile collection, got %q", cfg.Mongo.Collection)
	}
	if cfg.HTTP.RateLimitWindow != time.Minute {
		t.Errorf("expected 60s rate limit window, got %v", cfg.HTTP.RateLimitWindow)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CLOUD_PROVIDER", "GCP")
	t.Setenv("FIRESTORE_PROJECT_ID", "demo")
	t.Setenv("FIRESTORE_COLLECTION", "people")
	t.Setenv("REDIS_TTL", "120")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("MONGO_TIMEOUT", "250ms")
	t.Setenv("USE_IRSA", "true")

	cfg, err := Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Provider != ProviderGCP {
		t.Errorf("expected gcp provider, got %q", cfg.Provider)
	}
	if cfg.Firestore.Collection != "people" {
		t.Errorf("unexpected collection %q", cfg.Firestore.Collection)
	}
	if cfg.Redis.TTL != 2*time.Minute {
		t.Errorf("expected 120s TTL, got %v", cfg.Redis.TTL)
	}
	if got := strings.Join(cfg.HTTP.AllowedOrigins, "|"); got != "https://a.example|https://b.example" {
		t.Errorf("unexpected origins %q", got)
	}
	if cfg.Mongo.Timeout != 250*time.Millisecond {
		t.Errorf("unexpected mongo timeout %v", cfg.Mongo.Timeout)
	}
	if !cfg.AWS.UseIRSA {
		t.Error("expected USE_IRSA true")
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	unsetEnv(t, "CLOUD_PROVIDER")
	unsetEnv(t, "APP_NAME")

	path := filepath.Join(t.TempDir(), ".env.app")
	content := "CLOUD_PROVIDER=local\nAPP_NAME=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Name != "from-file" {
		t.Fatalf("expected APP_NAME from file, got %q", cfg.App.Name)
	}
}

func TestLoadEnvironmentOverridesEnvFile(t *testing.T) {
	t.Setenv("APP_NAME", "from-env")

	path := filepath.Join(t.TempDir(), ".env.app")
	if err := os.WriteFile(path, []byte("APP_NAME=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Name != "from-env" {
		t.Fatalf("expected environment to win, got %q", cfg.App.Name)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("CLOUD_PROVIDER", "azure")

	_, err := Load(missingEnvFile(t))
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "azure") {
		t.Fatalf("expected provider name in error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			App:      AppConfig{Port: "8000"},
			Provider: ProviderLocal,
			Mongo:    MongoConfig{Collection: "Profile"},
			Redis:    RedisConfig{TTL: time.Hour},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid local", func(*Config) {}, ""},
		{"zero ttl", func(c *Config) { c.Redis.TTL = 0 }, "REDIS_TTL"},
		{"aws without role", func(c *Config) {
			c.Provider = ProviderAWS
			c.AWS.DynamoDBTable = "profile"
		}, "PROFILE_ROLE_ARN"},
		{"aws with irsa", func(c *Config) {
			c.Provider = ProviderAWS
			c.AWS.DynamoDBTable = "profile"
			c.AWS.UseIRSA = true
		}, ""},
		{"aws local endpoint", func(c *Config) {
			c.Provider = ProviderAWS
			c.AWS.DynamoDBTable = "profile"
			c.AWS.DynamoDBEndpoint = "http://127.0.0.1:8001"
		}, ""},
		{"gcp without project", func(c *Config) {
			c.Provider = ProviderGCP
			c.Firestore.Collection = "profiles"
		}, "FIRESTORE_PROJECT_ID"},
		{"auth without project", func(c *Config) { c.Auth.Enabled = true }, "FIREBASE_PROJECT_ID"},
		{"negative rate limit", func(c *Config) { c.HTTP.RateLimitTimes = -1 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMongoURI(t *testing.T) {
	m := MongoConfig{
		Host:             "db",
		Port:             "27017",
		User:             "svc",
		Password:         "p@ss",
		AuthSource:       "admin",
		AuthMechanism:    "SCRAM-SHA-256",
		DirectConnection: true,
	}
	got := m.URI()
	for _, want := range []string{"mongodb://svc:p%40ss@db:27017/", "authSource=admin", "authMechanism=SCRAM-SHA-256", "directConnection=true"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}

	anon := MongoConfig{Host: "127.0.0.1", Port: "27017", AuthSource: "admin"}
	if got := anon.URI(); got != "mongodb://127.0.0.1:27017/" {
		t.Fatalf("unexpected anonymous URI %q", got)
	}
}

func TestAddrHelpers(t *testing.T) {
	if got := (RedisConfig{Host: "cache", Port: "6379"}).Addr(); got != "cache:6379" {
		t.Fatalf("unexpected redis addr %q", got)
	}
	if got := (AppConfig{Host: "0.0.0.0", Port: "8000"}).Addr(); got != "0.0.0.0:8000" {
		t.Fatalf("unexpected app addr %q", got)
	}
}
