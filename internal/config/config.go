package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is read before the process environment. A missing file is not an error.
const DefaultEnvFile = ".env.app"

// Provider selects which canonical store backs the service.
type Provider string

const (
	ProviderAWS   Provider = "aws"   // DynamoDB
	ProviderGCP   Provider = "gcp"   // Firestore
	ProviderLocal Provider = "local" // MongoDB with a Redis read cache
)

// Config holds all configuration for the service.
type Config struct {
	App       AppConfig
	Provider  Provider
	Mongo     MongoConfig
	Redis     RedisConfig
	AWS       AWSConfig
	Firestore FirestoreConfig
	HTTP      HTTPConfig
	Auth      AuthConfig
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Name            string
	Env             string
	Host            string
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// Addr returns the listen address.
func (a AppConfig) Addr() string {
	return net.JoinHostPort(a.Host, a.Port)
}

// MongoConfig holds the document database connection settings.
type MongoConfig struct {
	Host             string
	Port             string
	Database         string
	Collection       string
	User             string
	Password         string
	AuthSource       string
	AuthMechanism    string
	DirectConnection bool
	Timeout          time.Duration
}

// URI builds a mongodb:// connection string. Credentials are omitted when no user is set.
func (m MongoConfig) URI() string {
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(m.Host, m.Port),
		Path:   "/",
	}
	q := url.Values{}
	if m.User != "" {
		u.User = url.UserPassword(m.User, m.Password)
		if m.AuthSource != "" {
			q.Set("authSource", m.AuthSource)
		}
		if m.AuthMechanism != "" {
			q.Set("authMechanism", m.AuthMechanism)
		}
	}
	if m.DirectConnection {
		q.Set("directConnection", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// RedisConfig holds the read cache settings.
type RedisConfig struct {
	Host         string
	Port         string
	DB           int
	Password     string
	TTL          time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

// AWSConfig holds DynamoDB and credential settings.
type AWSConfig struct {
	Region           string
	UseIRSA          bool
	RoleARN          string
	SessionName      string
	DynamoDBTable    string
	DynamoDBEndpoint string
	HTTPTimeout      time.Duration
}

// FirestoreConfig holds the document store settings.
type FirestoreConfig struct {
	ProjectID       string
	Database        string
	Collection      string
	CredentialsFile string
}

// HTTPConfig holds inbound middleware settings.
type HTTPConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	CORSMaxAge       int
	TrustedHosts     []string
	GzipLevel        int
	RateLimitTimes   int
	RateLimitWindow  time.Duration
	MaxBodyBytes     int64
}

// AuthConfig controls Firebase ID token verification.
type AuthConfig struct {
	Enabled         bool
	ProjectID       string
	CredentialsFile string
}

// Load reads envFiles (DefaultEnvFile when none are given) and then the
// process environment. Variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "ols_svc_profile"),
			Env:             getEnv("APP_ENV", "dev"),
			Host:            getEnv("APP_HOST", "0.0.0.0"),
			Port:            getEnv("APP_PORT", getEnv("PORT", "8000")),
			LogLevel:        getEnv("APP_LOG_LEVEL", "info"),
			ShutdownTimeout: getDurationEnv("APP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Provider: Provider(strings.ToLower(getEnv("CLOUD_PROVIDER", string(ProviderLocal)))),
		Mongo: MongoConfig{
			Host:             getEnv("MONGO_HOST", "127.0.0.1"),
			Port:             getEnv("MONGO_PORT", "27017"),
			Database:         getEnv("MONGO_DBNAME", "ols_svc_profile"),
			Collection:       getEnv("MONGO_COLLECTION", "Profile"),
			User:             getEnv("MONGO_USER", ""),
			Password:         getEnv("MONGO_PASS", ""),
			AuthSource:       getEnv("MONGO_AUTH_SOURCE", "admin"),
			AuthMechanism:    getEnv("MONGO_AUTH_MECHANISM", "SCRAM-SHA-256"),
			DirectConnection: getBoolEnv("MONGO_DIRECT_CONNECTION", true),
			Timeout:          getDurationEnv("MONGO_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "127.0.0.1"),
			Port:         getEnv("REDIS_PORT", "6379"),
			DB:           getIntEnv("REDIS_DB", 0),
			Password:     getEnv("REDIS_PASS", ""),
			TTL:          getSecondsEnv("REDIS_TTL", time.Hour),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 2*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", time.Second),
		},
		AWS: AWSConfig{
			Region:           getEnv("AWS_REGION", "us-west-1"),
			UseIRSA:          getBoolEnv("USE_IRSA", false),
			RoleARN:          getEnv("PROFILE_ROLE_ARN", ""),
			SessionName:      getEnv("PROFILE_SESSION_NAME", "ols_svc_profile"),
			DynamoDBTable:    getEnv("DYNAMODB_TABLE", "profile"),
			DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),
			HTTPTimeout:      getDurationEnv("AWS_HTTP_TIMEOUT", 5*time.Second),
		},
		Firestore: FirestoreConfig{
			ProjectID:       getEnv("FIRESTORE_PROJECT_ID", "ols-platform-dev"),
			Database:        getEnv("FIRESTORE_DATABASE", "(default)"),
			Collection:      getEnv("FIRESTORE_COLLECTION", "profiles"),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
		HTTP: HTTPConfig{
			AllowedOrigins:   getStringSliceEnv("CORS_ALLOW_ORIGINS", []string{"*"}),
			AllowedMethods:   getStringSliceEnv("CORS_ALLOW_METHODS", []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getStringSliceEnv("CORS_ALLOW_HEADERS", []string{"Accept", "Authorization", "Content-Type", "If-None-Match"}),
			AllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", false),
			CORSMaxAge:       getIntEnv("CORS_MAX_AGE", 300),
			TrustedHosts:     getStringSliceEnv("TRUSTED_HOSTS", []string{"*"}),
			GzipLevel:        getIntEnv("GZIP_LEVEL", 5),
			RateLimitTimes:   getIntEnv("RATE_LIMIT_TIMES", 20),
			RateLimitWindow:  getSecondsEnv("RATE_LIMIT_SECONDS", time.Minute),
			MaxBodyBytes:     int64(getIntEnv("MAX_BODY_BYTES", 1<<20)),
		},
		Auth: AuthConfig{
			Enabled:         getBoolEnv("AUTH_ENABLED", false),
			ProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderAWS:
		if c.AWS.DynamoDBTable == "" {
			errs = append(errs, errors.New("DYNAMODB_TABLE is required for the aws provider"))
		}
		if !c.AWS.UseIRSA && c.AWS.RoleARN == "" && c.AWS.DynamoDBEndpoint == "" {
			errs = append(errs, errors.New("PROFILE_ROLE_ARN is required unless USE_IRSA is set"))
		}
	case ProviderGCP:
		if c.Firestore.ProjectID == "" {
			errs = append(errs, errors.New("FIRESTORE_PROJECT_ID is required for the gcp provider"))
		}
		if c.Firestore.Collection == "" {
			errs = append(errs, errors.New("FIRESTORE_COLLECTION is required for the gcp provider"))
		}
	case ProviderLocal:
		if c.Redis.TTL <= 0 {
			errs = append(errs, errors.New("REDIS_TTL must be positive"))
		}
		if c.Mongo.Collection == "" {
			errs = append(errs, errors.New("MONGO_COLLECTION is required for the local provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CLOUD_PROVIDER %q", c.Provider))
	}
	if c.App.Port == "" {
		errs = append(errs, errors.New("APP_PORT is required"))
	}
	if c.HTTP.RateLimitTimes < 0 || c.HTTP.RateLimitWindow < 0 {
		errs = append(errs, errors.New("rate limit settings must not be negative"))
	}
	if c.Auth.Enabled && c.Auth.ProjectID == "" {
		errs = append(errs, errors.New("FIREBASE_PROJECT_ID is required when AUTH_ENABLED is set"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv accepts Go duration strings ("5s", "250ms").
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// getSecondsEnv accepts a plain number of seconds, falling back to a duration string.
func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return getDurationEnv(key, defaultValue)
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	var out []string
	for part := range strings.SplitSeq(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
