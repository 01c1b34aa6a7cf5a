// Package testutil gates integration tests on locally running backing
// services. Every helper skips rather than fails when a service is down.
package testutil

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"
)

const (
	FirestoreEmulatorHost = "127.0.0.1:7130"
	ProjectID             = "demo-test-project"
)

// Default service addresses, overridable through the environment.
var (
	RedisAddr       = envOr("TEST_REDIS_ADDR", "127.0.0.1:6379")
	MongoAddr       = envOr("TEST_MONGO_ADDR", "127.0.0.1:27017")
	DynamoDBAddr    = envOr("TEST_DYNAMODB_ADDR", "127.0.0.1:8008")
	firestoreTarget = envOr("TEST_FIRESTORE_ADDR", FirestoreEmulatorHost)
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Reachable reports whether a TCP connection to host succeeds quickly.
func Reachable(host string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func skipUnless(t *testing.T, name, host string) {
	t.Helper()
	if testing.Short() {
		t.Skipf("%s integration test skipped in short mode", name)
	}
	if !Reachable(host) {
		t.Skipf("%s not available at %s", name, host)
	}
}

// SkipIfFirestoreUnavailable skips the test when the Firestore emulator is down.
func SkipIfFirestoreUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, "Firestore emulator", firestoreTarget)
}

// SkipIfRedisUnavailable skips the test when Redis is down.
func SkipIfRedisUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, "Redis", RedisAddr)
}

// SkipIfMongoUnavailable skips the test when MongoDB is down.
func SkipIfMongoUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, "MongoDB", MongoAddr)
}

// SkipIfDynamoDBUnavailable skips the test when DynamoDB Local is down.
func SkipIfDynamoDBUnavailable(t *testing.T) {
	t.Helper()
	skipUnless(t, "DynamoDB Local", DynamoDBAddr)
}

// SetupEmulator points Firestore clients at the emulator.
func SetupEmulator(t *testing.T) {
	t.Helper()
	t.Setenv("FIRESTORE_EMULATOR_HOST", firestoreTarget)
}

// ClearFirestore removes all documents from the Firestore emulator.
func ClearFirestore(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	url := fmt.Sprintf("http://%s/emulator/v1/projects/%s/databases/(default)/documents",
		firestoreTarget, ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("failed to clear Firestore: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
}

// UniqueName returns a per-test name for collections, tables and key prefixes.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
