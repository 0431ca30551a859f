package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	// MaxConnectAttempts is the ceiling on consecutive failed MongoDB connection attempts.
	MaxConnectAttempts = 5

	// ConnectRetryDelaySeconds is the fixed delay between MongoDB connection attempts.
	ConnectRetryDelaySeconds = 3

	// MongoPoolSize is the maximum connection pool size for the MongoDB client.
	MongoPoolSize = 10

	// MongoConnectTimeoutSeconds bounds a single dial attempt.
	MongoConnectTimeoutSeconds = 10

	// MongoSocketTimeoutSeconds bounds individual driver operations.
	MongoSocketTimeoutSeconds = 45

	// GatewayTimeoutSeconds bounds outbound gateway HTTP calls.
	GatewayTimeoutSeconds = 30

	// ServerPort is the default HTTP server port.
	ServerPort = ":8080"
)

// Config holds the externally supplied service configuration.
type Config struct {
	ServerAddr        string
	MongoURI          string
	MongoDatabase     string
	GatewayBaseURL    string
	GatewayToken      string
	EntityID          string
	FrontendResultURL string

	// WebhookDecryptionKey is a hex-encoded AES-256 key. When empty,
	// webhook payloads are expected in plaintext.
	WebhookDecryptionKey string
}

// Load reads configuration from the environment. Credentials have no
// built-in defaults: a missing required variable fails startup.
func Load() (Config, error) {
	cfg := Config{
		ServerAddr:           envOr("SERVER_ADDR", ServerPort),
		MongoURI:             envOr("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase:        envOr("MONGODB_DATABASE", "paypass"),
		GatewayBaseURL:       envOr("GATEWAY_BASE_URL", "https://eu-test.oppwa.com"),
		GatewayToken:         os.Getenv("GATEWAY_ACCESS_TOKEN"),
		EntityID:             os.Getenv("GATEWAY_ENTITY_ID"),
		FrontendResultURL:    envOr("FRONTEND_RESULT_URL", "http://localhost:3000/payment/result"),
		WebhookDecryptionKey: os.Getenv("WEBHOOK_DECRYPTION_KEY"),
	}

	var missing []string
	if cfg.GatewayToken == "" {
		missing = append(missing, "GATEWAY_ACCESS_TOKEN")
	}
	if cfg.EntityID == "" {
		missing = append(missing, "GATEWAY_ENTITY_ID")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
