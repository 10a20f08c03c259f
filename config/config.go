package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// WebSocket tuning knobs shared by the gateway handler.
const (
	// WriteWait is the time allowed to write a message to the peer.
	WriteWait = 10 * time.Second
	// PongWait is the time allowed to read the next pong from the peer.
	PongWait = 60 * time.Second
	// PingPeriod must be less than PongWait.
	PingPeriod = (PongWait * 9) / 10
	// MaxMessageSize is the maximum inbound frame size in bytes.
	MaxMessageSize = 4096
)

// PresenceBucket is the JetStream KV bucket holding userId -> connectionId.
const PresenceBucket = "chat_presence"

// Config holds everything read from the environment at process start.
type Config struct {
	ServerAddr string `envconfig:"SERVER_ADDR" default:":8080"`

	NatsURL string `envconfig:"NATS_URL" default:"nats://127.0.0.1:4222"`

	MongoURI string `envconfig:"MONGO_URI" default:"mongodb://127.0.0.1:27017"`
	MongoDB  string `envconfig:"MONGO_DB" default:"slotflow"`

	S3Bucket string `envconfig:"S3_BUCKET" required:"true"`
	S3Region string `envconfig:"S3_REGION" default:"us-east-1"`

	// SignedURLTTL is how long presigned GET URLs stay valid.
	SignedURLTTL time.Duration `envconfig:"SIGNED_URL_TTL" default:"48h"`
	// ObjectStoreTimeout bounds every upload and signing round trip.
	ObjectStoreTimeout time.Duration `envconfig:"OBJECT_STORE_TIMEOUT" default:"10s"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	return &cfg, nil
}
