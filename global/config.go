// Package global holds process-wide configuration loaded once at boot.
package global

import (
	"os"
	"strconv"
	"time"
)

type AppConfig struct {
	NodeID   int64  // snowflake node id
	HTTPAddr string // listen address for HTTP + websocket
	WSPath   string // websocket upgrade path

	JWTSecret []byte

	MongoURI      string
	MongoDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Per-connection outbound queue length. A peer that falls this far
	// behind starts losing broadcasts (best-effort delivery).
	SendQueueSize int

	ShutdownTimeout time.Duration
}

var Config AppConfig

// Load reads configuration from the environment with local-dev defaults.
func Load() *AppConfig {
	Config = AppConfig{
		NodeID:          envInt64("NODE_ID", 1),
		HTTPAddr:        envStr("HTTP_ADDR", ":8080"),
		WSPath:          envStr("WS_PATH", "/ws"),
		JWTSecret:       []byte(envStr("JWT_SECRET", "dev-secret-change-me")),
		MongoURI:        envStr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   envStr("MONGO_DB", "shopchat"),
		RedisAddr:       envStr("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:   envStr("REDIS_PASSWORD", ""),
		RedisDB:         int(envInt64("REDIS_DB", 0)),
		SendQueueSize:   int(envInt64("WS_SEND_QUEUE", 64)),
		ShutdownTimeout: 10 * time.Second,
	}
	return &Config
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
