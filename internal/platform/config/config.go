package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// MaxPayloadBytes bounds request bodies; closure requests carry signature
	// and evidence blobs so the ceiling is generous but hard.
	MaxPayloadBytes int64

	Redis  RedisConfig
	Dedupe DedupeConfig
}

// RedisConfig configures the optional Redis client. Empty URL disables it.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DedupeConfig gates the optional pre-creation duplicate check. Off by
// default: the heuristic is advisory, never a creation precondition unless
// explicitly enabled.
type DedupeConfig struct {
	Enabled      bool
	RadiusMeters float64
	Window       time.Duration
}

// DefaultMaxPayloadBytes mirrors the observed production body ceiling (5MB).
const DefaultMaxPayloadBytes = 5 << 20

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("ATIENDE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = "postgres://localhost:5432/atiende?sslmode=disable"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	maxPayload := int64(DefaultMaxPayloadBytes)
	if v := os.Getenv("MAX_PAYLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxPayload = n
		}
	}

	dedupe := DedupeConfig{
		Enabled:      os.Getenv("DEDUPE_ENABLED") == "true",
		RadiusMeters: 50,
		Window:       24 * time.Hour,
	}
	if v := os.Getenv("DEDUPE_RADIUS_METERS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			dedupe.RadiusMeters = f
		}
	}
	if v := os.Getenv("DEDUPE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			dedupe.Window = d
		}
	}

	return Server{
		Addr:            addr,
		DatabaseURL:     dbURL,
		JWTSigningKey:   jwtSigningKey,
		JWTIssuer:       getenvDefault("JWT_ISSUER", "atiende"),
		JWTAudience:     getenvDefault("JWT_AUDIENCE", "atiende-api"),
		MaxPayloadBytes: maxPayload,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Dedupe: dedupe,
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
