package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr                  string
	Production            bool
	JWTSigningKey         string
	DatabaseURL           string
	MaintenanceSecretHash string
	PrivilegedUserID      string
	RequestTimeout        time.Duration
}

// Redis captures cache connection tuning. An empty URL disables the cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CANVASS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	timeout := 30 * time.Second
	if raw := os.Getenv("CANVASS_REQUEST_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	return Server{
		Addr:                  addr,
		Production:            os.Getenv("CANVASS_ENV") == "production",
		JWTSigningKey:         jwtSigningKey,
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		MaintenanceSecretHash: os.Getenv("MAINTENANCE_SECRET_HASH"),
		PrivilegedUserID:      os.Getenv("PRIVILEGED_USER_ID"),
		RequestTimeout:        timeout,
	}
}

// RedisFromEnv builds the cache config. Defaults follow the connection
// profile the campaign runs in production.
func RedisFromEnv() Redis {
	return Redis{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     intEnv("REDIS_POOL_SIZE", 10),
		MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func intEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
