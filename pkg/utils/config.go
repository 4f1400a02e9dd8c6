package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("GAMEHUB_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("GAMEHUB_JWT_ISSUER")
	if issuer == "" {
		issuer = "gamehub"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("GAMEHUB_JWT_TTL_HOURS"); ttl != "" {
		if h, err := strconv.Atoi(ttl); err == nil && h > 0 {
			duration = time.Duration(h) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
	}
}

type ServerConfig struct {
	HTTPAddr string
	FeedAddr string

	// RefreshInterval is how often the background refresher walks the
	// catalog; zero disables it. RefreshDelay is the pause between
	// games inside one batch.
	RefreshInterval time.Duration
	RefreshDelay    time.Duration
}

func LoadServerConfig() ServerConfig {
	cfg := ServerConfig{
		HTTPAddr:        getEnv("GAMEHUB_HTTP_ADDR", ":8080"),
		FeedAddr:        getEnv("GAMEHUB_FEED_ADDR", ":9090"),
		RefreshInterval: getDurationMinutes("GAMEHUB_REFRESH_MINUTES", 0),
		RefreshDelay:    getDurationMillis("GAMEHUB_REFRESH_DELAY_MS", 500),
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDurationMinutes(key string, defMinutes int) time.Duration {
	n := defMinutes
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			n = parsed
		}
	}
	return time.Duration(n) * time.Minute
}

func getDurationMillis(key string, defMillis int) time.Duration {
	n := defMillis
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			n = parsed
		}
	}
	return time.Duration(n) * time.Millisecond
}
