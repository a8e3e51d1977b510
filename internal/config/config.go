package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// DBDSN vacío => storage in-memory.
	DBDSN string

	// VetAPIBaseURL vacío => el coordinador habla in-process con los services locales.
	VetAPIBaseURL string
	VetAPITimeout time.Duration

	// FetchTimeout acota cada etapa del cascade. 0 = sin timeout.
	FetchTimeout time.Duration

	ClinicTimezone string

	// JWTSecret vacío => modo dev (header X-Debug-User-ID).
	JWTSecret string

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string
	AppName   string

	SessionIdleTTL time.Duration
}

// Load lee .env (si existe) y luego variables de entorno.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DBDSN:              getEnv("DB_DSN", ""),
		VetAPIBaseURL:      getEnv("VET_API_BASE_URL", ""),
		VetAPITimeout:      getDuration("VET_API_TIMEOUT", 10*time.Second),
		FetchTimeout:       getDuration("FETCH_TIMEOUT", 15*time.Second),
		ClinicTimezone:     getEnv("CLINIC_TIMEZONE", "America/Argentina/Buenos_Aires"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		AppName:            getEnv("APP_NAME", "pet-appointment-scheduling"),
		SessionIdleTTL:     getDuration("SESSION_IDLE_TTL", 30*time.Minute),
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getDuration acepta "15s", "2m" o segundos enteros ("15").
func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	var secs int
	if _, err := fmt.Sscanf(v, "%d", &secs); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
