package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains runtime configuration values.
type Config struct {
	Environment          string
	HTTPPort             string
	MongoURI             string
	MongoDatabase        string
	JWTSecret            string
	PhoneSecret          string
	AccessTokenTTL       time.Duration
	RefreshTokenTTL      time.Duration
	ServiceName          string
	RateLimitRPM         int
	MailAPIURL           string
	MailAPIKey           string
	MailFrom             string
	TelemetryEndpoint    string
	TelemetryInsecure    bool
	CORSAllowedOrigins   []string
	CORSAllowedMethods   []string
	CORSAllowedHeaders   []string
	CORSAllowCredentials bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() (Config, error) {
	cfg := Config{
		Environment:          getEnv("APP_ENV", "development"),
		HTTPPort:             getEnv("HTTP_PORT", "3000"),
		MongoURI:             os.Getenv("MONGO_URI"),
		MongoDatabase:        getEnv("MONGO_DATABASE", "socialapp"),
		JWTSecret:            os.Getenv("JWT_SECRET_KEY"),
		PhoneSecret:          os.Getenv("PHONE_SECRET_KEY"),
		AccessTokenTTL:       getDuration("ACCESS_TOKEN_TTL", 3000*time.Second),
		RefreshTokenTTL:      getDuration("REFRESH_TOKEN_TTL", 24*time.Hour),
		ServiceName:          getEnv("SERVICE_NAME", "socialapp-api"),
		RateLimitRPM:         getInt("RATE_LIMIT_RPM", 2000),
		MailAPIURL:           os.Getenv("MAIL_API_URL"),
		MailAPIKey:           os.Getenv("MAIL_API_KEY"),
		MailFrom:             getEnv("MAIL_FROM", "no-reply@socialapp.dev"),
		TelemetryEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TelemetryInsecure:    getBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		CORSAllowedOrigins:   getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		CORSAllowedMethods:   getList("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		CORSAllowedHeaders:   getList("CORS_ALLOWED_HEADERS", []string{"Authorization", "Content-Type"}),
		CORSAllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", false),
	}

	if cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("MONGO_URI is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if cfg.PhoneSecret == "" {
		return Config{}, fmt.Errorf("PHONE_SECRET_KEY is required")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(v) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		case "0", "false", "f", "no", "n", "off":
			return false
		}
	}
	return def
}

func getList(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok {
		parts := strings.Split(v, ",")
		var cleaned []string
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				cleaned = append(cleaned, trimmed)
			}
		}
		if len(cleaned) > 0 {
			return cleaned
		}
	}
	return def
}
