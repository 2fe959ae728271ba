package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"
)

const defaultWorshipLeaders = "Zadrach,Shiela,Joyce,Loraine,Ivy,Lousie,Jhazz,Thek,Denise,Bel,Veemar"

// Config contains application-wide settings sourced from the environment.
type Config struct {
	DatabaseURL    string
	DBPool         poolConfig
	Store          string
	Addr           string
	AllowedOrigins []string

	LogLevel  string
	LogFormat string

	AuthPIN     string
	AuthPINHash string
	JWTSecret   string
	SessionTTL  time.Duration

	AllowDuplicateLeaders bool
	GatewayTimeout        time.Duration

	MediaDir     string
	MediaBaseURL string
	ChordsURL    string

	WorshipLeaders []string
	SeedDemo       bool
}

func loadConfig() (Config, error) {
	_ = godotenv.Load("config/local.env")
	_ = godotenv.Load()

	var problems []string
	cfg := Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Store:          strings.ToLower(envOrDefault("STORE", storePostgres)),
		Addr:           fmt.Sprintf(":%s", envOrDefault("PORT", "8080")),
		AllowedOrigins: parseList(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		LogLevel:       strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(envOrDefault("LOG_FORMAT", "json")),
		AuthPIN:        os.Getenv("AUTH_PIN"),
		AuthPINHash:    os.Getenv("AUTH_PIN_HASH"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		MediaDir:       envOrDefault("MEDIA_DIR", "data/media"),
		MediaBaseURL:   envOrDefault("MEDIA_BASE_URL", "/media"),
		ChordsURL:      envOrDefault("CHORDS_URL", "https://www.worshiptogether.com"),
		WorshipLeaders: parseList(envOrDefault("WORSHIP_LEADERS", defaultWorshipLeaders)),
	}

	var err error
	if cfg.SessionTTL, err = envDuration("SESSION_TTL", 12*time.Hour); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.GatewayTimeout, err = envDuration("GATEWAY_TIMEOUT", 10*time.Second); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.AllowDuplicateLeaders, err = envBool("ALLOW_DUPLICATE_LEADERS", true); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.SeedDemo, err = envBool("SEED_DEMO", false); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.DBPool.MaxOpenConns, err = envInt("DB_MAX_OPEN_CONNS", 10); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.DBPool.MaxIdleConns, err = envInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.DBPool.ConnMaxLifetime, err = envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		problems = append(problems, err.Error())
	}
	if cfg.DBPool.ConnectWait, err = envDuration("DB_CONNECT_WAIT", 30*time.Second); err != nil {
		problems = append(problems, err.Error())
	}

	problems = append(problems, cfg.validate()...)
	if len(problems) > 0 {
		return Config{}, fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return cfg, nil
}

// validate reports every problem rather than stopping at the first.
func (c Config) validate() []string {
	var problems []string

	switch c.Store {
	case storePostgres:
		if c.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required when STORE=postgres")
		}
	case storeMemory:
	default:
		problems = append(problems, "STORE must be one of: postgres, memory")
	}

	if c.AuthPIN == "" && c.AuthPINHash == "" {
		problems = append(problems, "AUTH_PIN or AUTH_PIN_HASH is required")
	}
	if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}

	port, err := strconv.Atoi(strings.TrimPrefix(c.Addr, ":"))
	if err != nil || port < 1 || port > 65535 {
		problems = append(problems, "PORT must be between 1 and 65535")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.LogLevel] {
		problems = append(problems, "LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.LogFormat] {
		problems = append(problems, "LOG_FORMAT must be one of: json, text")
	}

	if c.GatewayTimeout <= 0 {
		problems = append(problems, "GATEWAY_TIMEOUT must be positive")
	}
	if c.SessionTTL <= 0 {
		problems = append(problems, "SESSION_TTL must be positive")
	}

	if c.DBPool.MaxOpenConns < 1 {
		problems = append(problems, "DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.DBPool.MaxIdleConns < 0 || c.DBPool.MaxIdleConns > c.DBPool.MaxOpenConns {
		problems = append(problems, "DB_MAX_IDLE_CONNS must be between 0 and DB_MAX_OPEN_CONNS")
	}
	if c.DBPool.ConnectWait <= 0 {
		problems = append(problems, "DB_CONNECT_WAIT must be positive")
	}
	return problems
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 10s: %v", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", key)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false", key)
	}
	return b, nil
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
