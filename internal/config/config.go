package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"equiprent/internal/repository"
)

const (
	defaultHTTPAddr           = ":8080"
	defaultBackend            = "gorm"
	defaultDatabaseURL        = "equiprent.db"
	defaultMongoURL           = "mongodb://localhost:27017"
	defaultMongoDatabase      = "equiprent"
	defaultJWTAccessTTL       = "15m"
	defaultRefreshTTL         = "168h"
	defaultQueryTimeout       = "10s"
	defaultMaxOpenConns       = "25"
	defaultJWTSecret          = "change-me-jwt-secret"
	defaultRefreshTokenPepper = "change-me-refresh-pepper"
	defaultCORSMaxAge         = "10m"

	// local frontends
	defaultCORSOrigins = "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000,http://127.0.0.1:5173"
)

type Config struct {
	AppEnv   string
	LogMode  string
	HTTPAddr string

	Backend       repository.Backend
	DatabaseURL   string
	MongoURL      string
	MongoDatabase string
	TxIsolation   repository.IsolationLevel
	MaxOpenConns  int
	QueryTimeout  time.Duration

	JWTSecret          string
	JWTAccessTTL       time.Duration
	RefreshTTL         time.Duration
	RefreshTokenPepper string

	// CORSOrigins are exact scheme://host[:port] values; browsers sending
	// any other Origin get no CORS headers.
	CORSOrigins []string
	CORSMaxAge  time.Duration
}

// Load reads the process environment. A .env file in the working directory
// is applied first when present; real environment variables win over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)
	cfg.LogMode = strings.TrimSpace(getEnv("LOG_MODE", cfg.AppEnv))
	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))

	cfg.Backend = repository.Backend(strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", defaultBackend))))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.MongoURL = strings.TrimSpace(getEnv("MONGO_URL", defaultMongoURL))
	cfg.MongoDatabase = strings.TrimSpace(getEnv("MONGO_DATABASE", defaultMongoDatabase))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.RefreshTokenPepper = strings.TrimSpace(getEnv("REFRESH_TOKEN_PEPPER", defaultRefreshTokenPepper))

	var err error
	cfg.TxIsolation, err = repository.ParseIsolationLevel(os.Getenv("TX_ISOLATION"))
	if err != nil {
		return nil, fmt.Errorf("invalid TX_ISOLATION: %w", err)
	}
	cfg.MaxOpenConns, err = parseIntEnv("DB_MAX_OPEN_CONNS", defaultMaxOpenConns)
	if err != nil {
		return nil, err
	}
	cfg.QueryTimeout, err = parseDurationEnv("DB_QUERY_TIMEOUT", defaultQueryTimeout)
	if err != nil {
		return nil, err
	}
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}
	cfg.RefreshTTL, err = parseDurationEnv("REFRESH_TTL", defaultRefreshTTL)
	if err != nil {
		return nil, err
	}
	cfg.CORSOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", defaultCORSOrigins))
	cfg.CORSMaxAge, err = parseDurationEnv("CORS_MAX_AGE", defaultCORSMaxAge)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Backend {
	case repository.BackendGorm, repository.BackendSQL:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must not be empty")
		}
	case repository.BackendMongo:
		if cfg.MongoURL == "" || cfg.MongoDatabase == "" {
			return fmt.Errorf("MONGO_URL and MONGO_DATABASE must not be empty")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: gorm, sql, mongo")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.RefreshTTL <= 0 {
		return fmt.Errorf("REFRESH_TTL must be > 0")
	}
	if cfg.QueryTimeout < 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be >= 0")
	}
	if cfg.MaxOpenConns < 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be >= 0")
	}

	if cfg.CORSMaxAge < 0 {
		return fmt.Errorf("CORS_MAX_AGE must be >= 0")
	}
	for _, o := range cfg.CORSOrigins {
		if err := validateOrigin(o); err != nil {
			return fmt.Errorf("CORS_ALLOWED_ORIGINS: %w", err)
		}
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if isEmptyOrDefault(cfg.RefreshTokenPepper, defaultRefreshTokenPepper) {
			return fmt.Errorf("in prod/release REFRESH_TOKEN_PEPPER must be set and not default")
		}
	}
	return nil
}

// validateOrigin accepts what a browser puts in the Origin header. A
// wildcard cannot be combined with credentialed requests.
func validateOrigin(o string) error {
	u, err := url.Parse(o)
	if err != nil {
		return fmt.Errorf("origin %q: %w", o, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("origin %q must be http(s)://host[:port]", o)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return fmt.Errorf("origin %q must not carry a path, query or credentials", o)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
