package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent/internal/repository"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"APP_ENV", "ENV", "LOG_MODE", "HTTP_ADDR", "STORAGE_BACKEND", "DATABASE_URL",
		"MONGO_URL", "MONGO_DATABASE", "TX_ISOLATION", "DB_MAX_OPEN_CONNS", "DB_QUERY_TIMEOUT",
		"JWT_SECRET", "JWT_ACCESS_TTL", "REFRESH_TTL", "REFRESH_TOKEN_PEPPER",
		"CORS_ALLOWED_ORIGINS", "CORS_MAX_AGE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, repository.BackendGorm, cfg.Backend)
	assert.Equal(t, repository.ReadCommitted, cfg.TxIsolation)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10*time.Second, cfg.QueryTimeout)
	assert.Contains(t, cfg.CORSOrigins, "http://localhost:5173")
	assert.Equal(t, 10*time.Minute, cfg.CORSMaxAge)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_BACKEND", "Mongo")
	t.Setenv("MONGO_DATABASE", "rent")
	t.Setenv("TX_ISOLATION", "serializable")
	t.Setenv("DB_QUERY_TIMEOUT", "0s")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://app.example , ,https://admin.example:8443")
	t.Setenv("CORS_MAX_AGE", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, repository.BackendMongo, cfg.Backend)
	assert.Equal(t, "rent", cfg.MongoDatabase)
	assert.Equal(t, repository.Serializable, cfg.TxIsolation)
	assert.Zero(t, cfg.QueryTimeout)
	assert.Equal(t, []string{"https://app.example", "https://admin.example:8443"}, cfg.CORSOrigins)
	assert.Equal(t, time.Hour, cfg.CORSMaxAge)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown backend":  {"STORAGE_BACKEND": "cassandra"},
		"bad isolation":    {"TX_ISOLATION": "snapshot"},
		"bad duration":     {"REFRESH_TTL": "week"},
		"zero access ttl":  {"JWT_ACCESS_TTL": "0s"},
		"bad pool size":    {"DB_MAX_OPEN_CONNS": "many"},
		"default secret":   {"APP_ENV": "production", "REFRESH_TOKEN_PEPPER": "p"},
		"default pepper":   {"APP_ENV": "release", "JWT_SECRET": "s"},
		"wildcard origin":  {"CORS_ALLOWED_ORIGINS": "*"},
		"origin path":      {"CORS_ALLOWED_ORIGINS": "https://app.example/login"},
		"origin scheme":    {"CORS_ALLOWED_ORIGINS": "ftp://app.example"},
		"negative max age": {"CORS_MAX_AGE": "-1m"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ProductionWithSecrets(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("REFRESH_TOKEN_PEPPER", "pepper")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, IsProdLike(cfg.AppEnv))
	assert.Equal(t, "prod", cfg.LogMode)
}
