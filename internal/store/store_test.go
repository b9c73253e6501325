package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"equiprent/internal/config"
	"equiprent/internal/domain"
	"equiprent/internal/pkg/logger"
	"equiprent/internal/repository"
)

func TestOpen_RelationalBackends(t *testing.T) {
	for _, backend := range []repository.Backend{repository.BackendGorm, repository.BackendSQL} {
		t.Run(string(backend), func(t *testing.T) {
			core, logs := observer.New(zap.InfoLevel)
			cfg := &config.Config{
				Backend:      backend,
				DatabaseURL:  filepath.Join(t.TempDir(), "store.db"),
				MaxOpenConns: 4,
			}

			s, err := Open(context.Background(), cfg, logger.FromCore(core))
			require.NoError(t, err)
			defer s.Close()

			assert.Equal(t, backend, s.Backend)
			assert.Equal(t, 1, logs.FilterMessage("storage ready").Len())

			c, err := s.Categories.Add(context.Background(), nil, &domain.Category{Name: "Drones", Slug: "drones"})
			require.NoError(t, err)
			assert.NotZero(t, c.ID)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Backend: "redis"}, logger.NewNop())
	assert.Error(t, err)
}

func TestOpen_BadDSN(t *testing.T) {
	cfg := &config.Config{Backend: repository.BackendSQL, DatabaseURL: "postgres://nobody@127.0.0.1:1/none?connect_timeout=1"}
	_, err := Open(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}
