package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Modes(t *testing.T) {
	for _, mode := range []string{"dev", "production", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		require.NotNil(t, l.SugaredLogger)
	}
}

func TestLogger_WithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := FromCore(core).With("component", "store")

	l.Warn("degraded", "backend", "mongo")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "degraded", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "store", ctx["component"])
	assert.Equal(t, "mongo", ctx["backend"])
}
