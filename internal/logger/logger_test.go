package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithAddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("service", "ProgressService")

	log.Warn("progress write failed", "user_id", "u1")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "progress write failed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "ProgressService", fields["service"])
	assert.Equal(t, "u1", fields["user_id"])
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"production", "development", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		assert.NotNil(t, l.SugaredLogger)
	}
}
