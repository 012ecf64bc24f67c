package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCloseLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	closeLogged(log, "event publisher", closerFunc(func() error { return errors.New("flush failed") }))
	closeLogged(log, "redis client", closerFunc(func() error { return nil }))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "failed to close event publisher", entries[0].Message)
	assert.Equal(t, "flush failed", entries[0].ContextMap()["error"])
}

func TestRun_InvalidConfigReturnsError(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOREFRONT_HTTP_REQUEST_TIMEOUT", "-1s")

	err := run()
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to load config")
}
