package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func capture(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	mu.Lock()
	prev := base
	base = zap.New(core).Sugar()
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		base = prev
		mu.Unlock()
	})
	return logs
}

func TestWithFieldsPrefixesEveryLine(t *testing.T) {
	logs := capture(t, zapcore.InfoLevel)

	ctx := WithFields(context.Background(), "cycle_id", "c-1")
	ctx = WithFields(ctx, "asset", "BTCUSDT")
	Info(ctx, "hello", "n", 3)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "c-1", fields["cycle_id"])
	assert.Equal(t, "BTCUSDT", fields["asset"])
	assert.EqualValues(t, 3, fields["n"])
}

func TestErrorWithErrCarriesError(t *testing.T) {
	logs := capture(t, zapcore.InfoLevel)

	ErrorWithErr(context.Background(), "failed", errors.New("boom"), "symbol", "X")

	require.Equal(t, 1, logs.Len())
	e := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, e.Level)
	assert.Equal(t, "boom", e.ContextMap()["error"])
}

func TestDecisionTruncatesReason(t *testing.T) {
	logs := capture(t, zapcore.InfoLevel)

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	Decision(context.Background(), "BTCUSDT", "BUY", nil, string(long))

	require.Equal(t, 1, logs.Len())
	m := logs.All()[0].ContextMap()
	assert.Equal(t, "DECISION", m["type"])
	assert.Equal(t, -1.0, m["confidence"])
	assert.Len(t, m["reason"], 283)
}

func TestInitWithConfigRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, InitWithConfig(LogConfig{Level: "INFO", Format: "xml"}))
}
