package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
)

func newObserved() (*ZapLoggerAdapter, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapLogger(zap.New(core)), logs
}

func TestZapLoggerAdapter_ChannelPrefix(t *testing.T) {
	base, logs := newObserved()
	logger := base.WithChannel("payflowpro", "3")

	logger.Error("Refund failed", ports.String("respmsg", "Declined"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "payflowpro(3): Refund failed", entry.Message)
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, "Declined", entry.ContextMap()["respmsg"])
	assert.Equal(t, "payflowpro", entry.ContextMap()["channel"])
}

func TestZapLoggerAdapter_ForProfile(t *testing.T) {
	base, logs := newObserved()

	base.ForProfile("RT0000000009").Info("History fetched")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "payflowpro(RT0000000009): History fetched", logs.All()[0].Message)
}

func TestZapLoggerAdapter_RedactsCardData(t *testing.T) {
	logger, logs := newObserved()

	logger.Info("request", ports.String("ACCT", "4111111111111111"), ports.String("CVV2", "123"), ports.String("PWD", "secret"))

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["ACCT"])
	assert.Equal(t, "[REDACTED]", fields["CVV2"])
	assert.Equal(t, "[REDACTED]", fields["PWD"])
}

func TestZapLoggerAdapter_Levels(t *testing.T) {
	logger, logs := newObserved()

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w", ports.Err(errors.New("boom")))
	logger.Error("e")

	require.Equal(t, 4, logs.Len())
	assert.Equal(t, "boom", logs.All()[2].ContextMap()["error"])
}

func TestBuildZapLogger(t *testing.T) {
	logger, err := BuildZapLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = BuildZapLogger("chatty", false)
	assert.Error(t, err)
}
