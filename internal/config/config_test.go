package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("PAYFLOW_VENDOR", "acme")
	t.Setenv("PAYFLOW_PASSWORD", "pw")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://pilot-payflowpro.paypal.com", cfg.Gateway.URL)
	assert.Equal(t, "PayPal", cfg.Gateway.PartnerID)
	assert.True(t, cfg.Gateway.IsTest)
	assert.True(t, cfg.Gateway.VerifySSL)
	assert.Equal(t, "Y", cfg.Gateway.HistoryType)
	assert.Equal(t, 3, cfg.Gateway.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Gateway.RetryDelay)
	assert.Equal(t, 90*time.Second, cfg.Gateway.AttemptTimeout)
	assert.Equal(t, 1, cfg.Reconciler.Workers)
	assert.Zero(t, cfg.Reconciler.Interval)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, "local", cfg.Secrets.Backend)
	assert.Contains(t, cfg.Database.ConnectionString(), "dbname=payflow")
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/payflow")
	t.Setenv("PAYFLOW_HISTORY_TYPE", "n")
	t.Setenv("PAYFLOW_TEST_MODE", "false")
	t.Setenv("PAYFLOW_RETRY_DELAY", "250ms")
	t.Setenv("RECONCILER_WORKERS", "4")
	t.Setenv("RECONCILER_INTERVAL", "1h")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CRON_RATE_LIMIT", "0.5")
	t.Setenv("PAYFLOW_MAX_ATTEMPTS", "not-a-number")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/payflow", cfg.Database.ConnectionString())
	assert.Equal(t, "N", cfg.Gateway.HistoryType)
	assert.False(t, cfg.Gateway.IsTest)
	assert.Equal(t, 250*time.Millisecond, cfg.Gateway.RetryDelay)
	assert.Equal(t, 4, cfg.Reconciler.Workers)
	assert.Equal(t, time.Hour, cfg.Reconciler.Interval)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 0.5, cfg.Cron.RequestsPerSecond)
	assert.Equal(t, 3, cfg.Gateway.MaxAttempts, "unparseable values fall back to the default")
}

func TestLoadFromEnv_PasswordFromSecret(t *testing.T) {
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("PAYFLOW_VENDOR", "acme")
	t.Setenv("PAYFLOW_PASSWORD_SECRET", "payflow/password")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.Gateway.Password)
	assert.Equal(t, "payflow/password", cfg.Gateway.PasswordSecretPath)
}

func TestLoadFromEnv_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing vendor", map[string]string{"PAYFLOW_VENDOR": ""}, "PAYFLOW_VENDOR is required"},
		{"missing password", map[string]string{"PAYFLOW_PASSWORD": ""}, "PAYFLOW_PASSWORD or PAYFLOW_PASSWORD_SECRET"},
		{"bad history type", map[string]string{"PAYFLOW_HISTORY_TYPE": "Z"}, "PAYFLOW_HISTORY_TYPE"},
		{"bad workers", map[string]string{"RECONCILER_WORKERS": "0"}, "RECONCILER_WORKERS"},
		{"bad backend", map[string]string{"SECRET_MANAGER": "gcp"}, "SECRET_MANAGER"},
		{"vault without address", map[string]string{"SECRET_MANAGER": "vault"}, "VAULT_ADDR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("VAULT_ADDR", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
