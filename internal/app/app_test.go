package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kevin07696/payflow-reconciler/internal/config"
	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		Gateway: config.GatewayConfig{
			URL:                "https://pilot-payflowpro.paypal.com",
			VendorID:           "vendor",
			UserID:             "user",
			PartnerID:          "PayPal",
			IsTest:             true,
			VerifySSL:          true,
			IntegrationProduct: "payflow-reconciler",
			HistoryType:        "Y",
			AttemptTimeout:     time.Second,
			MaxAttempts:        3,
			RetryDelay:         time.Millisecond,
		},
		Secrets: config.SecretsConfig{Backend: "local", CacheTTL: time.Minute},
	}
}

func TestNewCredentialProvider_StaticPassword(t *testing.T) {
	cfg := testConfig()
	cfg.Gateway.Password = "env-password"

	provider, err := NewCredentialProvider(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	creds, err := provider.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "env-password", creds.Password)
	assert.Equal(t, "vendor", creds.VendorID)
	assert.Equal(t, "user", creds.User())
	assert.True(t, creds.IsTest)
}

func TestNewCredentialProvider_LocalSecret(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "payflow"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payflow", "password"), []byte("file-password\n"), 0o600))

	cfg := testConfig()
	cfg.Gateway.PasswordSecretPath = "payflow/password"
	cfg.Secrets.LocalPath = dir

	provider, err := NewCredentialProvider(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	creds, err := provider.Credentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "file-password", creds.Password)
	assert.Equal(t, "https://pilot-payflowpro.paypal.com", creds.URL)
}

func TestNewSecretManager_UnknownBackend(t *testing.T) {
	_, err := NewSecretManager(context.Background(), &config.SecretsConfig{Backend: "gcp"}, zap.NewNop())
	assert.ErrorContains(t, err, `unknown secret manager "gcp"`)
}

func TestNewSecretManager_VaultRequiresToken(t *testing.T) {
	_, err := NewSecretManager(context.Background(), &config.SecretsConfig{
		Backend:         "vault",
		VaultAddress:    "http://127.0.0.1:1",
		VaultAuthMethod: "token",
		VaultMountPath:  "secret",
		VaultKVVersion:  "v2",
	}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewTransport(t *testing.T) {
	cfg := testConfig()
	assert.NotNil(t, NewTransport(&cfg.Gateway, zap.NewNop()))

	cfg.Gateway.BreakerMaxFailures = 3
	cfg.Gateway.BreakerTimeout = time.Second
	cfg.Gateway.VerifySSL = false
	assert.NotNil(t, NewTransport(&cfg.Gateway, zap.NewNop()))
}

func TestBuildGateway_UsesConfiguredHistoryScope(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		_, _ = io.WriteString(w, "RESULT=0&PROFILEID=RT1&P_PNREF1=V1&P_TRANSTIME1=01-Jan-24 09:00AM&P_RESULT1=0&P_TENDER1=C&P_AMT1=3.00&P_TRANSTATE1=6")
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Gateway.URL = server.URL
	cfg.Gateway.Password = "secret"
	cfg.Gateway.HistoryType = "N"
	cfg.Gateway.SettlePendingInTestMode = true

	gateway, _, err := BuildGateway(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	history, err := gateway.RecurringHistory(context.Background(), "RT1", "")
	require.NoError(t, err)
	require.Len(t, history.Records, 1)
	assert.Equal(t, domain.HistoryStatusCompleted, history.Records[0].MappedStatus)
	assert.Contains(t, body, "PAYMENTHISTORY[1]=N")
	assert.Contains(t, body, "ORIGPROFILEID[3]=RT1")
}
