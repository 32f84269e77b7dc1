package secrets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAWSSecretsManagerAdapter_GetSecret(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "secretsmanager.GetSecretValue", r.Header.Get("X-Amz-Target"))

		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)

		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ARN":          "arn:aws:secretsmanager:us-east-1:123456789012:secret:" + in["SecretId"],
			"Name":         in["SecretId"],
			"SecretString": "aws-pw",
			"VersionId":    "v-1",
		})
	}))
	defer srv.Close()

	cfg := DefaultAWSSecretsManagerConfig("us-east-1")
	cfg.Endpoint = srv.URL

	sm, err := NewAWSSecretsManagerAdapter(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)

	secret, err := sm.GetSecret(context.Background(), "payflow/password")
	require.NoError(t, err)
	assert.Equal(t, "aws-pw", secret.Value)
	assert.Equal(t, "v-1", secret.Version)
	assert.Equal(t, "payflow/password", secret.Metadata["name"])

	_, err = sm.GetSecret(context.Background(), "payflow/password")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
