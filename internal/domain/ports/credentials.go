package ports

import (
	"context"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
)

// CredentialProvider returns the gateway login, endpoint and live/test flag.
type CredentialProvider interface {
	Credentials(ctx context.Context) (*domain.GatewayCredentials, error)
}

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value    string
	Version  string
	Metadata map[string]string
}

// SecretManagerAdapter retrieves secrets from a secret management service.
// Path format depends on implementation:
//   - AWS: "payflow/gateway/password"
//   - Vault: "secret/data/payflow/gateway"
//   - Local: file path relative to the base directory
type SecretManagerAdapter interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
