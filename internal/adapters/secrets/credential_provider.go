package secrets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kevin07696/payflow-reconciler/internal/domain"
	"github.com/kevin07696/payflow-reconciler/internal/domain/ports"
)

// StaticCredentialProvider hands out a fixed set of gateway credentials.
type StaticCredentialProvider struct {
	creds domain.GatewayCredentials
}

// NewStaticCredentialProvider creates a provider over creds.
func NewStaticCredentialProvider(creds domain.GatewayCredentials) *StaticCredentialProvider {
	return &StaticCredentialProvider{creds: creds}
}

// Credentials returns a copy so callers cannot mutate the shared value.
func (p *StaticCredentialProvider) Credentials(ctx context.Context) (*domain.GatewayCredentials, error) {
	c := p.creds
	return &c, nil
}

// SecretCredentialProvider fills the gateway password from a secret manager
// and keeps it for ttl before fetching again.
type SecretCredentialProvider struct {
	base         domain.GatewayCredentials
	passwordPath string
	secrets      ports.SecretManagerAdapter
	logger       *zap.Logger
	ttl          time.Duration
	now          func() time.Time

	mu        sync.Mutex
	password  string
	expiresAt time.Time
}

// NewSecretCredentialProvider creates a provider that resolves the password
// at passwordPath. A zero ttl fetches on every call.
func NewSecretCredentialProvider(
	base domain.GatewayCredentials,
	passwordPath string,
	secrets ports.SecretManagerAdapter,
	ttl time.Duration,
	logger *zap.Logger,
) *SecretCredentialProvider {
	return &SecretCredentialProvider{
		base:         base,
		passwordPath: passwordPath,
		secrets:      secrets,
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
	}
}

// Credentials returns the base credentials with the current password.
func (p *SecretCredentialProvider) Credentials(ctx context.Context) (*domain.GatewayCredentials, error) {
	password, err := p.resolvePassword(ctx)
	if err != nil {
		return nil, err
	}
	c := p.base
	c.Password = password
	return &c, nil
}

// Invalidate drops the cached password so the next call fetches it again.
func (p *SecretCredentialProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.password = ""
	p.expiresAt = time.Time{}
}

func (p *SecretCredentialProvider) resolvePassword(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.password != "" && p.now().Before(p.expiresAt) {
		return p.password, nil
	}

	secret, err := p.secrets.GetSecret(ctx, p.passwordPath)
	if err != nil {
		return "", fmt.Errorf("failed to fetch gateway password: %w", err)
	}
	if secret.Value == "" {
		return "", fmt.Errorf("gateway password secret %s is empty", p.passwordPath)
	}

	p.password = secret.Value
	p.expiresAt = p.now().Add(p.ttl)

	p.logger.Info("Gateway password loaded from secret manager",
		zap.String("path", p.passwordPath),
		zap.String("version", secret.Version),
	)
	return p.password, nil
}
