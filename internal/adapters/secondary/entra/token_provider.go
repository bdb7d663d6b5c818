package entra

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2/clientcredentials"

	"workspace-promoter/internal/config"
	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

const tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

// NewProvider builds the token provider for the run. A static token from the
// environment (the CI case) wins; otherwise service-principal credentials are
// exchanged via the client-credentials flow. Either way the credential is
// cached in memory and refreshed lazily when its expiry passes.
func NewProvider(cfg *config.AuthConfig) (ports.TokenProvider, error) {
	if cfg.StaticToken != "" {
		return &staticProvider{token: cfg.StaticToken}, nil
	}
	if cfg.TenantID == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, domain.ErrMissingCredentials
	}

	return &cachingProvider{
		inner: &clientCredentialsProvider{
			cc: clientcredentials.Config{
				ClientID:     cfg.ClientID,
				ClientSecret: cfg.ClientSecret,
				TokenURL:     fmt.Sprintf(tokenURLFormat, cfg.TenantID),
				Scopes:       []string{cfg.Scope},
			},
		},
	}, nil
}

// staticProvider hands out a pre-acquired token. No expiry information is
// available for it; the run fails with an auth error if it goes stale.
type staticProvider struct {
	token string
}

func (p *staticProvider) Token(context.Context) (domain.Credential, error) {
	return domain.Credential{Token: p.token}, nil
}

type clientCredentialsProvider struct {
	cc clientcredentials.Config
}

func (p *clientCredentialsProvider) Token(ctx context.Context) (domain.Credential, error) {
	tok, err := p.cc.Token(ctx)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	return domain.Credential{Token: tok.AccessToken, Expiry: tok.Expiry}, nil
}

// cachingProvider keeps the credential for the run and refreshes it through
// the inner provider when the expiry check says it is no longer usable. The
// check is purely timestamp based, never a trial call.
type cachingProvider struct {
	inner ports.TokenProvider

	mu   sync.Mutex
	cred domain.Credential
}

func (p *cachingProvider) Token(ctx context.Context) (domain.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cred.Valid(time.Now()) {
		return p.cred, nil
	}

	cred, err := p.inner.Token(ctx)
	if err != nil {
		return domain.Credential{}, err
	}
	p.cred = cred
	log.WithField("expiry", cred.Expiry).Debug("acquired platform API token")
	return cred, nil
}

// Ensure interface compliance
var (
	_ ports.TokenProvider = (*staticProvider)(nil)
	_ ports.TokenProvider = (*cachingProvider)(nil)
)
