package ports

import (
	"context"

	"workspace-promoter/internal/core/domain"
)

// TokenProvider acquires a bearer credential for the platform management API.
// Failures to validate the identity surface as domain.ErrAuth.
type TokenProvider interface {
	Token(ctx context.Context) (domain.Credential, error)
}
