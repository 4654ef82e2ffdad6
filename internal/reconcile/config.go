package reconcile

import (
	"github.com/angelmondragon/catalogsync/pkg/config"
	"github.com/angelmondragon/catalogsync/pkg/logger"
	"github.com/angelmondragon/catalogsync/pkg/security"
)

// NewFromConfig builds a Reconciler with the argon2id hasher and the
// configured options. opts are applied last.
func NewFromConfig(stores Stores, cfg config.ReconcileConfig, password config.PasswordConfig, logg *logger.Logger, opts ...Option) (*Reconciler, error) {
	pattern, err := cfg.FallbackPattern()
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithDryRun(cfg.DryRun),
		WithParallel(cfg.Parallel),
		WithFallbackPattern(pattern),
		WithFallbackCredential(password.FallbackCredential),
	}
	return New(stores, security.NewHasher(password), logg, append(base, opts...)...), nil
}
