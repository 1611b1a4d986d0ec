package google

import (
	"log/slog"

	"github.com/haasonsaas/dealflow/internal/auth"
)

// Service bundles the Google collaborators behind one authenticated entry
// point. API clients are constructed per call from the current token source,
// so a logout between calls is picked up immediately.
type Service struct {
	auth   *auth.Store
	logger *slog.Logger
}

// NewService creates the collaborator bundle.
func NewService(store *auth.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		auth:   store,
		logger: logger.With("component", "google"),
	}
}
