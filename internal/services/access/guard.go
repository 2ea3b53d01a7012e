// Package access gates game operations on the account being active.
package access

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage"
)

// Guard rejects inactive accounts and revokes their credentials
type Guard struct {
	storage storage.Storage
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Guard
func New(storage storage.Storage, m *metrics.Metrics, logger *slog.Logger) *Guard {
	return &Guard{storage: storage, metrics: m, logger: logger}
}

// IsUserActive reports whether the account may play
func IsUserActive(user *model.User) bool {
	return user != nil && user.IsActive
}

// EnsureActive returns nil for an active user. For an inactive one every
// session is revoked first and the returned error says who disabled it:
// model.ErrAccountDisabledByAdmin or model.ErrAccountInactive.
func (g *Guard) EnsureActive(ctx context.Context, user *model.User) error {
	if IsUserActive(user) {
		return nil
	}

	if err := g.storage.DeleteSessionsForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	g.metrics.AccessRevoked()
	g.logger.Info("inactive account rejected",
		slog.String("user_id", string(user.ID)),
		slog.String("reason", string(user.DeactivationReason)),
	)

	if user.DisabledByAdmin() {
		return model.ErrAccountDisabledByAdmin
	}
	return model.ErrAccountInactive
}
