// Package admin implements the administrator account and game overview operations.
package admin

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mcoot/hangman/internal/dependencies/clock"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage"
)

// GameWithOwner pairs a game with its owner's record
type GameWithOwner struct {
	Game  *model.Game
	Owner *model.User
}

// Service handles administrator operations. Callers must already have
// checked that the acting user is an administrator.
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// New creates an admin Service
func New(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Service {
	return &Service{storage: storage, clock: clock, logger: logger}
}

// RequireAdmin returns model.ErrNotAdmin unless user holds the admin role
func RequireAdmin(user *model.User) error {
	if user == nil || !user.IsAdmin() {
		return model.ErrNotAdmin
	}
	return nil
}

// ListGames returns every game with its owner, in creation order
func (s *Service) ListGames(ctx context.Context) ([]GameWithOwner, error) {
	games, err := s.storage.ListGames(ctx)
	if err != nil {
		return nil, err
	}

	owners := make(map[model.UserID]*model.User)
	result := make([]GameWithOwner, 0, len(games))
	for _, g := range games {
		owner, ok := owners[g.OwnerID]
		if !ok {
			owner, err = s.storage.GetUser(ctx, g.OwnerID)
			if err != nil {
				return nil, err
			}
			owners[g.OwnerID] = owner
		}
		result = append(result, GameWithOwner{Game: g, Owner: owner})
	}
	return result, nil
}

func (s *Service) userByPhone(ctx context.Context, phone string) (*model.User, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, model.NewValidationError("phone", "El campo phone es obligatorio.")
	}
	return s.storage.GetUserByPhone(ctx, phone)
}

// Activate reactivates an account. Accounts disabled by an administrator stay disabled.
func (s *Service) Activate(ctx context.Context, phone string) (*model.User, error) {
	user, err := s.userByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user.IsActive {
		return nil, model.ErrAlreadyActive
	}
	if user.DisabledByAdmin() {
		return nil, model.ErrAccountDisabledByAdmin
	}

	user.IsActive = true
	user.DeactivationReason = model.DeactivationNone
	user.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user activated", slog.String("user_id", string(user.ID)))
	return user, nil
}

// Deactivate disables an account on behalf of an administrator and revokes its sessions
func (s *Service) Deactivate(ctx context.Context, phone string) (*model.User, error) {
	user, err := s.userByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, model.ErrAlreadyInactive
	}

	user.IsActive = false
	user.DeactivationReason = model.DeactivationAdminDisabled
	user.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.storage.DeleteSessionsForUser(ctx, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info("user deactivated", slog.String("user_id", string(user.ID)))
	return user, nil
}

// Promote grants the admin role to an active account
func (s *Service) Promote(ctx context.Context, phone string) (*model.User, error) {
	user, err := s.userByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, model.ErrCannotPromoteInactive
	}
	if user.IsAdmin() {
		return nil, model.ErrAlreadyAdmin
	}

	user.Role = model.RoleAdmin
	user.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user promoted", slog.String("user_id", string(user.ID)))
	return user, nil
}
