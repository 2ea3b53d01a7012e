package admin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/hangman/internal/dependencies/mocks"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage/memory"
	"github.com/mcoot/hangman/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ServiceSuite) user(id, phone string, active bool, role model.Role, reason model.DeactivationReason) *model.User {
	u := &model.User{
		ID: model.UserID(id), Name: "User " + id, Phone: phone,
		Role: role, IsActive: active, DeactivationReason: reason,
	}
	s.Require().NoError(s.storage.SaveUser(s.ctx, u))
	return u
}

func (s *ServiceSuite) TestRequireAdmin() {
	s.ErrorIs(RequireAdmin(nil), model.ErrNotAdmin)
	s.ErrorIs(RequireAdmin(&model.User{Role: model.RolePlayer}), model.ErrNotAdmin)
	s.NoError(RequireAdmin(&model.User{Role: model.RoleAdmin}))
}

func (s *ServiceSuite) TestListGamesIncludesOwners() {
	ana := s.user("u1", "+1", true, model.RolePlayer, "")
	bob := s.user("u2", "+2", true, model.RolePlayer, "")
	for i, owner := range []*model.User{ana, bob, ana} {
		s.Require().NoError(s.storage.CreateGame(s.ctx, &model.Game{
			ID: model.GameID(string(rune('a' + i))), OwnerID: owner.ID, SecretWord: "gato",
			RemainingAttempts: 7, Status: model.GameStatusPending,
		}))
	}

	games, err := s.service.ListGames(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(games, 3)
	s.Equal("User u1", games[0].Owner.Name)
	s.Equal("User u2", games[1].Owner.Name)
	s.Equal(model.GameID("c"), games[2].Game.ID)
}

func (s *ServiceSuite) TestActivate() {
	s.user("u1", "+1", false, model.RolePlayer, "")

	user, err := s.service.Activate(s.ctx, "+1")
	s.Require().NoError(err)
	s.True(user.IsActive)

	_, err = s.service.Activate(s.ctx, "+1")
	s.ErrorIs(err, model.ErrAlreadyActive)
}

func (s *ServiceSuite) TestActivateRefusesAdminDisabled() {
	s.user("u1", "+1", false, model.RolePlayer, model.DeactivationAdminDisabled)

	_, err := s.service.Activate(s.ctx, "+1")
	s.ErrorIs(err, model.ErrAccountDisabledByAdmin)
}

func (s *ServiceSuite) TestActivateUnknownPhone() {
	_, err := s.service.Activate(s.ctx, "+9")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *ServiceSuite) TestMissingPhoneIsValidationError() {
	_, err := s.service.Deactivate(s.ctx, " ")
	var verr *model.ValidationError
	s.True(errors.As(err, &verr))
}

func (s *ServiceSuite) TestDeactivateRevokesSessions() {
	u := s.user("u1", "+1", true, model.RolePlayer, "")
	s.Require().NoError(s.storage.SaveSession(s.ctx, &model.Session{Token: "t", UserID: u.ID, ExpiresAt: time.Now().Add(time.Hour)}))

	user, err := s.service.Deactivate(s.ctx, "+1")
	s.Require().NoError(err)
	s.False(user.IsActive)
	s.True(user.DisabledByAdmin())

	_, err = s.storage.GetSession(s.ctx, "t")
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.service.Deactivate(s.ctx, "+1")
	s.ErrorIs(err, model.ErrAlreadyInactive)
}

func (s *ServiceSuite) TestPromote() {
	s.user("u1", "+1", true, model.RolePlayer, "")

	user, err := s.service.Promote(s.ctx, "+1")
	s.Require().NoError(err)
	s.True(user.IsAdmin())

	_, err = s.service.Promote(s.ctx, "+1")
	s.ErrorIs(err, model.ErrAlreadyAdmin)
}

func (s *ServiceSuite) TestPromoteInactive() {
	s.user("u1", "+1", false, model.RolePlayer, "")

	_, err := s.service.Promote(s.ctx, "+1")
	s.ErrorIs(err, model.ErrCannotPromoteInactive)
}
