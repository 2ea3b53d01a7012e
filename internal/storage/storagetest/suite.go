// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage"
)

// Suite runs the shared storage contract. Backends embed it and set
// NewStorage in their own SetupTest before calling Suite.SetupTest.
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	Now     time.Time
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
	s.Now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// User creates and saves an active player
func (s *Suite) User(id, phone string) *model.User {
	user := &model.User{
		ID:           model.UserID(id),
		Name:         "User " + id,
		Phone:        phone,
		PasswordHash: "hash",
		Role:         model.RolePlayer,
		IsActive:     true,
		CreatedAt:    s.Now,
		UpdatedAt:    s.Now,
	}
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, user))
	return user
}

// PendingGame creates and saves a pending game owned by owner
func (s *Suite) PendingGame(id string, owner model.UserID, word string) *model.Game {
	game := &model.Game{
		ID:                model.GameID(id),
		OwnerID:           owner,
		SecretWord:        word,
		RemainingAttempts: model.DefaultMaxAttempts,
		Status:            model.GameStatusPending,
		CreatedAt:         s.Now,
		UpdatedAt:         s.Now,
	}
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, game))
	return game
}

func (s *Suite) join(player model.UserID) storage.GameMutation {
	return func(g *model.Game) error {
		if g.Status != model.GameStatusPending {
			return model.ErrNotJoinable
		}
		id := player
		g.ActivePlayerID = &id
		return g.Transition(model.GameStatusInProgress, s.Now)
	}
}

// User tests

func (s *Suite) TestSaveAndGetUser() {
	user := s.User("u1", "+5215550001")

	byID, err := s.Storage.GetUser(s.Ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.Name, byID.Name)
	s.Equal(user.Phone, byID.Phone)
	s.True(byID.IsActive)
	s.Equal(model.RolePlayer, byID.Role)

	byPhone, err := s.Storage.GetUserByPhone(s.Ctx, user.Phone)
	s.Require().NoError(err)
	s.Equal(user.ID, byPhone.ID)
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.Storage.GetUser(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.Storage.GetUserByPhone(s.Ctx, "+000")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestSaveUserUpdatesExisting() {
	user := s.User("u1", "+5215550001")
	user.IsActive = false
	user.DeactivationReason = model.DeactivationAdminDisabled
	s.Require().NoError(s.Storage.SaveUser(s.Ctx, user))

	got, err := s.Storage.GetUser(s.Ctx, user.ID)
	s.Require().NoError(err)
	s.False(got.IsActive)
	s.True(got.DisabledByAdmin())
}

func (s *Suite) TestSaveUserPhoneTaken() {
	s.User("u1", "+5215550001")
	other := &model.User{ID: "u2", Name: "Other", Phone: "+5215550001", Role: model.RolePlayer, CreatedAt: s.Now, UpdatedAt: s.Now}
	err := s.Storage.SaveUser(s.Ctx, other)
	s.ErrorIs(err, model.ErrPhoneTaken)
}

// Session tests

func (s *Suite) TestSessionLifecycle() {
	user := s.User("u1", "+5215550001")
	session := &model.Session{Token: "tok-1", UserID: user.ID, CreatedAt: s.Now, ExpiresAt: time.Now().Add(time.Hour)}
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	got, err := s.Storage.GetSession(s.Ctx, "tok-1")
	s.Require().NoError(err)
	s.Equal(user.ID, got.UserID)

	s.Require().NoError(s.Storage.DeleteSession(s.Ctx, "tok-1"))
	_, err = s.Storage.GetSession(s.Ctx, "tok-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestDeleteSessionsForUser() {
	alice := s.User("u1", "+5215550001")
	bob := s.User("u2", "+5215550002")
	exp := time.Now().Add(time.Hour)
	for i, uid := range []model.UserID{alice.ID, alice.ID, bob.ID} {
		s.Require().NoError(s.Storage.SaveSession(s.Ctx, &model.Session{
			Token: fmt.Sprintf("tok-%d", i), UserID: uid, CreatedAt: s.Now, ExpiresAt: exp,
		}))
	}

	s.Require().NoError(s.Storage.DeleteSessionsForUser(s.Ctx, alice.ID))

	_, err := s.Storage.GetSession(s.Ctx, "tok-0")
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.Storage.GetSession(s.Ctx, "tok-1")
	s.ErrorIs(err, model.ErrSessionNotFound)
	_, err = s.Storage.GetSession(s.Ctx, "tok-2")
	s.NoError(err)
}

// Verification code tests

func (s *Suite) TestVerificationCode() {
	code := &model.VerificationCode{Phone: "+5215550001", Code: "123456", ExpiresAt: s.Now.Add(10 * time.Minute)}
	s.Require().NoError(s.Storage.SaveVerificationCode(s.Ctx, code))

	got, err := s.Storage.GetVerificationCode(s.Ctx, code.Phone, s.Now)
	s.Require().NoError(err)
	s.Equal("123456", got.Code)

	_, err = s.Storage.GetVerificationCode(s.Ctx, code.Phone, s.Now.Add(11*time.Minute))
	s.ErrorIs(err, model.ErrInvalidVerificationCode)

	s.Require().NoError(s.Storage.DeleteVerificationCode(s.Ctx, code.Phone))
	_, err = s.Storage.GetVerificationCode(s.Ctx, code.Phone, s.Now)
	s.ErrorIs(err, model.ErrInvalidVerificationCode)
}

func (s *Suite) TestVerificationCodeReplaced() {
	phone := "+5215550001"
	s.Require().NoError(s.Storage.SaveVerificationCode(s.Ctx, &model.VerificationCode{Phone: phone, Code: "111111", ExpiresAt: s.Now.Add(time.Minute)}))
	s.Require().NoError(s.Storage.SaveVerificationCode(s.Ctx, &model.VerificationCode{Phone: phone, Code: "222222", ExpiresAt: s.Now.Add(time.Minute)}))

	got, err := s.Storage.GetVerificationCode(s.Ctx, phone, s.Now)
	s.Require().NoError(err)
	s.Equal("222222", got.Code)
}

// Game tests

func (s *Suite) TestCreateAndGetGame() {
	owner := s.User("u1", "+5215550001")
	s.PendingGame("g1", owner.ID, "gato")

	got, err := s.Storage.GetGame(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Equal(owner.ID, got.OwnerID)
	s.Equal("gato", got.SecretWord)
	s.Equal(model.GameStatusPending, got.Status)
	s.False(got.IsActive)
	s.Nil(got.ActivePlayerID)
	s.Equal(0, got.LettersAttempted.Len())
	s.Equal(s.Now.UnixMilli(), got.CreatedAt.UnixMilli())
}

func (s *Suite) TestGetGameNotFound() {
	_, err := s.Storage.GetGame(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestListGamesByOwner() {
	alice := s.User("u1", "+5215550001")
	bob := s.User("u2", "+5215550002")
	s.PendingGame("g1", alice.ID, "gato")
	s.PendingGame("g2", bob.ID, "perro")
	s.PendingGame("g3", alice.ID, "casa")

	_, err := s.Storage.UpdateGame(s.Ctx, "g3", s.join(alice.ID))
	s.Require().NoError(err)

	all, err := s.Storage.ListGamesByOwner(s.Ctx, alice.ID)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal(model.GameID("g1"), all[0].ID)
	s.Equal(model.GameID("g3"), all[1].ID)

	pending, err := s.Storage.ListGamesByOwner(s.Ctx, alice.ID, model.GameStatusPending)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(model.GameID("g1"), pending[0].ID)

	none, err := s.Storage.ListGamesByOwner(s.Ctx, alice.ID, model.TerminalStatuses()...)
	s.Require().NoError(err)
	s.Empty(none)

	every, err := s.Storage.ListGames(s.Ctx)
	s.Require().NoError(err)
	s.Len(every, 3)
}

func (s *Suite) TestUpdateGameJoinsAndIndexesActive() {
	owner := s.User("u1", "+5215550001")
	s.PendingGame("g1", owner.ID, "gato")

	_, err := s.Storage.GetActiveGame(s.Ctx, owner.ID)
	s.ErrorIs(err, model.ErrNoActiveGame)

	updated, err := s.Storage.UpdateGame(s.Ctx, "g1", s.join(owner.ID))
	s.Require().NoError(err)
	s.Equal(model.GameStatusInProgress, updated.Status)
	s.True(updated.IsActive)

	active, err := s.Storage.GetActiveGame(s.Ctx, owner.ID)
	s.Require().NoError(err)
	s.Equal(model.GameID("g1"), active.ID)
	s.Require().NotNil(active.ActivePlayerID)
	s.Equal(owner.ID, *active.ActivePlayerID)
}

func (s *Suite) TestUpdateGameMutationErrorWritesNothing() {
	owner := s.User("u1", "+5215550001")
	s.PendingGame("g1", owner.ID, "gato")

	boom := errors.New("boom")
	_, err := s.Storage.UpdateGame(s.Ctx, "g1", func(g *model.Game) error {
		g.SecretWord = "perro"
		return boom
	})
	s.ErrorIs(err, boom)

	got, err := s.Storage.GetGame(s.Ctx, "g1")
	s.Require().NoError(err)
	s.Equal("gato", got.SecretWord)
}

func (s *Suite) TestUpdateGameNotFound() {
	_, err := s.Storage.UpdateGame(s.Ctx, "missing", func(*model.Game) error { return nil })
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *Suite) TestSecondActiveGameRejected() {
	owner := s.User("u1", "+5215550001")
	s.PendingGame("g1", owner.ID, "gato")
	s.PendingGame("g2", owner.ID, "perro")

	_, err := s.Storage.UpdateGame(s.Ctx, "g1", s.join(owner.ID))
	s.Require().NoError(err)

	_, err = s.Storage.UpdateGame(s.Ctx, "g2", s.join(owner.ID))
	s.ErrorIs(err, model.ErrAlreadyHasActiveGame)

	got, err := s.Storage.GetGame(s.Ctx, "g2")
	s.Require().NoError(err)
	s.Equal(model.GameStatusPending, got.Status)
}

func (s *Suite) TestUpdateActiveGamePersistsLetters() {
	owner := s.User("u1", "+5215550001")
	s.PendingGame("g1", owner.ID, "gato")
	_, err := s.Storage.UpdateGame(s.Ctx, "g1", s.join(owner.ID))
	s.Require().NoError(err)

	_, err = s.Storage.UpdateActiveGame(s.Ctx, owner.ID, func(g *model.Game) error {
		g.LettersAttempted.Add('a')
		g.LettersAttempted.Add('x')
		g.RemainingAttempts--
		return nil
	})
	s.Require().NoError(err)

	got, err := s.Storage.GetActiveGame(s.Ctx, owner.ID)
	s.Require().NoError(err)
	s.Equal([]string{"a", "x"}, got.LettersAttempted.Strings())
	s.Equal(model.DefaultMaxAttempts-1, got.RemainingAttempts)
	s.Equal("_a__", got.ProgressMask())
}

func (s *Suite) TestFinishingGameClearsActiveIndex() {
	owner := s.User("u1", "+5215550001")
	s.PendingGame("g1", owner.ID, "gato")
	_, err := s.Storage.UpdateGame(s.Ctx, "g1", s.join(owner.ID))
	s.Require().NoError(err)

	finished, err := s.Storage.UpdateActiveGame(s.Ctx, owner.ID, func(g *model.Game) error {
		return g.Transition(model.GameStatusAbandoned, s.Now)
	})
	s.Require().NoError(err)
	s.False(finished.IsActive)

	_, err = s.Storage.GetActiveGame(s.Ctx, owner.ID)
	s.ErrorIs(err, model.ErrNoActiveGame)

	_, err = s.Storage.UpdateActiveGame(s.Ctx, owner.ID, func(*model.Game) error { return nil })
	s.ErrorIs(err, model.ErrNoActiveGame)

	// A new game may be joined once the previous one ended
	s.PendingGame("g2", owner.ID, "perro")
	_, err = s.Storage.UpdateGame(s.Ctx, "g2", s.join(owner.ID))
	s.NoError(err)
}

func (s *Suite) TestConcurrentJoinsOneWins() {
	owner := s.User("u1", "+5215550001")
	const n = 5
	for i := 0; i < n; i++ {
		s.PendingGame(fmt.Sprintf("g%d", i), owner.ID, "gato")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		rejected  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id model.GameID) {
			defer wg.Done()
			_, err := s.Storage.UpdateGame(s.Ctx, id, s.join(owner.ID))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, model.ErrAlreadyHasActiveGame), errors.Is(err, model.ErrConcurrentUpdate):
				rejected++
			}
		}(model.GameID(fmt.Sprintf("g%d", i)))
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(n-1, rejected)

	games, err := s.Storage.ListGamesByOwner(s.Ctx, owner.ID, model.GameStatusInProgress)
	s.Require().NoError(err)
	s.Len(games, 1)
}

func (s *Suite) TestConcurrentGuessesAreSerialised() {
	owner := s.User("u1", "+5215550001")
	s.PendingGame("g1", owner.ID, "murcielago")
	_, err := s.Storage.UpdateGame(s.Ctx, "g1", s.join(owner.ID))
	s.Require().NoError(err)

	letters := []rune("xyzqw")
	var wg sync.WaitGroup
	for _, l := range letters {
		wg.Add(1)
		go func(letter rune) {
			defer wg.Done()
			for {
				_, err := s.Storage.UpdateActiveGame(s.Ctx, owner.ID, func(g *model.Game) error {
					g.LettersAttempted.Add(letter)
					g.RemainingAttempts--
					return nil
				})
				if !errors.Is(err, model.ErrConcurrentUpdate) {
					return
				}
			}
		}(l)
	}
	wg.Wait()

	got, err := s.Storage.GetActiveGame(s.Ctx, owner.ID)
	s.Require().NoError(err)
	s.Equal(len(letters), got.LettersAttempted.Len())
	s.Equal(model.DefaultMaxAttempts-len(letters), got.RemainingAttempts)
}

// Summary queue tests

func (s *Suite) summary(id string, deliverAt time.Time) *model.SummaryJob {
	return &model.SummaryJob{
		ID:                id,
		GameID:            "g1",
		UserID:            "u1",
		UserName:          "Ana",
		Status:            model.GameStatusWon,
		SecretWord:        "gato",
		LettersAttempted:  []string{"a", "t", "o", "g"},
		ProgressMask:      "gato",
		RemainingAttempts: 7,
		FinishedAt:        s.Now,
		DeliverAt:         deliverAt,
	}
}

func (s *Suite) TestClaimDueSummaries() {
	s.Require().NoError(s.Storage.EnqueueSummary(s.Ctx, s.summary("late", s.Now.Add(time.Minute))))
	s.Require().NoError(s.Storage.EnqueueSummary(s.Ctx, s.summary("first", s.Now.Add(-time.Minute))))
	s.Require().NoError(s.Storage.EnqueueSummary(s.Ctx, s.summary("second", s.Now)))

	due, err := s.Storage.ClaimDueSummaries(s.Ctx, s.Now, 10)
	s.Require().NoError(err)
	s.Require().Len(due, 2)
	s.Equal("first", due[0].ID)
	s.Equal("second", due[1].ID)
	s.Equal("Ana", due[0].UserName)
	s.Equal([]string{"a", "t", "o", "g"}, due[0].LettersAttempted)

	// Claimed jobs are gone
	again, err := s.Storage.ClaimDueSummaries(s.Ctx, s.Now, 10)
	s.Require().NoError(err)
	s.Empty(again)

	later, err := s.Storage.ClaimDueSummaries(s.Ctx, s.Now.Add(2*time.Minute), 10)
	s.Require().NoError(err)
	s.Require().Len(later, 1)
	s.Equal("late", later[0].ID)
}

func (s *Suite) TestClaimDueSummariesRespectsLimit() {
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.Storage.EnqueueSummary(s.Ctx, s.summary(fmt.Sprintf("job-%d", i), s.Now.Add(time.Duration(-i)*time.Second))))
	}

	first, err := s.Storage.ClaimDueSummaries(s.Ctx, s.Now, 2)
	s.Require().NoError(err)
	s.Len(first, 2)

	rest, err := s.Storage.ClaimDueSummaries(s.Ctx, s.Now, 2)
	s.Require().NoError(err)
	s.Len(rest, 1)
}
