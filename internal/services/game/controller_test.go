package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/hangman/internal/dependencies/mocks"
	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/services/notify"
	"github.com/mcoot/hangman/internal/services/words"
	"github.com/mcoot/hangman/internal/storage/memory"
	"github.com/mcoot/hangman/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	source     *mocks.MockWordSource
	clock      *mocks.MockClock
	messenger  *mocks.MockMessenger
	dispatcher *notify.Dispatcher
	controller *Controller
	ctx        context.Context
	user       *model.User
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.source = mocks.NewMockWordSource()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.messenger = mocks.NewMockMessenger()
	s.ctx = context.Background()
	s.newController(model.DefaultMaxAttempts)

	s.user = &model.User{ID: "u1", Name: "Ana", Phone: "+5215550001", IsActive: true, Role: model.RolePlayer}
	s.Require().NoError(s.storage.SaveUser(s.ctx, s.user))
}

func (s *ControllerSuite) TearDownTest() {
	s.dispatcher.Wait()
}

func (s *ControllerSuite) newController(maxAttempts int) {
	m := metrics.New(false)
	logger := testutil.NopLogger()
	s.dispatcher = notify.NewDispatcher(s.storage, s.messenger, s.clock, m, logger, notify.DispatcherConfig{SummaryDelay: time.Minute})
	wordService := words.New(s.source, 3, m, logger)
	s.controller = NewController(s.storage, wordService, s.dispatcher, s.clock, m, logger, Config{MaxAttempts: maxAttempts})
}

// startGame creates and joins a game with the given secret word
func (s *ControllerSuite) startGame(word string) *model.Game {
	s.source.Queue(word)
	game, err := s.controller.CreateGame(s.ctx, s.user)
	s.Require().NoError(err)
	joined, err := s.controller.JoinGame(s.ctx, s.user, game.ID)
	s.Require().NoError(err)
	return joined
}

func (s *ControllerSuite) guess(letter string) *GuessResult {
	result, err := s.controller.GuessLetter(s.ctx, s.user, letter)
	s.Require().NoError(err)
	return result
}

// ParseLetter tests

func (s *ControllerSuite) TestParseLetter() {
	for input, want := range map[string]rune{"a": 'a', "Z": 'z', "m": 'm'} {
		got, err := ParseLetter(input)
		s.Require().NoError(err, input)
		s.Equal(want, got)
	}
	for _, input := range []string{"", "ab", "1", "ñ", "é", " ", "-"} {
		_, err := ParseLetter(input)
		s.ErrorIs(err, model.ErrInvalidLetter, input)
	}
}

// CreateGame tests

func (s *ControllerSuite) TestCreateGamePending() {
	s.source.Queue("Gato")

	game, err := s.controller.CreateGame(s.ctx, s.user)
	s.Require().NoError(err)
	s.NotEmpty(game.ID)
	s.Equal(model.GameStatusPending, game.Status)
	s.Equal("gato", game.SecretWord)
	s.Equal(model.DefaultMaxAttempts, game.RemainingAttempts)
	s.False(game.IsActive)
	s.Nil(game.ActivePlayerID)
	s.Equal(0, game.LettersAttempted.Len())
	s.Equal(s.user.ID, game.OwnerID)

	stored, err := s.storage.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Equal(game.SecretWord, stored.SecretWord)
}

func (s *ControllerSuite) TestCreateGameWordUnavailable() {
	s.source.Queue("sol", "niño", "x")

	_, err := s.controller.CreateGame(s.ctx, s.user)
	s.ErrorIs(err, model.ErrWordUnavailable)

	games, err := s.storage.ListGames(s.ctx)
	s.Require().NoError(err)
	s.Empty(games)
}

func (s *ControllerSuite) TestCreateGameUsesConfiguredAttempts() {
	s.newController(3)
	s.source.Queue("gato")

	game, err := s.controller.CreateGame(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(3, game.RemainingAttempts)
}

// JoinGame tests

func (s *ControllerSuite) TestJoinGame() {
	game := s.startGame("gato")

	s.Equal(model.GameStatusInProgress, game.Status)
	s.True(game.IsActive)
	s.Require().NotNil(game.ActivePlayerID)
	s.Equal(s.user.ID, *game.ActivePlayerID)
}

func (s *ControllerSuite) TestJoinWhileActive() {
	active := s.startGame("gato")
	s.source.Queue("perro")
	second, err := s.controller.CreateGame(s.ctx, s.user)
	s.Require().NoError(err)

	_, err = s.controller.JoinGame(s.ctx, s.user, second.ID)
	s.ErrorIs(err, model.ErrAlreadyHasActiveGame)

	var activeErr *model.ActiveGameError
	s.Require().True(errors.As(err, &activeErr))
	s.Equal(active.ID, activeErr.Game.ID)

	stored, _ := s.storage.GetGame(s.ctx, second.ID)
	s.Equal(model.GameStatusPending, stored.Status)
}

func (s *ControllerSuite) TestJoinOtherUsersGame() {
	s.source.Queue("gato")
	game, err := s.controller.CreateGame(s.ctx, s.user)
	s.Require().NoError(err)

	other := &model.User{ID: "u2", Name: "Bob", Phone: "+5215550002", IsActive: true}
	_, err = s.controller.JoinGame(s.ctx, other, game.ID)
	s.ErrorIs(err, model.ErrNotJoinable)
}

func (s *ControllerSuite) TestJoinFinishedGame() {
	game := s.startGame("gato")
	_, err := s.controller.AbandonGame(s.ctx, s.user)
	s.Require().NoError(err)

	_, err = s.controller.JoinGame(s.ctx, s.user, game.ID)
	s.ErrorIs(err, model.ErrNotJoinable)
}

func (s *ControllerSuite) TestJoinUnknownGame() {
	_, err := s.controller.JoinGame(s.ctx, s.user, "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestJoinRequiresID() {
	_, err := s.controller.JoinGame(s.ctx, s.user, "")
	var verr *model.ValidationError
	s.True(errors.As(err, &verr))
}

func (s *ControllerSuite) TestConcurrentJoinsExactlyOneSucceeds() {
	const n = 8
	ids := make([]model.GameID, n)
	for i := range ids {
		s.source.Queue(fmt.Sprintf("gato%c", 'a'+i))
		game, err := s.controller.CreateGame(s.ctx, s.user)
		s.Require().NoError(err)
		ids[i] = game.ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id model.GameID) {
			defer wg.Done()
			if _, err := s.controller.JoinGame(s.ctx, s.user, id); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	s.Equal(1, successes)
	active, err := s.storage.ListGamesByOwner(s.ctx, s.user.ID, model.GameStatusInProgress)
	s.Require().NoError(err)
	s.Len(active, 1)
}

// GuessLetter tests

func (s *ControllerSuite) TestGuessSequenceWins() {
	s.startGame("gato")

	masks := []struct {
		letter  string
		mask    string
		outcome Outcome
	}{
		{"a", "_a__", OutcomeCorrect},
		{"t", "_at_", OutcomeCorrect},
		{"o", "_ato", OutcomeCorrect},
		{"g", "gato", OutcomeWon},
	}
	for _, step := range masks {
		result := s.guess(step.letter)
		s.Equal(step.mask, result.Game.ProgressMask(), step.letter)
		s.Equal(step.outcome, result.Outcome, step.letter)
	}

	game, err := s.storage.ListGamesByOwner(s.ctx, s.user.ID, model.GameStatusWon)
	s.Require().NoError(err)
	s.Require().Len(game, 1)
	s.False(game[0].IsActive)
	s.Equal(model.DefaultMaxAttempts, game[0].RemainingAttempts)

	_, err = s.controller.GetCurrentGame(s.ctx, s.user)
	s.ErrorIs(err, model.ErrNoActiveGame)
}

// seedActiveGame stores an in-progress game directly, bypassing word validation
func (s *ControllerSuite) seedActiveGame(word string, attempts int) *model.Game {
	player := s.user.ID
	game := &model.Game{
		ID:                "seeded",
		OwnerID:           s.user.ID,
		ActivePlayerID:    &player,
		SecretWord:        word,
		RemainingAttempts: attempts,
		Status:            model.GameStatusInProgress,
		IsActive:          true,
		CreatedAt:         s.clock.Now(),
		UpdatedAt:         s.clock.Now(),
	}
	s.Require().NoError(s.storage.CreateGame(s.ctx, game))
	return game
}

func (s *ControllerSuite) TestSingleAttemptLoses() {
	s.seedActiveGame("sol", 1)

	result := s.guess("x")
	s.Equal(OutcomeLost, result.Outcome)
	s.Equal(0, result.Game.RemainingAttempts)
	s.Equal(model.GameStatusLost, result.Game.Status)
	s.False(result.Game.IsActive)
}

func (s *ControllerSuite) TestIncorrectGuessDecrements() {
	s.startGame("gato")

	result := s.guess("x")
	s.Equal(OutcomeIncorrect, result.Outcome)
	s.Equal(model.DefaultMaxAttempts-1, result.Game.RemainingAttempts)
	s.Equal("____", result.Game.ProgressMask())
}

func (s *ControllerSuite) TestUppercaseIsNormalised() {
	s.startGame("gato")

	result := s.guess("A")
	s.Equal('a', result.Letter)
	s.Equal("_a__", result.Game.ProgressMask())
}

func (s *ControllerSuite) TestRepeatedLetterIsIdempotent() {
	s.startGame("gato")
	s.guess("x")
	before, _ := s.controller.GetCurrentGame(s.ctx, s.user)

	_, err := s.controller.GuessLetter(s.ctx, s.user, "x")
	s.ErrorIs(err, model.ErrAlreadyAttempted)
	_, err = s.controller.GuessLetter(s.ctx, s.user, "X")
	s.ErrorIs(err, model.ErrAlreadyAttempted)

	after, _ := s.controller.GetCurrentGame(s.ctx, s.user)
	s.Equal(before.RemainingAttempts, after.RemainingAttempts)
	s.Equal(before.LettersAttempted.Len(), after.LettersAttempted.Len())
	s.Equal(before.Status, after.Status)
}

func (s *ControllerSuite) TestCompletingWordOnLastAttemptWins() {
	s.newController(2)
	s.startGame("aaaa")

	s.guess("x")
	result := s.guess("a")
	s.Equal(OutcomeWon, result.Outcome)
	s.Equal(model.GameStatusWon, result.Game.Status)
	s.Equal(1, result.Game.RemainingAttempts)
}

func (s *ControllerSuite) TestAttemptsNeverNegative() {
	s.newController(3)
	s.startGame("gato")

	for _, l := range []string{"x", "y", "z"} {
		_, _ = s.controller.GuessLetter(s.ctx, s.user, l)
	}
	_, err := s.controller.GuessLetter(s.ctx, s.user, "w")
	s.ErrorIs(err, model.ErrNoActiveGame)

	games, _ := s.storage.ListGamesByOwner(s.ctx, s.user.ID)
	s.Require().Len(games, 1)
	s.Equal(0, games[0].RemainingAttempts)
	s.Equal(model.GameStatusLost, games[0].Status)
}

func (s *ControllerSuite) TestConcurrentIncorrectGuesses() {
	s.newController(3)
	s.startGame("gato")

	var wg sync.WaitGroup
	for _, l := range "bcdefhijk" {
		wg.Add(1)
		go func(letter string) {
			defer wg.Done()
			_, _ = s.controller.GuessLetter(s.ctx, s.user, letter)
		}(string(l))
	}
	wg.Wait()

	games, _ := s.storage.ListGamesByOwner(s.ctx, s.user.ID)
	s.Require().Len(games, 1)
	s.Equal(0, games[0].RemainingAttempts)
	s.Equal(3, games[0].LettersAttempted.Len())
	s.Equal(model.GameStatusLost, games[0].Status)
}

func (s *ControllerSuite) TestGuessWithoutActiveGame() {
	_, err := s.controller.GuessLetter(s.ctx, s.user, "a")
	s.ErrorIs(err, model.ErrNoActiveGame)
}

func (s *ControllerSuite) TestGuessInvalidLetter() {
	s.startGame("gato")
	_, err := s.controller.GuessLetter(s.ctx, s.user, "ab")
	s.ErrorIs(err, model.ErrInvalidLetter)
}

// Notification tests

func (s *ControllerSuite) TestGuessSendsDirectMessage() {
	s.startGame("gato")
	s.guess("a")
	s.dispatcher.Wait()

	msg, ok := s.messenger.LastMessage()
	s.Require().True(ok)
	s.Equal(s.user.Phone, msg.To)
	s.Equal("Letra correcta | Progreso: _ a _ _ | Intentos restantes: 7", msg.Body)
}

func (s *ControllerSuite) TestWinEnqueuesSummary() {
	s.startGame("gato")
	for _, l := range []string{"g", "a", "t"} {
		s.guess(l)
	}
	s.Equal(0, s.storage.PendingSummaries())

	s.guess("o")
	s.dispatcher.Wait()
	s.Equal(1, s.storage.PendingSummaries())

	msg, _ := s.messenger.LastMessage()
	s.Equal("¡Ganaste! | Progreso: g a t o | Intentos restantes: 7", msg.Body)

	jobs, err := s.storage.ClaimDueSummaries(s.ctx, s.clock.Now().Add(time.Minute), 10)
	s.Require().NoError(err)
	s.Require().Len(jobs, 1)
	s.Equal(model.GameStatusWon, jobs[0].Status)
	s.Equal("Ana", jobs[0].UserName)
	s.Equal([]string{"g", "a", "t", "o"}, jobs[0].LettersAttempted)
	s.Equal(s.clock.Now().Add(time.Minute), jobs[0].DeliverAt)
}

func (s *ControllerSuite) TestNotificationFailureDoesNotFailGuess() {
	s.startGame("gato")
	s.messenger.Err = errors.New("provider down")

	result, err := s.controller.GuessLetter(s.ctx, s.user, "a")
	s.Require().NoError(err)
	s.Equal(OutcomeCorrect, result.Outcome)
}

// AbandonGame tests

func (s *ControllerSuite) TestAbandon() {
	s.startGame("gato")

	game, err := s.controller.AbandonGame(s.ctx, s.user)
	s.Require().NoError(err)
	s.Equal(model.GameStatusAbandoned, game.Status)
	s.False(game.IsActive)
	s.dispatcher.Wait()

	s.Equal(1, s.storage.PendingSummaries())
	msg, _ := s.messenger.LastMessage()
	s.Equal("Has abandonado la partida. | Progreso: _ _ _ _ | Intentos restantes: 7", msg.Body)
}

func (s *ControllerSuite) TestAbandonWithoutActiveGame() {
	s.source.Queue("gato")
	pending, err := s.controller.CreateGame(s.ctx, s.user)
	s.Require().NoError(err)

	_, err = s.controller.AbandonGame(s.ctx, s.user)
	s.ErrorIs(err, model.ErrNoActiveGame)

	stored, _ := s.storage.GetGame(s.ctx, pending.ID)
	s.Equal(model.GameStatusPending, stored.Status)
	s.Equal(0, s.storage.PendingSummaries())
}

// Query tests

func (s *ControllerSuite) TestListAvailableGames() {
	_, err := s.controller.ListAvailableGames(s.ctx, s.user)
	s.ErrorIs(err, model.ErrNoAvailableGames)

	s.source.Queue("gato", "perro")
	_, _ = s.controller.CreateGame(s.ctx, s.user)
	_, _ = s.controller.CreateGame(s.ctx, s.user)

	games, err := s.controller.ListAvailableGames(s.ctx, s.user)
	s.Require().NoError(err)
	s.Len(games, 2)
}

func (s *ControllerSuite) TestHistoryHasOnlyFinishedGames() {
	s.startGame("gato")
	_, err := s.controller.AbandonGame(s.ctx, s.user)
	s.Require().NoError(err)
	s.startGame("perro")
	s.source.Queue("casa")
	_, _ = s.controller.CreateGame(s.ctx, s.user)

	history, err := s.controller.GetHistory(s.ctx, s.user)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal("gato", history[0].SecretWord)
	s.Equal(model.GameStatusAbandoned, history[0].Status)
}
