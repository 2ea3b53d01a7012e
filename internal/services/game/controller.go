package game

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mcoot/hangman/internal/dependencies/clock"
	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/services/notify"
	"github.com/mcoot/hangman/internal/storage"
)

// WordFetcher provides validated secret words
type WordFetcher interface {
	FetchSecretWord(ctx context.Context) (string, error)
}

// Notifier receives game events. Implementations must not block or fail the caller.
type Notifier interface {
	NotifySummary(ctx context.Context, game *model.Game, user *model.User)
	NotifyGuess(ctx context.Context, user *model.User, game *model.Game, outcome string)
}

// Outcome classifies an accepted guess
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeWon       Outcome = "won"
	OutcomeLost      Outcome = "lost"
)

// message is the direct-message wording for the outcome
func (o Outcome) message() string {
	switch o {
	case OutcomeCorrect:
		return notify.OutcomeCorrect
	case OutcomeIncorrect:
		return notify.OutcomeIncorrect
	case OutcomeWon:
		return notify.OutcomeWon
	}
	return notify.OutcomeLost
}

// GuessResult is the state after an accepted guess
type GuessResult struct {
	Game    *model.Game
	Letter  rune
	Outcome Outcome
}

// Finished reports whether the guess ended the game
func (r *GuessResult) Finished() bool {
	return r.Outcome == OutcomeWon || r.Outcome == OutcomeLost
}

// Config holds game rules
type Config struct {
	MaxAttempts int
}

// Controller manages the game state machine
type Controller struct {
	storage     storage.Storage
	words       WordFetcher
	notifier    Notifier
	clock       clock.Clock
	metrics     *metrics.Metrics
	logger      *slog.Logger
	maxAttempts int
}

// NewController creates a new game Controller
func NewController(
	storage storage.Storage,
	words WordFetcher,
	notifier Notifier,
	clock clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = model.DefaultMaxAttempts
	}
	return &Controller{
		storage:     storage,
		words:       words,
		notifier:    notifier,
		clock:       clock,
		metrics:     m,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
	}
}

// MaxAttempts returns the configured attempt budget for new games
func (c *Controller) MaxAttempts() int {
	return c.maxAttempts
}

// ParseLetter validates a guess: exactly one ASCII letter, returned lowercased
func ParseLetter(input string) (rune, error) {
	if utf8.RuneCountInString(input) != 1 {
		return 0, model.ErrInvalidLetter
	}
	r, _ := utf8.DecodeRuneInString(input)
	switch {
	case r >= 'a' && r <= 'z':
		return r, nil
	case r >= 'A' && r <= 'Z':
		return r - 'A' + 'a', nil
	}
	return 0, model.ErrInvalidLetter
}

// CreateGame fetches a secret word and stores a new pending game for user.
// No game is stored when no word is available.
func (c *Controller) CreateGame(ctx context.Context, user *model.User) (*model.Game, error) {
	word, err := c.words.FetchSecretWord(ctx)
	if err != nil {
		c.logger.Error("failed to fetch secret word",
			slog.String("user_id", string(user.ID)),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, model.ErrWordUnavailable
	}

	now := c.clock.Now()
	game := &model.Game{
		ID:                model.GameID(uuid.NewString()),
		OwnerID:           user.ID,
		SecretWord:        word,
		RemainingAttempts: c.maxAttempts,
		Status:            model.GameStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := c.storage.CreateGame(ctx, game); err != nil {
		c.logger.Error("failed to save game",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.metrics.GameCreated()
	c.logger.Info("game created",
		slog.String("game_id", string(game.ID)),
		slog.String("user_id", string(user.ID)),
		slog.Int("word_length", game.WordLength()),
	)

	return game, nil
}

// JoinGame starts one of the user's pending games
func (c *Controller) JoinGame(ctx context.Context, user *model.User, gameID model.GameID) (*model.Game, error) {
	if strings.TrimSpace(string(gameID)) == "" {
		return nil, model.NewValidationError("game_id", "El campo game_id es obligatorio.")
	}

	if active, err := c.storage.GetActiveGame(ctx, user.ID); err == nil {
		return nil, &model.ActiveGameError{Game: active}
	} else if !errors.Is(err, model.ErrNoActiveGame) {
		return nil, err
	}

	game, err := c.storage.UpdateGame(ctx, gameID, func(g *model.Game) error {
		if g.OwnerID != user.ID || g.Status != model.GameStatusPending {
			return model.ErrNotJoinable
		}
		playerID := user.ID
		g.ActivePlayerID = &playerID
		return g.Transition(model.GameStatusInProgress, c.clock.Now())
	})
	if err != nil {
		// Lost a race against another join for the same player
		if errors.Is(err, model.ErrAlreadyHasActiveGame) {
			if active, getErr := c.storage.GetActiveGame(ctx, user.ID); getErr == nil {
				return nil, &model.ActiveGameError{Game: active}
			}
		}
		return nil, err
	}

	c.metrics.GameJoined()
	c.logger.Info("game joined",
		slog.String("game_id", string(game.ID)),
		slog.String("user_id", string(user.ID)),
	)

	return game, nil
}

// GuessLetter applies one letter to the user's active game
func (c *Controller) GuessLetter(ctx context.Context, user *model.User, input string) (*GuessResult, error) {
	letter, err := ParseLetter(input)
	if err != nil {
		return nil, err
	}

	var outcome Outcome
	game, err := c.storage.UpdateActiveGame(ctx, user.ID, func(g *model.Game) error {
		if g.Status != model.GameStatusInProgress {
			return model.ErrNoActiveGame
		}
		if g.LettersAttempted.Contains(letter) {
			return model.ErrAlreadyAttempted
		}

		now := c.clock.Now()
		g.LettersAttempted.Add(letter)
		g.UpdatedAt = now

		// Completion is checked first so a winning guess never counts as a loss
		if g.IsWordComplete() {
			outcome = OutcomeWon
			return g.Transition(model.GameStatusWon, now)
		}
		if g.ContainsLetter(letter) {
			outcome = OutcomeCorrect
			return nil
		}

		outcome = OutcomeIncorrect
		if g.RemainingAttempts > 0 {
			g.RemainingAttempts--
		}
		if g.RemainingAttempts <= 0 {
			outcome = OutcomeLost
			return g.Transition(model.GameStatusLost, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &GuessResult{Game: game, Letter: letter, Outcome: outcome}

	c.metrics.Guess(string(outcome))
	c.logger.Debug("letter guessed",
		slog.String("game_id", string(game.ID)),
		slog.String("user_id", string(user.ID)),
		slog.String("letter", string(letter)),
		slog.String("outcome", string(outcome)),
		slog.Int("remaining_attempts", game.RemainingAttempts),
	)

	if result.Finished() {
		c.finished(ctx, user, game)
	}
	c.notifier.NotifyGuess(ctx, user, game, outcome.message())

	return result, nil
}

// AbandonGame ends the user's active game without a result
func (c *Controller) AbandonGame(ctx context.Context, user *model.User) (*model.Game, error) {
	game, err := c.storage.UpdateActiveGame(ctx, user.ID, func(g *model.Game) error {
		return g.Transition(model.GameStatusAbandoned, c.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	c.finished(ctx, user, game)
	c.notifier.NotifyGuess(ctx, user, game, notify.OutcomeAbandoned)

	return game, nil
}

func (c *Controller) finished(ctx context.Context, user *model.User, game *model.Game) {
	c.metrics.GameFinished(game.Status)
	c.logger.Info("game finished",
		slog.String("game_id", string(game.ID)),
		slog.String("user_id", string(user.ID)),
		slog.String("status", string(game.Status)),
		slog.Int("remaining_attempts", game.RemainingAttempts),
	)
	c.notifier.NotifySummary(ctx, game, user)
}

// GetCurrentGame returns the user's active game or model.ErrNoActiveGame
func (c *Controller) GetCurrentGame(ctx context.Context, user *model.User) (*model.Game, error) {
	return c.storage.GetActiveGame(ctx, user.ID)
}

// ListAvailableGames returns the user's pending games or model.ErrNoAvailableGames
func (c *Controller) ListAvailableGames(ctx context.Context, user *model.User) ([]*model.Game, error) {
	games, err := c.storage.ListGamesByOwner(ctx, user.ID, model.GameStatusPending)
	if err != nil {
		return nil, err
	}
	if len(games) == 0 {
		return nil, model.ErrNoAvailableGames
	}
	return games, nil
}

// GetHistory returns the user's finished games, oldest first
func (c *Controller) GetHistory(ctx context.Context, user *model.User) ([]*model.Game, error) {
	return c.storage.ListGamesByOwner(ctx, user.ID, model.TerminalStatuses()...)
}
