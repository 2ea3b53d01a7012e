package storage

import (
	"context"
	"time"

	"github.com/mcoot/hangman/internal/model"
)

// GameMutation edits a private copy of a game inside an atomic update.
// Returning an error aborts the update without writing anything.
type GameMutation func(game *model.Game) error

// Storage defines the interface for data persistence
type Storage interface {
	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteSessionsForUser(ctx context.Context, userID model.UserID) error

	// Verification code operations
	SaveVerificationCode(ctx context.Context, code *model.VerificationCode) error
	GetVerificationCode(ctx context.Context, phone string, now time.Time) (*model.VerificationCode, error)
	DeleteVerificationCode(ctx context.Context, phone string) error

	// Game operations
	CreateGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	GetActiveGame(ctx context.Context, userID model.UserID) (*model.Game, error)
	ListGamesByOwner(ctx context.Context, ownerID model.UserID, statuses ...model.GameStatus) ([]*model.Game, error)
	ListGames(ctx context.Context) ([]*model.Game, error)

	// Atomic game updates. Both reject a second active game for the same
	// player with model.ErrAlreadyHasActiveGame.
	UpdateGame(ctx context.Context, id model.GameID, fn GameMutation) (*model.Game, error)
	UpdateActiveGame(ctx context.Context, userID model.UserID, fn GameMutation) (*model.Game, error)

	// Delayed summary queue. Claimed jobs are removed (at-most-once delivery).
	EnqueueSummary(ctx context.Context, job *model.SummaryJob) error
	ClaimDueSummaries(ctx context.Context, now time.Time, limit int) ([]*model.SummaryJob, error)
}

// MatchesStatus reports whether status is in statuses; an empty filter matches everything
func MatchesStatus(status model.GameStatus, statuses []model.GameStatus) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
