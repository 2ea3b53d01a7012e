package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// A single mutex serialises every read-modify-write, which makes
// UpdateGame and UpdateActiveGame atomic.
type Storage struct {
	mu sync.RWMutex

	users             map[model.UserID]*model.User
	phoneIndex        map[string]model.UserID
	sessions          map[string]*model.Session
	verificationCodes map[string]*model.VerificationCode
	games             map[model.GameID]*model.Game
	gameOrder         []model.GameID
	activeGames       map[model.UserID]model.GameID
	summaries         []*model.SummaryJob
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		users:             make(map[model.UserID]*model.User),
		phoneIndex:        make(map[string]model.UserID),
		sessions:          make(map[string]*model.Session),
		verificationCodes: make(map[string]*model.VerificationCode),
		games:             make(map[model.GameID]*model.Game),
		activeGames:       make(map[model.UserID]model.GameID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.phoneIndex[user.Phone]; ok && existing != user.ID {
		return model.ErrPhoneTaken
	}
	if prev, ok := s.users[user.ID]; ok && prev.Phone != user.Phone {
		delete(s.phoneIndex, prev.Phone)
	}
	u := *user
	s.users[user.ID] = &u
	s.phoneIndex[user.Phone] = user.ID
	return nil
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (s *Storage) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.phoneIndex[phone]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	u := *s.users[id]
	return &u, nil
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := *session
	s.sessions[session.Token] = &sess
	return nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	sess := *session
	return &sess, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Storage) DeleteSessionsForUser(ctx context.Context, userID model.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, token)
		}
	}
	return nil
}

// Verification code operations

func (s *Storage) SaveVerificationCode(ctx context.Context, code *model.VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *code
	s.verificationCodes[code.Phone] = &c
	return nil
}

func (s *Storage) GetVerificationCode(ctx context.Context, phone string, now time.Time) (*model.VerificationCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.verificationCodes[phone]
	if !ok || !now.Before(code.ExpiresAt) {
		return nil, model.ErrInvalidVerificationCode
	}
	c := *code
	return &c, nil
}

func (s *Storage) DeleteVerificationCode(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.verificationCodes, phone)
	return nil
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.commitGame(nil, game); err != nil {
		return err
	}
	s.gameOrder = append(s.gameOrder, game.ID)
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *Storage) GetActiveGame(ctx context.Context, userID model.UserID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.activeGames[userID]
	if !ok {
		return nil, model.ErrNoActiveGame
	}
	return s.games[id].Clone(), nil
}

func (s *Storage) ListGamesByOwner(ctx context.Context, ownerID model.UserID, statuses ...model.GameStatus) ([]*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := make([]*model.Game, 0)
	for _, id := range s.gameOrder {
		g := s.games[id]
		if g.OwnerID == ownerID && storage.MatchesStatus(g.Status, statuses) {
			games = append(games, g.Clone())
		}
	}
	return games, nil
}

func (s *Storage) ListGames(ctx context.Context) ([]*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := make([]*model.Game, 0, len(s.gameOrder))
	for _, id := range s.gameOrder {
		games = append(games, s.games[id].Clone())
	}
	return games, nil
}

func (s *Storage) UpdateGame(ctx context.Context, id model.GameID, fn storage.GameMutation) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return s.mutate(current, fn)
}

func (s *Storage) UpdateActiveGame(ctx context.Context, userID model.UserID, fn storage.GameMutation) (*model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.activeGames[userID]
	if !ok {
		return nil, model.ErrNoActiveGame
	}
	return s.mutate(s.games[id], fn)
}

// mutate applies fn to a copy of current and commits it. Caller holds the lock.
func (s *Storage) mutate(current *model.Game, fn storage.GameMutation) (*model.Game, error) {
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := s.commitGame(current, next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}

// commitGame stores next and keeps the active-game index consistent. Caller holds the lock.
func (s *Storage) commitGame(prev, next *model.Game) error {
	if next.IsActive && next.ActivePlayerID != nil {
		if activeID, ok := s.activeGames[*next.ActivePlayerID]; ok && activeID != next.ID {
			return model.ErrAlreadyHasActiveGame
		}
	}
	if prev != nil && prev.IsActive && prev.ActivePlayerID != nil {
		if s.activeGames[*prev.ActivePlayerID] == prev.ID {
			delete(s.activeGames, *prev.ActivePlayerID)
		}
	}
	if next.IsActive && next.ActivePlayerID != nil {
		s.activeGames[*next.ActivePlayerID] = next.ID
	}
	s.games[next.ID] = next.Clone()
	return nil
}

// Summary queue operations

func (s *Storage) EnqueueSummary(ctx context.Context, job *model.SummaryJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := *job
	s.summaries = append(s.summaries, &j)
	sort.SliceStable(s.summaries, func(a, b int) bool {
		return s.summaries[a].DeliverAt.Before(s.summaries[b].DeliverAt)
	})
	return nil
}

func (s *Storage) ClaimDueSummaries(ctx context.Context, now time.Time, limit int) ([]*model.SummaryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimed := make([]*model.SummaryJob, 0)
	remaining := s.summaries[:0]
	for _, job := range s.summaries {
		if len(claimed) < limit && !job.DeliverAt.After(now) {
			claimed = append(claimed, job)
			continue
		}
		remaining = append(remaining, job)
	}
	s.summaries = remaining
	return claimed, nil
}

// PendingSummaries returns the number of queued summary jobs
func (s *Storage) PendingSummaries() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.summaries)
}
