package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.MaxTxRetries <= 0 {
		cfg.MaxTxRetries = DefaultConfig().MaxTxRetries
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// getter is the read side shared by the client and a WATCH transaction
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// User operations

func (s *Storage) SaveUser(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}

	existing, err := s.client.Get(ctx, phoneIndexKey(user.Phone)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if err == nil && existing != string(user.ID) {
		return model.ErrPhoneTaken
	}

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, userKey(user.ID), data, 0)
	pipe.Set(ctx, phoneIndexKey(user.Phone), string(user.ID), 0)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetUser(ctx context.Context, id model.UserID) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	// Look up user ID from phone index
	userID, err := s.client.Get(ctx, phoneIndexKey(phone)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrUserNotFound
		}
		return nil, err
	}

	return s.GetUser(ctx, model.UserID(userID))
}

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	// Expired sessions are also rejected by the auth service, the TTL only reclaims memory
	ttl := time.Until(session.ExpiresAt)
	if ttl < 0 {
		ttl = 0
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.Token), data, ttl)
	pipe.SAdd(ctx, userSessionsKey(session.UserID), session.Token)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, token string) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, token string) error {
	session, err := s.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(token))
	pipe.SRem(ctx, userSessionsKey(session.UserID), token)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) DeleteSessionsForUser(ctx context.Context, userID model.UserID) error {
	indexKey := userSessionsKey(userID)

	tokens, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	// Delete all sessions and the index in one pipeline
	pipe := s.client.TxPipeline()
	for _, token := range tokens {
		pipe.Del(ctx, sessionKey(token))
	}
	pipe.Del(ctx, indexKey)
	_, err = pipe.Exec(ctx)
	return err
}

// Verification code operations

func (s *Storage) SaveVerificationCode(ctx context.Context, code *model.VerificationCode) error {
	data, err := json.Marshal(code)
	if err != nil {
		return err
	}

	ttl := time.Until(code.ExpiresAt)
	if ttl < 0 {
		ttl = 0
	}
	return s.client.Set(ctx, verificationKey(code.Phone), data, ttl).Err()
}

func (s *Storage) GetVerificationCode(ctx context.Context, phone string, now time.Time) (*model.VerificationCode, error) {
	data, err := s.client.Get(ctx, verificationKey(phone)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrInvalidVerificationCode
		}
		return nil, err
	}

	var code model.VerificationCode
	if err := json.Unmarshal(data, &code); err != nil {
		return nil, err
	}
	if !now.Before(code.ExpiresAt) {
		return nil, model.ErrInvalidVerificationCode
	}
	return &code, nil
}

func (s *Storage) DeleteVerificationCode(ctx context.Context, phone string) error {
	return s.client.Del(ctx, verificationKey(phone)).Err()
}

// Game operations

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	data, err := json.Marshal(game)
	if err != nil {
		return err
	}

	seq, err := s.client.Incr(ctx, gameSequenceKey()).Result()
	if err != nil {
		return err
	}
	member := redis.Z{Score: float64(seq), Member: string(game.ID)}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, gameKey(game.ID), data, 0)
	pipe.ZAdd(ctx, ownerGamesKey(game.OwnerID), member)
	pipe.ZAdd(ctx, allGamesKey(), member)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return s.getGame(ctx, s.client, id)
}

func (s *Storage) getGame(ctx context.Context, g getter, id model.GameID) (*model.Game, error) {
	data, err := g.Get(ctx, gameKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrGameNotFound
		}
		return nil, err
	}

	var game model.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Storage) GetActiveGame(ctx context.Context, userID model.UserID) (*model.Game, error) {
	id, err := s.client.Get(ctx, activeGameKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrNoActiveGame
		}
		return nil, err
	}
	return s.GetGame(ctx, model.GameID(id))
}

func (s *Storage) ListGamesByOwner(ctx context.Context, ownerID model.UserID, statuses ...model.GameStatus) ([]*model.Game, error) {
	return s.listGames(ctx, ownerGamesKey(ownerID), statuses)
}

func (s *Storage) ListGames(ctx context.Context) ([]*model.Game, error) {
	return s.listGames(ctx, allGamesKey(), nil)
}

func (s *Storage) listGames(ctx context.Context, indexKey string, statuses []model.GameStatus) ([]*model.Game, error) {
	ids, err := s.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	games := make([]*model.Game, 0, len(ids))
	if len(ids) == 0 {
		return games, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = gameKey(model.GameID(id))
	}

	// Fetch all games in one round trip using MGET
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for _, val := range values {
		raw, ok := val.(string)
		if !ok {
			continue
		}
		var game model.Game
		if err := json.Unmarshal([]byte(raw), &game); err != nil {
			return nil, err
		}
		if storage.MatchesStatus(game.Status, statuses) {
			games = append(games, &game)
		}
	}
	return games, nil
}

func (s *Storage) UpdateGame(ctx context.Context, id model.GameID, fn storage.GameMutation) (*model.Game, error) {
	var updated *model.Game
	txf := func(tx *redis.Tx) error {
		current, err := s.getGame(ctx, tx, id)
		if err != nil {
			return err
		}
		updated, err = s.applyMutation(ctx, tx, current, fn)
		return err
	}

	if err := s.watch(ctx, txf, gameKey(id)); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Storage) UpdateActiveGame(ctx context.Context, userID model.UserID, fn storage.GameMutation) (*model.Game, error) {
	var updated *model.Game
	txf := func(tx *redis.Tx) error {
		id, err := tx.Get(ctx, activeGameKey(userID)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrNoActiveGame
			}
			return err
		}
		gameID := model.GameID(id)
		if err := tx.Watch(ctx, gameKey(gameID)).Err(); err != nil {
			return err
		}
		current, err := s.getGame(ctx, tx, gameID)
		if err != nil {
			return err
		}
		updated, err = s.applyMutation(ctx, tx, current, fn)
		return err
	}

	if err := s.watch(ctx, txf, activeGameKey(userID)); err != nil {
		return nil, err
	}
	return updated, nil
}

// watch runs txf under WATCH, retrying while another client wins the race
func (s *Storage) watch(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < s.cfg.MaxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return model.ErrConcurrentUpdate
}

// applyMutation runs fn on a copy of current and queues the writes in MULTI/EXEC.
// The active-game index of the new player is watched before it is checked.
func (s *Storage) applyMutation(ctx context.Context, tx *redis.Tx, current *model.Game, fn storage.GameMutation) (*model.Game, error) {
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	nextActive := next.IsActive && next.ActivePlayerID != nil
	if nextActive {
		key := activeGameKey(*next.ActivePlayerID)
		if err := tx.Watch(ctx, key).Err(); err != nil {
			return nil, err
		}
		activeID, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		if err == nil && activeID != string(next.ID) {
			return nil, model.ErrAlreadyHasActiveGame
		}
	}

	data, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}

	_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(next.ID), data, 0)
		if current.IsActive && current.ActivePlayerID != nil && !nextActive {
			pipe.Del(ctx, activeGameKey(*current.ActivePlayerID))
		}
		if nextActive {
			pipe.Set(ctx, activeGameKey(*next.ActivePlayerID), string(next.ID), 0)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Summary queue operations

func (s *Storage) EnqueueSummary(ctx context.Context, job *model.SummaryJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.client.ZAdd(ctx, summaryQueueKey(), redis.Z{
		Score:  float64(job.DeliverAt.UnixMilli()),
		Member: string(data),
	}).Err()
}

func (s *Storage) ClaimDueSummaries(ctx context.Context, now time.Time, limit int) ([]*model.SummaryJob, error) {
	members, err := s.client.ZRangeByScore(ctx, summaryQueueKey(), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]*model.SummaryJob, 0, len(members))
	for _, member := range members {
		// Only the caller whose ZREM removes the member owns the job
		removed, err := s.client.ZRem(ctx, summaryQueueKey(), member).Result()
		if err != nil {
			return jobs, err
		}
		if removed == 0 {
			continue
		}
		var job model.SummaryJob
		if err := json.Unmarshal([]byte(member), &job); err != nil {
			continue // Skip invalid data
		}
		jobs = append(jobs, &job)
	}
	return jobs, nil
}
