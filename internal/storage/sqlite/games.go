package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage"
)

const selectGame = `
SELECT id, owner_id, active_player_id, secret_word, letters_attempted,
	remaining_attempts, status, is_active, created_at, updated_at
FROM games`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGame(row rowScanner) (*model.Game, error) {
	var (
		g                    model.Game
		activePlayer         sql.NullString
		letters              string
		createdAt, updatedAt int64
	)
	err := row.Scan(&g.ID, &g.OwnerID, &activePlayer, &g.SecretWord, &letters,
		&g.RemainingAttempts, &g.Status, &g.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if activePlayer.Valid {
		id := model.UserID(activePlayer.String)
		g.ActivePlayerID = &id
	}
	if err := json.Unmarshal([]byte(letters), &g.LettersAttempted); err != nil {
		return nil, fmt.Errorf("decode letters for game %s: %w", g.ID, err)
	}
	g.CreatedAt = fromMillis(createdAt)
	g.UpdatedAt = fromMillis(updatedAt)
	return &g, nil
}

func getGame(ctx context.Context, q queryer, where string, args ...any) (*model.Game, error) {
	return scanGame(q.QueryRowContext(ctx, selectGame+" "+where, args...))
}

func listGames(ctx context.Context, q queryer, where string, args ...any) ([]*model.Game, error) {
	rows, err := q.QueryContext(ctx, selectGame+" "+where+" ORDER BY seq", args...)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := make([]*model.Game, 0)
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func activePlayerArg(game *model.Game) any {
	if game.ActivePlayerID == nil {
		return nil
	}
	return string(*game.ActivePlayerID)
}

func encodeLetters(game *model.Game) (string, error) {
	data, err := json.Marshal(game.LettersAttempted)
	if err != nil {
		return "", fmt.Errorf("encode letters: %w", err)
	}
	return string(data), nil
}

func (s *Storage) CreateGame(ctx context.Context, game *model.Game) error {
	letters, err := encodeLetters(game)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO games (id, owner_id, active_player_id, secret_word, letters_attempted,
	remaining_attempts, status, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, game.ID, game.OwnerID, activePlayerArg(game), game.SecretWord, letters,
		game.RemainingAttempts, game.Status, game.IsActive,
		toMillis(game.CreatedAt), toMillis(game.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) && game.IsActive {
			return model.ErrAlreadyHasActiveGame
		}
		return fmt.Errorf("create game: %w", err)
	}
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	g, err := getGame(ctx, s.db, "WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrGameNotFound
	}
	return g, err
}

func (s *Storage) GetActiveGame(ctx context.Context, userID model.UserID) (*model.Game, error) {
	g, err := getGame(ctx, s.db, "WHERE active_player_id = ? AND is_active = 1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNoActiveGame
	}
	return g, err
}

func (s *Storage) ListGamesByOwner(ctx context.Context, ownerID model.UserID, statuses ...model.GameStatus) ([]*model.Game, error) {
	where := "WHERE owner_id = ?"
	args := []any{ownerID}
	if len(statuses) > 0 {
		where += " AND status IN (?" + strings.Repeat(", ?", len(statuses)-1) + ")"
		for _, st := range statuses {
			args = append(args, st)
		}
	}
	return listGames(ctx, s.db, where, args...)
}

func (s *Storage) ListGames(ctx context.Context) ([]*model.Game, error) {
	return listGames(ctx, s.db, "")
}

func (s *Storage) UpdateGame(ctx context.Context, id model.GameID, fn storage.GameMutation) (*model.Game, error) {
	return s.mutate(ctx, fn, model.ErrGameNotFound, "WHERE id = ?", id)
}

func (s *Storage) UpdateActiveGame(ctx context.Context, userID model.UserID, fn storage.GameMutation) (*model.Game, error) {
	return s.mutate(ctx, fn, model.ErrNoActiveGame, "WHERE active_player_id = ? AND is_active = 1", userID)
}

// mutate loads one game inside a write transaction, applies fn to it and
// writes it back. notFound is returned when the selector matches nothing.
func (s *Storage) mutate(ctx context.Context, fn storage.GameMutation, notFound error, where string, args ...any) (*model.Game, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	game, err := getGame(ctx, tx, where, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}

	if err := fn(game); err != nil {
		return nil, err
	}

	if game.IsActive && game.ActivePlayerID != nil {
		var other string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM games WHERE active_player_id = ? AND is_active = 1 AND id != ?`,
			*game.ActivePlayerID, game.ID,
		).Scan(&other)
		switch {
		case err == nil:
			return nil, model.ErrAlreadyHasActiveGame
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("check active game: %w", err)
		}
	}

	letters, err := encodeLetters(game)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
UPDATE games SET active_player_id = ?, secret_word = ?, letters_attempted = ?,
	remaining_attempts = ?, status = ?, is_active = ?, updated_at = ?
WHERE id = ?
`, activePlayerArg(game), game.SecretWord, letters, game.RemainingAttempts,
		game.Status, game.IsActive, toMillis(game.UpdatedAt), game.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, model.ErrAlreadyHasActiveGame
		}
		return nil, fmt.Errorf("update game: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit game update: %w", err)
	}
	return game, nil
}

// Summary queue operations

func (s *Storage) EnqueueSummary(ctx context.Context, job *model.SummaryJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode summary job: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO summary_jobs (id, deliver_at, payload) VALUES (?, ?, ?)`,
		job.ID, toMillis(job.DeliverAt), string(payload))
	if err != nil {
		return fmt.Errorf("enqueue summary: %w", err)
	}
	return nil
}

func (s *Storage) ClaimDueSummaries(ctx context.Context, now time.Time, limit int) ([]*model.SummaryJob, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, payload FROM summary_jobs WHERE deliver_at <= ? ORDER BY deliver_at LIMIT ?`,
		toMillis(now), limit)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}

	var (
		ids  []any
		jobs = make([]*model.SummaryJob, 0)
	)
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		var job model.SummaryJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decode summary %s: %w", id, err)
		}
		ids = append(ids, id)
		jobs = append(jobs, &job)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return jobs, nil
	}

	query := `DELETE FROM summary_jobs WHERE id IN (?` + strings.Repeat(", ?", len(ids)-1) + `)`
	if _, err := tx.ExecContext(ctx, query, ids...); err != nil {
		return nil, fmt.Errorf("claim summaries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit summary claim: %w", err)
	}
	return jobs, nil
}
