package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mcoot/hangman/internal/api/apierr"
	"github.com/mcoot/hangman/internal/api/middleware"
	"github.com/mcoot/hangman/internal/api/request"
	"github.com/mcoot/hangman/internal/api/response"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/services/game"
)

// GameHandler handles game-related endpoints
type GameHandler struct {
	gameController *game.Controller
	logger         *slog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController *game.Controller, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		gameController: gameController,
		logger:         logger,
	}
}

// Create handles POST /game/create
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	g, err := h.gameController.CreateGame(r.Context(), user)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.Created(w, response.CreateGameFromModel(g))
}

// Available handles GET /game/available
func (h *GameHandler) Available(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	games, err := h.gameController.ListAvailableGames(r.Context(), user)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.AvailableGamesFromModel(games))
}

// Join handles POST /game/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.JoinRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.JoinGame(r.Context(), user, model.GameID(req.GameID))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.JoinGameFromModel(g))
}

// Guess handles POST /game/guess
func (h *GameHandler) Guess(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	var req request.GuessRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	result, err := h.gameController.GuessLetter(r.Context(), user, req.Letter)
	if err != nil {
		WriteError(w, err)
		return
	}

	body := response.Guess{
		Message:           guessReply(result.Outcome),
		Progress:          result.Game.SpacedProgressMask(),
		RemainingAttempts: result.Game.RemainingAttempts,
	}
	if result.Finished() {
		word := result.Game.SecretWord
		body.Word = &word
	}
	response.OK(w, body)
}

func guessReply(o game.Outcome) string {
	switch o {
	case game.OutcomeCorrect:
		return "Letra correcta."
	case game.OutcomeIncorrect:
		return "Letra incorrecta."
	case game.OutcomeWon:
		return "¡Ganaste!"
	}
	return "Has perdido."
}

// Abandon handles POST /game/abandon
func (h *GameHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	_, err := h.gameController.AbandonGame(r.Context(), user)
	if errors.Is(err, model.ErrNoActiveGame) {
		WriteError(w, apierr.New(http.StatusNotFound, apierr.CodeNoActiveGame,
			"No tienes ninguna partida activa la cual abandonar."))
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.GameMessage{Message: "Has abandonado la partida."})
}

// Current handles GET /game/current
func (h *GameHandler) Current(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	g, err := h.gameController.GetCurrentGame(r.Context(), user)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.CurrentGameFromModel(g))
}

// History handles GET /game/history
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())

	games, err := h.gameController.GetHistory(r.Context(), user)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.HistoryFromModel(games))
}
