package response

import (
	"time"

	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/services/admin"
)

// User represents a user in API responses. The password hash never leaves the server.
type User struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Phone              string    `json:"phone"`
	Role               string    `json:"role"`
	IsActive           bool      `json:"is_active"`
	DeactivationReason *string   `json:"deactivation_reason"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UserFromModel converts a model.User
func UserFromModel(u *model.User) User {
	var reason *string
	if u.DeactivationReason != model.DeactivationNone {
		r := string(u.DeactivationReason)
		reason = &r
	}
	return User{
		ID:                 string(u.ID),
		Name:               u.Name,
		Phone:              u.Phone,
		Role:               string(u.Role),
		IsActive:           u.IsActive,
		DeactivationReason: reason,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}

// Message is the body of account and admin endpoints
type Message struct {
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

// Verified is the body of POST /verify
type Verified struct {
	Message  string `json:"message"`
	Verified bool   `json:"verified"`
}

// Login is the body of POST /login
type Login struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// CreatedGame describes a freshly created game without revealing the word
type CreatedGame struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	WordLength        int    `json:"word_length"`
	RemainingAttempts int    `json:"intentos_restantes"`
}

// CreateGame is the body of POST /game/create
type CreateGame struct {
	Message string      `json:"mensaje"`
	Game    CreatedGame `json:"partida"`
}

// CreateGameFromModel builds the create response
func CreateGameFromModel(g *model.Game) CreateGame {
	return CreateGame{
		Message: "Partida creada correctamente.",
		Game: CreatedGame{
			ID:                string(g.ID),
			Status:            string(g.Status),
			WordLength:        g.WordLength(),
			RemainingAttempts: g.RemainingAttempts,
		},
	}
}

// AvailableGame is a pending game as listed to its owner
type AvailableGame struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	WordLength        int       `json:"word_length"`
	RemainingAttempts int       `json:"intentos_restantes"`
	CreatedAt         time.Time `json:"creado_en"`
}

// AvailableGames is the body of GET /game/available
type AvailableGames struct {
	Games []AvailableGame `json:"partidas_disponibles"`
}

// AvailableGamesFromModel hides the secret word of every game
func AvailableGamesFromModel(games []*model.Game) AvailableGames {
	out := make([]AvailableGame, len(games))
	for i, g := range games {
		out[i] = AvailableGame{
			ID:                string(g.ID),
			Status:            string(g.Status),
			WordLength:        g.WordLength(),
			RemainingAttempts: g.RemainingAttempts,
			CreatedAt:         g.CreatedAt,
		}
	}
	return AvailableGames{Games: out}
}

// JoinedGame describes the game a player just joined
type JoinedGame struct {
	ID                string `json:"id"`
	WordLength        int    `json:"word_length"`
	RemainingAttempts int    `json:"intentos_restantes"`
	Progress          string `json:"progreso"`
}

// JoinGame is the body of POST /game/join
type JoinGame struct {
	Message string     `json:"mensaje"`
	Game    JoinedGame `json:"partida"`
}

// JoinGameFromModel builds the join response
func JoinGameFromModel(g *model.Game) JoinGame {
	return JoinGame{
		Message: "Te has unido correctamente a la partida.",
		Game: JoinedGame{
			ID:                string(g.ID),
			WordLength:        g.WordLength(),
			RemainingAttempts: g.RemainingAttempts,
			Progress:          g.SpacedProgressMask(),
		},
	}
}

// Guess is the body of POST /game/guess
type Guess struct {
	Message           string  `json:"mensaje"`
	Progress          string  `json:"progreso"`
	RemainingAttempts int     `json:"intentos_restantes"`
	Word              *string `json:"palabra,omitempty"`
}

// Progress is the in-play view of the current game
type Progress struct {
	ID                string   `json:"id"`
	Status            string   `json:"status"`
	Progress          string   `json:"progreso"`
	RemainingAttempts int      `json:"intentos_restantes"`
	LettersAttempted  []string `json:"letras_intentadas"`
}

// CurrentGame is the body of GET /game/current
type CurrentGame struct {
	Game Progress `json:"partida_actual"`
}

// CurrentGameFromModel builds the current-game response. The word stays hidden.
func CurrentGameFromModel(g *model.Game) CurrentGame {
	return CurrentGame{Game: Progress{
		ID:                string(g.ID),
		Status:            string(g.Status),
		Progress:          g.SpacedProgressMask(),
		RemainingAttempts: g.RemainingAttempts,
		LettersAttempted:  g.LettersAttempted.Strings(),
	}}
}

// FinishedGame is a game record once it can no longer be played
type FinishedGame struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	Word              string    `json:"palabra"`
	Progress          string    `json:"progreso"`
	RemainingAttempts int       `json:"intentos_restantes"`
	LettersAttempted  []string  `json:"letras_intentadas"`
	CreatedAt         time.Time `json:"creado_en"`
	UpdatedAt         time.Time `json:"actualizado_en"`
}

// FinishedGameFromModel converts a terminal game
func FinishedGameFromModel(g *model.Game) FinishedGame {
	return FinishedGame{
		ID:                string(g.ID),
		Status:            string(g.Status),
		Word:              g.SecretWord,
		Progress:          g.SpacedProgressMask(),
		RemainingAttempts: g.RemainingAttempts,
		LettersAttempted:  g.LettersAttempted.Strings(),
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

// History is the body of GET /game/history
type History struct {
	Games []FinishedGame `json:"historial"`
}

// HistoryFromModel converts the player's finished games
func HistoryFromModel(games []*model.Game) History {
	out := make([]FinishedGame, len(games))
	for i, g := range games {
		out[i] = FinishedGameFromModel(g)
	}
	return History{Games: out}
}

// GameMessage is a plain game endpoint message
type GameMessage struct {
	Message string `json:"mensaje"`
}

// AdminGame is a game with its owner, as listed to administrators
type AdminGame struct {
	ID                string    `json:"id"`
	Status            string    `json:"status"`
	Word              string    `json:"word"`
	Progress          string    `json:"progreso"`
	RemainingAttempts int       `json:"intentos_restantes"`
	LettersAttempted  []string  `json:"letters_attempted"`
	IsActive          bool      `json:"is_active"`
	ActivePlayerID    *string   `json:"active_player_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	User              User      `json:"user"`
}

// AdminGames is the body of GET /admin/games
type AdminGames struct {
	Games []AdminGame `json:"games"`
}

// AdminGamesFromModel converts the admin listing
func AdminGamesFromModel(games []admin.GameWithOwner) AdminGames {
	out := make([]AdminGame, len(games))
	for i, gw := range games {
		g := gw.Game
		var active *string
		if g.ActivePlayerID != nil {
			id := string(*g.ActivePlayerID)
			active = &id
		}
		out[i] = AdminGame{
			ID:                string(g.ID),
			Status:            string(g.Status),
			Word:              g.SecretWord,
			Progress:          g.SpacedProgressMask(),
			RemainingAttempts: g.RemainingAttempts,
			LettersAttempted:  g.LettersAttempted.Strings(),
			IsActive:          g.IsActive,
			ActivePlayerID:    active,
			CreatedAt:         g.CreatedAt,
			UpdatedAt:         g.UpdatedAt,
			User:              UserFromModel(gw.Owner),
		}
	}
	return AdminGames{Games: out}
}
