package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error to stderr. API errors keep their code and details in json mode.
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		body := map[string]any{"message": err.Error()}
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			body["message"] = apiErr.Message
			body["code"] = apiErr.Code
			body["status"] = apiErr.Status
			if len(apiErr.Details) > 0 {
				body["details"] = apiErr.Details
			}
		}
		data, _ := json.Marshal(map[string]any{"error": body})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case MessageResult:
		o.printMessageResult(v)
	case LoginResult:
		o.printLoginResult(v)
	case CreateGameResult:
		o.printCreateGameResult(v)
	case AvailableGamesResult:
		o.printAvailableGames(v)
	case JoinGameResult:
		o.printJoinGameResult(v)
	case GuessResult:
		o.printGuessResult(v)
	case CurrentGameResult:
		o.printCurrentGame(v)
	case HistoryResult:
		o.printHistory(v)
	case AdminGamesResult:
		o.printAdminGames(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Phone              string  `json:"phone"`
	Role               string  `json:"role"`
	IsActive           bool    `json:"is_active"`
	DeactivationReason *string `json:"deactivation_reason"`
}

// MessageResult is a plain account or admin message, optionally with a user
type MessageResult struct {
	Message  string `json:"message"`
	Verified *bool  `json:"verified,omitempty"`
	User     *User  `json:"user,omitempty"`
}

// LoginResult combines user and token
type LoginResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// GameMessage is a plain game message
type GameMessage struct {
	Message string `json:"mensaje"`
}

// CreatedGame response type
type CreatedGame struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	WordLength        int    `json:"word_length"`
	RemainingAttempts int    `json:"intentos_restantes"`
}

// CreateGameResult response type
type CreateGameResult struct {
	Message string      `json:"mensaje"`
	Game    CreatedGame `json:"partida"`
}

// AvailableGamesResult response type
type AvailableGamesResult struct {
	Games []CreatedGame `json:"partidas_disponibles"`
}

// JoinedGame response type
type JoinedGame struct {
	ID                string `json:"id"`
	WordLength        int    `json:"word_length"`
	RemainingAttempts int    `json:"intentos_restantes"`
	Progress          string `json:"progreso"`
}

// JoinGameResult response type
type JoinGameResult struct {
	Message string     `json:"mensaje"`
	Game    JoinedGame `json:"partida"`
}

// GuessResult response type
type GuessResult struct {
	Message           string  `json:"mensaje"`
	Progress          string  `json:"progreso"`
	RemainingAttempts int     `json:"intentos_restantes"`
	Word              *string `json:"palabra,omitempty"`
}

// Progress response type
type Progress struct {
	ID                string   `json:"id"`
	Status            string   `json:"status"`
	Progress          string   `json:"progreso"`
	RemainingAttempts int      `json:"intentos_restantes"`
	LettersAttempted  []string `json:"letras_intentadas"`
}

// CurrentGameResult response type
type CurrentGameResult struct {
	Game Progress `json:"partida_actual"`
}

// FinishedGame response type
type FinishedGame struct {
	ID                string   `json:"id"`
	Status            string   `json:"status"`
	Word              string   `json:"palabra"`
	Progress          string   `json:"progreso"`
	RemainingAttempts int      `json:"intentos_restantes"`
	LettersAttempted  []string `json:"letras_intentadas"`
}

// HistoryResult response type
type HistoryResult struct {
	Games []FinishedGame `json:"historial"`
}

// AdminGame response type
type AdminGame struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Word              string `json:"word"`
	Progress          string `json:"progreso"`
	RemainingAttempts int    `json:"intentos_restantes"`
	User              User   `json:"user"`
}

// AdminGamesResult response type
type AdminGamesResult struct {
	Games []AdminGame `json:"games"`
}

// HealthResult is the /health body plus what the CLI measured
type HealthResult struct {
	Status    string `json:"status"`
	Server    string `json:"server,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

func (o *Output) printUser(u User) {
	fmt.Printf("User: %s (%s)\n", u.Name, u.ID)
	fmt.Printf("Phone: %s\n", u.Phone)
	fmt.Printf("Role: %s\n", u.Role)
	if u.IsActive {
		fmt.Println("Active: yes")
	} else if u.DeactivationReason != nil {
		fmt.Printf("Active: no (%s)\n", *u.DeactivationReason)
	} else {
		fmt.Println("Active: no")
	}
}

func (o *Output) printMessageResult(m MessageResult) {
	fmt.Println(m.Message)
	if m.User != nil {
		o.printUser(*m.User)
	}
}

func (o *Output) printLoginResult(l LoginResult) {
	fmt.Println(l.Message)
	o.printUser(l.User)
	fmt.Printf("Token: %s\n", l.Token)
}

func (o *Output) printCreateGameResult(c CreateGameResult) {
	fmt.Println(c.Message)
	fmt.Printf("Game: %s\n", c.Game.ID)
	fmt.Printf("Letters: %d\n", c.Game.WordLength)
	fmt.Printf("Attempts: %d\n", c.Game.RemainingAttempts)
}

func (o *Output) printAvailableGames(a AvailableGamesResult) {
	fmt.Printf("Available games (%d):\n", len(a.Games))
	for _, g := range a.Games {
		fmt.Printf("  - %s: %d letters, %d attempts\n", g.ID, g.WordLength, g.RemainingAttempts)
	}
}

func (o *Output) printJoinGameResult(j JoinGameResult) {
	fmt.Println(j.Message)
	fmt.Printf("Game: %s\n", j.Game.ID)
	fmt.Printf("Progress: %s\n", j.Game.Progress)
	fmt.Printf("Attempts: %d\n", j.Game.RemainingAttempts)
}

func (o *Output) printGuessResult(g GuessResult) {
	fmt.Println(g.Message)
	fmt.Printf("Progress: %s\n", g.Progress)
	fmt.Printf("Attempts: %d\n", g.RemainingAttempts)
	if g.Word != nil {
		fmt.Printf("Word: %s\n", *g.Word)
	}
}

func (o *Output) printCurrentGame(c CurrentGameResult) {
	fmt.Printf("Game: %s\n", c.Game.ID)
	fmt.Printf("Progress: %s\n", c.Game.Progress)
	fmt.Printf("Attempts: %d\n", c.Game.RemainingAttempts)
	if len(c.Game.LettersAttempted) > 0 {
		fmt.Printf("Tried: %s\n", strings.Join(c.Game.LettersAttempted, ", "))
	}
}

func (o *Output) printHistory(h HistoryResult) {
	fmt.Printf("Finished games (%d):\n", len(h.Games))
	for _, g := range h.Games {
		fmt.Printf("  - %s: %s (%s), %d attempts left\n", g.ID, g.Word, g.Status, g.RemainingAttempts)
	}
}

func (o *Output) printAdminGames(a AdminGamesResult) {
	fmt.Printf("Games (%d):\n", len(a.Games))
	for _, g := range a.Games {
		fmt.Printf("  - %s [%s] %s %s by %s (%s)\n", g.ID, g.Status, g.Word, g.Progress, g.User.Name, g.User.Phone)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Server: %s\n", h.Server)
	fmt.Printf("Status: %s (%dms)\n", h.Status, h.LatencyMS)
}
