package model

import (
	"strings"
	"time"
	"unicode/utf8"
)

// GameID uniquely identifies a game
type GameID string

// GameStatus represents the lifecycle phase of a game
type GameStatus string

const (
	GameStatusPending    GameStatus = "pending"     // Created, waiting for the owner to join
	GameStatusInProgress GameStatus = "in_progress" // Being played
	GameStatusWon        GameStatus = "won"
	GameStatusLost       GameStatus = "lost"
	GameStatusAbandoned  GameStatus = "abandoned"
)

// MaskPlaceholder replaces letters that have not been attempted yet
const MaskPlaceholder = '_'

// Secret word constraints
const (
	MinWordLength = 4
	MaxWordLength = 8
)

// DefaultMaxAttempts is the default number of incorrect guesses allowed per game
const DefaultMaxAttempts = 7

// IsTerminal returns true for statuses that end a game
func (s GameStatus) IsTerminal() bool {
	switch s {
	case GameStatusWon, GameStatusLost, GameStatusAbandoned:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s GameStatus) CanTransitionTo(next GameStatus) bool {
	switch s {
	case GameStatusPending:
		return next == GameStatusInProgress
	case GameStatusInProgress:
		return next.IsTerminal()
	}
	return false
}

// TerminalStatuses lists every status that ends a game
func TerminalStatuses() []GameStatus {
	return []GameStatus{GameStatusWon, GameStatusLost, GameStatusAbandoned}
}

// Game is one attempt at guessing one secret word
type Game struct {
	ID                GameID
	OwnerID           UserID
	ActivePlayerID    *UserID
	SecretWord        string
	LettersAttempted  LetterSet
	RemainingAttempts int
	Status            GameStatus
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Transition moves the game to next and keeps IsActive in step with the status
func (g *Game) Transition(next GameStatus, now time.Time) error {
	if !g.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	g.Status = next
	g.IsActive = next == GameStatusInProgress
	g.UpdatedAt = now
	return nil
}

// WordLength returns the number of letters in the secret word
func (g *Game) WordLength() int {
	return utf8.RuneCountInString(g.SecretWord)
}

// ProgressMask returns the secret word with unattempted letters replaced by the placeholder.
// It is always derived from SecretWord and LettersAttempted.
func (g *Game) ProgressMask() string {
	var b strings.Builder
	for _, r := range g.SecretWord {
		if g.LettersAttempted.Contains(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(MaskPlaceholder)
		}
	}
	return b.String()
}

// SpacedProgressMask renders the mask with a space between positions ("_ a _ _")
func (g *Game) SpacedProgressMask() string {
	mask := []rune(g.ProgressMask())
	parts := make([]string, len(mask))
	for i, r := range mask {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}

// IsWordComplete returns true once every distinct letter of the word was attempted
func (g *Game) IsWordComplete() bool {
	return g.ProgressMask() == g.SecretWord
}

// ContainsLetter reports whether letter occurs in the secret word
func (g *Game) ContainsLetter(letter rune) bool {
	return strings.ContainsRune(g.SecretWord, letter)
}

// Clone returns a deep copy safe to mutate independently
func (g *Game) Clone() *Game {
	c := *g
	c.LettersAttempted = g.LettersAttempted.Clone()
	if g.ActivePlayerID != nil {
		id := *g.ActivePlayerID
		c.ActivePlayerID = &id
	}
	return &c
}
