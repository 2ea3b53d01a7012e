package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound            = errors.New("user not found")
	ErrPhoneTaken              = errors.New("phone is already registered")
	ErrAccountDisabledByAdmin  = errors.New("account disabled by an administrator")
	ErrAccountInactive         = errors.New("account is inactive")
	ErrAlreadyActive           = errors.New("user is already active")
	ErrAlreadyInactive         = errors.New("user is already inactive")
	ErrAlreadyAdmin            = errors.New("user is already an administrator")
	ErrCannotPromoteInactive   = errors.New("inactive users cannot be promoted")
	ErrNotAdmin                = errors.New("user is not an administrator")
	ErrInvalidVerificationCode = errors.New("invalid or expired verification code")
	ErrInvalidAdminCode        = errors.New("invalid administrator registration code")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")

	// Game errors
	ErrGameNotFound         = errors.New("game not found")
	ErrNoActiveGame         = errors.New("no active game")
	ErrNoAvailableGames     = errors.New("no games available to join")
	ErrAlreadyHasActiveGame = errors.New("user already has an active game")
	ErrNotJoinable          = errors.New("game cannot be joined")
	ErrAlreadyAttempted     = errors.New("letter already attempted")
	ErrInvalidLetter        = errors.New("invalid letter")
	ErrWordUnavailable      = errors.New("no valid secret word available")
	ErrInvalidTransition    = errors.New("invalid game status transition")
	ErrConcurrentUpdate     = errors.New("game was modified concurrently")
)

// ActiveGameError is returned when a player who already holds an active
// game tries to start another. It matches ErrAlreadyHasActiveGame.
type ActiveGameError struct {
	Game *Game
}

func (e *ActiveGameError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAlreadyHasActiveGame, e.Game.ID)
}

func (e *ActiveGameError) Unwrap() error {
	return ErrAlreadyHasActiveGame
}

// ValidationError reports malformed input per field
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a field failure
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
}

// OrNil returns nil when no field failed, so callers can `return v.OrNil()`
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
