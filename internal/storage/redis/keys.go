package redis

import (
	"fmt"

	"github.com/mcoot/hangman/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "hangman"

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// phoneIndexKey returns the Redis key for the phone -> user_id index
func phoneIndexKey(phone string) string {
	return fmt.Sprintf("%s:idx:phone:%s", keyPrefix, phone)
}

// sessionKey returns the Redis key for a Session
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}

// userSessionsKey returns the Redis key for the SET of session tokens of a user
func userSessionsKey(userID model.UserID) string {
	return fmt.Sprintf("%s:idx:user_sessions:%s", keyPrefix, userID)
}

// verificationKey returns the Redis key for a pending verification code
func verificationKey(phone string) string {
	return fmt.Sprintf("%s:verification:%s", keyPrefix, phone)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// gameSequenceKey returns the counter used to order games by creation
func gameSequenceKey() string {
	return fmt.Sprintf("%s:seq:games", keyPrefix)
}

// ownerGamesKey returns the Redis key for the ZSET of games created by a user
func ownerGamesKey(ownerID model.UserID) string {
	return fmt.Sprintf("%s:idx:owner_games:%s", keyPrefix, ownerID)
}

// allGamesKey returns the Redis key for the ZSET of every game
func allGamesKey() string {
	return fmt.Sprintf("%s:idx:games", keyPrefix)
}

// activeGameKey returns the Redis key holding the id of a user's active game
func activeGameKey(userID model.UserID) string {
	return fmt.Sprintf("%s:idx:active_game:%s", keyPrefix, userID)
}

// summaryQueueKey returns the Redis key for the delayed summary ZSET
func summaryQueueKey() string {
	return fmt.Sprintf("%s:queue:summaries", keyPrefix)
}
