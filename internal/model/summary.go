package model

import "time"

// SummaryJob is a snapshot of a finished game waiting to be posted to the chat webhook.
// It carries everything the summary needs so delivery never reads the game again.
type SummaryJob struct {
	ID                string
	GameID            GameID
	UserID            UserID
	UserName          string
	Status            GameStatus
	SecretWord        string
	LettersAttempted  []string
	ProgressMask      string
	RemainingAttempts int
	FinishedAt        time.Time
	DeliverAt         time.Time
}
