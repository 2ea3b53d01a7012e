package words

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/model"
)

// DefaultFetchAttempts is the retry budget when none is configured
const DefaultFetchAttempts = 5

// secretWordPattern accepts 4 to 8 unaccented lowercase letters
var secretWordPattern = regexp.MustCompile(`^[a-z]{4,8}$`)

// Service picks a valid secret word from a Source
type Service struct {
	source   Source
	attempts int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a word service. attempts <= 0 falls back to DefaultFetchAttempts.
func New(source Source, attempts int, m *metrics.Metrics, logger *slog.Logger) *Service {
	if attempts <= 0 {
		attempts = DefaultFetchAttempts
	}
	return &Service{
		source:   source,
		attempts: attempts,
		metrics:  m,
		logger:   logger,
	}
}

// IsValidSecretWord reports whether word is usable as a secret word as-is
func IsValidSecretWord(word string) bool {
	return secretWordPattern.MatchString(word)
}

// FetchSecretWord asks the source for candidates until one validates.
// Returns model.ErrWordUnavailable once the retry budget is spent.
func (s *Service) FetchSecretWord(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate, err := s.source.Fetch(ctx)
		if err != nil {
			s.metrics.WordFetch("error")
			s.logger.Warn("word source failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			continue
		}

		word := strings.ToLower(strings.TrimSpace(candidate))
		if !IsValidSecretWord(word) {
			s.metrics.WordFetch("rejected")
			s.logger.Debug("word candidate rejected",
				slog.Int("attempt", attempt),
				slog.String("candidate", candidate),
			)
			continue
		}

		s.metrics.WordFetch("accepted")
		return word, nil
	}

	s.logger.Error("no valid word within retry budget", slog.Int("attempts", s.attempts))
	return "", model.ErrWordUnavailable
}
