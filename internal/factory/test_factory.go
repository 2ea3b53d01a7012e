package factory

import (
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/hangman/internal/dependencies/mocks"
	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/services/auth"
	"github.com/mcoot/hangman/internal/services/notify"
	"github.com/mcoot/hangman/internal/storage/memory"
	"github.com/mcoot/hangman/internal/testutil"
)

// TestAdminCode is the admin registration code accepted by test apps
const TestAdminCode = "270905"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockWords     *mocks.MockWordSource
	MockMessenger *mocks.MockMessenger
	MemoryStorage *memory.Storage
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockWords := mocks.NewMockWordSource()
	messenger := mocks.NewMockMessenger()

	deps := dependencies{
		storage:    store,
		clock:      mockClock,
		random:     mockRandom,
		wordSource: mockWords,
		sender:     messenger,
		poster:     messenger,
		metrics:    metrics.New(false),
		logger:     testutil.NopLogger(),
	}
	cfg := Config{
		WordFetchAttempts: 3,
		Dispatcher:        notify.DispatcherConfig{SummaryDelay: notify.DefaultSummaryDelay},
	}
	authCfg := auth.DefaultConfig()
	authCfg.BcryptCost = bcrypt.MinCost
	authCfg.AdminRegistrationCode = TestAdminCode

	app := newWithDependencies(deps, cfg, authCfg)

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockWords:     mockWords,
		MockMessenger: messenger,
		MemoryStorage: store,
	}
}

var codePattern = regexp.MustCompile(`\b(\d{6})\b`)

// LastCode returns the verification code in the most recent direct message to phone
func (t *TestApp) LastCode(phone string) string {
	t.Dispatcher.Wait()
	msgs := t.MockMessenger.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].To == phone {
			if m := codePattern.FindStringSubmatch(msgs[i].Body); m != nil {
				return m[1]
			}
		}
	}
	return ""
}
