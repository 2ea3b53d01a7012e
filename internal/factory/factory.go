package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/hangman/internal/api"
	"github.com/mcoot/hangman/internal/dependencies/clock"
	"github.com/mcoot/hangman/internal/dependencies/random"
	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/services/access"
	"github.com/mcoot/hangman/internal/services/admin"
	"github.com/mcoot/hangman/internal/services/auth"
	"github.com/mcoot/hangman/internal/services/game"
	"github.com/mcoot/hangman/internal/services/notify"
	"github.com/mcoot/hangman/internal/services/words"
	"github.com/mcoot/hangman/internal/storage"
	"github.com/mcoot/hangman/internal/storage/memory"
	redisstorage "github.com/mcoot/hangman/internal/storage/redis"
	"github.com/mcoot/hangman/internal/storage/sqlite"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	Logger  *slog.Logger
	Metrics *metrics.Metrics

	// Services
	WordService    *words.Service
	Dispatcher     *notify.Dispatcher
	SummaryWorker  *notify.Worker
	AccessGuard    *access.Guard
	AuthService    *auth.Service
	AdminService   *admin.Service
	GameController *game.Controller
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string

	// WordProviderURL is the remote random word endpoint.
	// WordListPath, when set, takes precedence and serves words from a local file.
	WordProviderURL   string
	WordListPath      string
	WordFetchAttempts int

	// MaxAttempts is the incorrect-guess budget of every new game
	MaxAttempts int

	// Twilio settings. Direct messages are only logged when unset.
	Twilio notify.TwilioConfig
	// SlackWebhookURL receives game summaries. Summaries are only logged when unset.
	SlackWebhookURL string

	Dispatcher notify.DispatcherConfig
	Worker     notify.WorkerConfig

	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config

	// RuntimeMetrics adds Go runtime and process collectors to /metrics
	RuntimeMetrics bool
}

// dependencies are the swappable edges of the application
type dependencies struct {
	storage    storage.Storage
	clock      clock.Clock
	random     random.Random
	wordSource words.Source
	sender     notify.Sender
	poster     notify.Poster
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()
	httpClient := &http.Client{Timeout: 10 * time.Second}

	var source words.Source
	switch {
	case cfg.WordListPath != "":
		list := words.NewListSource(rnd, nil)
		if err := list.LoadFromFile(cfg.WordListPath); err != nil {
			return nil, err
		}
		logger.Info("using local word list",
			slog.String("path", cfg.WordListPath),
			slog.Int("words", list.WordCount()),
		)
		source = list
	case cfg.WordProviderURL != "":
		source = words.NewHTTPSource(cfg.WordProviderURL, httpClient)
	default:
		return nil, errors.New("WordProviderURL or WordListPath is required")
	}

	logTransport := notify.NewLogTransport(logger)
	var sender notify.Sender = logTransport
	if cfg.Twilio.Enabled() {
		twilioSender, err := notify.NewTwilioWhatsApp(cfg.Twilio, httpClient)
		if err != nil {
			return nil, err
		}
		sender = twilioSender
	}
	var poster notify.Poster = logTransport
	if cfg.SlackWebhookURL != "" {
		poster = notify.NewSlackWebhook(cfg.SlackWebhookURL, httpClient)
	}

	// Use default auth config if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	deps := dependencies{
		storage:    store,
		clock:      clk,
		random:     rnd,
		wordSource: source,
		sender:     sender,
		poster:     poster,
		metrics:    metrics.New(cfg.RuntimeMetrics),
		logger:     logger,
	}
	return newWithDependencies(deps, cfg, authCfg), nil
}

func newStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		return sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies, cfg Config, authCfg auth.Config) *App {
	wordService := words.New(deps.wordSource, cfg.WordFetchAttempts, deps.metrics, deps.logger)
	dispatcher := notify.NewDispatcher(deps.storage, deps.sender, deps.clock, deps.metrics, deps.logger, cfg.Dispatcher)
	worker := notify.NewWorker(deps.storage, deps.poster, deps.clock, deps.metrics, deps.logger, cfg.Worker)
	guard := access.New(deps.storage, deps.metrics, deps.logger)
	authService := auth.New(deps.storage, dispatcher, deps.clock, deps.random, deps.logger, authCfg)
	adminService := admin.New(deps.storage, deps.clock, deps.logger)
	gameController := game.NewController(
		deps.storage,
		wordService,
		dispatcher,
		deps.clock,
		deps.metrics,
		deps.logger,
		game.Config{MaxAttempts: cfg.MaxAttempts},
	)

	return &App{
		Storage:        deps.storage,
		Clock:          deps.clock,
		Random:         deps.random,
		Logger:         deps.logger,
		Metrics:        deps.metrics,
		WordService:    wordService,
		Dispatcher:     dispatcher,
		SummaryWorker:  worker,
		AccessGuard:    guard,
		AuthService:    authService,
		AdminService:   adminService,
		GameController: gameController,
	}
}

// Router builds the HTTP API for the app
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:         a.Logger,
		Metrics:        a.Metrics,
		AuthService:    a.AuthService,
		AccessGuard:    a.AccessGuard,
		GameController: a.GameController,
		AdminService:   a.AdminService,
	})
}

// Close waits for in-flight notifications and releases the storage backend
func (a *App) Close() error {
	a.Dispatcher.Wait()
	if c, ok := a.Storage.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
