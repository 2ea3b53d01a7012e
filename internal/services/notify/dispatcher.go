package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/hangman/internal/dependencies/clock"
	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage"
)

// Defaults for the dispatcher
const (
	DefaultSummaryDelay = time.Minute
	DefaultSendTimeout  = 10 * time.Second
)

// Dispatcher emits game notifications without blocking the caller.
// Summaries go to the delayed queue in storage. Direct messages go to an
// in-memory FIFO drained by a single background goroutine, so a player
// receives them in the order the guesses happened. Failures are logged and
// counted, never returned.
type Dispatcher struct {
	storage     storage.Storage
	sender      Sender
	clock       clock.Clock
	metrics     *metrics.Metrics
	logger      *slog.Logger
	delay       time.Duration
	sendTimeout time.Duration

	mu       sync.Mutex
	outbox   []outbound
	draining bool
	pending  sync.WaitGroup
}

type outbound struct {
	ctx   context.Context
	phone string
	body  string
	attrs []slog.Attr
}

// DispatcherConfig tunes delivery
type DispatcherConfig struct {
	SummaryDelay time.Duration
	SendTimeout  time.Duration
}

// NewDispatcher creates a dispatcher
func NewDispatcher(
	storage storage.Storage,
	sender Sender,
	clock clock.Clock,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg DispatcherConfig,
) *Dispatcher {
	if cfg.SummaryDelay < 0 {
		cfg.SummaryDelay = 0
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	return &Dispatcher{
		storage:     storage,
		sender:      sender,
		clock:       clock,
		metrics:     m,
		logger:      logger,
		delay:       cfg.SummaryDelay,
		sendTimeout: cfg.SendTimeout,
	}
}

// SummaryDelay returns how long after termination a summary is delivered
func (d *Dispatcher) SummaryDelay() time.Duration {
	return d.delay
}

// NotifySummary snapshots a finished game onto the delayed summary queue
func (d *Dispatcher) NotifySummary(ctx context.Context, game *model.Game, user *model.User) {
	now := d.clock.Now()
	job := &model.SummaryJob{
		ID:                uuid.NewString(),
		GameID:            game.ID,
		UserID:            user.ID,
		UserName:          user.Name,
		Status:            game.Status,
		SecretWord:        game.SecretWord,
		LettersAttempted:  game.LettersAttempted.Strings(),
		ProgressMask:      game.SpacedProgressMask(),
		RemainingAttempts: game.RemainingAttempts,
		FinishedAt:        now,
		DeliverAt:         now.Add(d.delay),
	}

	// The summary must survive a client disconnect right after the response
	if err := d.storage.EnqueueSummary(context.WithoutCancel(ctx), job); err != nil {
		d.metrics.Notification(metrics.ChannelSummary, metrics.ResultFailed)
		d.logger.Error("failed to enqueue game summary",
			slog.String("game_id", string(game.ID)),
			slog.String("error", err.Error()),
		)
		return
	}

	d.metrics.SummaryEnqueued()
	d.logger.Debug("game summary enqueued",
		slog.String("game_id", string(game.ID)),
		slog.String("job_id", job.ID),
		slog.Time("deliver_at", job.DeliverAt),
	)
}

// NotifyGuess sends the per-guess direct message in the background
func (d *Dispatcher) NotifyGuess(ctx context.Context, user *model.User, game *model.Game, outcome string) {
	body := GuessMessage(outcome, game.SpacedProgressMask(), game.RemainingAttempts)
	d.SendAsync(ctx, user.Phone, body, slog.String("game_id", string(game.ID)))
}

// SendAsync queues body for phone and returns immediately. Queued messages
// are delivered one at a time in the order they were queued.
func (d *Dispatcher) SendAsync(ctx context.Context, phone, body string, attrs ...slog.Attr) {
	msg := outbound{ctx: context.WithoutCancel(ctx), phone: phone, body: body, attrs: attrs}

	d.pending.Add(1)
	d.mu.Lock()
	d.outbox = append(d.outbox, msg)
	start := !d.draining
	d.draining = true
	d.mu.Unlock()

	if start {
		go d.drain()
	}
}

// drain delivers queued messages until the outbox is empty
func (d *Dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.outbox) == 0 {
			d.draining = false
			d.mu.Unlock()
			return
		}
		msg := d.outbox[0]
		d.outbox[0] = outbound{}
		d.outbox = d.outbox[1:]
		d.mu.Unlock()

		d.deliver(msg)
		d.pending.Done()
	}
}

func (d *Dispatcher) deliver(msg outbound) {
	sendCtx, cancel := context.WithTimeout(msg.ctx, d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, msg.phone, msg.body); err != nil {
		d.metrics.Notification(metrics.ChannelDirect, metrics.ResultFailed)
		args := []any{slog.String("error", err.Error())}
		for _, a := range msg.attrs {
			args = append(args, a)
		}
		d.logger.Warn("direct message failed", args...)
		return
	}
	d.metrics.Notification(metrics.ChannelDirect, metrics.ResultSent)
}

// Send delivers a direct message synchronously and returns its error
func (d *Dispatcher) Send(ctx context.Context, phone, body string) error {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	if err := d.sender.Send(sendCtx, phone, body); err != nil {
		d.metrics.Notification(metrics.ChannelDirect, metrics.ResultFailed)
		return err
	}
	d.metrics.Notification(metrics.ChannelDirect, metrics.ResultSent)
	return nil
}

// Wait blocks until every queued message has been delivered or has failed
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}
