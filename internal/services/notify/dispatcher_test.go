package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/hangman/internal/dependencies/mocks"
	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/storage"
	"github.com/mcoot/hangman/internal/storage/memory"
	redisstorage "github.com/mcoot/hangman/internal/storage/redis"
	"github.com/mcoot/hangman/internal/testutil"
)

type DispatcherSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	messenger  *mocks.MockMessenger
	dispatcher *Dispatcher
	worker     *Worker
	ctx        context.Context
	user       *model.User
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherSuite))
}

func (s *DispatcherSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.messenger = mocks.NewMockMessenger()
	m := metrics.New(false)
	s.dispatcher = NewDispatcher(s.storage, s.messenger, s.clock, m, testutil.NopLogger(), DispatcherConfig{
		SummaryDelay: time.Minute,
	})
	s.worker = NewWorker(s.storage, s.messenger, s.clock, m, testutil.NopLogger(), WorkerConfig{BatchSize: 2})
	s.ctx = context.Background()
	s.user = &model.User{ID: "u1", Name: "Ana", Phone: "+5215550001"}
}

func (s *DispatcherSuite) wonGame() *model.Game {
	active := s.user.ID
	return &model.Game{
		ID:                "g1",
		OwnerID:           s.user.ID,
		ActivePlayerID:    &active,
		SecretWord:        "gato",
		LettersAttempted:  model.NewLetterSet('a', 't', 'o', 'g'),
		RemainingAttempts: 7,
		Status:            model.GameStatusWon,
	}
}

func (s *DispatcherSuite) TestSummaryIsDelayed() {
	s.dispatcher.NotifySummary(s.ctx, s.wonGame(), s.user)
	s.Equal(1, s.storage.PendingSummaries())

	posted, err := s.worker.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, posted)
	s.Empty(s.messenger.Posts())

	s.clock.Advance(time.Minute)
	posted, err = s.worker.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, posted)

	posts := s.messenger.Posts()
	s.Require().Len(posts, 1)
	s.Contains(posts[0], "Usuario: Ana")
	s.Contains(posts[0], "Estado del juego: Ganada")
	s.Contains(posts[0], "Palabra oculta: gato")
	s.Contains(posts[0], "Letras intentadas: a, t, o, g")
	s.Contains(posts[0], "Progreso final: g a t o")
}

func (s *DispatcherSuite) TestSummaryIsSnapshot() {
	game := s.wonGame()
	s.dispatcher.NotifySummary(s.ctx, game, s.user)

	game.SecretWord = "changed"
	s.clock.Advance(time.Minute)
	_, err := s.worker.RunOnce(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(s.messenger.Posts(), 1)
	s.Contains(s.messenger.Posts()[0], "Palabra oculta: gato")
}

func (s *DispatcherSuite) TestSummaryDeliveredAtMostOnce() {
	s.messenger.Err = errors.New("webhook down")
	s.dispatcher.NotifySummary(s.ctx, s.wonGame(), s.user)
	s.clock.Advance(time.Minute)

	posted, err := s.worker.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, posted)

	s.messenger.Err = nil
	posted, err = s.worker.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, posted)
	s.Equal(0, s.storage.PendingSummaries())
}

func (s *DispatcherSuite) TestWorkerDrainsMultipleBatches() {
	for i := 0; i < 5; i++ {
		s.dispatcher.NotifySummary(s.ctx, s.wonGame(), s.user)
	}
	s.clock.Advance(2 * time.Minute)

	posted, err := s.worker.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(5, posted)
}

func (s *DispatcherSuite) TestNotifyGuessSendsInBackground() {
	game := s.wonGame()
	game.Status = model.GameStatusInProgress
	game.LettersAttempted = model.NewLetterSet('a')

	s.dispatcher.NotifyGuess(s.ctx, s.user, game, OutcomeCorrect)
	s.dispatcher.Wait()

	msg, ok := s.messenger.LastMessage()
	s.Require().True(ok)
	s.Equal("+5215550001", msg.To)
	s.Equal("Letra correcta | Progreso: _ a _ _ | Intentos restantes: 7", msg.Body)
}

// gatedSender holds its first Send until release is closed
type gatedSender struct {
	release chan struct{}
	once    sync.Once
	mu      sync.Mutex
	bodies  []string
}

func (g *gatedSender) Send(_ context.Context, _, body string) error {
	g.once.Do(func() { <-g.release })
	g.mu.Lock()
	defer g.mu.Unlock()
	g.bodies = append(g.bodies, body)
	return nil
}

func (s *DispatcherSuite) TestNotifyGuessKeepsOrder() {
	game := s.wonGame()
	game.Status = model.GameStatusInProgress
	game.LettersAttempted = model.NewLetterSet()

	steps := []struct {
		letter  rune
		outcome string
	}{
		{'g', OutcomeCorrect},
		{'a', OutcomeCorrect},
		{'t', OutcomeCorrect},
		{'o', OutcomeWon},
	}
	for _, step := range steps {
		game.LettersAttempted.Add(step.letter)
		s.dispatcher.NotifyGuess(s.ctx, s.user, game.Clone(), step.outcome)
	}
	s.dispatcher.Wait()

	bodies := make([]string, 0, len(steps))
	for _, msg := range s.messenger.Messages() {
		bodies = append(bodies, msg.Body)
	}
	s.Equal([]string{
		"Letra correcta | Progreso: g _ _ _ | Intentos restantes: 7",
		"Letra correcta | Progreso: g a _ _ | Intentos restantes: 7",
		"Letra correcta | Progreso: g a t _ | Intentos restantes: 7",
		"¡Ganaste! | Progreso: g a t o | Intentos restantes: 7",
	}, bodies)
}

func (s *DispatcherSuite) TestSlowSendDoesNotLetLaterMessagesOvertake() {
	sender := &gatedSender{release: make(chan struct{})}
	d := NewDispatcher(s.storage, sender, s.clock, metrics.New(false), testutil.NopLogger(), DispatcherConfig{})

	d.SendAsync(s.ctx, s.user.Phone, "first")
	d.SendAsync(s.ctx, s.user.Phone, "second")
	d.SendAsync(s.ctx, s.user.Phone, "third")

	time.Sleep(10 * time.Millisecond)
	sender.mu.Lock()
	s.Empty(sender.bodies)
	sender.mu.Unlock()

	close(sender.release)
	d.Wait()

	// The dispatcher keeps working after the outbox drained
	d.SendAsync(s.ctx, s.user.Phone, "fourth")
	d.Wait()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	s.Equal([]string{"first", "second", "third", "fourth"}, sender.bodies)
}

func (s *DispatcherSuite) TestNotifyGuessFailureIsSwallowed() {
	s.messenger.Err = errors.New("provider down")
	s.dispatcher.NotifyGuess(s.ctx, s.user, s.wonGame(), OutcomeWon)
	s.dispatcher.Wait()
	s.Empty(s.messenger.Messages())
}

func (s *DispatcherSuite) TestNotifyGuessSurvivesCancelledRequest() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	s.dispatcher.NotifyGuess(ctx, s.user, s.wonGame(), OutcomeWon)
	s.dispatcher.Wait()
	s.Len(s.messenger.Messages(), 1)
}

func (s *DispatcherSuite) TestSendReturnsError() {
	s.messenger.Err = errors.New("provider down")
	s.Error(s.dispatcher.Send(s.ctx, "+5215550001", "hola"))

	s.messenger.Err = nil
	s.NoError(s.dispatcher.Send(s.ctx, "+5215550001", "hola"))
}

func (s *DispatcherSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- s.worker.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.Fail("worker did not stop")
	}
}

// The redis backend carries the same delayed queue
func TestWorkerWithRedisQueue(t *testing.T) {
	mini := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mini.Addr()})
	var store storage.Storage = redisstorage.NewWithClient(client, redisstorage.DefaultConfig())
	defer client.Close()

	clk := mocks.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	messenger := mocks.NewMockMessenger()
	m := metrics.New(false)
	dispatcher := NewDispatcher(store, messenger, clk, m, testutil.NopLogger(), DispatcherConfig{SummaryDelay: time.Minute})
	worker := NewWorker(store, messenger, clk, m, testutil.NopLogger(), WorkerConfig{})

	user := &model.User{ID: "u1", Name: "Ana"}
	dispatcher.NotifySummary(context.Background(), &model.Game{
		ID: "g1", SecretWord: "sol", Status: model.GameStatusLost, LettersAttempted: model.NewLetterSet('x'),
	}, user)

	clk.Advance(30 * time.Second)
	posted, err := worker.RunOnce(context.Background())
	if err != nil || posted != 0 {
		t.Fatalf("early run: posted=%d err=%v", posted, err)
	}

	clk.Advance(time.Minute)
	posted, err = worker.RunOnce(context.Background())
	if err != nil || posted != 1 {
		t.Fatalf("due run: posted=%d err=%v", posted, err)
	}
	if got := messenger.Posts()[0]; got == "" {
		t.Fatal("empty summary")
	}
}
