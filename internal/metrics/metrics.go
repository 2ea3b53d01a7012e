// Package metrics exposes Prometheus counters for game and notification activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/hangman/internal/model"
)

// Notification results
const (
	ResultSent   = "sent"
	ResultFailed = "failed"
)

// Notification channels
const (
	ChannelDirect  = "direct"
	ChannelSummary = "summary"
)

// Metrics holds the application counters, registered on a private registry
type Metrics struct {
	registry *prometheus.Registry

	gamesCreated   prometheus.Counter
	gamesJoined    prometheus.Counter
	gamesFinished  *prometheus.CounterVec
	guesses        *prometheus.CounterVec
	wordFetches    *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	accessRevoked  prometheus.Counter
	summariesQueue prometheus.Counter
	httpDuration   *prometheus.HistogramVec
	httpPanics     prometheus.Counter
}

// New creates the counters. Runtime collectors are added when withRuntime is set.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		gamesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "hangman_games_created_total",
			Help: "Total number of games created.",
		}),
		gamesJoined: factory.NewCounter(prometheus.CounterOpts{
			Name: "hangman_games_joined_total",
			Help: "Total number of games moved to in_progress.",
		}),
		gamesFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hangman_games_finished_total",
			Help: "Total number of games reaching a terminal status.",
		}, []string{"status"}),
		guesses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hangman_guesses_total",
			Help: "Total number of accepted guesses by outcome.",
		}, []string{"outcome"}),
		wordFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hangman_word_fetches_total",
			Help: "Candidate words fetched from the word source by result.",
		}, []string{"result"}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hangman_notifications_total",
			Help: "Outbound notifications by channel and result.",
		}, []string{"channel", "result"}),
		accessRevoked: factory.NewCounter(prometheus.CounterOpts{
			Name: "hangman_access_revocations_total",
			Help: "Requests rejected because the account is inactive.",
		}),
		summariesQueue: factory.NewCounter(prometheus.CounterOpts{
			Name: "hangman_summaries_enqueued_total",
			Help: "Game summaries placed on the delayed queue.",
		}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hangman_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		httpPanics: factory.NewCounter(prometheus.CounterOpts{
			Name: "hangman_http_panics_total",
			Help: "Handler panics recovered by the API.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) GameCreated() {
	m.gamesCreated.Inc()
}

func (m *Metrics) GameJoined() {
	m.gamesJoined.Inc()
}

func (m *Metrics) GameFinished(status model.GameStatus) {
	m.gamesFinished.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) Guess(outcome string) {
	m.guesses.WithLabelValues(outcome).Inc()
}

// WordFetch records one candidate fetch; result is "accepted", "rejected" or "error"
func (m *Metrics) WordFetch(result string) {
	m.wordFetches.WithLabelValues(result).Inc()
}

func (m *Metrics) Notification(channel, result string) {
	m.notifications.WithLabelValues(channel, result).Inc()
}

func (m *Metrics) AccessRevoked() {
	m.accessRevoked.Inc()
}

func (m *Metrics) SummaryEnqueued() {
	m.summariesQueue.Inc()
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(route, method string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) PanicRecovered() {
	m.httpPanics.Inc()
}
