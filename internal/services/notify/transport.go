package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers a direct message to a phone number
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// Poster publishes a message to the team chat channel
type Poster interface {
	Post(ctx context.Context, text string) error
}

func defaultClient(client *http.Client) *http.Client {
	if client == nil {
		return &http.Client{Timeout: 10 * time.Second}
	}
	return client
}

// TwilioConfig holds the messaging provider credentials
type TwilioConfig struct {
	// BaseURL replaces the scheme and host of every Twilio API call when set
	BaseURL        string
	AccountSID     string
	AuthToken      string
	WhatsAppNumber string
}

// Enabled reports whether credentials are present
func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.WhatsAppNumber != ""
}

// TwilioWhatsApp sends WhatsApp messages through the Twilio Messages API
type TwilioWhatsApp struct {
	from   string
	client *twilio.RestClient
}

// NewTwilioWhatsApp creates a sender on the Twilio SDK
func NewTwilioWhatsApp(cfg TwilioConfig, httpClient *http.Client) (*TwilioWhatsApp, error) {
	httpClient = defaultClient(httpClient)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
		if err != nil || base.Host == "" {
			return nil, fmt.Errorf("invalid twilio base url %q", cfg.BaseURL)
		}
		rewritten := *httpClient
		rewritten.Transport = &hostRewriter{base: base, next: httpClient.Transport}
		httpClient = &rewritten
	}

	base := &twilioclient.Client{
		Credentials: twilioclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
		HTTPClient:  httpClient,
	}
	base.SetAccountSid(cfg.AccountSID)

	return &TwilioWhatsApp{
		from:   "whatsapp:" + cfg.WhatsAppNumber,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{Client: base}),
	}, nil
}

// Send posts one message. The SDK call takes no context, so ctx is only
// checked up front and the HTTP client timeout bounds the request.
func (t *TwilioWhatsApp) Send(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo("whatsapp:" + to)
	params.SetFrom(t.from)
	params.SetBody(body)

	if _, err := t.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}

// hostRewriter sends every request to base instead of the SDK's fixed host
type hostRewriter struct {
	base *url.URL
	next http.RoundTripper
}

func (h *hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = h.base.Scheme
	out.URL.Host = h.base.Host
	out.Host = h.base.Host

	next := h.next
	if next == nil {
		next = http.DefaultTransport
	}
	return next.RoundTrip(out)
}

// SlackWebhook posts to a Slack incoming webhook
type SlackWebhook struct {
	url    string
	client *http.Client
}

// NewSlackWebhook creates a poster for the webhook url
func NewSlackWebhook(webhookURL string, client *http.Client) *SlackWebhook {
	return &SlackWebhook{url: webhookURL, client: defaultClient(client)}
}

func (s *SlackWebhook) Post(ctx context.Context, text string) error {
	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.url, s.client, msg); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// LogTransport stands in for unconfigured providers by logging each message
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport creates a transport that only logs
func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (l *LogTransport) Send(ctx context.Context, to, body string) error {
	l.logger.Info("direct message (no provider configured)",
		slog.String("to", to),
		slog.String("body", body),
	)
	return nil
}

func (l *LogTransport) Post(ctx context.Context, text string) error {
	l.logger.Info("chat post (no webhook configured)", slog.String("text", text))
	return nil
}
