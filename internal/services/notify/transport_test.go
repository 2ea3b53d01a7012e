package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/suite"
	twilioclient "github.com/twilio/twilio-go/client"

	"github.com/mcoot/hangman/internal/testutil"
)

type capturedRequest struct {
	Method      string
	Path        string
	ContentType string
	User        string
	Pass        string
	Body        string
}

type TransportSuite struct {
	suite.Suite
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	reply    string
	server   *httptest.Server
}

func TestTransportSuite(t *testing.T) {
	suite.Run(t, new(TransportSuite))
}

func (s *TransportSuite) SetupTest() {
	s.requests = nil
	s.status = http.StatusCreated
	s.reply = `{"sid":"SM123","status":"queued"}`
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		user, pass, _ := r.BasicAuth()
		s.mu.Lock()
		s.requests = append(s.requests, capturedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			User:        user,
			Pass:        pass,
			Body:        string(body),
		})
		status, reply := s.status, s.reply
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
}

func (s *TransportSuite) TearDownTest() {
	s.server.Close()
}

func (s *TransportSuite) last() capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().NotEmpty(s.requests)
	return s.requests[len(s.requests)-1]
}

func (s *TransportSuite) twilio() *TwilioWhatsApp {
	sender, err := NewTwilioWhatsApp(TwilioConfig{
		BaseURL:        s.server.URL + "/",
		AccountSID:     "AC123",
		AuthToken:      "secret",
		WhatsAppNumber: "+14155238886",
	}, s.server.Client())
	s.Require().NoError(err)
	return sender
}

func (s *TransportSuite) TestTwilioSendsForm() {
	err := s.twilio().Send(context.Background(), "+5215550001", "hola")
	s.Require().NoError(err)

	req := s.last()
	s.Equal(http.MethodPost, req.Method)
	s.Equal("/2010-04-01/Accounts/AC123/Messages.json", req.Path)
	s.Contains(req.ContentType, "application/x-www-form-urlencoded")
	s.Equal("AC123", req.User)
	s.Equal("secret", req.Pass)

	form, err := url.ParseQuery(req.Body)
	s.Require().NoError(err)
	s.Equal("whatsapp:+5215550001", form.Get("To"))
	s.Equal("whatsapp:+14155238886", form.Get("From"))
	s.Equal("hola", form.Get("Body"))
}

func (s *TransportSuite) TestTwilioErrorStatus() {
	s.status = http.StatusUnauthorized
	s.reply = `{"code":20003,"message":"Authenticate","status":401}`
	err := s.twilio().Send(context.Background(), "+5215550001", "hola")
	s.Require().Error(err)

	var restErr *twilioclient.TwilioRestError
	s.Require().True(errors.As(err, &restErr))
	s.Equal(401, restErr.Status)
	s.Equal(20003, restErr.Code)
}

func (s *TransportSuite) TestTwilioCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ErrorIs(s.twilio().Send(ctx, "+5215550001", "hola"), context.Canceled)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Empty(s.requests)
}

func (s *TransportSuite) TestTwilioRejectsBadBaseURL() {
	_, err := NewTwilioWhatsApp(TwilioConfig{BaseURL: "not a url", AccountSID: "AC1"}, nil)
	s.Error(err)
}

func (s *TransportSuite) TestTwilioConfigEnabled() {
	s.False(TwilioConfig{}.Enabled())
	s.True(TwilioConfig{AccountSID: "a", AuthToken: "b", WhatsAppNumber: "c"}.Enabled())
}

func (s *TransportSuite) TestSlackPostsJSON() {
	s.status = http.StatusOK
	hook := NewSlackWebhook(s.server.URL+"/hook", s.server.Client())

	s.Require().NoError(hook.Post(context.Background(), "*Resumen*"))

	req := s.last()
	s.Equal("/hook", req.Path)
	s.Contains(req.ContentType, "application/json")
	var payload map[string]any
	s.Require().NoError(json.Unmarshal([]byte(req.Body), &payload))
	s.Equal("*Resumen*", payload["text"])
}

func (s *TransportSuite) TestSlackErrorStatus() {
	s.status = http.StatusInternalServerError
	hook := NewSlackWebhook(s.server.URL, s.server.Client())
	err := hook.Post(context.Background(), "x")
	s.Require().Error(err)

	var statusErr slack.StatusCodeError
	s.Require().True(errors.As(err, &statusErr))
	s.Equal(http.StatusInternalServerError, statusErr.Code)
}

func (s *TransportSuite) TestLogTransport() {
	logger, buf := testutil.BufferLogger()
	lt := NewLogTransport(logger)

	s.NoError(lt.Send(context.Background(), "+5215550001", "hola"))
	s.NoError(lt.Post(context.Background(), "resumen"))
	s.Contains(buf.String(), "+5215550001")
	s.Contains(buf.String(), "resumen")
}
