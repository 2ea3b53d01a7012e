package words

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/hangman/internal/dependencies/mocks"
	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	source *mocks.MockWordSource
	ctx    context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.source = mocks.NewMockWordSource()
	s.ctx = context.Background()
}

func (s *ServiceSuite) service(attempts int) *Service {
	return New(s.source, attempts, metrics.New(false), testutil.NopLogger())
}

func (s *ServiceSuite) TestAcceptsFirstValidCandidate() {
	s.source.Queue("Gato")

	word, err := s.service(3).FetchSecretWord(s.ctx)
	s.Require().NoError(err)
	s.Equal("gato", word)
	s.Equal(1, s.source.Calls())
}

func (s *ServiceSuite) TestRetriesInvalidCandidates() {
	s.source.Queue("sol", "murciélago", "canción", "elefantes", "mesa")

	word, err := s.service(5).FetchSecretWord(s.ctx)
	s.Require().NoError(err)
	s.Equal("mesa", word)
	s.Equal(5, s.source.Calls())
}

func (s *ServiceSuite) TestFailsWhenBudgetExhausted() {
	s.source.Queue("sol", "no", "mesa")

	_, err := s.service(2).FetchSecretWord(s.ctx)
	s.ErrorIs(err, model.ErrWordUnavailable)
	s.Equal(2, s.source.Calls())
}

func (s *ServiceSuite) TestSourceErrorsCountAgainstBudget() {
	_, err := s.service(3).FetchSecretWord(s.ctx)
	s.ErrorIs(err, model.ErrWordUnavailable)
	s.Equal(3, s.source.Calls())
}

func (s *ServiceSuite) TestDefaultBudget() {
	_, err := s.service(0).FetchSecretWord(s.ctx)
	s.ErrorIs(err, model.ErrWordUnavailable)
	s.Equal(DefaultFetchAttempts, s.source.Calls())
}

func (s *ServiceSuite) TestCancelledContext() {
	s.source.Queue("gato")
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.service(3).FetchSecretWord(ctx)
	s.ErrorIs(err, context.Canceled)
	s.Equal(0, s.source.Calls())
}

func TestIsValidSecretWord(t *testing.T) {
	cases := map[string]bool{
		"gato":      true,
		"casas":     true,
		"abcdefgh":  true,
		"sol":       false,
		"abcdefghi": false,
		"niño":      false,
		"café":      false,
		"Gato":      false,
		"ga to":     false,
		"":          false,
	}
	for word, want := range cases {
		t.Run(word, func(t *testing.T) {
			if got := IsValidSecretWord(word); got != want {
				t.Errorf("IsValidSecretWord(%q) = %v, want %v", word, got, want)
			}
		})
	}
}

type HTTPSourceSuite struct {
	suite.Suite
}

func TestHTTPSourceSuite(t *testing.T) {
	suite.Run(t, new(HTTPSourceSuite))
}

func (s *HTTPSourceSuite) serve(status int, body string) *HTTPSource {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	s.T().Cleanup(srv.Close)
	return NewHTTPSource(srv.URL, srv.Client())
}

func (s *HTTPSourceSuite) TestJSONArray() {
	word, err := s.serve(http.StatusOK, `["perro"]`).Fetch(context.Background())
	s.Require().NoError(err)
	s.Equal("perro", word)
}

func (s *HTTPSourceSuite) TestQuotedWord() {
	word, err := s.serve(http.StatusOK, `"casa"`).Fetch(context.Background())
	s.Require().NoError(err)
	s.Equal("casa", word)
}

func (s *HTTPSourceSuite) TestBareWord() {
	word, err := s.serve(http.StatusOK, "mesa\n").Fetch(context.Background())
	s.Require().NoError(err)
	s.Equal("mesa", word)
}

func (s *HTTPSourceSuite) TestEmptyArray() {
	word, err := s.serve(http.StatusOK, `[]`).Fetch(context.Background())
	s.Require().NoError(err)
	s.Empty(word)
}

func (s *HTTPSourceSuite) TestProviderError() {
	_, err := s.serve(http.StatusBadGateway, "oops").Fetch(context.Background())
	s.Error(err)
}

func (s *HTTPSourceSuite) TestServiceOverHTTP() {
	svc := New(s.serve(http.StatusOK, `["Luna"]`), 2, metrics.New(false), testutil.NopLogger())
	word, err := svc.FetchSecretWord(context.Background())
	s.Require().NoError(err)
	s.Equal("luna", word)
}

type ListSourceSuite struct {
	suite.Suite
	random *mocks.MockRandom
}

func TestListSourceSuite(t *testing.T) {
	suite.Run(t, new(ListSourceSuite))
}

func (s *ListSourceSuite) SetupTest() {
	s.random = mocks.NewMockRandom()
}

func (s *ListSourceSuite) TestPicksByRandomIndex() {
	src := NewListSource(s.random, []string{"gato", "perro", "casa"})
	s.random.QueueIntn(2, 0)

	first, err := src.Fetch(context.Background())
	s.Require().NoError(err)
	s.Equal("casa", first)

	second, err := src.Fetch(context.Background())
	s.Require().NoError(err)
	s.Equal("gato", second)
}

func (s *ListSourceSuite) TestEmptyList() {
	_, err := NewListSource(s.random, nil).Fetch(context.Background())
	s.ErrorIs(err, ErrEmptyWordList)
}

func (s *ListSourceSuite) TestLoadFromFile() {
	path := filepath.Join(s.T().TempDir(), "words.txt")
	s.Require().NoError(os.WriteFile(path, []byte("# palabras\ngato\n\n  perro  \nmesa\n"), 0o600))

	src := NewListSource(s.random, nil)
	s.Require().NoError(src.LoadFromFile(path))
	s.Equal(3, src.WordCount())

	s.random.QueueIntn(1)
	word, err := src.Fetch(context.Background())
	s.Require().NoError(err)
	s.Equal("perro", word)
}

func (s *ListSourceSuite) TestLoadFromMissingFile() {
	src := NewListSource(s.random, nil)
	s.Error(src.LoadFromFile(filepath.Join(s.T().TempDir(), "missing.txt")))
}
