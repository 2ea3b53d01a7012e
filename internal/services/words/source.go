package words

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/hangman/internal/dependencies/random"
)

// ErrEmptyWordList is returned by a ListSource with nothing loaded
var ErrEmptyWordList = errors.New("word list is empty")

// Source yields raw candidate words. Candidates are validated by the Service.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// HTTPSource fetches a candidate from a random-word provider. The provider
// may answer with a bare word, a quoted word or a JSON array of words.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for url. A nil client gets a 5s timeout.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("build word request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch word: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch word: provider returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("read word: %w", err)
	}
	return parseProviderBody(body), nil
}

// parseProviderBody extracts the first word from `["gato"]`, `"gato"` or `gato`
func parseProviderBody(body []byte) string {
	var list []string
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		return strings.TrimSpace(list[0])
	}
	return strings.Trim(string(body), "[]\" \r\n\t")
}

// ListSource draws candidates from an in-memory word list
type ListSource struct {
	random random.Random

	mu    sync.RWMutex
	words []string
}

// NewListSource creates a source over the given words
func NewListSource(rnd random.Random, words []string) *ListSource {
	s := &ListSource{random: rnd}
	s.LoadWords(words)
	return s
}

// LoadFromFile replaces the list with the words in path (one word per line, # comments allowed)
func (s *ListSource) LoadFromFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" && !strings.HasPrefix(word, "#") {
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	s.LoadWords(words)
	return nil
}

// LoadWords replaces the list
func (s *ListSource) LoadWords(words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.words = append([]string(nil), words...)
}

// WordCount returns the number of loaded words
func (s *ListSource) WordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words)
}

func (s *ListSource) Fetch(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.words) == 0 {
		return "", ErrEmptyWordList
	}
	return s.words[s.random.Intn(len(s.words))], nil
}
