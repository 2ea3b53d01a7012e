package e2e_test

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/hangman/internal/api"
	"github.com/mcoot/hangman/internal/factory"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "hangman-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/hangman")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	app      *factory.TestApp
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Mocked words and messaging so the flow is deterministic
	app := factory.NewTestApp()

	// Port 0 lets the kernel pick a free port
	cfg := api.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	server := api.NewServer(app.Router(), cfg, app.Logger)
	require.NoError(t, server.Listen())

	// Start server
	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/health")

	return &testServer{
		app:  app,
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type messageResponse struct {
	Message string `json:"message"`
	User    *struct {
		Role string `json:"role"`
	} `json:"user"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		Name     string `json:"name"`
		IsActive bool   `json:"is_active"`
	} `json:"user"`
}

type createResponse struct {
	Message string `json:"mensaje"`
	Game    struct {
		ID                string `json:"id"`
		Status            string `json:"status"`
		WordLength        int    `json:"word_length"`
		RemainingAttempts int    `json:"intentos_restantes"`
	} `json:"partida"`
}

type availableResponse struct {
	Games []struct {
		ID string `json:"id"`
	} `json:"partidas_disponibles"`
}

type guessResponse struct {
	Message           string  `json:"mensaje"`
	Progress          string  `json:"progreso"`
	RemainingAttempts int     `json:"intentos_restantes"`
	Word              *string `json:"palabra"`
}

type currentResponse struct {
	Game struct {
		Progress string `json:"progreso"`
	} `json:"partida_actual"`
}

type historyResponse struct {
	Games []struct {
		Status string `json:"status"`
		Word   string `json:"palabra"`
	} `json:"historial"`
}

type adminGamesResponse struct {
	Games []struct {
		Word string `json:"word"`
		User struct {
			Phone string `json:"phone"`
		} `json:"user"`
	} `json:"games"`
}

type healthResponse struct {
	Status string `json:"status"`
	Server string `json:"server"`
}

func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v), "output: %s", out)
}

func TestCLIHealth(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()
	cli := newCLIRunner(t, ts.addr)

	out, err := cli.run("health")
	require.NoError(t, err, out)

	var resp healthResponse
	decodeJSON(t, out, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, ts.addr, resp.Server)
}

func TestCLIAccountAndGameFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()
	cli := newCLIRunner(t, ts.addr)

	// Register and verify
	out, err := cli.run("account", "register", "--name", "Ana", "--phone", "5550001", "--pass", "secret1")
	require.NoError(t, err, out)

	out, err = cli.run("account", "verify", "--phone", "5550001", "000001")
	require.Error(t, err, out)
	assert.Contains(t, out, "Código inválido o expirado.")

	out, err = cli.run("account", "verify", "--phone", "5550001", ts.app.LastCode("5550001"))
	require.NoError(t, err, out)

	// Login saves the token file
	out, err = cli.run("account", "login", "--phone", "5550001", "--pass", "secret1")
	require.NoError(t, err, out)
	var login loginResponse
	decodeJSON(t, out, &login)
	assert.True(t, login.User.IsActive)

	saved, err := os.ReadFile(cli.tokenFile)
	require.NoError(t, err)
	assert.Equal(t, login.Token, strings.TrimSpace(string(saved)))

	// Create and join
	ts.app.MockWords.Queue("gato")
	out, err = cli.run("game", "create")
	require.NoError(t, err, out)
	var created createResponse
	decodeJSON(t, out, &created)
	assert.Equal(t, 4, created.Game.WordLength)

	out, err = cli.run("game", "available")
	require.NoError(t, err, out)
	var available availableResponse
	decodeJSON(t, out, &available)
	require.Len(t, available.Games, 1)
	assert.Equal(t, created.Game.ID, available.Games[0].ID)

	out, err = cli.run("game", "join", created.Game.ID)
	require.NoError(t, err, out)

	// A second game cannot be joined while the first is active
	ts.app.MockWords.Queue("perro")
	out, err = cli.run("game", "create")
	require.NoError(t, err, out)
	var second createResponse
	decodeJSON(t, out, &second)
	out, err = cli.run("game", "join", second.Game.ID)
	require.Error(t, err, out)
	assert.Contains(t, out, "ALREADY_HAS_ACTIVE_GAME")
	assert.Contains(t, out, created.Game.ID)

	// Play
	out, err = cli.run("game", "guess", "a")
	require.NoError(t, err, out)
	var guess guessResponse
	decodeJSON(t, out, &guess)
	assert.Equal(t, "Letra correcta.", guess.Message)
	assert.Equal(t, "_ a _ _", guess.Progress)

	out, err = cli.run("game", "guess", "a")
	require.Error(t, err, out)
	assert.Contains(t, out, "ALREADY_ATTEMPTED")

	out, err = cli.run("game", "current")
	require.NoError(t, err, out)
	var current currentResponse
	decodeJSON(t, out, &current)
	assert.Equal(t, "_ a _ _", current.Game.Progress)

	for _, letter := range []string{"g", "t"} {
		out, err = cli.run("game", "guess", letter)
		require.NoError(t, err, out)
	}
	out, err = cli.run("game", "guess", "o")
	require.NoError(t, err, out)
	guess = guessResponse{}
	decodeJSON(t, out, &guess)
	assert.Equal(t, "¡Ganaste!", guess.Message)
	require.NotNil(t, guess.Word)
	assert.Equal(t, "gato", *guess.Word)

	out, err = cli.run("game", "history")
	require.NoError(t, err, out)
	var history historyResponse
	decodeJSON(t, out, &history)
	require.Len(t, history.Games, 1)
	assert.Equal(t, "won", history.Games[0].Status)

	// Logout removes the token file and the session
	out, err = cli.run("account", "logout")
	require.NoError(t, err, out)
	_, err = os.Stat(cli.tokenFile)
	assert.True(t, os.IsNotExist(err))

	out, err = cli.runWithToken(login.Token, "game", "current")
	require.Error(t, err, out)
	assert.Contains(t, out, "UNAUTHORIZED")
}

func TestCLIAdminFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()
	player := newCLIRunner(t, ts.addr)
	admin := newCLIRunner(t, ts.addr)

	out, err := player.run("account", "register", "--name", "Ana", "--phone", "5550001", "--pass", "secret1")
	require.NoError(t, err, out)
	out, err = player.run("account", "verify", "--phone", "5550001", ts.app.LastCode("5550001"))
	require.NoError(t, err, out)
	out, err = player.run("account", "login", "--phone", "5550001", "--pass", "secret1")
	require.NoError(t, err, out)

	ts.app.MockWords.Queue("perro")
	out, err = player.run("game", "create")
	require.NoError(t, err, out)

	// Plain players cannot use admin commands
	out, err = player.run("admin", "games")
	require.Error(t, err, out)
	assert.Contains(t, out, "NOT_ADMIN")

	out, err = admin.run("admin", "register", "--name", "Root", "--phone", "5559999", "--pass", "secret1",
		"--code", factory.TestAdminCode)
	require.NoError(t, err, out)
	out, err = admin.run("account", "login", "--phone", "5559999", "--pass", "secret1")
	require.NoError(t, err, out)

	out, err = admin.run("admin", "games")
	require.NoError(t, err, out)
	var games adminGamesResponse
	decodeJSON(t, out, &games)
	require.Len(t, games.Games, 1)
	assert.Equal(t, "perro", games.Games[0].Word)
	assert.Equal(t, "5550001", games.Games[0].User.Phone)

	out, err = admin.run("admin", "promote", "5550001")
	require.NoError(t, err, out)
	var promoted messageResponse
	decodeJSON(t, out, &promoted)
	require.NotNil(t, promoted.User)
	assert.Equal(t, "admin", promoted.User.Role)

	out, err = admin.run("admin", "deactivate", "5550001")
	require.NoError(t, err, out)

	out, err = player.run("game", "history")
	require.Error(t, err, out)

	out, err = admin.run("admin", "activate", "5550001")
	require.Error(t, err, out)
	assert.Contains(t, out, "ACCOUNT_DISABLED")
}
