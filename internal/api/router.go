package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/hangman/internal/api/apierr"
	"github.com/mcoot/hangman/internal/api/handler"
	"github.com/mcoot/hangman/internal/api/middleware"
	"github.com/mcoot/hangman/internal/api/response"
	"github.com/mcoot/hangman/internal/metrics"
	"github.com/mcoot/hangman/internal/services/access"
	"github.com/mcoot/hangman/internal/services/admin"
	"github.com/mcoot/hangman/internal/services/auth"
	"github.com/mcoot/hangman/internal/services/game"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	AuthService    *auth.Service
	AccessGuard    *access.Guard
	GameController *game.Controller
	AdminService   *admin.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	accountHandler := handler.NewAccountHandler(cfg.AuthService)
	gameHandler := handler.NewGameHandler(cfg.GameController, cfg.Logger)
	adminHandler := handler.NewAdminHandler(cfg.AdminService)

	authMiddleware := middleware.Auth(cfg.AuthService)
	activeMiddleware := middleware.RequireActive(cfg.AccessGuard)

	r.Use(middleware.Recovery(cfg.Logger, cfg.Metrics.PanicRecovered))
	r.Use(middleware.Logging(cfg.Logger, observeRoute(cfg.Metrics)))

	r.NotFoundHandler = http.HandlerFunc(routeNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	// Public routes
	r.HandleFunc("/register", accountHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/resend-code", accountHandler.ResendCode).Methods(http.MethodPost)
	r.HandleFunc("/verify", accountHandler.Verify).Methods(http.MethodPost)
	r.HandleFunc("/login", accountHandler.Login).Methods(http.MethodPost)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)

	// Logout only needs a valid token, so inactive users can still sign out.
	// Every protected group is scoped by path so a method mismatch is never
	// swallowed by a sibling group and reported as 404.
	r.Handle("/logout", authMiddleware(http.HandlerFunc(accountHandler.Logout))).Methods(http.MethodPost)
	r.Handle("/me", authMiddleware(activeMiddleware(http.HandlerFunc(accountHandler.Me)))).Methods(http.MethodGet)

	games := r.PathPrefix("/game").Subrouter()
	games.Use(authMiddleware, activeMiddleware)
	games.HandleFunc("/create", gameHandler.Create).Methods(http.MethodPost)
	games.HandleFunc("/available", gameHandler.Available).Methods(http.MethodGet)
	games.HandleFunc("/join", gameHandler.Join).Methods(http.MethodPost)
	games.HandleFunc("/guess", gameHandler.Guess).Methods(http.MethodPost)
	games.HandleFunc("/abandon", gameHandler.Abandon).Methods(http.MethodPost)
	games.HandleFunc("/current", gameHandler.Current).Methods(http.MethodGet)
	games.HandleFunc("/history", gameHandler.History).Methods(http.MethodGet)

	// /admin/register is public and shares the prefix with the admin-only routes
	adminRoot := r.PathPrefix("/admin").Subrouter()
	adminRoot.HandleFunc("/register", accountHandler.RegisterAdmin).Methods(http.MethodPost)

	admins := adminRoot.NewRoute().Subrouter()
	admins.Use(authMiddleware, activeMiddleware, middleware.RequireAdmin)
	admins.HandleFunc("/games", adminHandler.Games).Methods(http.MethodGet)
	admins.HandleFunc("/activate", adminHandler.Activate).Methods(http.MethodPost)
	admins.HandleFunc("/deactivate", adminHandler.Deactivate).Methods(http.MethodPost)
	admins.HandleFunc("/promote", adminHandler.Promote).Methods(http.MethodPost)

	return r
}

// observeRoute labels request metrics with the route template so ids never become labels
func observeRoute(m *metrics.Metrics) middleware.RequestObserver {
	return func(r *http.Request, status int, d time.Duration) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.ObserveRequest(route, r.Method, status, d)
	}
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	apierr.WriteError(w, apierr.New(http.StatusNotFound, apierr.CodeRouteNotFound, "Ruta no encontrada."))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	apierr.WriteError(w, apierr.New(http.StatusMethodNotAllowed, apierr.CodeMethodNotAllowed, "Método no permitido."))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}
