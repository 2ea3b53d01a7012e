package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/hangman/internal/middleware"
)

// RequestObserver is told about every completed API request
type RequestObserver = middleware.RequestObserver

// Logging creates request logging middleware for the API
func Logging(logger *slog.Logger, observe RequestObserver) func(http.Handler) http.Handler {
	return middleware.Logging(logger, observe)
}
