package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/hangman/internal/api/apierr"
	"github.com/mcoot/hangman/internal/middleware"
)

// Recovery renders panics as a 500 INTERNAL_ERROR envelope. onPanic, when set,
// runs before the response is written.
func Recovery(logger *slog.Logger, onPanic func()) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		if onPanic != nil {
			onPanic()
		}
		apierr.WriteError(w, apierr.NewInternalError())
	})
}
