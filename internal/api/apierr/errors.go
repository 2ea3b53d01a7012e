package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeInvalidLetter        = "INVALID_LETTER"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodePhoneTaken           = "PHONE_TAKEN"
	CodeAccountDisabled      = "ACCOUNT_DISABLED"
	CodeAccountInactive      = "ACCOUNT_INACTIVE"
	CodeNotAdmin             = "NOT_ADMIN"
	CodeInvalidAdminCode     = "INVALID_ADMIN_CODE"
	CodeAlreadyActive        = "ALREADY_ACTIVE"
	CodeAlreadyInactive      = "ALREADY_INACTIVE"
	CodeAlreadyAdmin         = "ALREADY_ADMIN"
	CodeCannotPromote        = "CANNOT_PROMOTE_INACTIVE"
	CodeInvalidCode          = "INVALID_VERIFICATION_CODE"
	CodeCodeDeliveryFailed   = "CODE_DELIVERY_FAILED"
	CodeGameNotFound         = "GAME_NOT_FOUND"
	CodeNoActiveGame         = "NO_ACTIVE_GAME"
	CodeNoAvailableGames     = "NO_AVAILABLE_GAMES"
	CodeAlreadyHasActiveGame = "ALREADY_HAS_ACTIVE_GAME"
	CodeNotJoinable          = "NOT_JOINABLE"
	CodeAlreadyAttempted     = "ALREADY_ATTEMPTED"
	CodeWordUnavailable      = "WORD_UNAVAILABLE"
	CodeConcurrentUpdate     = "CONCURRENT_UPDATE"
	CodeRouteNotFound        = "NOT_FOUND"
	CodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeInternalError        = "INTERNAL_ERROR"
)

// ActiveGame is the detail attached to ALREADY_HAS_ACTIVE_GAME
type ActiveGame struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Progress          string `json:"progreso"`
	RemainingAttempts int    `json:"intentos_restantes"`
	CreatedAt         string `json:"creado_en"`
}

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

func newError(status int, code, message string) *httpError {
	return &httpError{status, APIError{Code: code, Message: message}}
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve *model.ValidationError
	if errors.As(err, &ve) {
		e := newError(http.StatusUnprocessableEntity, CodeValidationFailed, "Los datos enviados no son válidos.")
		e.apiError.Details = ve.Fields
		return e
	}

	var ag *model.ActiveGameError
	if errors.As(err, &ag) && ag.Game != nil {
		e := newError(http.StatusBadRequest, CodeAlreadyHasActiveGame,
			"Ya tienes una partida activa. Termina o abandona tu partida actual.")
		e.apiError.Details = map[string]ActiveGame{"partida_activa": {
			ID:                string(ag.Game.ID),
			Status:            string(ag.Game.Status),
			Progress:          ag.Game.SpacedProgressMask(),
			RemainingAttempts: ag.Game.RemainingAttempts,
			CreatedAt:         ag.Game.CreatedAt.Format(time.RFC3339),
		}}
		return e
	}

	switch {
	// Game errors
	case errors.Is(err, model.ErrNoActiveGame):
		return newError(http.StatusNotFound, CodeNoActiveGame, "No tienes ninguna partida activa.")
	case errors.Is(err, model.ErrGameNotFound):
		return newError(http.StatusNotFound, CodeGameNotFound, "La partida no existe.")
	case errors.Is(err, model.ErrNoAvailableGames):
		return newError(http.StatusNotFound, CodeNoAvailableGames, "No hay partidas disponibles.")
	case errors.Is(err, model.ErrAlreadyHasActiveGame):
		return newError(http.StatusBadRequest, CodeAlreadyHasActiveGame,
			"Ya tienes una partida activa. Termina o abandona tu partida actual.")
	case errors.Is(err, model.ErrNotJoinable):
		return newError(http.StatusForbidden, CodeNotJoinable, "No puedes unirte a esta partida.")
	case errors.Is(err, model.ErrAlreadyAttempted):
		return newError(http.StatusBadRequest, CodeAlreadyAttempted, "Letra ya intentada.")
	case errors.Is(err, model.ErrInvalidLetter):
		return newError(http.StatusBadRequest, CodeInvalidLetter, "La letra debe ser un único carácter de la a a la z.")
	case errors.Is(err, model.ErrWordUnavailable):
		return newError(http.StatusInternalServerError, CodeWordUnavailable, "No se pudo obtener una palabra válida.")
	case errors.Is(err, model.ErrConcurrentUpdate):
		return newError(http.StatusConflict, CodeConcurrentUpdate, "La partida fue modificada al mismo tiempo. Intenta de nuevo.")

	// Account errors
	case errors.Is(err, model.ErrUserNotFound):
		return newError(http.StatusNotFound, CodeUserNotFound, "El número de teléfono especificado no existe.")
	case errors.Is(err, model.ErrPhoneTaken):
		return newError(http.StatusUnprocessableEntity, CodePhoneTaken, "El número de teléfono ya está registrado.")
	case errors.Is(err, model.ErrAccountDisabledByAdmin):
		return newError(http.StatusForbidden, CodeAccountDisabled, "Cuenta desactivada por administrador.")
	case errors.Is(err, model.ErrAccountInactive):
		return newError(http.StatusForbidden, CodeAccountInactive,
			"Tu cuenta está desactivada. Contacta a un administrador para reactivarla.")
	case errors.Is(err, model.ErrNotAdmin):
		return newError(http.StatusForbidden, CodeNotAdmin, "No tienes el rango necesario para acceder.")
	case errors.Is(err, model.ErrInvalidAdminCode):
		return newError(http.StatusForbidden, CodeInvalidAdminCode, "Código de administrador incorrecto.")
	case errors.Is(err, model.ErrAlreadyActive):
		return newError(http.StatusBadRequest, CodeAlreadyActive, "El usuario ya está activo.")
	case errors.Is(err, model.ErrAlreadyInactive):
		return newError(http.StatusBadRequest, CodeAlreadyInactive, "El usuario ya está desactivado.")
	case errors.Is(err, model.ErrAlreadyAdmin):
		return newError(http.StatusBadRequest, CodeAlreadyAdmin, "El usuario ya es administrador.")
	case errors.Is(err, model.ErrCannotPromoteInactive):
		return newError(http.StatusBadRequest, CodeCannotPromote,
			"No se puede promover a administrador a un usuario desactivado.")
	case errors.Is(err, model.ErrInvalidVerificationCode):
		return newError(http.StatusBadRequest, CodeInvalidCode, "Código inválido o expirado.")

	// Auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return newError(http.StatusUnauthorized, CodeInvalidCredentials, "Contraseña incorrecta.")
	case errors.Is(err, auth.ErrInvalidSession):
		return newError(http.StatusUnauthorized, CodeUnauthorized, "Sesión inválida o expirada.")
	case errors.Is(err, auth.ErrAdminRegistrationDisabled):
		return newError(http.StatusForbidden, CodeInvalidAdminCode, "El registro de administradores está deshabilitado.")
	case errors.Is(err, auth.ErrCodeDeliveryFailed):
		return newError(http.StatusInternalServerError, CodeCodeDeliveryFailed, "Error al enviar el mensaje.")

	default:
		return newError(http.StatusInternalServerError, CodeInternalError, "Error interno del servidor.")
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return newError(http.StatusBadRequest, CodeInvalidRequest, message)
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return newError(http.StatusUnauthorized, CodeUnauthorized, "Autenticación requerida.")
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return newError(http.StatusInternalServerError, CodeInternalError, "Error interno del servidor.")
}

// New creates an error with an explicit status, code and message
func New(status int, code, message string) error {
	return newError(status, code, message)
}
