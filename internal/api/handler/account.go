package handler

import (
	"errors"
	"net/http"

	"github.com/mcoot/hangman/internal/api/middleware"
	"github.com/mcoot/hangman/internal/api/request"
	"github.com/mcoot/hangman/internal/api/response"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/services/auth"
)

// AccountHandler handles registration, verification and sessions
type AccountHandler struct {
	authService *auth.Service
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService *auth.Service) *AccountHandler {
	return &AccountHandler{
		authService: authService,
	}
}

// Register handles POST /register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Name, req.Phone, req.Password); err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.Message{Message: "Código enviado exitosamente por WhatsApp."})
}

// RegisterAdmin handles POST /admin/register
func (h *AccountHandler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterAdminRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user, err := h.authService.RegisterAdmin(r.Context(), req.Name, req.Phone, req.Password, req.AdminCode)
	if err != nil {
		WriteError(w, err)
		return
	}

	u := response.UserFromModel(user)
	response.OK(w, response.Message{Message: "Administrador registrado exitosamente.", User: &u})
}

// ResendCode handles POST /resend-code
func (h *AccountHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req request.PhoneRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	if err := h.authService.ResendCode(r.Context(), req.Phone); err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.Message{Message: "Código reenviado exitosamente por WhatsApp."})
}

// Verify handles POST /verify
func (h *AccountHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req request.VerifyRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	_, err := h.authService.Verify(r.Context(), req.Phone, req.Code)
	if errors.Is(err, model.ErrInvalidVerificationCode) {
		response.JSON(w, http.StatusBadRequest, response.Verified{Message: "Código inválido o expirado.", Verified: false})
		return
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.Verified{Message: "Número verificado correctamente.", Verified: true})
}

// Login handles POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.Login{
		Message: "Login exitoso.",
		Token:   session.Token,
		User:    response.UserFromModel(session.User),
	})
}

// Logout handles POST /logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session == nil {
		WriteError(w, auth.ErrInvalidSession)
		return
	}

	if err := h.authService.Logout(r.Context(), session.Token); err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.Message{Message: "Sesión cerrada exitosamente."})
}

// Me handles GET /me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	response.OK(w, response.UserFromModel(user))
}
