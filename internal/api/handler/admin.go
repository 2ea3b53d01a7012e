package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/hangman/internal/api/request"
	"github.com/mcoot/hangman/internal/api/response"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/services/admin"
)

// AdminHandler handles administrator endpoints
type AdminHandler struct {
	adminService *admin.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *admin.Service) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// Games handles GET /admin/games
func (h *AdminHandler) Games(w http.ResponseWriter, r *http.Request) {
	games, err := h.adminService.ListGames(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.OK(w, response.AdminGamesFromModel(games))
}

// Activate handles POST /admin/activate
func (h *AdminHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.byPhone(w, r, h.adminService.Activate, "Usuario activado exitosamente.", false)
}

// Deactivate handles POST /admin/deactivate
func (h *AdminHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.byPhone(w, r, h.adminService.Deactivate, "Usuario desactivado exitosamente.", false)
}

// Promote handles POST /admin/promote
func (h *AdminHandler) Promote(w http.ResponseWriter, r *http.Request) {
	h.byPhone(w, r, h.adminService.Promote, "El usuario ha sido promovido a administrador.", true)
}

func (h *AdminHandler) byPhone(
	w http.ResponseWriter,
	r *http.Request,
	action func(context.Context, string) (*model.User, error),
	message string,
	withUser bool,
) {
	var req request.PhoneRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	user, err := action(r.Context(), req.Phone)
	if err != nil {
		WriteError(w, err)
		return
	}

	body := response.Message{Message: message}
	if withUser {
		u := response.UserFromModel(user)
		body.User = &u
	}
	response.OK(w, body)
}
