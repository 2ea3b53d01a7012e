package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/services/auth"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{model.ErrNoActiveGame, http.StatusNotFound},
		{model.ErrGameNotFound, http.StatusNotFound},
		{model.ErrNoAvailableGames, http.StatusNotFound},
		{model.ErrUserNotFound, http.StatusNotFound},
		{model.ErrAlreadyHasActiveGame, http.StatusBadRequest},
		{model.ErrAlreadyAttempted, http.StatusBadRequest},
		{model.ErrInvalidLetter, http.StatusBadRequest},
		{model.ErrAlreadyActive, http.StatusBadRequest},
		{model.ErrAlreadyInactive, http.StatusBadRequest},
		{model.ErrAlreadyAdmin, http.StatusBadRequest},
		{model.ErrCannotPromoteInactive, http.StatusBadRequest},
		{model.ErrInvalidVerificationCode, http.StatusBadRequest},
		{model.ErrNotJoinable, http.StatusForbidden},
		{model.ErrAccountDisabledByAdmin, http.StatusForbidden},
		{model.ErrAccountInactive, http.StatusForbidden},
		{model.ErrNotAdmin, http.StatusForbidden},
		{model.ErrInvalidAdminCode, http.StatusForbidden},
		{auth.ErrAdminRegistrationDisabled, http.StatusForbidden},
		{model.ErrWordUnavailable, http.StatusInternalServerError},
		{auth.ErrCodeDeliveryFailed, http.StatusInternalServerError},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrInvalidSession, http.StatusUnauthorized},
		{model.ErrPhoneTaken, http.StatusUnprocessableEntity},
		{model.NewValidationError("phone", "x"), http.StatusUnprocessableEntity},
		{model.ErrConcurrentUpdate, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.status, Status(tc.err))
			assert.Equal(t, tc.status, Status(fmt.Errorf("wrapped: %w", tc.err)))
		})
	}
}

func TestWriteErrorWithActiveGameDetails(t *testing.T) {
	game := &model.Game{
		ID:                "g1",
		SecretWord:        "gato",
		LettersAttempted:  model.NewLetterSet('a'),
		RemainingAttempts: 5,
		Status:            model.GameStatusInProgress,
		CreatedAt:         time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	rec := httptest.NewRecorder()
	WriteError(rec, &model.ActiveGameError{Game: game})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Active ActiveGame `json:"partida_activa"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeAlreadyHasActiveGame, body.Error.Code)
	assert.Equal(t, "g1", body.Error.Details.Active.ID)
	assert.Equal(t, "_ a _ _", body.Error.Details.Active.Progress)
	assert.Equal(t, 5, body.Error.Details.Active.RemainingAttempts)
	assert.Equal(t, "2026-01-02T03:04:05Z", body.Error.Details.Active.CreatedAt)
}

func TestWriteErrorWithValidationDetails(t *testing.T) {
	v := model.NewValidationError("phone", "El campo phone es obligatorio.")
	v.Add("password", "corta")

	rec := httptest.NewRecorder()
	WriteError(rec, v)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeValidationFailed, body.Error.Code)
	assert.Equal(t, map[string]any{"phone": "El campo phone es obligatorio.", "password": "corta"}, body.Error.Details)
}
