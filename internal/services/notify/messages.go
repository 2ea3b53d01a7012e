package notify

import (
	"fmt"
	"strings"

	"github.com/mcoot/hangman/internal/model"
)

// Per-guess outcomes as shown to the player
const (
	OutcomeCorrect   = "Letra correcta"
	OutcomeIncorrect = "Letra incorrecta"
	OutcomeWon       = "¡Ganaste!"
	OutcomeLost      = "Has perdido."
	OutcomeAbandoned = "Has abandonado la partida."
)

// StatusLabel returns the summary label for a terminal status
func StatusLabel(status model.GameStatus) string {
	switch status {
	case model.GameStatusWon:
		return "Ganada"
	case model.GameStatusLost:
		return "Perdida"
	case model.GameStatusAbandoned:
		return "Abandonada"
	case model.GameStatusInProgress:
		return "En progreso"
	}
	return "Por empezar"
}

// GuessMessage is the direct message body sent after a guess or abandon
func GuessMessage(outcome, spacedMask string, remaining int) string {
	return fmt.Sprintf("%s | Progreso: %s | Intentos restantes: %d", outcome, spacedMask, remaining)
}

// VerificationMessage is the direct message body carrying a verification code
func VerificationMessage(code string) string {
	return fmt.Sprintf("Tu código de verificación es: %s. Por favor, no lo compartas con nadie.", code)
}

// SummaryText renders a finished game for the chat channel
func SummaryText(job *model.SummaryJob) string {
	letters := strings.Join(job.LettersAttempted, ", ")
	if letters == "" {
		letters = "-"
	}

	var b strings.Builder
	b.WriteString("*Resumen del Juego - El Ahorcado*\n")
	fmt.Fprintf(&b, "Usuario: %s\n", job.UserName)
	fmt.Fprintf(&b, "Estado del juego: %s\n", StatusLabel(job.Status))
	fmt.Fprintf(&b, "Palabra oculta: %s\n", job.SecretWord)
	fmt.Fprintf(&b, "Letras intentadas: %s\n", letters)
	fmt.Fprintf(&b, "Progreso final: %s\n", job.ProgressMask)
	fmt.Fprintf(&b, "Intentos restantes: %d", job.RemainingAttempts)
	return b.String()
}
