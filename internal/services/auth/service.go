package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/hangman/internal/dependencies/clock"
	"github.com/mcoot/hangman/internal/dependencies/random"
	"github.com/mcoot/hangman/internal/model"
	"github.com/mcoot/hangman/internal/services/notify"
	"github.com/mcoot/hangman/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrInvalidSession            = errors.New("invalid or expired session")
	ErrAdminRegistrationDisabled = errors.New("admin registration is disabled")
	ErrCodeDeliveryFailed        = errors.New("verification code could not be delivered")
)

// Input limits
const (
	MaxNameLength     = 255
	MaxPhoneLength    = 15
	MinPasswordLength = 6
	CodeLength        = 6
)

// Session tokens are opaque: a prefix plus SessionTokenBytes of randomness
const (
	SessionTokenPrefix = "sess_"
	SessionTokenBytes  = 24
)

// Session is an authenticated session with its freshly loaded user
type Session struct {
	Token     string
	User      *model.User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CodeSender delivers verification codes by direct message
type CodeSender interface {
	Send(ctx context.Context, phone, body string) error
}

// Service handles accounts, verification and session management
type Service struct {
	storage storage.Storage
	sender  CodeSender
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
	cfg     Config
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration     time.Duration
	VerificationCodeTTL time.Duration
	// AdminRegistrationCode guards /admin/register. Empty disables it.
	AdminRegistrationCode string
	BcryptCost            int
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration:     24 * time.Hour,
		VerificationCodeTTL: 10 * time.Minute,
		BcryptCost:          bcrypt.DefaultCost,
	}
}

// New creates a new auth Service
func New(
	storage storage.Storage,
	sender CodeSender,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
	cfg Config,
) *Service {
	def := DefaultConfig()
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = def.SessionDuration
	}
	if cfg.VerificationCodeTTL <= 0 {
		cfg.VerificationCodeTTL = def.VerificationCodeTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = def.BcryptCost
	}
	return &Service{
		storage: storage,
		sender:  sender,
		clock:   clock,
		random:  random,
		logger:  logger,
		cfg:     cfg,
	}
}

func validateAccount(name, phone, password string) error {
	v := &model.ValidationError{}
	switch {
	case strings.TrimSpace(name) == "":
		v.Add("name", "El campo name es obligatorio.")
	case utf8.RuneCountInString(name) > MaxNameLength:
		v.Add("name", fmt.Sprintf("El campo name no debe superar %d caracteres.", MaxNameLength))
	}
	if msg := phoneProblem(phone); msg != "" {
		v.Add("phone", msg)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		v.Add("password", fmt.Sprintf("El campo password debe tener al menos %d caracteres.", MinPasswordLength))
	}
	return v.OrNil()
}

// phoneProblem returns the validation message for phone, or "" when it is acceptable
func phoneProblem(phone string) string {
	switch {
	case strings.TrimSpace(phone) == "":
		return "El campo phone es obligatorio."
	case len(phone) > MaxPhoneLength:
		return fmt.Sprintf("El campo phone no debe superar %d caracteres.", MaxPhoneLength)
	}
	return ""
}

// Register creates an inactive player and sends a verification code.
// The account exists even if delivery fails; Resend can be used afterwards.
func (s *Service) Register(ctx context.Context, name, phone, password string) (*model.User, error) {
	if err := validateAccount(name, phone, password); err != nil {
		return nil, err
	}

	existing, err := s.storage.GetUserByPhone(ctx, phone)
	switch {
	case err == nil && existing.DisabledByAdmin():
		return nil, model.ErrAccountDisabledByAdmin
	case err == nil:
		return nil, model.ErrPhoneTaken
	case !errors.Is(err, model.ErrUserNotFound):
		return nil, err
	}

	user, err := s.createUser(ctx, name, phone, password, model.RolePlayer, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("player registered", slog.String("user_id", string(user.ID)))

	if err := s.sendCode(ctx, phone); err != nil {
		return user, err
	}
	return user, nil
}

// RegisterAdmin creates an active administrator when adminCode matches the configured code
func (s *Service) RegisterAdmin(ctx context.Context, name, phone, password, adminCode string) (*model.User, error) {
	if s.cfg.AdminRegistrationCode == "" {
		return nil, ErrAdminRegistrationDisabled
	}
	if err := validateAccount(name, phone, password); err != nil {
		return nil, err
	}
	if adminCode != s.cfg.AdminRegistrationCode {
		return nil, model.ErrInvalidAdminCode
	}

	user, err := s.createUser(ctx, name, phone, password, model.RoleAdmin, true)
	if err != nil {
		return nil, err
	}
	s.logger.Info("administrator registered", slog.String("user_id", string(user.ID)))
	return user, nil
}

func (s *Service) createUser(ctx context.Context, name, phone, password string, role model.Role, active bool) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &model.User{
		ID:           model.UserID(uuid.NewString()),
		Name:         strings.TrimSpace(name),
		Phone:        phone,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResendCode issues a fresh verification code for a registered phone
func (s *Service) ResendCode(ctx context.Context, phone string) error {
	if msg := phoneProblem(phone); msg != "" {
		return model.NewValidationError("phone", msg)
	}
	user, err := s.storage.GetUserByPhone(ctx, phone)
	if err != nil {
		return err
	}
	if user.DisabledByAdmin() {
		return model.ErrAccountDisabledByAdmin
	}
	return s.sendCode(ctx, phone)
}

func (s *Service) sendCode(ctx context.Context, phone string) error {
	code := &model.VerificationCode{
		Phone:     phone,
		Code:      s.random.String(CodeLength, random.Digits),
		ExpiresAt: s.clock.Now().Add(s.cfg.VerificationCodeTTL),
	}
	if err := s.storage.SaveVerificationCode(ctx, code); err != nil {
		return err
	}
	if err := s.sender.Send(ctx, phone, notify.VerificationMessage(code.Code)); err != nil {
		s.logger.Error("verification code delivery failed", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %v", ErrCodeDeliveryFailed, err)
	}
	return nil
}

// Verify activates the account when code matches the stored, unexpired code
func (s *Service) Verify(ctx context.Context, phone, code string) (*model.User, error) {
	v := &model.ValidationError{}
	if msg := phoneProblem(phone); msg != "" {
		v.Add("phone", msg)
	}
	if strings.TrimSpace(code) == "" {
		v.Add("code", "El campo code es obligatorio.")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.storage.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user.DisabledByAdmin() {
		return nil, model.ErrAccountDisabledByAdmin
	}

	stored, err := s.storage.GetVerificationCode(ctx, phone, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if stored.Code != strings.TrimSpace(code) {
		return nil, model.ErrInvalidVerificationCode
	}

	user.IsActive = true
	user.DeactivationReason = model.DeactivationNone
	user.UpdatedAt = s.clock.Now()
	if err := s.storage.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	if err := s.storage.DeleteVerificationCode(ctx, phone); err != nil {
		s.logger.Warn("failed to delete verification code", slog.String("error", err.Error()))
	}

	s.logger.Info("phone verified", slog.String("user_id", string(user.ID)))
	return user, nil
}

// Login authenticates by phone and password and creates a session.
// Administrator-disabled accounts are rejected before the password is checked.
func (s *Service) Login(ctx context.Context, phone, password string) (*Session, error) {
	if msg := phoneProblem(phone); msg != "" {
		return nil, model.NewValidationError("phone", msg)
	}

	user, err := s.storage.GetUserByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.DisabledByAdmin() {
		return nil, model.ErrAccountDisabledByAdmin
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(ctx, user)
}

// Logout revokes a single session token
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.storage.DeleteSession(ctx, token)
}

// ValidateSession checks a token and returns its session with the current user record
func (s *Service) ValidateSession(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	stored, err := s.storage.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	if s.clock.Now().After(stored.ExpiresAt) {
		_ = s.storage.DeleteSession(ctx, token)
		return nil, ErrInvalidSession
	}

	user, err := s.storage.GetUser(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	return &Session{
		Token:     stored.Token,
		User:      user,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// GetActiveUser returns the user behind a session token
func (s *Service) GetActiveUser(ctx context.Context, token string) (*model.User, error) {
	session, err := s.ValidateSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return session.User, nil
}

func (s *Service) createSession(ctx context.Context, user *model.User) (*Session, error) {
	now := s.clock.Now()
	stored := &model.Session{
		Token:     SessionTokenPrefix + s.random.Token(SessionTokenBytes),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.SessionDuration),
	}
	if err := s.storage.SaveSession(ctx, stored); err != nil {
		return nil, err
	}

	s.logger.Info("session created", slog.String("user_id", string(user.ID)))
	return &Session{
		Token:     stored.Token,
		User:      user,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}
