package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mathtutor/apiserver/internal/credential"
	"github.com/mathtutor/apiserver/internal/events"
	"github.com/mathtutor/apiserver/internal/store"
	"github.com/mathtutor/apiserver/types"
)

// UserService encapsulates the signup and login use-cases.
type UserService struct {
	store     store.UserStore
	publisher events.Publisher
	logger    *slog.Logger

	// now and newID are injected so tests can control time and ids.
	now   func() time.Time
	newID func() string
}

func NewUserService(userStore store.UserStore, publisher events.Publisher, logger *slog.Logger) *UserService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &UserService{
		store:     userStore,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SignupRequest carries the raw signup payload. Pointer fields distinguish
// an absent field from a zero value.
type SignupRequest struct {
	Email    *string `json:"user_email"`
	Password *string `json:"user_password"`
	Name     *string `json:"user_name"`
	Age      *int    `json:"user_age"`
}

func (r SignupRequest) validate() error {
	var missing []string
	if r.Email == nil || strings.TrimSpace(*r.Email) == "" {
		missing = append(missing, "user_email")
	}
	if r.Password == nil || *r.Password == "" {
		missing = append(missing, "user_password")
	}
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		missing = append(missing, "user_name")
	}
	if r.Age == nil {
		missing = append(missing, "user_age")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// SignupResult exposes only the new account's uid.
type SignupResult struct {
	UID string `json:"uid"`
}

// Signup validates the request, mints a new record and persists it in a
// single write. No read-before-write uniqueness check is performed; see
// store.UserStore for the uniqueness contract.
func (s *UserService) Signup(ctx context.Context, req SignupRequest) (SignupResult, error) {
	if err := req.validate(); err != nil {
		return SignupResult{}, err
	}

	hash, err := credential.Hash(*req.Password)
	if err != nil {
		return SignupResult{}, fmt.Errorf("hash password: %w", err)
	}

	user := types.User{
		UID:          s.newID(),
		Email:        normalizeEmail(*req.Email),
		Name:         strings.TrimSpace(*req.Name),
		PasswordHash: hash,
		Age:          *req.Age,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.Put(ctx, user); err != nil {
		return SignupResult{}, fmt.Errorf("store user: %w", err)
	}

	s.publish(ctx, events.UserSignedUp, user.UID)
	return SignupResult{UID: user.UID}, nil
}

// LoginRequest carries the raw login payload.
type LoginRequest struct {
	Email    *string `json:"user_email"`
	Password *string `json:"user_password"`
}

func (r LoginRequest) validate() error {
	var missing []string
	if r.Email == nil || strings.TrimSpace(*r.Email) == "" {
		missing = append(missing, "user_email")
	}
	if r.Password == nil || *r.Password == "" {
		missing = append(missing, "user_password")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// LoginResult is the identity returned on a successful login.
type LoginResult struct {
	UID  string
	Name string
}

// Login resolves the email to a record and verifies the credential. An
// unknown email and a wrong password both yield ErrInvalidCredentials.
// The last-login stamp is best-effort: its failure is logged and the login
// still succeeds.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	if err := req.validate(); err != nil {
		return LoginResult{}, err
	}

	user, err := s.store.GetByEmail(ctx, normalizeEmail(*req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("query user: %w", err)
	}

	if !credential.Verify(*req.Password, user.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := s.store.UpdateLastLogin(ctx, user.UID, s.now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "failed to stamp last login", "uid", user.UID, "error", err)
	}

	s.publish(ctx, events.UserLoggedIn, user.UID)
	return LoginResult{UID: user.UID, Name: user.Name}, nil
}

func (s *UserService) publish(ctx context.Context, name, uid string) {
	event := events.Event{Name: name, UID: uid, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event", name, "uid", uid, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
