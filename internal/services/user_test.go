package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mathtutor/apiserver/internal/events"
	"github.com/mathtutor/apiserver/internal/store"
	"github.com/mathtutor/apiserver/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUserService(userStore store.UserStore) *UserService {
	s := NewUserService(userStore, events.Noop{}, testLogger())
	s.now = func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "test-uid" }
	return s
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func signupReq() SignupRequest {
	return SignupRequest{
		Email:    strPtr("X@Y.com"),
		Password: strPtr("p1"),
		Name:     strPtr("N"),
		Age:      intPtr(30),
	}
}

func TestSignup_CreatesRecord(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryStore()
	s := newTestUserService(memStore)

	result, err := s.Signup(context.Background(), signupReq())
	require.NoError(t, err)
	require.Equal(t, "test-uid", result.UID)

	user, err := memStore.GetByID(context.Background(), "test-uid")
	require.NoError(t, err)
	require.Equal(t, "x@y.com", user.Email, "email is stored lower-cased")
	require.Equal(t, "N", user.Name)
	require.Equal(t, 30, user.Age)
	require.NotEqual(t, "p1", user.PasswordHash, "hash never equals the plaintext")
	require.Equal(t, time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC), user.CreatedAt)
	require.Nil(t, user.LastLoginAt, "last login is absent until first login")
}

func TestSignup_MissingFields(t *testing.T) {
	t.Parallel()

	s := newTestUserService(store.NewMemoryStore())

	req := SignupRequest{Email: strPtr("a@b.com")}
	_, err := s.Signup(context.Background(), req)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, []string{"user_password", "user_name", "user_age"}, validationErr.Fields)
}

func TestSignup_StoreFailure(t *testing.T) {
	t.Parallel()

	s := newTestUserService(failingStore{})

	_, err := s.Signup(context.Background(), signupReq())
	require.Error(t, err)
	var validationErr *ValidationError
	require.False(t, errors.As(err, &validationErr))
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryStore()
	s := newTestUserService(memStore)

	_, err := s.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	loginAt := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return loginAt }

	result, err := s.Login(context.Background(), LoginRequest{
		Email:    strPtr("x@Y.COM"),
		Password: strPtr("p1"),
	})
	require.NoError(t, err)
	require.Equal(t, "test-uid", result.UID)
	require.Equal(t, "N", result.Name)

	user, err := memStore.GetByID(context.Background(), "test-uid")
	require.NoError(t, err)
	require.NotNil(t, user.LastLoginAt)
	require.Equal(t, loginAt, *user.LastLoginAt)
}

func TestLogin_UnknownEmailAndWrongPasswordUnified(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryStore()
	s := newTestUserService(memStore)

	_, err := s.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	_, unknownErr := s.Login(context.Background(), LoginRequest{
		Email:    strPtr("nobody@y.com"),
		Password: strPtr("p1"),
	})
	_, wrongErr := s.Login(context.Background(), LoginRequest{
		Email:    strPtr("x@y.com"),
		Password: strPtr("wrong"),
	})

	require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
}

func TestLogin_MissingFields(t *testing.T) {
	t.Parallel()

	s := newTestUserService(store.NewMemoryStore())

	_, err := s.Login(context.Background(), LoginRequest{})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, []string{"user_email", "user_password"}, validationErr.Fields)
}

func TestLogin_StampFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	memStore := store.NewMemoryStore()
	s := newTestUserService(&stampFailingStore{UserStore: memStore})

	_, err := s.Signup(context.Background(), signupReq())
	require.NoError(t, err)

	result, err := s.Login(context.Background(), LoginRequest{
		Email:    strPtr("x@y.com"),
		Password: strPtr("p1"),
	})
	require.NoError(t, err, "a failed last-login stamp must not fail the login")
	require.Equal(t, "test-uid", result.UID)

	user, err := memStore.GetByID(context.Background(), "test-uid")
	require.NoError(t, err)
	require.Nil(t, user.LastLoginAt)
}

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Put(context.Context, types.User) error { return errors.New("write failed") }
func (failingStore) GetByID(context.Context, string) (types.User, error) {
	return types.User{}, errors.New("read failed")
}
func (failingStore) GetByEmail(context.Context, string) (types.User, error) {
	return types.User{}, errors.New("read failed")
}
func (failingStore) UpdateLastLogin(context.Context, string, time.Time) error {
	return errors.New("update failed")
}

// stampFailingStore fails only the best-effort last-login update.
type stampFailingStore struct {
	store.UserStore
}

func (s *stampFailingStore) UpdateLastLogin(context.Context, string, time.Time) error {
	return errors.New("update failed")
}
