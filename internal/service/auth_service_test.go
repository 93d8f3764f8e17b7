package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
	"github.com/cwrk-planet/chat-service/internal/memory"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/security"

	"github.com/stretchr/testify/require"
)

func newAuth(users repository.UserRepository) *AuthService {
	signer := security.NewJWTSigner([]byte("0123456789abcdef0123456789abcdef"), "chat-test", time.Hour, 0)
	return NewAuthService(users, signer, security.BcryptConfig{Cost: 4, MinLength: 6}, nil)
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	auth := newAuth(memory.New().Users())

	reg, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: " Alice@Example.com ", Password: "secret1"})
	req.NoError(err)
	req.NotEmpty(reg.AccessToken)
	req.Equal("alice@example.com", reg.User.Email)
	req.NotEqual("secret1", reg.User.PasswordHash)

	login, err := auth.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret1"})
	req.NoError(err)
	req.Equal(reg.User.ID, login.User.ID)

	id, err := auth.Authenticate(ctx, login.AccessToken)
	req.NoError(err)
	req.Equal(domain.Identity{ID: reg.User.ID, Username: "alice"}, id)
}

func TestRegister_Duplicates(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	auth := newAuth(memory.New().Users())

	_, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.io", Password: "secret1"})
	req.NoError(err)

	_, err = auth.Register(ctx, RegisterInput{Username: "alice2", Email: "A@x.io", Password: "secret1"})
	req.ErrorIs(err, errs.ErrDuplicateEmail)
	req.Equal(errs.KindValidation, errs.KindOf(err))

	_, err = auth.Register(ctx, RegisterInput{Username: "alice", Email: "b@x.io", Password: "secret1"})
	req.ErrorIs(err, errs.ErrDuplicateUsername)
}

func TestRegister_RaceOnUniqueIndex(t *testing.T) {
	users := &fakeUsers{
		ExistsByEmailFn:    func(context.Context, string) (bool, error) { return false, nil },
		ExistsByUsernameFn: func(context.Context, string) (bool, error) { return false, nil },
		CreateFn: func(context.Context, *domain.User) (domain.UserID, error) {
			return 0, fmt.Errorf("%w: %w", repository.ErrAlreadyExists, errs.ErrDuplicateUsername)
		},
	}

	_, err := newAuth(users).Register(context.Background(), RegisterInput{Username: "bob", Email: "b@x.io", Password: "secret1"})
	require.ErrorIs(t, err, errs.ErrDuplicateUsername)
}

func TestRegister_Validation(t *testing.T) {
	req := require.New(t)
	auth := newAuth(memory.New().Users())
	ctx := context.Background()

	_, err := auth.Register(ctx, RegisterInput{Username: "al", Email: "a@x.io", Password: "secret1"})
	req.ErrorIs(err, errs.ErrInvalidInput)
	req.Contains(err.Error(), "username must be at least 3")

	_, err = auth.Register(ctx, RegisterInput{Username: "alice", Email: "not-an-email", Password: "secret1"})
	req.ErrorIs(err, errs.ErrInvalidInput)

	_, err = auth.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.io", Password: "123"})
	req.ErrorIs(err, errs.ErrPasswordTooShort)

	_, err = auth.Register(ctx, RegisterInput{Username: "al-ice", Email: "a@x.io", Password: "secret1"})
	req.ErrorIs(err, errs.ErrInvalidUsername)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	auth := newAuth(memory.New().Users())

	_, err := auth.Register(ctx, RegisterInput{Username: "alice", Email: "a@x.io", Password: "secret1"})
	req.NoError(err)

	_, err = auth.Login(ctx, LoginInput{Email: "a@x.io", Password: "wrong-pass"})
	req.ErrorIs(err, errs.ErrInvalidCredentials)
	_, err = auth.Login(ctx, LoginInput{Email: "nobody@x.io", Password: "secret1"})
	req.ErrorIs(err, errs.ErrInvalidCredentials)
	_, err = auth.Login(ctx, LoginInput{})
	req.ErrorIs(err, errs.ErrInvalidCredentials)
}

func TestLogin_StorageFailure(t *testing.T) {
	users := &fakeUsers{
		GetByEmailFn: func(context.Context, string) (*domain.User, error) { return nil, errors.New("db down") },
	}

	_, err := newAuth(users).Login(context.Background(), LoginInput{Email: "a@x.io", Password: "secret1"})
	require.ErrorIs(t, err, errs.ErrPersistence)
	require.Equal(t, errs.KindPersistence, errs.KindOf(err))
}

func TestAuthenticate_Failures(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := memory.New()
	auth := newAuth(store.Users())

	_, err := auth.Authenticate(ctx, "")
	req.ErrorIs(err, errs.ErrUnauthenticated)

	_, err = auth.Authenticate(ctx, "garbage")
	req.ErrorIs(err, errs.ErrUnauthenticated)
	req.Equal(errs.KindAuthentication, errs.KindOf(err))

	// валидный токен, но пользователя нет
	signer := security.NewJWTSigner([]byte("0123456789abcdef0123456789abcdef"), "chat-test", time.Hour, 0)
	tok, err := signer.SignAccessToken(domain.Identity{ID: 99, Username: "ghost"}, time.Now())
	req.NoError(err)
	_, err = auth.Authenticate(ctx, tok)
	req.ErrorIs(err, errs.ErrUnauthenticated)
}
