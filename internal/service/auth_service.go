package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
	"github.com/cwrk-planet/chat-service/internal/repository"
	"github.com/cwrk-planet/chat-service/internal/security"
)

type RegisterInput struct {
	Username string `validate:"required,min=3,max=32"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,max=72"` // bcrypt limit
}

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type AuthResult struct {
	User        *domain.User
	AccessToken string
}

type AuthService struct {
	users      repository.UserRepository
	jwt        *security.JWTSigner
	passPolicy security.BcryptConfig
	now        func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	jwt *security.JWTSigner,
	passPolicy security.BcryptConfig,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		users:      users,
		jwt:        jwt,
		passPolicy: passPolicy,
		now:        now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = domain.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		slog.Error("auth.register.existsByEmail failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if exists {
		return nil, errs.ErrDuplicateEmail
	}
	exists, err = s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		slog.Error("auth.register.existsByUsername failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if exists {
		return nil, errs.ErrDuplicateUsername
	}

	hash, err := security.HashPassword(in.Password, &s.passPolicy)
	if err != nil {
		if !errors.Is(err, errs.ErrPasswordTooShort) {
			slog.Error("auth.register.hashPassword failed", slog.Any("err", err))
		}
		return nil, err
	}

	u, err := domain.NewUser(in.Username, in.Email, hash, s.now())
	if err != nil {
		return nil, err
	}

	id, err := s.users.Create(ctx, u)
	if err != nil {
		// гонка двух регистраций: уникальный индекс уже сказал, что именно занято
		if errors.Is(err, repository.ErrAlreadyExists) {
			if errors.Is(err, errs.ErrDuplicateUsername) {
				return nil, errs.ErrDuplicateUsername
			}
			return nil, errs.ErrDuplicateEmail
		}
		slog.Error("auth.register.create failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	u.ID = id

	token, err := s.jwt.SignAccessToken(u.Identity(), s.now())
	if err != nil {
		slog.Error("auth.register.signAccessToken failed", slog.Any("err", err))
		return nil, err
	}
	slog.Info("auth.register: user created", slog.Int64("user_id", int64(id)))

	return &AuthResult{User: u, AccessToken: token}, nil
}

// Login аутентифицирует по email+пароль. Неизвестный email и неверный пароль
// неотличимы для клиента.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, errs.ErrInvalidCredentials
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errs.ErrInvalidCredentials
		}
		slog.Error("auth.login.getByEmail failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}

	if err := security.ComparePassword(u.PasswordHash, in.Password); err != nil {
		if !errors.Is(err, errs.ErrInvalidCredentials) {
			slog.Error("auth.login.comparePassword failed", slog.Any("err", err))
		}
		return nil, errs.ErrInvalidCredentials
	}

	token, err := s.jwt.SignAccessToken(u.Identity(), s.now())
	if err != nil {
		slog.Error("auth.login.signAccessToken failed", slog.Any("err", err))
		return nil, err
	}

	return &AuthResult{User: u, AccessToken: token}, nil
}

// Authenticate turns a bearer token into the identity of an existing user.
// Every failure except a storage error is errs.ErrUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, errs.ErrUnauthenticated
	}

	claims, err := s.jwt.ParseAndValidate(token)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", errs.ErrUnauthenticated, err)
	}
	id, err := claims.Identity()
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", errs.ErrUnauthenticated, err)
	}

	u, err := s.users.GetByID(ctx, id.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Identity{}, errs.ErrUnauthenticated
		}
		slog.Error("auth.authenticate.getByID failed", slog.Any("err", err))
		return domain.Identity{}, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}

	return u.Identity(), nil
}
