package repository

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// UserRepository stores accounts. Create fails with ErrAlreadyExists joined
// with errs.ErrDuplicateEmail or errs.ErrDuplicateUsername.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (domain.UserID, error)
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
