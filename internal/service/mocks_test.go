package service

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"
)

// function-field fakes: nil fields panic, so every test wires what it expects

type fakeMessages struct {
	CreateFn func(ctx context.Context, m *domain.Message) (*domain.Message, error)
	GetFn    func(ctx context.Context, id string) (*domain.Message, error)
	DeleteFn func(ctx context.Context, id string) error
	RecentFn func(ctx context.Context, limit int) ([]domain.Message, error)
}

var _ repository.MessageRepository = (*fakeMessages)(nil)

func (f *fakeMessages) Create(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	return f.CreateFn(ctx, m)
}
func (f *fakeMessages) Get(ctx context.Context, id string) (*domain.Message, error) {
	return f.GetFn(ctx, id)
}
func (f *fakeMessages) Delete(ctx context.Context, id string) error { return f.DeleteFn(ctx, id) }
func (f *fakeMessages) Recent(ctx context.Context, limit int) ([]domain.Message, error) {
	return f.RecentFn(ctx, limit)
}

type fakeUsers struct {
	CreateFn           func(ctx context.Context, u *domain.User) (domain.UserID, error)
	GetByIDFn          func(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmailFn       func(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmailFn    func(ctx context.Context, email string) (bool, error)
	ExistsByUsernameFn func(ctx context.Context, username string) (bool, error)
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(ctx context.Context, u *domain.User) (domain.UserID, error) {
	return f.CreateFn(ctx, u)
}
func (f *fakeUsers) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return f.GetByIDFn(ctx, id)
}
func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return f.GetByEmailFn(ctx, email)
}
func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return f.ExistsByEmailFn(ctx, email)
}
func (f *fakeUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return f.ExistsByUsernameFn(ctx, username)
}
