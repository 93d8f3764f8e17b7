package repository

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// MessageRepository stores chat messages. Messages returned from it carry
// ReplyTo resolved one hop; a dangling ReplyToID resolves to nil.
type MessageRepository interface {
	// Create persists m and returns it with the reply resolved.
	Create(ctx context.Context, m *domain.Message) (*domain.Message, error)
	Get(ctx context.Context, id string) (*domain.Message, error)
	Delete(ctx context.Context, id string) error
	// Recent returns the last limit messages ordered by (created_at, id) ascending.
	Recent(ctx context.Context, limit int) ([]domain.Message, error)
}

type Store interface {
	Users() UserRepository
	Messages() MessageRepository
	Ping(ctx context.Context) error
	Close() error
}
