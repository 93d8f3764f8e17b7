package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/pg"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres-backed repository.Store.
type Store struct {
	pool     *pgxpool.Pool
	users    *UserRepo
	messages *MessageRepo
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:     pool,
		users:    NewUserRepo(pool),
		messages: NewMessageRepo(pool),
	}
}

func (s *Store) Users() repository.UserRepository       { return s.users }
func (s *Store) Messages() repository.MessageRepository { return s.messages }

func (s *Store) Ping(ctx context.Context) error {
	return pg.Ping(ctx, s.pool)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
