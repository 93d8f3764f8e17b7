package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/postgres/queries"
	"github.com/cwrk-planet/chat-service/internal/repository"
)

type MessageRepo struct {
	q querier
}

func NewMessageRepo(q querier) *MessageRepo {
	return &MessageRepo{q: q}
}

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	var row messageRow
	err := r.q.QueryRow(ctx, queries.QueryCreateMessage,
		m.ID,
		int64(m.SenderID),
		m.Sender,
		m.Text,
		m.ReplyToID,
		m.CreatedAt,
	).Scan(row.dest()...)
	if err != nil {
		return nil, mapPgError(err)
	}

	out := row.toDomain()
	return &out, nil
}

func (r *MessageRepo) Get(ctx context.Context, id string) (*domain.Message, error) {
	var row messageRow
	if err := r.q.QueryRow(ctx, queries.QueryGetMessage, id).Scan(row.dest()...); err != nil {
		return nil, mapPgError(err)
	}

	out := row.toDomain()
	return &out, nil
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, queries.QueryDeleteMessage, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *MessageRepo) Recent(ctx context.Context, limit int) ([]domain.Message, error) {
	rows, err := r.q.Query(ctx, queries.QueryRecentMessages, limit)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.Message, 0, limit)
	for rows.Next() {
		var row messageRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, err
		}
		out = append(out, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err)
	}

	return out, nil
}
