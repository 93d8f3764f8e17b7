package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

/*
абстрактный слой над *pgxpool.Pool / pgx.Tx
чтобы запросы можно было делать атомарно а не по одному
*/
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	pgUniqueViolation = "23505"

	constraintUsersEmail    = "users_email_key"
	constraintUsersUsername = "users_username_key"
)

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintUsersEmail:
			return fmt.Errorf("%w: %w", repository.ErrAlreadyExists, errs.ErrDuplicateEmail)
		case constraintUsersUsername:
			return fmt.Errorf("%w: %w", repository.ErrAlreadyExists, errs.ErrDuplicateUsername)
		default:
			return repository.ErrAlreadyExists
		}
	}

	return err
}

// messageRow matches the column list of every message query.
type messageRow struct {
	id        string
	senderID  int64
	sender    string
	text      string
	replyTo   *string
	createdAt time.Time

	rID        *string
	rSenderID  *int64
	rSender    *string
	rText      *string
	rCreatedAt *time.Time
}

func (r *messageRow) dest() []any {
	return []any{
		&r.id, &r.senderID, &r.sender, &r.text, &r.replyTo, &r.createdAt,
		&r.rID, &r.rSenderID, &r.rSender, &r.rText, &r.rCreatedAt,
	}
}

func (r *messageRow) toDomain() domain.Message {
	m := domain.Message{
		ID:        r.id,
		SenderID:  domain.UserID(r.senderID),
		Sender:    r.sender,
		Text:      r.text,
		ReplyToID: r.replyTo,
		CreatedAt: r.createdAt.UTC(),
	}
	// dangling reply_to -> LEFT JOIN вернул NULL
	if r.rID != nil {
		snap := &domain.ReplySnapshot{ID: *r.rID}
		if r.rSenderID != nil {
			snap.SenderID = domain.UserID(*r.rSenderID)
		}
		if r.rSender != nil {
			snap.Sender = *r.rSender
		}
		if r.rText != nil {
			snap.Text = *r.rText
		}
		if r.rCreatedAt != nil {
			snap.CreatedAt = r.rCreatedAt.UTC()
		}
		m.ReplyTo = snap
	}

	return m
}
