package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/google/uuid"
)

type ChatConfig struct {
	HistoryLimit  int // <= 200
	MaxTextLength int
}

type ChatService struct {
	messages repository.MessageRepository
	cfg      ChatConfig
	now      func() time.Time
	newID    func() (string, error)

	clockMu sync.Mutex
	last    time.Time
}

func NewChatService(messages repository.MessageRepository, cfg ChatConfig, now func() time.Time) *ChatService {
	if now == nil {
		now = time.Now
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 200
	}

	return &ChatService{
		messages: messages,
		cfg:      cfg,
		now:      now,
		newID:    newMessageID,
	}
}

// UUIDv7 сортируется по времени создания
func newMessageID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Send persists a message authored by author and returns it with the reply
// resolved. Client-supplied sender fields never reach this call.
func (s *ChatService) Send(ctx context.Context, author domain.Identity, text string, replyTo *string) (*domain.Message, error) {
	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("%w: message id: %v", errs.ErrPersistence, err)
	}

	m, err := domain.NewMessage(id, author, text, replyTo, s.timestamp(), s.cfg.MaxTextLength)
	if err != nil {
		return nil, err
	}

	saved, err := s.messages.Create(ctx, m)
	if err != nil {
		slog.Error("chat.send.persist failed", slog.Int64("user_id", int64(author.ID)), slog.Any("err", err))
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}

	return saved, nil
}

// Delete removes a message owned by requester.
func (s *ChatService) Delete(ctx context.Context, requester domain.Identity, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errs.ErrMissingMessageID
	}

	m, err := s.messages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errs.ErrMessageNotFound
		}
		slog.Error("chat.delete.get failed", slog.String("message_id", id), slog.Any("err", err))
		return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}
	if !m.OwnedBy(requester.ID) {
		return errs.ErrForbidden
	}

	if err := s.messages.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errs.ErrMessageNotFound
		}
		slog.Error("chat.delete.delete failed", slog.String("message_id", id), slog.Any("err", err))
		return fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}

	return nil
}

// History returns the most recent messages, oldest first.
func (s *ChatService) History(ctx context.Context) ([]domain.Message, error) {
	msgs, err := s.messages.Recent(ctx, s.cfg.HistoryLimit)
	if err != nil {
		slog.Error("chat.history.recent failed", slog.Any("err", err))
		return nil, fmt.Errorf("%w: %v", errs.ErrPersistence, err)
	}

	return msgs, nil
}

// timestamp is strictly increasing at microsecond precision (Postgres timestamptz).
func (s *ChatService) timestamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	ts := s.now().UTC().Truncate(time.Microsecond)
	if !ts.After(s.last) {
		ts = s.last.Add(time.Microsecond)
	}
	s.last = ts

	return ts
}
