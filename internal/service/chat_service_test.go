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

	"github.com/stretchr/testify/require"
)

var (
	alice = domain.Identity{ID: 1, Username: "alice"}
	bob   = domain.Identity{ID: 2, Username: "bob"}
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestSend_PersistsAndResolvesReply(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	chat := NewChatService(memory.New().Messages(), ChatConfig{MaxTextLength: 100}, nil)

	hi, err := chat.Send(ctx, alice, "  hi ", nil)
	req.NoError(err)
	req.Equal("hi", hi.Text)
	req.Equal(alice.ID, hi.SenderID)
	req.Equal("alice", hi.Sender)
	req.Nil(hi.ReplyTo)

	hello, err := chat.Send(ctx, bob, "hello", &hi.ID)
	req.NoError(err)
	req.NotNil(hello.ReplyTo)
	req.Equal("alice", hello.ReplyTo.Sender)
	req.Equal("hi", hello.ReplyTo.Text)
	req.Equal(hi.CreatedAt, hello.ReplyTo.CreatedAt)

	unknown := "does-not-exist"
	dangling, err := chat.Send(ctx, bob, "re: nothing", &unknown)
	req.NoError(err)
	req.Nil(dangling.ReplyTo)
}

func TestSend_RejectsEmptyAndTooLong(t *testing.T) {
	req := require.New(t)
	msgs := &fakeMessages{CreateFn: func(context.Context, *domain.Message) (*domain.Message, error) {
		t.Fatal("must not persist")
		return nil, nil
	}}
	chat := NewChatService(msgs, ChatConfig{MaxTextLength: 5}, nil)

	_, err := chat.Send(context.Background(), alice, "   ", nil)
	req.ErrorIs(err, errs.ErrEmptyText)
	_, err = chat.Send(context.Background(), alice, "toolong", nil)
	req.ErrorIs(err, errs.ErrTextTooLong)
}

func TestSend_PersistenceFailure(t *testing.T) {
	msgs := &fakeMessages{CreateFn: func(context.Context, *domain.Message) (*domain.Message, error) {
		return nil, errors.New("disk full")
	}}
	chat := NewChatService(msgs, ChatConfig{}, nil)

	_, err := chat.Send(context.Background(), alice, "hi", nil)
	require.ErrorIs(t, err, errs.ErrPersistence)
}

func TestSend_TimestampsStrictlyIncrease(t *testing.T) {
	req := require.New(t)
	// часы стоят на месте
	chat := NewChatService(memory.New().Messages(), ChatConfig{}, fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	var prev time.Time
	for i := 0; i < 5; i++ {
		m, err := chat.Send(context.Background(), alice, fmt.Sprintf("m%d", i), nil)
		req.NoError(err)
		req.True(m.CreatedAt.After(prev), "timestamp %d not increasing", i)
		prev = m.CreatedAt
	}
}

func TestDelete_OwnershipAndNotFound(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := memory.New()
	chat := NewChatService(store.Messages(), ChatConfig{}, nil)

	m, err := chat.Send(ctx, alice, "mine", nil)
	req.NoError(err)

	req.ErrorIs(chat.Delete(ctx, bob, m.ID), errs.ErrForbidden)
	_, err = store.Messages().Get(ctx, m.ID)
	req.NoError(err, "forbidden delete must not change storage")

	req.NoError(chat.Delete(ctx, alice, m.ID))
	req.ErrorIs(chat.Delete(ctx, alice, m.ID), errs.ErrMessageNotFound)
	req.ErrorIs(chat.Delete(ctx, alice, "  "), errs.ErrMissingMessageID)
}

func TestDelete_StorageErrors(t *testing.T) {
	req := require.New(t)
	owned := &domain.Message{ID: "m1", SenderID: alice.ID}

	msgs := &fakeMessages{
		GetFn:    func(context.Context, string) (*domain.Message, error) { return owned, nil },
		DeleteFn: func(context.Context, string) error { return repository.ErrNotFound },
	}
	req.ErrorIs(NewChatService(msgs, ChatConfig{}, nil).Delete(context.Background(), alice, "m1"), errs.ErrMessageNotFound)

	msgs.GetFn = func(context.Context, string) (*domain.Message, error) { return nil, errors.New("timeout") }
	req.ErrorIs(NewChatService(msgs, ChatConfig{}, nil).Delete(context.Background(), alice, "m1"), errs.ErrPersistence)
}

func TestHistory_UsesConfiguredLimit(t *testing.T) {
	req := require.New(t)
	var gotLimit int
	msgs := &fakeMessages{RecentFn: func(_ context.Context, limit int) ([]domain.Message, error) {
		gotLimit = limit
		return []domain.Message{{ID: "a"}, {ID: "b"}}, nil
	}}

	out, err := NewChatService(msgs, ChatConfig{HistoryLimit: 50}, nil).History(context.Background())
	req.NoError(err)
	req.Len(out, 2)
	req.Equal(50, gotLimit)

	_, err = NewChatService(msgs, ChatConfig{}, nil).History(context.Background())
	req.NoError(err)
	req.Equal(200, gotLimit)
}
