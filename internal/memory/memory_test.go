package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/stretchr/testify/require"
)

func TestUsers_CreateAndLookup(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	users := New().Users()

	id, err := users.Create(ctx, &domain.User{Username: "alice", Email: "a@x.io", PasswordHash: "h"})
	req.NoError(err)
	req.Equal(domain.UserID(1), id)

	u, err := users.GetByEmail(ctx, "a@x.io")
	req.NoError(err)
	req.Equal(id, u.ID)

	_, err = users.Create(ctx, &domain.User{Username: "alice2", Email: "a@x.io", PasswordHash: "h"})
	req.ErrorIs(err, repository.ErrAlreadyExists)
	req.ErrorIs(err, errs.ErrDuplicateEmail)

	_, err = users.Create(ctx, &domain.User{Username: "alice", Email: "b@x.io", PasswordHash: "h"})
	req.ErrorIs(err, errs.ErrDuplicateUsername)

	ok, err := users.ExistsByUsername(ctx, "alice")
	req.NoError(err)
	req.True(ok)

	_, err = users.GetByID(ctx, 42)
	req.ErrorIs(err, repository.ErrNotFound)
}

func TestMessages_RecentWindowAndReplies(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	msgs := New().Messages()
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := msgs.Create(ctx, &domain.Message{
			ID: fmt.Sprintf("m%d", i), SenderID: 1, Sender: "alice",
			Text: fmt.Sprintf("text %d", i), CreatedAt: t0.Add(time.Duration(i) * time.Second),
		})
		req.NoError(err)
	}

	target := "m4"
	reply, err := msgs.Create(ctx, &domain.Message{
		ID: "m5", SenderID: 2, Sender: "bob", Text: "re", ReplyToID: &target, CreatedAt: t0.Add(5 * time.Second),
	})
	req.NoError(err)
	req.NotNil(reply.ReplyTo)
	req.Equal("text 4", reply.ReplyTo.Text)
	req.Equal("alice", reply.ReplyTo.Sender)

	recent, err := msgs.Recent(ctx, 3)
	req.NoError(err)
	req.Len(recent, 3)
	req.Equal([]string{"m3", "m4", "m5"}, []string{recent[0].ID, recent[1].ID, recent[2].ID})

	req.NoError(msgs.Delete(ctx, "m4"))
	req.ErrorIs(msgs.Delete(ctx, "m4"), repository.ErrNotFound)

	got, err := msgs.Get(ctx, "m5")
	req.NoError(err)
	req.Nil(got.ReplyTo)
	req.Equal("m4", *got.ReplyToID)
}
