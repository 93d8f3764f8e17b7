package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cwrk-planet/chat-service/internal/errs"
)

type Message struct {
	ID        string
	SenderID  UserID
	Sender    string // username at send time, never re-joined
	Text      string
	ReplyToID *string
	ReplyTo   *ReplySnapshot // resolved one hop; nil when absent or dangling
	CreatedAt time.Time
}

// ReplySnapshot is a point-in-time copy of the replied-to message.
type ReplySnapshot struct {
	ID        string
	SenderID  UserID
	Sender    string
	Text      string
	CreatedAt time.Time
}

// NewMessage builds a message authored by the given identity.
// maxLen <= 0 disables the length check.
func NewMessage(id string, author Identity, text string, replyTo *string, now time.Time, maxLen int) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.ErrEmptyText
	}
	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		return nil, errs.ErrTextTooLong
	}

	return &Message{
		ID:        id,
		SenderID:  author.ID,
		Sender:    author.Username,
		Text:      text,
		ReplyToID: trimPtr(replyTo),
		CreatedAt: now.UTC(),
	}, nil
}

func (m *Message) OwnedBy(id UserID) bool {
	return m.SenderID == id
}

// Snapshot returns the reply view of m.
func (m *Message) Snapshot() *ReplySnapshot {
	return &ReplySnapshot{
		ID:        m.ID,
		SenderID:  m.SenderID,
		Sender:    m.Sender,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	t := strings.TrimSpace(*p)
	if t == "" {
		return nil
	}

	return &t
}
