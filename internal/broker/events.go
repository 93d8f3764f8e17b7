package broker

import (
	"encoding/json"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/samber/lo"
)

// Типы событий, которые приходят от клиента
const (
	EventSendMessage   = "sendMessage"
	EventTyping        = "typing"
	EventStopTyping    = "stopTyping"
	EventDeleteMessage = "deleteMessage"
)

// Типы событий, которые рассылает сервер
const (
	EventReceiveMessage = "receiveMessage"
	EventUserTyping     = "userTyping"
	EventUserStopTyping = "userStopTyping"
	EventMessageDeleted = "messageDeleted"
	EventMessageError   = "messageError" // только инициатору
)

// Event is the frame on the live channel: {"type": ..., "payload": ...}.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// InboundEvent keeps the payload raw until the type is known.
type InboundEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SendMessagePayload has no sender fields: identity always comes from the connection.
type SendMessagePayload struct {
	Text    string  `json:"text"`
	ReplyTo *string `json:"replyTo,omitempty"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId"`
}

type ReceiveMessagePayload struct {
	Message MessageDTO `json:"message"`
}

type UserTypingPayload struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

type UserStopTypingPayload struct {
	UserID int64 `json:"userId"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type MessageErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

type MessageDTO struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	SenderID  int64     `json:"senderId"`
	Text      string    `json:"text"`
	ReplyTo   *ReplyDTO `json:"replyTo"`
	Timestamp time.Time `json:"timestamp"`
}

type ReplyDTO struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	SenderID  int64     `json:"senderId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func ToMessageDTO(m domain.Message) MessageDTO {
	dto := MessageDTO{
		ID:        m.ID,
		Sender:    m.Sender,
		SenderID:  int64(m.SenderID),
		Text:      m.Text,
		Timestamp: m.CreatedAt,
	}
	if r := m.ReplyTo; r != nil {
		dto.ReplyTo = &ReplyDTO{
			ID:        r.ID,
			Sender:    r.Sender,
			SenderID:  int64(r.SenderID),
			Text:      r.Text,
			Timestamp: r.CreatedAt,
		}
	}

	return dto
}

func ToMessageDTOs(msgs []domain.Message) []MessageDTO {
	return lo.Map(msgs, func(m domain.Message, _ int) MessageDTO { return ToMessageDTO(m) })
}
