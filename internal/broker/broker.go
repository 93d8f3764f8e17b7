package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
	"github.com/cwrk-planet/chat-service/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type ChatService interface {
	Send(ctx context.Context, author domain.Identity, text string, replyTo *string) (*domain.Message, error)
	Delete(ctx context.Context, requester domain.Identity, id string) error
}

type Options struct {
	// TypingTTL is the silence interval after which a typing user is stopped.
	TypingTTL time.Duration
	Now       func() time.Time
}

// Broker owns the live-connection registry and the typing state.
//
// writeMu covers persist + broadcast of sends and deletes, so broadcast order
// equals durability order. stateMu covers every typing transition together
// with its broadcast.
type Broker struct {
	hub    *Hub
	typing *Tracker
	chat   ChatService
	opts   Options
	tracer trace.Tracer

	writeMu sync.Mutex
	stateMu sync.Mutex
}

func New(chat ChatService, opts Options) *Broker {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TypingTTL <= 0 {
		opts.TypingTTL = 6 * time.Second
	}

	return &Broker{
		hub:    NewHub(),
		typing: NewTracker(),
		chat:   chat,
		opts:   opts,
		tracer: otel.Tracer("github.com/cwrk-planet/chat-service/internal/broker"),
	}
}

func (b *Broker) Hub() *Hub                { return b.hub }
func (b *Broker) Typing() *Tracker         { return b.typing }
func (b *Broker) Connections() int         { return b.hub.Len() }
func (b *Broker) TypingTTL() time.Duration { return b.opts.TypingTTL }

// Attach registers an authenticated connection.
func (b *Broker) Attach(c Conn) {
	b.hub.Add(c)
	slog.Debug("broker.attach", slog.String("conn", c.ID()), slog.Int64("user_id", int64(c.Identity().ID)))
}

// Detach unregisters c and clears its user's typing state. The hub may have
// already dropped c as a slow consumer; typing is cleared either way.
func (b *Broker) Detach(c Conn) {
	removed := b.hub.Remove(c)
	b.stopTyping(c, c.Identity().ID)
	if removed {
		slog.Debug("broker.detach", slog.String("conn", c.ID()), slog.Int64("user_id", int64(c.Identity().ID)))
	}
}

// SendMessage runs the send path for an event from c. Failures are reported
// to c only and never broadcast.
func (b *Broker) SendMessage(ctx context.Context, c Conn, p SendMessagePayload) (*domain.Message, error) {
	author := c.Identity()
	ctx, span := b.tracer.Start(ctx, "broker.SendMessage", trace.WithAttributes(
		attribute.Int64("chat.user_id", int64(author.ID)),
		attribute.Bool("chat.reply", p.ReplyTo != nil),
	))
	defer span.End()

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	m, err := b.chat.Send(ctx, author, p.Text, p.ReplyTo)
	if err != nil {
		b.fail(ctx, span, c, "broker.send", err)
		return nil, err
	}
	span.SetAttributes(attribute.String("chat.message_id", m.ID))

	b.stateMu.Lock()
	b.hub.Broadcast(Event{Type: EventReceiveMessage, Payload: ReceiveMessagePayload{Message: ToMessageDTO(*m)}})
	if b.typing.Stop(author.ID) {
		b.hub.BroadcastExcept(c, Event{Type: EventUserStopTyping, Payload: UserStopTypingPayload{UserID: int64(author.ID)}})
	}
	b.stateMu.Unlock()

	return m, nil
}

// DeleteMessage runs the delete path for both REST and live requests.
// origin is nil for REST; otherwise failures are reported to it.
func (b *Broker) DeleteMessage(ctx context.Context, requester domain.Identity, origin Conn, id string) error {
	ctx, span := b.tracer.Start(ctx, "broker.DeleteMessage", trace.WithAttributes(
		attribute.Int64("chat.user_id", int64(requester.ID)),
		attribute.String("chat.message_id", id),
	))
	defer span.End()

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if err := b.chat.Delete(ctx, requester, id); err != nil {
		b.fail(ctx, span, origin, "broker.delete", err)
		return err
	}

	b.stateMu.Lock()
	b.hub.Broadcast(Event{Type: EventMessageDeleted, Payload: MessageDeletedPayload{MessageID: id}})
	b.stateMu.Unlock()

	return nil
}

// StartTyping handles a typing signal from c.
func (b *Broker) StartTyping(c Conn) {
	id := c.Identity()

	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	if b.typing.Start(id, b.opts.Now()) {
		b.hub.BroadcastExcept(c, Event{Type: EventUserTyping, Payload: UserTypingPayload{UserID: int64(id.ID), Username: id.Username}})
	}
}

// StopTyping handles an explicit stopTyping signal from c.
func (b *Broker) StopTyping(c Conn) {
	b.stopTyping(c, c.Identity().ID)
}

func (b *Broker) stopTyping(origin Conn, id domain.UserID) {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	if b.typing.Stop(id) {
		b.hub.BroadcastExcept(origin, Event{Type: EventUserStopTyping, Payload: UserStopTypingPayload{UserID: int64(id)}})
	}
}

// ExpireTyping stops users silent for the typing TTL and returns how many were stopped.
func (b *Broker) ExpireTyping(now time.Time) int {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()

	expired := b.typing.Expire(now, b.opts.TypingTTL)
	for _, e := range expired {
		b.hub.Broadcast(Event{Type: EventUserStopTyping, Payload: UserStopTypingPayload{UserID: int64(e.UserID)}})
	}

	return len(expired)
}

// Shutdown closes every live connection and drops typing state.
func (b *Broker) Shutdown() {
	b.hub.CloseAll()
	b.typing.Reset()
}

// ReportError sends messageError to c only.
func (b *Broker) ReportError(c Conn, err error) {
	if c == nil {
		return
	}
	_ = c.Send(Event{Type: EventMessageError, Payload: MessageErrorPayload{
		Message: errs.Public(err),
		Code:    string(errs.KindOf(err)),
	}})
}

func (b *Broker) fail(ctx context.Context, span trace.Span, c Conn, op string, err error) {
	kind := errs.KindOf(err)
	span.SetAttributes(attribute.String("chat.error_kind", string(kind)))
	if kind == errs.KindPersistence {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.FromContext(ctx).Error(op+" failed", slog.Any("err", err))
	} else if !errors.Is(err, errs.ErrEmptyText) {
		logger.FromContext(ctx).Debug(op+" rejected", slog.String("kind", string(kind)), slog.Any("err", err))
	}

	b.ReportError(c, err)
}
