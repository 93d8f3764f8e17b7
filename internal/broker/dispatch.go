package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/cwrk-planet/chat-service/internal/errs"
)

var errUnknownEvent = fmt.Errorf("%w: unknown event type", errs.ErrInvalidInput)

// Dispatch routes one inbound event from c. Events of a connection must be
// dispatched sequentially by its reader.
func (b *Broker) Dispatch(ctx context.Context, c Conn, in InboundEvent) {
	switch in.Type {
	case EventSendMessage:
		var p SendMessagePayload
		if err := decodePayload(in.Payload, &p); err != nil {
			b.ReportError(c, err)
			return
		}
		_, _ = b.SendMessage(ctx, c, p)

	case EventTyping:
		b.StartTyping(c)

	case EventStopTyping:
		b.StopTyping(c)

	case EventDeleteMessage:
		id, err := decodeMessageID(in.Payload)
		if err != nil {
			b.ReportError(c, err)
			return
		}
		_ = b.DeleteMessage(ctx, c.Identity(), c, id)

	default:
		b.ReportError(c, errUnknownEvent)
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: malformed payload", errs.ErrInvalidInput)
	}
	return nil
}

// decodeMessageID accepts {"messageId": "..."} or a bare JSON string.
func decodeMessageID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var id string
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", fmt.Errorf("%w: malformed payload", errs.ErrInvalidInput)
		}
		return id, nil
	}

	var p DeleteMessagePayload
	if err := decodePayload(raw, &p); err != nil {
		return "", err
	}

	return p.MessageID, nil
}
