package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

type messageRepo struct {
	db *badger.DB
}

// diskMessage is the stored form; the reply snapshot is never stored.
type diskMessage struct {
	ID        string    `json:"id"`
	SenderID  int64     `json:"sender_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	ReplyTo   *string   `json:"reply_to,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *messageRepo) Create(_ context.Context, m *domain.Message) (*domain.Message, error) {
	data, err := json.Marshal(diskMessage{
		ID:        m.ID,
		SenderID:  int64(m.SenderID),
		Sender:    m.Sender,
		Text:      m.Text,
		ReplyTo:   m.ReplyToID,
		CreatedAt: m.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}

	var out *domain.Message
	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(msgIDKey(m.ID)); err == nil {
			return repository.ErrAlreadyExists
		}

		tsKey := msgTSKey(m.CreatedAt, m.ID)
		if err := txn.Set(tsKey, data); err != nil {
			return err
		}
		if err := txn.Set(msgIDKey(m.ID), tsKey); err != nil {
			return err
		}

		cp := *m
		cp.ReplyTo = nil
		out = &cp
		return resolveReply(txn, out)
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *messageRepo) Get(_ context.Context, id string) (*domain.Message, error) {
	var out *domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		m, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		out = m
		return resolveReply(txn, out)
	})
	if err != nil {
		return nil, mapBadgerError(err)
	}

	return out, nil
}

func (r *messageRepo) Delete(_ context.Context, id string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(msgIDKey(id))
		if err != nil {
			return err
		}
		tsKey, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(tsKey); err != nil {
			return err
		}
		return txn.Delete(msgIDKey(id))
	})

	return mapBadgerError(err)
}

func (r *messageRepo) Recent(_ context.Context, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(prefixMsgTS)
		it := txn.NewIterator(opts)
		defer it.Close()

		// обратный обход: начинаем с конца префикса
		seek := append([]byte(prefixMsgTS), 0xFF)
		for it.Seek(seek); it.Valid(); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var dm diskMessage
			if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &dm) }); err != nil {
				return err
			}
			out = append(out, dm.toDomain())
		}

		for i := range out {
			if err := resolveReply(txn, &out[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// newest-first -> ascending
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, nil
}

func getMessage(txn *badger.Txn, id string) (*domain.Message, error) {
	item, err := txn.Get(msgIDKey(id))
	if err != nil {
		return nil, err
	}
	tsKey, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}

	item, err = txn.Get(tsKey)
	if err != nil {
		return nil, err
	}
	var dm diskMessage
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &dm) }); err != nil {
		return nil, err
	}

	m := dm.toDomain()
	return &m, nil
}

// resolveReply fills m.ReplyTo one hop; a missing target leaves it nil.
func resolveReply(txn *badger.Txn, m *domain.Message) error {
	if m.ReplyToID == nil {
		return nil
	}

	target, err := getMessage(txn, *m.ReplyToID)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	}
	m.ReplyTo = target.Snapshot()

	return nil
}

func (dm diskMessage) toDomain() domain.Message {
	return domain.Message{
		ID:        dm.ID,
		SenderID:  domain.UserID(dm.SenderID),
		Sender:    dm.Sender,
		Text:      dm.Text,
		ReplyToID: dm.ReplyTo,
		CreatedAt: dm.CreatedAt.UTC(),
	}
}
