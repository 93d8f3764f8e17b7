// Package badgerdb stores users and messages in an embedded BadgerDB.
package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

type Options struct {
	Dir      string
	InMemory bool
}

// Store is a single-node repository.Store on top of badger.
type Store struct {
	db      *badger.DB
	userSeq *badger.Sequence
}

var _ repository.Store = (*Store)(nil)

func Open(opts Options) (*Store, error) {
	bo := badger.DefaultOptions(opts.Dir).
		WithLogger(badgerLogger{l: slog.Default().With(slog.String("component", "badger"))})
	if opts.InMemory {
		bo = bo.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(bo)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}

	seq, err := db.GetSequence([]byte(keyUserSeq), 64)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("badger user sequence: %w", err)
	}

	return &Store{db: db, userSeq: seq}, nil
}

func (s *Store) Users() repository.UserRepository       { return &userRepo{s: s} }
func (s *Store) Messages() repository.MessageRepository { return &messageRepo{db: s.db} }

func (s *Store) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: db is closed")
	}
	return nil
}

func (s *Store) Close() error {
	// sequence must be released before the db, otherwise leased ids are lost
	relErr := s.userSeq.Release()
	return errors.Join(relErr, s.db.Close())
}

func mapBadgerError(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return repository.ErrNotFound
	}
	return err
}

type badgerLogger struct{ l *slog.Logger }

func (b badgerLogger) Errorf(f string, v ...any)   { b.l.Error(fmt.Sprintf(f, v...)) }
func (b badgerLogger) Warningf(f string, v ...any) { b.l.Warn(fmt.Sprintf(f, v...)) }
func (b badgerLogger) Infof(f string, v ...any)    { b.l.Debug(fmt.Sprintf(f, v...)) }
func (b badgerLogger) Debugf(f string, v ...any)   { b.l.Debug(fmt.Sprintf(f, v...)) }
