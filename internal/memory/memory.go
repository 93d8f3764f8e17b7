// Package memory implements an in-memory store for development and testing.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
	"github.com/cwrk-planet/chat-service/internal/repository"
)

// DB implements repository.Store in process memory.
type DB struct {
	mu       sync.Mutex
	users    []*domain.User
	messages []domain.Message

	userIDCounter int64
}

func New() *DB {
	return &DB{}
}

var (
	_ repository.Store             = (*DB)(nil)
	_ repository.UserRepository    = (*userRepo)(nil)
	_ repository.MessageRepository = (*messageRepo)(nil)
)

type userRepo struct{ db *DB }

type messageRepo struct{ db *DB }

func (db *DB) Users() repository.UserRepository       { return &userRepo{db: db} }
func (db *DB) Messages() repository.MessageRepository { return &messageRepo{db: db} }
func (db *DB) Ping(context.Context) error             { return nil }
func (db *DB) Close() error                           { return nil }

// --- users ---

func (r *userRepo) Create(_ context.Context, u *domain.User) (domain.UserID, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return 0, fmt.Errorf("%w: %w", repository.ErrAlreadyExists, errs.ErrDuplicateEmail)
		}
		if existing.Username == u.Username {
			return 0, fmt.Errorf("%w: %w", repository.ErrAlreadyExists, errs.ErrDuplicateUsername)
		}
	}

	r.db.userIDCounter++
	cp := *u
	cp.ID = domain.UserID(r.db.userIDCounter)
	r.db.users = append(r.db.users, &cp)

	return cp.ID, nil
}

func (r *userRepo) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *userRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := r.find(func(u *domain.User) bool { return u.Email == email })
	return err == nil, nil
}

func (r *userRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, err := r.find(func(u *domain.User) bool { return u.Username == username })
	return err == nil, nil
}

func (r *userRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}

	return nil, repository.ErrNotFound
}

// --- messages ---

func (r *messageRepo) Create(_ context.Context, m *domain.Message) (*domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i := range r.db.messages {
		if r.db.messages[i].ID == m.ID {
			return nil, repository.ErrAlreadyExists
		}
	}

	cp := *m
	cp.ReplyTo = nil
	r.db.messages = append(r.db.messages, cp)

	return r.db.resolve(cp), nil
}

func (r *messageRepo) Get(_ context.Context, id string) (*domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.indexOf(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}

	return r.db.resolve(r.db.messages[i]), nil
}

func (r *messageRepo) Delete(_ context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	i := r.db.indexOf(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	r.db.messages = append(r.db.messages[:i], r.db.messages[i+1:]...)

	return nil
}

func (r *messageRepo) Recent(_ context.Context, limit int) ([]domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	sorted := make([]domain.Message, len(r.db.messages))
	copy(sorted, r.db.messages)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	if limit > 0 && len(sorted) > limit {
		sorted = sorted[len(sorted)-limit:]
	}

	out := make([]domain.Message, 0, len(sorted))
	for _, m := range sorted {
		out = append(out, *r.db.resolve(m))
	}

	return out, nil
}

// caller holds mu
func (db *DB) indexOf(id string) int {
	for i := range db.messages {
		if db.messages[i].ID == id {
			return i
		}
	}

	return -1
}

// caller holds mu
func (db *DB) resolve(m domain.Message) *domain.Message {
	m.ReplyTo = nil
	if m.ReplyToID != nil {
		if i := db.indexOf(*m.ReplyToID); i >= 0 {
			m.ReplyTo = db.messages[i].Snapshot()
		}
	}

	return &m
}
