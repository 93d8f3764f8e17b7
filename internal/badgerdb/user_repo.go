package badgerdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
	"github.com/cwrk-planet/chat-service/internal/repository"

	"github.com/dgraph-io/badger/v4"
)

type userRepo struct {
	s *Store
}

type diskUser struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *userRepo) Create(_ context.Context, u *domain.User) (domain.UserID, error) {
	n, err := r.s.userSeq.Next()
	if err != nil {
		return 0, fmt.Errorf("badger next user id: %w", err)
	}
	id := domain.UserID(n + 1)

	data, err := json.Marshal(diskUser{
		ID:           int64(id),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal user: %w", err)
	}

	err = r.s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userEmailKey(u.Email)); err == nil {
			return fmt.Errorf("%w: %w", repository.ErrAlreadyExists, errs.ErrDuplicateEmail)
		}
		if _, err := txn.Get(userNameKey(u.Username)); err == nil {
			return fmt.Errorf("%w: %w", repository.ErrAlreadyExists, errs.ErrDuplicateUsername)
		}

		idVal := []byte(strconv.FormatInt(int64(id), 10))
		if err := txn.Set(userIDKey(id), data); err != nil {
			return err
		}
		if err := txn.Set(userEmailKey(u.Email), idVal); err != nil {
			return err
		}
		return txn.Set(userNameKey(u.Username), idVal)
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *userRepo) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	var u *domain.User
	err := r.s.db.View(func(txn *badger.Txn) error {
		var err error
		u, err = getUser(txn, userIDKey(id))
		return err
	})
	if err != nil {
		return nil, mapBadgerError(err)
	}

	return u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var u *domain.User
	err := r.s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userEmailKey(email))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		id, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return fmt.Errorf("corrupt email index for %q: %w", email, err)
		}
		u, err = getUser(txn, userIDKey(domain.UserID(id)))
		return err
	})
	if err != nil {
		return nil, mapBadgerError(err)
	}

	return u, nil
}

func (r *userRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	return r.exists(userEmailKey(email))
}

func (r *userRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	return r.exists(userNameKey(username))
}

func (r *userRepo) exists(key []byte) (bool, error) {
	err := r.s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func getUser(txn *badger.Txn, key []byte) (*domain.User, error) {
	item, err := txn.Get(key)
	if err != nil {
		return nil, err
	}

	var du diskUser
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &du) }); err != nil {
		return nil, err
	}

	return &domain.User{
		ID:           domain.UserID(du.ID),
		Username:     du.Username,
		Email:        du.Email,
		PasswordHash: du.PasswordHash,
		CreatedAt:    du.CreatedAt.UTC(),
	}, nil
}
