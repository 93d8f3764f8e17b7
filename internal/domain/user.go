package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/errs"
)

type UserID int64

type User struct {
	ID           UserID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is who a live connection or REST request acts as.
type Identity struct {
	ID       UserID
	Username string
}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

// Создает нового пользователя
// Ожидает уже посчитанный хеш пароля
func NewUser(username, email, passwordHash string, now time.Time) (*User, error) {
	username = strings.TrimSpace(username)
	if !usernameRe.MatchString(username) {
		return nil, errs.ErrInvalidUsername
	}
	email = NormalizeEmail(email)
	if email == "" {
		return nil, errs.ErrInvalidEmail
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, errs.ErrEmptyPasswordHash
	}

	return &User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
	}, nil
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username}
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
