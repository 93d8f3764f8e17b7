package http

import (
	"github.com/cwrk-planet/chat-service/internal/domain"
)

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserItem struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	User  UserItem `json:"user"`
	Token string   `json:"token"`
}

type DeleteMessageResponse struct {
	MessageID string `json:"messageId"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toUserItem(u *domain.User) UserItem {
	return UserItem{ID: int64(u.ID), Username: u.Username, Email: u.Email}
}
