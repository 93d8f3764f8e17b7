package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cwrk-planet/chat-service/internal/broker"
	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
	"github.com/cwrk-planet/chat-service/internal/service"
	httpmw "github.com/cwrk-planet/chat-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}

type HistoryService interface {
	History(ctx context.Context) ([]domain.Message, error)
}

// MessageDeleter is the broker: REST deletes must reach live clients too.
type MessageDeleter interface {
	DeleteMessage(ctx context.Context, requester domain.Identity, origin broker.Conn, id string) error
}

type Handler struct {
	auth    AuthService
	history HistoryService
	deleter MessageDeleter
}

func NewHandler(auth AuthService, history HistoryService, deleter MessageDeleter) *Handler {
	return &Handler{auth: auth, history: history, deleter: deleter}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return http.StatusBadRequest
	case errs.KindAuthentication:
		return http.StatusUnauthorized
	case errs.KindForbidden:
		return http.StatusForbidden
	case errs.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		httpmw.Logger(r.Context()).Error(op, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: errs.Public(err)})
}

// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	res, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: strings.TrimSpace(req.Username),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, "handler.Register", err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{User: toUserItem(res.User), Token: res.AccessToken})
}

// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	res, err := h.auth.Login(r.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		writeError(w, r, "handler.Login", err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{User: toUserItem(res.User), Token: res.AccessToken})
}

// GET /messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.history.History(r.Context())
	if err != nil {
		writeError(w, r, "handler.ListMessages", err)
		return
	}

	writeJSON(w, http.StatusOK, broker.ToMessageDTOs(msgs))
}

// DELETE /messages/{id}
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := httpmw.IdentityFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: errs.ErrUnauthenticated.Error()})
		return
	}
	messageID := chi.URLParam(r, "id")

	if err := h.deleter.DeleteMessage(r.Context(), id, nil, messageID); err != nil {
		writeError(w, r, "handler.DeleteMessage", err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteMessageResponse{MessageID: messageID})
}
