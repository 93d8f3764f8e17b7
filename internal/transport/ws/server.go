package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/broker"
	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/errs"
	"github.com/cwrk-planet/chat-service/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}

type Config struct {
	PingEvery      time.Duration
	OutboundQueue  int
	ReadLimit      int64
	AllowedOrigins []string // "*" или пусто - любые
}

type Server struct {
	upgrader websocket.Upgrader
	broker   *broker.Broker
	auth     Authenticator
	cfg      Config
}

func NewServer(b *broker.Broker, auth Authenticator, cfg Config) *Server {
	if cfg.PingEvery <= 0 {
		cfg.PingEvery = 15 * time.Second
	}
	if cfg.OutboundQueue <= 0 {
		cfg.OutboundQueue = 64
	}
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 64 << 10
	}

	s := &Server{broker: b, auth: auth, cfg: cfg}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	return s
}

// HandleWS: GET /ws
// Токен: Authorization: Bearer <token>, либо ?token= / ?access_token=.
// Без валидного токена отвечаем 401 до upgrade, обработчики событий не регистрируются.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	identity, err := s.auth.Authenticate(r.Context(), tokenFromRequest(r))
	if err != nil {
		status := http.StatusUnauthorized
		if errs.KindOf(err) == errs.KindPersistence {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": errs.Public(err)})
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader уже ответил клиенту
		slog.Warn("ws upgrade failed", slog.Int64("user_id", int64(identity.ID)), slog.Any("err", err))
		return
	}

	c := newWsConn(uuid.NewString(), conn, identity, s.cfg.OutboundQueue)
	l := logger.L().With(
		slog.String("conn", c.id),
		slog.Int64("user_id", int64(identity.ID)),
	)
	ctx := logger.WithContext(context.WithoutCancel(r.Context()), l)

	s.broker.Attach(c)
	l.Info("ws connected")

	go s.writeLoop(c)
	s.readLoop(ctx, c)

	s.broker.Detach(c)
	_ = c.Close()
	l.Info("ws disconnected")
}

// readLoop processes events of one connection strictly in order.
func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	c.conn.SetReadLimit(s.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logger.FromContext(ctx).Debug("ws read failed", slog.Any("err", err))
			}
			return
		}
		// любое входящее сообщение тоже продлевает жизнь соединения
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))

		var in broker.InboundEvent
		if err := json.Unmarshal(data, &in); err != nil {
			s.broker.ReportError(c, fmt.Errorf("%w: malformed frame", errs.ErrInvalidInput))
			continue
		}
		s.broker.Dispatch(ctx, c, in)
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.cfg.PingEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-c.out:
			if err := c.write(evt); err != nil {
				slog.Debug("ws write failed", slog.String("conn", c.id), slog.Any("err", err))
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 || slices.Contains(s.cfg.AllowedOrigins, "*") {
		return true
	}

	return slices.Contains(s.cfg.AllowedOrigins, origin)
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	q := r.URL.Query()
	if t := strings.TrimSpace(q.Get("token")); t != "" {
		return t
	}

	return strings.TrimSpace(q.Get("access_token"))
}
