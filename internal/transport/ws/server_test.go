package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/internal/broker"
	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/memory"
	"github.com/cwrk-planet/chat-service/internal/security"
	"github.com/cwrk-planet/chat-service/internal/service"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv    *httptest.Server
	auth   *service.AuthService
	broker *broker.Broker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memory.New()
	signer := security.NewJWTSigner([]byte("0123456789abcdef0123456789abcdef"), "chat-test", time.Hour, 0)
	auth := service.NewAuthService(db.Users(), signer, security.BcryptConfig{Cost: 4, MinLength: 6}, nil)
	chat := service.NewChatService(db.Messages(), service.ChatConfig{HistoryLimit: 50, MaxTextLength: 1000}, nil)
	b := broker.New(chat, broker.Options{})

	s := NewServer(b, auth, Config{PingEvery: time.Second, OutboundQueue: 16})
	srv := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	t.Cleanup(func() {
		b.Shutdown()
		srv.Close()
	})

	return &fixture{srv: srv, auth: auth, broker: b}
}

func (f *fixture) token(t *testing.T, username string) string {
	t.Helper()
	res, err := f.auth.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	return res.AccessToken
}

func (f *fixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readFrame(t *testing.T, c *websocket.Conn) frame {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))
	var fr frame
	require.NoError(t, c.ReadJSON(&fr))
	return fr
}

func TestHandshake_RejectsWithoutToken(t *testing.T) {
	f := newFixture(t)
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	_, resp, err = websocket.DefaultDialer.Dial(url+"/?token=garbage", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	require.Equal(t, 0, f.broker.Connections())
}

func TestSendMessage_RoundTrip(t *testing.T) {
	f := newFixture(t)
	a := f.dial(t, f.token(t, "alice"))
	b := f.dial(t, f.token(t, "bob"))

	require.Eventually(t, func() bool { return f.broker.Connections() == 2 }, 2*time.Second, 10*time.Millisecond)

	// senderId в payload игнорируется
	require.NoError(t, a.WriteJSON(map[string]any{
		"type":    broker.EventSendMessage,
		"payload": map[string]any{"text": "  hello  ", "senderId": 999},
	}))

	for _, c := range []*websocket.Conn{a, b} {
		fr := readFrame(t, c)
		require.Equal(t, broker.EventReceiveMessage, fr.Type)

		var p broker.ReceiveMessagePayload
		require.NoError(t, json.Unmarshal(fr.Payload, &p))
		require.Equal(t, "hello", p.Message.Text)
		require.Equal(t, "alice", p.Message.Sender)
		require.NotEqual(t, int64(999), p.Message.SenderID)
		require.Nil(t, p.Message.ReplyTo)
	}
}

func TestMalformedFrame_ErrorOnlyToOrigin(t *testing.T) {
	f := newFixture(t)
	a := f.dial(t, f.token(t, "alice"))

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(`{"type":`)))

	fr := readFrame(t, a)
	require.Equal(t, broker.EventMessageError, fr.Type)

	// соединение живо после ошибки
	require.NoError(t, a.WriteJSON(broker.Event{Type: broker.EventSendMessage, Payload: broker.SendMessagePayload{Text: "still here"}}))
	fr = readFrame(t, a)
	require.Equal(t, broker.EventReceiveMessage, fr.Type)
}

func TestDisconnect_Detaches(t *testing.T) {
	f := newFixture(t)
	a := f.dial(t, f.token(t, "alice"))
	require.Eventually(t, func() bool { return f.broker.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.Close())
	require.Eventually(t, func() bool { return f.broker.Connections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWsConn_SendDoesNotBlock(t *testing.T) {
	c := newWsConn("c1", nil, domain.Identity{ID: 1, Username: "alice"}, 1)

	require.NoError(t, c.Send(broker.Event{Type: broker.EventUserTyping}))
	require.ErrorIs(t, c.Send(broker.Event{Type: broker.EventUserTyping}), errSlowConsumer)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	require.ErrorIs(t, c.Send(broker.Event{}), errConnClosed)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws?access_token=q", nil)
	require.Equal(t, "q", tokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer h")
	require.Equal(t, "h", tokenFromRequest(r))
}
