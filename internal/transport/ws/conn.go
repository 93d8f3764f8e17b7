package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/cwrk-planet/chat-service/internal/broker"
	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/gorilla/websocket"
)

var (
	errConnClosed   = errors.New("ws: connection closed")
	errSlowConsumer = errors.New("ws: outbound queue full")
)

const writeWait = 5 * time.Second

// wsConn implements broker.Conn. Outbound events go through a bounded queue
// drained by a single writer goroutine.
type wsConn struct {
	id       string
	conn     *websocket.Conn
	identity domain.Identity

	out       chan broker.Event
	closed    chan struct{}
	closeOnce sync.Once
}

var _ broker.Conn = (*wsConn)(nil)

func newWsConn(id string, c *websocket.Conn, identity domain.Identity, queue int) *wsConn {
	return &wsConn{
		id:       id,
		conn:     c,
		identity: identity,
		out:      make(chan broker.Event, queue),
		closed:   make(chan struct{}),
	}
}

func (c *wsConn) ID() string                { return c.id }
func (c *wsConn) Identity() domain.Identity { return c.identity }

// Send never blocks.
func (c *wsConn) Send(evt broker.Event) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}

	select {
	case c.out <- evt:
		return nil
	default:
		return errSlowConsumer
	}
}

// Close is safe to call many times and from any goroutine.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			err = c.conn.Close()
		}
	})

	return err
}

func (c *wsConn) write(evt broker.Event) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(evt)
}
