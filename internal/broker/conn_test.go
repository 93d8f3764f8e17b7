package broker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// recConn records every event it is sent.
type recConn struct {
	id       string
	identity domain.Identity

	mu     sync.Mutex
	events []Event
	full   bool
	closed bool
}

func newRecConn(id string, who domain.Identity) *recConn {
	return &recConn{id: id, identity: who}
}

func (c *recConn) ID() string                { return c.id }
func (c *recConn) Identity() domain.Identity { return c.identity }

func (c *recConn) Send(evt Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("closed")
	}
	if c.full {
		return errors.New("queue full")
	}
	c.events = append(c.events, evt)
	return nil
}

func (c *recConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func (c *recConn) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *recConn) Types() []string {
	var out []string
	for _, e := range c.Events() {
		out = append(out, e.Type)
	}
	return out
}

func (c *recConn) OfType(typ string) []Event {
	var out []Event
	for _, e := range c.Events() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (c *recConn) String() string { return fmt.Sprintf("%s(%d)", c.id, c.identity.ID) }
