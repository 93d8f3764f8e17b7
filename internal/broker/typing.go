package broker

import (
	"sort"
	"sync"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

type TypingEntry struct {
	UserID     domain.UserID
	Username   string
	LastSignal time.Time
}

// Tracker holds the per-user typing state {absent, typing}.
// All transitions are idempotent: only a real state change returns true.
type Tracker struct {
	mu     sync.Mutex
	typing map[domain.UserID]*TypingEntry
}

func NewTracker() *Tracker {
	return &Tracker{typing: make(map[domain.UserID]*TypingEntry)}
}

// Start returns true on absent -> typing. A repeated signal only refreshes LastSignal.
func (t *Tracker) Start(id domain.Identity, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.typing[id.ID]; ok {
		e.LastSignal = now
		return false
	}
	t.typing[id.ID] = &TypingEntry{UserID: id.ID, Username: id.Username, LastSignal: now}

	return true
}

// Stop returns true on typing -> absent.
func (t *Tracker) Stop(id domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.typing[id]; !ok {
		return false
	}
	delete(t.typing, id)

	return true
}

// Expire removes users silent for at least ttl and returns them ordered by user id.
func (t *Tracker) Expire(now time.Time, ttl time.Duration) []TypingEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []TypingEntry
	for id, e := range t.typing {
		if now.Sub(e.LastSignal) >= ttl {
			out = append(out, *e)
			delete(t.typing, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })

	return out
}

func (t *Tracker) IsTyping(id domain.UserID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.typing[id]
	return ok
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.typing)
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.typing = make(map[domain.UserID]*TypingEntry)
}
