// internal/broadcast/broadcast.go
package broadcast

import (
	"log"
	"sync"

	"github.com/opencircle/opencircle/internal/models"
)

// mailboxBuffer is the per-subscriber queue depth. A publish to a full
// mailbox is dropped; the persisted transcript remains authoritative.
const mailboxBuffer = 32

// Subscriber is one connected listener's mailbox. Obtained from
// Hub.Subscribe and read via C until the channel is closed by the hub.
type Subscriber struct {
	UserID int64
	ch     chan models.Message
}

// C returns the delivery channel. It is closed when the subscriber is
// unsubscribed or replaced by a newer registration.
func (s *Subscriber) C() <-chan models.Message {
	return s.ch
}

// Hub is the live-delivery registry: one mailbox per connected user
// id. Instances are explicitly constructed and injected so tests can
// run isolated hubs; there is no package-level singleton.
//
// The hub gives no delivery guarantee. A message is handed to the
// mailboxes registered under its receiver and sender ids at most once
// each, never queued for absent subscribers, never retried, and never
// ordered relative to concurrent persisted writes. Consumers dedupe
// against history reads by message id.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[int64]*Subscriber
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[int64]*Subscriber),
	}
}

// Subscribe registers a mailbox for userID. If the user already has
// one (another tab or device won a race), the old mailbox is closed
// and replaced.
func (h *Hub) Subscribe(userID int64) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.subscribers[userID]; ok {
		close(old.ch)
	}
	s := &Subscriber{
		UserID: userID,
		ch:     make(chan models.Message, mailboxBuffer),
	}
	h.subscribers[userID] = s
	return s
}

// Unsubscribe removes s and closes its mailbox. A stale subscriber
// that was already replaced is ignored.
func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.subscribers[s.UserID]; ok && current == s {
		delete(h.subscribers, s.UserID)
		close(s.ch)
	}
}

// Publish fans msg out to the mailboxes registered under its receiver
// and sender ids. The sender echo keeps other tabs and devices of the
// sender consistent. Fire and forget: a full mailbox or an absent
// subscriber just means the message is not delivered on this path.
func (h *Hub) Publish(msg models.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.deliver(msg.ReceiverID, msg)
	if msg.SenderID != msg.ReceiverID {
		h.deliver(msg.SenderID, msg)
	}
}

// deliver assumes the read lock is held: a subscriber present in the
// map always has an open channel, since closing happens under the
// write lock together with removal.
func (h *Hub) deliver(userID int64, msg models.Message) {
	s, ok := h.subscribers[userID]
	if !ok {
		return
	}
	select {
	case s.ch <- msg:
	default:
		log.Printf("broadcast: mailbox full for user %d, dropping message %d", userID, msg.ID)
	}
}

// Connected reports whether a mailbox is registered for userID.
func (h *Hub) Connected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.subscribers[userID]
	return ok
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
