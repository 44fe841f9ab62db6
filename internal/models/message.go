package models

import "time"

// Message is one persisted direct message. Immutable once created. The
// transcript for an unordered user pair is totally ordered by
// (CreatedAt, ID) ascending, which doubles as the idempotency key for
// merging live deliveries with history reads.
type Message struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"senderId"`
	ReceiverID int64     `json:"receiverId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
