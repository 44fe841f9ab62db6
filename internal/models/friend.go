package models

import "time"

// Friendship statuses. An edge is created pending and moves to exactly
// one of accepted or rejected; both are terminal.
const (
	FriendStatusNone     = "none"
	FriendStatusPending  = "pending"
	FriendStatusAccepted = "accepted"
	FriendStatusRejected = "rejected"
)

// Friend is one relationship edge. The edge is undirected in meaning;
// requester/receiver record who initiated it. At most one edge exists
// per unordered user pair, enforced by a unique index on the
// normalized pair.
type Friend struct {
	ID          int64     `json:"id"`
	RequesterID int64     `json:"requesterId"`
	ReceiverID  int64     `json:"receiverId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PendingRequest is an incoming pending edge joined with the
// requester's profile, as shown on the requests page.
type PendingRequest struct {
	EdgeID        int64   `json:"id"`
	RequesterID   int64   `json:"requesterId"`
	RequesterName string  `json:"requesterName"`
	RequesterImg  *string `json:"requesterImg,omitempty"`
}