package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/opencircle/opencircle/internal/models"
)

// InsertFriendRequest creates a pending edge owned by requesterID.
//
// Pair uniqueness is enforced by the friends_pair_key index on the
// normalized pair, so there is no check-then-insert window: concurrent
// requests for the same pair in either direction resolve to a single
// winner, and any existing edge (pending, accepted or rejected) makes
// the insert fail with ErrDuplicateFriend.
func InsertFriendRequest(ctx context.Context, requesterID, receiverID int64) (*models.Friend, error) {
	if requesterID == receiverID {
		return nil, ErrSelfRequest
	}

	q := `
		INSERT INTO friends (requester_id, receiver_id, status)
		VALUES ($1, $2, 'pending')
		RETURNING id, created_at, updated_at
	`
	f := models.Friend{
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      models.FriendStatusPending,
	}
	err := DB.QueryRow(ctx, q, requesterID, receiverID).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "friends_pair_key") {
			return nil, ErrDuplicateFriend
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("no such user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to insert friend request: %w", err)
	}
	return &f, nil
}

// AcceptFriendRequest transitions the pending edge (requesterID ->
// receiverID) to accepted. The caller must already have been verified
// to be receiverID. Returns ErrNotFound if no pending edge matches.
func AcceptFriendRequest(ctx context.Context, requesterID, receiverID int64) error {
	return setFriendStatus(ctx, requesterID, receiverID, models.FriendStatusAccepted)
}

// RejectFriendRequest transitions the pending edge to rejected, which
// is terminal: the pair can never re-request.
func RejectFriendRequest(ctx context.Context, requesterID, receiverID int64) error {
	return setFriendStatus(ctx, requesterID, receiverID, models.FriendStatusRejected)
}

func setFriendStatus(ctx context.Context, requesterID, receiverID int64, status string) error {
	q := `
		UPDATE friends
		SET status=$3, updated_at=now()
		WHERE requester_id=$1 AND receiver_id=$2 AND status='pending'
	`
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, q, requesterID, receiverID, status)
		if err != nil {
			return fmt.Errorf("failed to update friend status: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("no pending request from %d to %d: %w", requesterID, receiverID, ErrNotFound)
		}
		return nil
	})
}

// ListFriends returns the profile summaries of every user with an
// accepted edge to userID, in either direction. Symmetric by
// construction: if b is in a's list, a is in b's.
func ListFriends(ctx context.Context, userID int64) ([]models.UserSummary, error) {
	q := `
		SELECT u.id, u.full_name, u.profile_img
		FROM users u
		JOIN friends f
		  ON (f.requester_id = u.id AND f.receiver_id = $1)
		  OR (f.receiver_id = u.id AND f.requester_id = $1)
		WHERE f.status = 'accepted'
		ORDER BY u.full_name, u.id
	`
	rows, err := DB.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	friends := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.FullName, &u.ProfileImg); err != nil {
			return nil, fmt.Errorf("failed to scan friend row: %w", err)
		}
		friends = append(friends, u)
	}
	return friends, rows.Err()
}

// ListFriendIDs returns just the ids of userID's accepted friends.
// The feed visibility set is this slice plus userID itself.
func ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	q := `
		SELECT CASE WHEN requester_id = $1 THEN receiver_id ELSE requester_id END
		FROM friends
		WHERE (requester_id = $1 OR receiver_id = $1) AND status = 'accepted'
	`
	rows, err := DB.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPendingRequests returns incoming pending edges for userID joined
// with each requester's profile.
func ListPendingRequests(ctx context.Context, userID int64) ([]models.PendingRequest, error) {
	q := `
		SELECT f.id, f.requester_id, u.full_name, u.profile_img
		FROM friends f
		JOIN users u ON u.id = f.requester_id
		WHERE f.receiver_id = $1 AND f.status = 'pending'
		ORDER BY f.created_at DESC
	`
	rows, err := DB.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	reqs := []models.PendingRequest{}
	for rows.Next() {
		var pr models.PendingRequest
		if err := rows.Scan(&pr.EdgeID, &pr.RequesterID, &pr.RequesterName, &pr.RequesterImg); err != nil {
			return nil, fmt.Errorf("failed to scan pending request: %w", err)
		}
		reqs = append(reqs, pr)
	}
	return reqs, rows.Err()
}

// CheckFriendshipStatus returns the edge status for the unordered pair,
// or "none" when no edge exists. Advisory only: callers use it to avoid
// duplicate requests, the hard guarantee lives in the pair index.
func CheckFriendshipStatus(ctx context.Context, a, b int64) (string, error) {
	q := `
		SELECT status FROM friends
		WHERE (requester_id = $1 AND receiver_id = $2)
		   OR (requester_id = $2 AND receiver_id = $1)
	`
	var status string
	err := DB.QueryRow(ctx, q, a, b).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.FriendStatusNone, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to check friendship status: %w", err)
	}
	return status, nil
}
