package database

import (
	"context"
	"fmt"

	"github.com/opencircle/opencircle/internal/models"
)

// InsertMessage appends an immutable message record and returns it
// with the generated id and timestamp. This is the authoritative
// delivery path; the live broadcast is announced separately by the
// caller after this succeeds.
func InsertMessage(ctx context.Context, senderID, receiverID int64, content string) (*models.Message, error) {
	q := `
		INSERT INTO messages (sender_id, receiver_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	m := models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	err := DB.QueryRow(ctx, q, senderID, receiverID, content).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("no such user: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}
	return &m, nil
}

// GetMessagesBetween returns the full transcript for the unordered
// pair in (created_at, id) ascending order. Repeated calls return the
// same prefix-consistent ordering, so a reconnecting client can rely
// on this alone for a complete conversation.
func GetMessagesBetween(ctx context.Context, userA, userB int64) ([]models.Message, error) {
	q := `
		SELECT id, sender_id, receiver_id, content, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC, id ASC
	`
	rows, err := DB.Query(ctx, q, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
