package database

import (
	"context"
	"fmt"
)

// The friends_pair_key index is what makes InsertFriendRequest race
// free: two simultaneous requests for the same pair in opposite
// directions collide on the normalized (LEAST, GREATEST) key, so at
// most one insert can win.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		full_name TEXT NOT NULL,
		email TEXT NOT NULL,
		password TEXT NOT NULL,
		profile_img TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS friends (
		id BIGSERIAL PRIMARY KEY,
		requester_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receiver_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'accepted', 'rejected')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (requester_id <> receiver_id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS friends_pair_key
		ON friends (LEAST(requester_id, receiver_id), GREATEST(requester_id, receiver_id))`,
	`CREATE TABLE IF NOT EXISTS posts (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT,
		media_url TEXT,
		media_type TEXT NOT NULL DEFAULT 'none'
			CHECK (media_type IN ('image', 'video', 'file', 'none')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS posts_author_created_idx
		ON posts (user_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS post_tags (
		id BIGSERIAL PRIMARY KEY,
		post_id BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		tagged_user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (post_id, tagged_user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		sender_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		receiver_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS messages_pair_created_idx
		ON messages (LEAST(sender_id, receiver_id), GREATEST(sender_id, receiver_id), created_at, id)`,
}

// Migrate applies the schema. Statements are idempotent, so this runs
// unconditionally at startup.
func Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := DB.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
