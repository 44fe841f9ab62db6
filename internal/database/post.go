package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/opencircle/opencircle/internal/models"
)

// InsertPost creates a post and its tags in one transaction, so no
// feed query can ever observe the post without its full tag set.
// Returns the new post id.
func InsertPost(ctx context.Context, authorID int64, content, mediaURL *string, mediaType string, taggedUserIDs []int64) (int64, error) {
	var postID int64
	err := pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO posts (user_id, content, media_url, media_type)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`
		if err := tx.QueryRow(ctx, q, authorID, content, mediaURL, mediaType).Scan(&postID); err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
		if len(taggedUserIDs) == 0 {
			return nil
		}
		tagQ := `
			INSERT INTO post_tags (post_id, tagged_user_id)
			SELECT $1, unnest($2::bigint[])
		`
		if _, err := tx.Exec(ctx, tagQ, postID, taggedUserIDs); err != nil {
			return fmt.Errorf("failed to insert post tags: %w", err)
		}
		return nil
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("tagged user does not exist: %w", ErrValidation)
		}
		if isUniqueViolation(err, "") {
			return 0, fmt.Errorf("duplicate tag: %w", ErrValidation)
		}
		return 0, err
	}
	return postID, nil
}

// GetPostByID returns a single post with author info and tags, or
// ErrNotFound.
func GetPostByID(ctx context.Context, postID int64) (*models.Post, error) {
	q := `
		SELECT p.id, p.user_id, u.full_name, u.profile_img,
		       p.content, p.media_url, p.media_type, p.created_at
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`
	var p models.Post
	err := DB.QueryRow(ctx, q, postID).Scan(
		&p.ID, &p.AuthorID, &p.AuthorName, &p.AuthorImg,
		&p.Content, &p.MediaURL, &p.MediaType, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	tags, err := tagsForPosts(ctx, []int64{p.ID})
	if err != nil {
		return nil, err
	}
	p.Tags = tags[p.ID]
	if p.Tags == nil {
		p.Tags = []models.Tag{}
	}
	return &p, nil
}

// GetFeed returns the posts whose author is userID or one of
// friendIDs, newest first. Tags are fetched with a single batch query
// over exactly the returned post ids.
func GetFeed(ctx context.Context, userID int64, friendIDs []int64) ([]models.Post, error) {
	authors := append([]int64{userID}, friendIDs...)
	q := `
		SELECT p.id, p.user_id, u.full_name, u.profile_img,
		       p.content, p.media_url, p.media_type, p.created_at
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = ANY($1)
		ORDER BY p.created_at DESC, p.id DESC
	`
	return queryPosts(ctx, q, authors)
}

// GetUserPosts returns all posts by one author, newest first. Not
// friend-gated: profile pages are public.
func GetUserPosts(ctx context.Context, authorID int64) ([]models.Post, error) {
	q := `
		SELECT p.id, p.user_id, u.full_name, u.profile_img,
		       p.content, p.media_url, p.media_type, p.created_at
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC
	`
	return queryPosts(ctx, q, authorID)
}

// DeletePost removes a post owned by callerID; tags go with it via the
// FK cascade. ErrNotAuthorized if the caller is not the author.
func DeletePost(ctx context.Context, callerID, postID int64) error {
	return pgx.BeginTxFunc(ctx, DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var authorID int64
		err := tx.QueryRow(ctx, `SELECT user_id FROM posts WHERE id = $1`, postID).Scan(&authorID)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("post %d: %w", postID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to look up post: %w", err)
		}
		if authorID != callerID {
			return fmt.Errorf("user %d does not own post %d: %w", callerID, postID, ErrNotAuthorized)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, postID); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		return nil
	})
}

func queryPosts(ctx context.Context, q string, args ...any) ([]models.Post, error) {
	rows, err := DB.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []models.Post{}
	ids := []int64{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &p.AuthorName, &p.AuthorImg,
			&p.Content, &p.MediaURL, &p.MediaType, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	tagsByPost, err := tagsForPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	attachTags(posts, tagsByPost)
	return posts, nil
}

// tagsForPosts fetches tag rows for the given post ids in one query
// and groups them by post.
func tagsForPosts(ctx context.Context, postIDs []int64) (map[int64][]models.Tag, error) {
	q := `
		SELECT pt.post_id, pt.tagged_user_id, u.full_name, u.profile_img
		FROM post_tags pt
		JOIN users u ON u.id = pt.tagged_user_id
		WHERE pt.post_id = ANY($1)
		ORDER BY pt.id
	`
	rows, err := DB.Query(ctx, q, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query post tags: %w", err)
	}
	defer rows.Close()

	byPost := map[int64][]models.Tag{}
	for rows.Next() {
		var postID int64
		var t models.Tag
		if err := rows.Scan(&postID, &t.UserID, &t.FullName, &t.ProfileImg); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		byPost[postID] = append(byPost[postID], t)
	}
	return byPost, rows.Err()
}

// attachTags sets each post's tag list from the grouped lookup,
// normalizing missing entries to an empty slice.
func attachTags(posts []models.Post, tagsByPost map[int64][]models.Tag) {
	for i := range posts {
		if tags, ok := tagsByPost[posts[i].ID]; ok {
			posts[i].Tags = tags
		} else {
			posts[i].Tags = []models.Tag{}
		}
	}
}
