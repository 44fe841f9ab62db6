package models

import "time"

// Media kinds attached to a post. Classified from the upload MIME type
// at the HTTP boundary; everything that is neither image nor video is
// stored as a generic file.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeFile  = "file"
	MediaTypeNone  = "none"
)

// Post is a feed entry. Content and media are both optional, but the
// boundary requires at least one of them. Author fields are denormalized
// from the users table for display.
type Post struct {
	ID         int64     `json:"id"`
	AuthorID   int64     `json:"userId"`
	AuthorName string    `json:"authorName"`
	AuthorImg  *string   `json:"authorImg,omitempty"`
	Content    *string   `json:"content,omitempty"`
	MediaURL   *string   `json:"mediaUrl,omitempty"`
	MediaType  string    `json:"mediaType"`
	CreatedAt  time.Time `json:"createdAt"`
	Tags       []Tag     `json:"tags"`
}

// Tag is a user tagged on a post, joined with their profile summary.
// Tags are written atomically with the post and never mutated.
type Tag struct {
	UserID     int64   `json:"id"`
	FullName   string  `json:"fullName"`
	ProfileImg *string `json:"profileImg,omitempty"`
}
