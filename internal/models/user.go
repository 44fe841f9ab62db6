package models

import "time"

// User is the account record owned by the auth layer. Every other
// component refers to users only by their numeric id.
type User struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	ProfileImg *string   `json:"profileImg,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserSummary is the public projection returned by friend lists and
// user search.
type UserSummary struct {
	ID         int64   `json:"id"`
	FullName   string  `json:"fullName"`
	ProfileImg *string `json:"profileImg,omitempty"`
}
