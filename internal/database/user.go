package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/opencircle/opencircle/internal/auth"
	"github.com/opencircle/opencircle/internal/models"
)

// CreateUser hashes the password and inserts the account, filling in
// the generated id. Duplicate emails surface as ErrValidation.
func CreateUser(ctx context.Context, user *models.User) error {
	hash, err := auth.CreateHash(user.Password, auth.Params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = hash

	q := `
		INSERT INTO users (full_name, email, password)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err = DB.QueryRow(ctx, q, user.FullName, user.Email, user.Password).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return fmt.Errorf("email already exists: %w", ErrValidation)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	q := `
		SELECT id, full_name, email, password, profile_img, created_at
		FROM users
		WHERE id = $1
	`
	err := DB.QueryRow(ctx, q, id).Scan(&u.ID, &u.FullName, &u.Email, &u.Password, &u.ProfileImg, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	q := `
		SELECT id, full_name, email, password, profile_img, created_at
		FROM users
		WHERE email = $1
	`
	err := DB.QueryRow(ctx, q, email).Scan(&u.ID, &u.FullName, &u.Email, &u.Password, &u.ProfileImg, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// AuthenticateUser verifies the credentials and returns a signed JWT
// plus the user's id.
func AuthenticateUser(ctx context.Context, email, password string) (string, int64, error) {
	user, err := GetUserByEmail(ctx, email)
	if err != nil {
		return "", 0, fmt.Errorf("user not found or db error: %w", err)
	}

	match, err := auth.ComparePasswordAndHash(password, user.Password)
	if err != nil || !match {
		return "", 0, fmt.Errorf("invalid credentials")
	}

	token, err := auth.CreateJWT(user.ID)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create jwt: %w", err)
	}
	return token, user.ID, nil
}

// SearchUsersByName does a case-insensitive substring match over full
// names, excluding the caller. Not friend-graph aware: strangers and
// friends alike are returned.
func SearchUsersByName(ctx context.Context, query string, excludeUserID int64) ([]models.UserSummary, error) {
	q := `
		SELECT id, full_name, profile_img
		FROM users
		WHERE full_name ILIKE '%' || $1 || '%' AND id <> $2
		ORDER BY full_name, id
	`
	rows, err := DB.Query(ctx, q, query, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.FullName, &u.ProfileImg); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SetProfileImage updates the stored profile image path for a user.
func SetProfileImage(ctx context.Context, userID int64, path string) error {
	ct, err := DB.Exec(ctx, `UPDATE users SET profile_img=$1, updated_at=now() WHERE id=$2`, path, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile image: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}
