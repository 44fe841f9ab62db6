package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opencircle/opencircle/internal/auth"
	"github.com/opencircle/opencircle/internal/database"
	"github.com/opencircle/opencircle/internal/models"
)

// RegisterHandler creates a new account.
//
// Request payload: { "fullName": "...", "email": "...", "password": "..." }
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		writeError(w, fmt.Errorf("all fields are required: %w", database.ErrValidation))
		return
	}

	user := models.User{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	}
	if err := database.CreateUser(r.Context(), &user); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "user registered successfully",
		"userId":  user.ID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
}

// LoginHandler verifies credentials and returns a JWT, also set as the
// auth_token cookie.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	token, userID, err := database.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   auth.TOKEN_EXPIRE_TIME_SEC,
	})

	writeJSON(w, http.StatusOK, loginResponse{Token: token, UserID: userID})
}

// SearchUsersHandler does a substring match over user names, excluding
// the caller. Friends and strangers alike are returned; the client
// combines this with the status endpoint to render request buttons.
//
// GET /users/search?query=ali
func SearchUsersHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("query")
	if len(query) < 2 {
		writeError(w, fmt.Errorf("query too short (minimum 2 characters): %w", database.ErrValidation))
		return
	}

	users, err := database.SearchUsersByName(r.Context(), query, callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UserProfileHandler returns one user's profile. Profiles are visible
// to any authenticated caller; the password hash never serializes.
//
// GET /users/{userID}
func UserProfileHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := authenticateRequest(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/users/")
	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	user, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UploadProfilePhotoHandler stores a new profile image for the caller
// and records its public URL on the account.
//
// POST /users/photo, multipart with a "profileImg" file field.
func UploadProfilePhotoHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, err := authenticateRequest(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "invalid multipart payload", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("profileImg")
		if err != nil {
			writeError(w, fmt.Errorf("profileImg file is required: %w", database.ErrValidation))
			return
		}
		defer file.Close()

		url, err := saveUpload(file, header, "")
		if err != nil {
			logger.Warnf("failed to store profile photo: %v", err)
			http.Error(w, "failed to store media", http.StatusInternalServerError)
			return
		}

		if err := database.SetProfileImage(r.Context(), callerID, url); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "profileImg": url})
	}
}
