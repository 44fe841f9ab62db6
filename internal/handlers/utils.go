package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/opencircle/opencircle/internal/auth"
	"github.com/opencircle/opencircle/internal/database"
)

// extractCookieToken extracts a named cookie value from "Cookie" header, or returns empty if not found.
// Matches whole cookie names only, so e.g. preauth_token never satisfies auth_token.
func extractCookieToken(cookieHeader, cookieName string) string {
	for _, part := range strings.Split(cookieHeader, ";") {
		part = strings.TrimSpace(part)
		if value, ok := strings.CutPrefix(part, cookieName+"="); ok {
			return value
		}
	}
	return ""
}

// authenticateRequest resolves the caller's numeric id from the
// auth_token cookie.
func authenticateRequest(r *http.Request) (int64, error) {
	cookieHeader := r.Header.Get("Cookie")
	if !strings.Contains(cookieHeader, "auth_token=") {
		return 0, fmt.Errorf("missing auth_token")
	}
	return auth.AuthenticateJWT(extractCookieToken(cookieHeader, "auth_token"))
}

// errorBody is the stable failure shape: a machine-readable code plus
// a human-readable message.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps a domain error to its HTTP status and stable code.
// Unrecognized errors are persistence failures and are reported
// without leaking store detail.
func writeError(w http.ResponseWriter, err error) {
	var status int
	var code string
	message := err.Error()

	switch {
	case errors.Is(err, database.ErrSelfRequest):
		status, code = http.StatusBadRequest, "SELF_REQUEST"
	case errors.Is(err, database.ErrValidation):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, database.ErrDuplicateFriend):
		status, code = http.StatusConflict, "DUPLICATE_EDGE"
	case errors.Is(err, database.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, database.ErrNotAuthorized):
		status, code = http.StatusForbidden, "NOT_AUTHORIZED"
	default:
		status, code = http.StatusInternalServerError, "PERSISTENCE_ERROR"
		message = "internal server error"
	}

	writeJSON(w, status, errorBody{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
