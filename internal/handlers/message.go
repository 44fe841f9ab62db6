// internal/handlers/message.go
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/opencircle/opencircle/internal/broadcast"
	"github.com/opencircle/opencircle/internal/database"
)

// SendMessageHandler persists a message and then announces it once on
// the live hub. Persistence is authoritative; the publish is
// best-effort and its outcome never affects the response.
//
// Request payload: { "receiverId": 2, "content": "hi" }
func SendMessageHandler(hub *broadcast.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, err := authenticateRequest(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		var req struct {
			ReceiverID int64  `json:"receiverId"`
			Content    string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		if req.ReceiverID == 0 || strings.TrimSpace(req.Content) == "" {
			writeError(w, fmt.Errorf("receiver and content required: %w", database.ErrValidation))
			return
		}

		msg, err := database.InsertMessage(r.Context(), callerID, req.ReceiverID, req.Content)
		if err != nil {
			writeError(w, err)
			return
		}

		hub.Publish(*msg)

		writeJSON(w, http.StatusCreated, map[string]any{
			"success":   true,
			"messageId": msg.ID,
			"createdAt": msg.CreatedAt,
		})
	}
}

// HistoryHandler returns the full transcript between the caller and
// another user in ascending (createdAt, id) order. Clients merge live
// deliveries into this by message id.
//
// GET /messages/history/{friendID}
func HistoryHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/messages/history/")
	friendID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid friend id", http.StatusBadRequest)
		return
	}

	msgs, err := database.GetMessagesBetween(r.Context(), callerID, friendID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
