// internal/handlers/friend.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/opencircle/opencircle/internal/cache"
	"github.com/opencircle/opencircle/internal/database"
)

// AddFriendHandler handles the caller sending a friend request.
//
// Request payload: { "receiverId": 2 }
// A pending edge is created owned by the caller. Any existing edge for
// the pair, in either direction and whatever its status, makes this
// fail with DUPLICATE_EDGE.
func AddFriendHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var req struct {
		ReceiverID int64 `json:"receiverId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	edge, err := database.InsertFriendRequest(r.Context(), callerID, req.ReceiverID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, edge)
}

// AcceptFriendHandler handles the caller accepting a request that was
// sent to them. The caller must be the receiver of the pending edge.
//
// Request payload: { "requesterId": 1 }
func AcceptFriendHandler(w http.ResponseWriter, r *http.Request) {
	resolveFriendRequest(w, r, database.AcceptFriendRequest, true)
}

// RejectFriendHandler rejects a pending request. Terminal: the pair is
// permanently blocked from re-requesting.
//
// Request payload: { "requesterId": 1 }
func RejectFriendHandler(w http.ResponseWriter, r *http.Request) {
	resolveFriendRequest(w, r, database.RejectFriendRequest, false)
}

func resolveFriendRequest(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, requesterID, receiverID int64) error, invalidate bool) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var req struct {
		RequesterID int64 `json:"requesterId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	// The pending edge is (requesterId -> caller); being the receiver
	// is what authorizes the transition.
	if err := apply(r.Context(), req.RequesterID, callerID); err != nil {
		writeError(w, err)
		return
	}

	if invalidate {
		// Both visibility sets changed.
		cache.InvalidateFriends(r.Context(), callerID, req.RequesterID)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

// ListFriendsHandler returns the caller's accepted friends with their
// profile summaries.
func ListFriendsHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	friends, err := database.ListFriends(r.Context(), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, friends)
}

// PendingRequestsHandler returns incoming pending requests joined with
// each requester's profile.
func PendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	reqs, err := database.ListPendingRequests(r.Context(), callerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

// FriendStatusHandler reports the edge status between the caller and
// another user ("none" when no edge exists). Advisory, for the search
// and profile UI.
//
// GET /friends/status?userId=2
func FriendStatusHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	otherID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid userId", http.StatusBadRequest)
		return
	}

	status, err := database.CheckFriendshipStatus(r.Context(), callerID, otherID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}
