// internal/handlers/friend_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opencircle/opencircle/internal/auth"
	"github.com/opencircle/opencircle/internal/database"
	"github.com/opencircle/opencircle/internal/models"
)

var testDBOnce sync.Once

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// requireTestDB connects to the test database once, or skips the test
// when no database is configured.
func requireTestDB(t *testing.T) {
	t.Helper()
	if os.Getenv("PG_HOST") == "" {
		t.Skip("PG_HOST not set; skipping integration test")
	}
	testDBOnce.Do(func() {
		auth.Init()
		database.ConnectDB()
		if err := database.Migrate(context.Background()); err != nil {
			t.Fatalf("migrate failed: %v", err)
		}
	})
}

// createTestUser creates a user directly in the DB with a unique email.
func createTestUser(t *testing.T, name string) models.User {
	t.Helper()
	u := models.User{
		FullName: name,
		Email:    fmt.Sprintf("%s+%d@example.com", name, time.Now().UnixNano()),
		Password: "password",
	}
	if err := database.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return u
}

func authedRequest(t *testing.T, method, target string, userID int64, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	token, err := auth.CreateJWT(userID)
	if err != nil {
		t.Fatalf("CreateJWT failed: %v", err)
	}
	req.Header.Set("Cookie", "auth_token="+token)
	return req
}

// TestFriendFlow is a high-level integration test covering request,
// accept, and the symmetric friend lists.
func TestFriendFlow(t *testing.T) {
	requireTestDB(t)

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	// alice sends a friend request to bob
	w := httptest.NewRecorder()
	AddFriendHandler(w, authedRequest(t, "POST", "/friends/add", alice.ID, map[string]int64{"receiverId": bob.ID}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 created, got %d, body=%s", w.Code, w.Body.String())
	}

	// the reverse request must fail: one edge per unordered pair
	w2 := httptest.NewRecorder()
	AddFriendHandler(w2, authedRequest(t, "POST", "/friends/add", bob.ID, map[string]int64{"receiverId": alice.ID}))
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409 conflict for reverse request, got %d, body=%s", w2.Code, w2.Body.String())
	}

	// bob sees the pending request from alice
	w3 := httptest.NewRecorder()
	PendingRequestsHandler(w3, authedRequest(t, "GET", "/friends/pending", bob.ID, nil))
	var pending []models.PendingRequest
	if err := json.Unmarshal(w3.Body.Bytes(), &pending); err != nil {
		t.Fatalf("failed to decode pending list: %v", err)
	}
	if len(pending) != 1 || pending[0].RequesterID != alice.ID {
		t.Fatalf("expected one pending request from alice, got %+v", pending)
	}

	// bob accepts
	w4 := httptest.NewRecorder()
	AcceptFriendHandler(w4, authedRequest(t, "POST", "/friends/accept", bob.ID, map[string]int64{"requesterId": alice.ID}))
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d, body=%s", w4.Code, w4.Body.String())
	}

	// both sides see each other
	for _, tc := range []struct{ viewer, friend int64 }{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		w5 := httptest.NewRecorder()
		ListFriendsHandler(w5, authedRequest(t, "GET", "/friends/list", tc.viewer, nil))
		var friends []models.UserSummary
		if err := json.Unmarshal(w5.Body.Bytes(), &friends); err != nil {
			t.Fatalf("failed to decode friend list: %v", err)
		}
		found := false
		for _, f := range friends {
			if f.ID == tc.friend {
				found = true
			}
		}
		if !found {
			t.Fatalf("user %d missing from %d's friend list: %+v", tc.friend, tc.viewer, friends)
		}
	}
}

func TestSelfRequestRejected(t *testing.T) {
	requireTestDB(t)

	u := createTestUser(t, "selfie")

	w := httptest.NewRecorder()
	AddFriendHandler(w, authedRequest(t, "POST", "/friends/add", u.ID, map[string]int64{"receiverId": u.ID}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self request, got %d, body=%s", w.Code, w.Body.String())
	}
}

// TestFriendStatusTransitions walks the status endpoint through the
// edge lifecycle: none before any request, pending from both sides
// after one, accepted after the receiver accepts.
func TestFriendStatusTransitions(t *testing.T) {
	requireTestDB(t)

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	status := func(viewer, other int64) string {
		t.Helper()
		w := httptest.NewRecorder()
		FriendStatusHandler(w, authedRequest(t, "GET", "/friends/status?userId="+itoa(other), viewer, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d, body=%s", w.Code, w.Body.String())
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode status response: %v", err)
		}
		return resp["status"]
	}

	if got := status(alice.ID, bob.ID); got != models.FriendStatusNone {
		t.Fatalf("expected status none for strangers, got %q", got)
	}

	w := httptest.NewRecorder()
	AddFriendHandler(w, authedRequest(t, "POST", "/friends/add", alice.ID, map[string]int64{"receiverId": bob.ID}))
	if w.Code != http.StatusCreated {
		t.Fatalf("add friend: got %d", w.Code)
	}
	for _, pair := range []struct{ viewer, other int64 }{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		if got := status(pair.viewer, pair.other); got != models.FriendStatusPending {
			t.Fatalf("expected pending from viewer %d, got %q", pair.viewer, got)
		}
	}

	w2 := httptest.NewRecorder()
	AcceptFriendHandler(w2, authedRequest(t, "POST", "/friends/accept", bob.ID, map[string]int64{"requesterId": alice.ID}))
	if w2.Code != http.StatusOK {
		t.Fatalf("accept friend: got %d", w2.Code)
	}
	if got := status(alice.ID, bob.ID); got != models.FriendStatusAccepted {
		t.Fatalf("expected accepted after accept, got %q", got)
	}
}

// TestRejectedPairStaysBlocked verifies that reject is terminal: no
// new request can be sent for the pair in either direction.
func TestRejectedPairStaysBlocked(t *testing.T) {
	requireTestDB(t)

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")

	w := httptest.NewRecorder()
	AddFriendHandler(w, authedRequest(t, "POST", "/friends/add", alice.ID, map[string]int64{"receiverId": bob.ID}))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	w2 := httptest.NewRecorder()
	RejectFriendHandler(w2, authedRequest(t, "POST", "/friends/reject", bob.ID, map[string]int64{"requesterId": alice.ID}))
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w2.Code, w2.Body.String())
	}

	// accept after reject must fail: the edge is no longer pending
	w3 := httptest.NewRecorder()
	AcceptFriendHandler(w3, authedRequest(t, "POST", "/friends/accept", bob.ID, map[string]int64{"requesterId": alice.ID}))
	if w3.Code != http.StatusNotFound {
		t.Fatalf("expected 404 accepting a rejected edge, got %d", w3.Code)
	}

	for _, pair := range []struct{ from, to int64 }{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		w4 := httptest.NewRecorder()
		AddFriendHandler(w4, authedRequest(t, "POST", "/friends/add", pair.from, map[string]int64{"receiverId": pair.to}))
		if w4.Code != http.StatusConflict {
			t.Fatalf("expected 409 re-requesting a rejected pair, got %d", w4.Code)
		}
	}
}
