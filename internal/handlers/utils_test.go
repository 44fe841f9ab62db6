package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencircle/opencircle/internal/database"
)

func TestExtractCookieToken(t *testing.T) {
	assert.Equal(t, "abc", extractCookieToken("auth_token=abc", "auth_token"))
	assert.Equal(t, "abc", extractCookieToken("other=x; auth_token=abc; more=y", "auth_token"))
	assert.Equal(t, "", extractCookieToken("other=x", "auth_token"))
	assert.Equal(t, "", extractCookieToken("", "auth_token"))
}

func TestExtractCookieTokenMatchesWholeNameOnly(t *testing.T) {
	// A cookie whose name merely ends in the wanted name must not match.
	assert.Equal(t, "", extractCookieToken("preauth_token=evil", "auth_token"))
	assert.Equal(t, "", extractCookieToken("xauth_token=evil; other=y", "auth_token"))
	assert.Equal(t, "good", extractCookieToken("preauth_token=evil; auth_token=good", "auth_token"))
}

func TestWriteErrorMapsTaxonomy(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{database.ErrSelfRequest, http.StatusBadRequest, "SELF_REQUEST"},
		{database.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR"},
		{database.ErrDuplicateFriend, http.StatusConflict, "DUPLICATE_EDGE"},
		{database.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{database.ErrNotAuthorized, http.StatusForbidden, "NOT_AUTHORIZED"},
		{fmt.Errorf("connection refused"), http.StatusInternalServerError, "PERSISTENCE_ERROR"},
		// wrapped errors must map the same way
		{fmt.Errorf("user 2: %w", database.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		writeError(w, tc.err)
		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)
		assert.Contains(t, w.Body.String(), tc.code, "error %v", tc.err)
	}
}

func TestWriteErrorDoesNotLeakStoreDetail(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, fmt.Errorf("pq: relation \"friends\" does not exist"))
	assert.NotContains(t, w.Body.String(), "relation")
	assert.Contains(t, w.Body.String(), "internal server error")
}
