// internal/handlers/post.go
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opencircle/opencircle/internal/cache"
	"github.com/opencircle/opencircle/internal/database"
	"github.com/opencircle/opencircle/internal/models"
)

const maxUploadBytes = 32 << 20

// classifyMedia maps an upload's MIME type to the stored media kind.
// Anything that is neither image nor video is kept as a generic file.
func classifyMedia(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.HasPrefix(ct, "image/"):
		return models.MediaTypeImage
	case strings.HasPrefix(ct, "video/"):
		return models.MediaTypeVideo
	default:
		return models.MediaTypeFile
	}
}

// parseTaggedIDs accepts either a JSON array ("[2,3]") or a comma
// separated list ("2,3") of user ids, as sent by form clients.
func parseTaggedIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var ids []int64
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, fmt.Errorf("invalid tagged user ids: %w", err)
		}
		return ids, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid tagged user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// saveUpload writes the media file under the given subdir of the
// upload dir with a uuid name and returns the public URL path.
func saveUpload(file multipart.File, header *multipart.FileHeader, subdir string) (string, error) {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	target := filepath.Join(dir, subdir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(header.Filename)
	dst, err := os.Create(filepath.Join(target, name))
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	return "/uploads/" + path.Join(subdir, name), nil
}

// CreatePostHandler creates a post with optional content, optional
// media, and optional tagged users. At least one of content or media
// is required. Tags are written in the same transaction as the post,
// so no feed read can see a half-tagged post.
//
// Accepts multipart/form-data (content, tagged_user_ids, media) or a
// JSON body for text-only posts.
func CreatePostHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, err := authenticateRequest(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		var content string
		var taggedIDs []int64
		var mediaURL *string
		mediaType := models.MediaTypeNone

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				http.Error(w, "invalid multipart payload", http.StatusBadRequest)
				return
			}
			content = strings.TrimSpace(r.FormValue("content"))
			taggedIDs, err = parseTaggedIDs(r.FormValue("tagged_user_ids"))
			if err != nil {
				writeError(w, fmt.Errorf("%v: %w", err, database.ErrValidation))
				return
			}

			if file, header, ferr := r.FormFile("media"); ferr == nil {
				defer file.Close()
				url, serr := saveUpload(file, header, "posts")
				if serr != nil {
					logger.Warnf("failed to store upload: %v", serr)
					http.Error(w, "failed to store media", http.StatusInternalServerError)
					return
				}
				mediaURL = &url
				mediaType = classifyMedia(header.Header.Get("Content-Type"))
			}
		} else {
			var req struct {
				Content       string  `json:"content"`
				TaggedUserIDs []int64 `json:"taggedUserIds"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid payload", http.StatusBadRequest)
				return
			}
			content = strings.TrimSpace(req.Content)
			taggedIDs = req.TaggedUserIDs
		}

		if content == "" && mediaURL == nil {
			writeError(w, fmt.Errorf("post needs content or media: %w", database.ErrValidation))
			return
		}

		var contentPtr *string
		if content != "" {
			contentPtr = &content
		}

		postID, err := database.InsertPost(r.Context(), callerID, contentPtr, mediaURL, mediaType, taggedIDs)
		if err != nil {
			writeError(w, err)
			return
		}

		post, err := database.GetPostByID(r.Context(), postID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "post": post})
	}
}

// FeedHandler returns posts authored by the caller and their accepted
// friends, newest first. The friend id set is looked up cache-aside in
// Redis; a miss falls through to SQL and repopulates the cache.
func FeedHandler(w http.ResponseWriter, r *http.Request) {
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	ctx := r.Context()

	friendIDs, ok := cache.FriendIDs(ctx, callerID)
	if !ok {
		friendIDs, err = database.ListFriendIDs(ctx, callerID)
		if err != nil {
			writeError(w, err)
			return
		}
		cache.StoreFriendIDs(ctx, callerID, friendIDs)
	}

	feed, err := database.GetFeed(ctx, callerID, friendIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// UserPostsHandler returns one user's posts. Profile pages are public:
// any authenticated caller may view any user's posts.
//
// GET /posts/user/{userID}
func UserPostsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := authenticateRequest(r); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/posts/user/")
	authorID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	posts, err := database.GetUserPosts(r.Context(), authorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// DeletePostHandler removes a post and its tags. Only the author may
// delete it.
//
// DELETE /posts/{postID}
func DeletePostHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	callerID, err := authenticateRequest(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/posts/")
	postID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid post id", http.StatusBadRequest)
		return
	}

	if err := database.DeletePost(r.Context(), callerID, postID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
