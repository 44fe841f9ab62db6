// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/opencircle/opencircle/internal/auth"
	"github.com/opencircle/opencircle/internal/broadcast"
	"github.com/opencircle/opencircle/internal/cache"
	"github.com/opencircle/opencircle/internal/database"
	"github.com/opencircle/opencircle/internal/handlers"
	"github.com/opencircle/opencircle/internal/middleware"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	if err := database.Migrate(context.Background()); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// The feed works without Redis, it just skips the visibility cache.
	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("redis unavailable, feed visibility cache disabled: %v", err)
	}

	hub := broadcast.NewHub()

	mux := http.NewServeMux()

	// auth endpoints
	mux.HandleFunc("/auth/register", handlers.RegisterHandler)
	mux.HandleFunc("/auth/login", handlers.LoginHandler)
	// user endpoints
	mux.HandleFunc("/users/search", handlers.SearchUsersHandler)
	mux.HandleFunc("/users/photo", handlers.UploadProfilePhotoHandler(logger))
	mux.HandleFunc("/users/", handlers.UserProfileHandler)

	// friend endpoints
	mux.HandleFunc("/friends/add", handlers.AddFriendHandler)
	mux.HandleFunc("/friends/accept", handlers.AcceptFriendHandler)
	mux.HandleFunc("/friends/reject", handlers.RejectFriendHandler)
	mux.HandleFunc("/friends/list", handlers.ListFriendsHandler)
	mux.HandleFunc("/friends/pending", handlers.PendingRequestsHandler)
	mux.HandleFunc("/friends/status", handlers.FriendStatusHandler)

	// post endpoints
	mux.HandleFunc("/posts/create", handlers.CreatePostHandler(logger))
	mux.HandleFunc("/posts/feed", handlers.FeedHandler)
	mux.HandleFunc("/posts/user/", handlers.UserPostsHandler)
	mux.HandleFunc("/posts/", handlers.DeletePostHandler)

	// message endpoints
	mux.HandleFunc("/messages/send", handlers.SendMessageHandler(hub))
	mux.HandleFunc("/messages/history/", handlers.HistoryHandler)

	// live chat websocket
	mux.Handle("/ws/chat", http.HandlerFunc(handlers.ChatWSHandler(logger, hub)))

	// uploaded media
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, middleware.LogMiddleware(logger)(mux)); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
