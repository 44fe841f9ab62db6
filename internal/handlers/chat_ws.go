// internal/handlers/chat_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/opencircle/opencircle/internal/broadcast"
	"github.com/opencircle/opencircle/internal/models"
)

// chatEvent is the frame exchanged over the chat socket.
// Inbound:  {"type": "send_message", "payload": {...}}
// Outbound: {"type": "receive_message", "payload": {...}}
type chatEvent struct {
	Type    string         `json:"type"`
	Payload models.Message `json:"payload"`
}

// ChatWSHandler upgrades the connection, authenticates the caller, and
// registers their mailbox on the hub. Joining is implicit: a connected
// socket is subscribed under the caller's id for the lifetime of the
// connection. The socket carries only live-path traffic; persistence
// stays with the REST send endpoint.
func ChatWSHandler(logger *logrus.Logger, hub *broadcast.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		remoteAddr := r.RemoteAddr

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{"chat"},
			OriginPatterns: []string{"*"}, // Adjust in production
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != "chat" {
			c.Close(BadSubprotocolError, "client must speak the chat subprotocol")
			return
		}

		userID, err := authenticateRequest(r)
		if err != nil {
			logger.Warnf("chat auth failed for %s: %v", remoteAddr, err)
			c.Close(InvalidAuthTokenError, "authentication failed")
			return
		}

		sub := hub.Subscribe(userID)
		defer hub.Unsubscribe(sub)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		logger.Infof("User %d (%s) connected to chat", userID, remoteAddr)

		go chatWritePump(ctx, c, sub, logger)
		chatReadPump(ctx, c, hub, userID, logger)

		logger.Infof("User %d disconnected from chat", userID)
	}
}

// chatReadPump consumes inbound frames until the connection closes.
// A send_message frame re-announces the payload to the sender's and
// receiver's mailboxes; it does not persist anything, so a client that
// skips the REST path only gets best-effort delivery.
func chatReadPump(ctx context.Context, c *websocket.Conn, hub *broadcast.Hub, userID int64, logger *logrus.Logger) {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			if closeStatus == websocket.StatusNormalClosure || closeStatus == websocket.StatusGoingAway {
				logger.Infof("chat socket closed normally for user %d", userID)
			} else if !strings.Contains(err.Error(), "context canceled") {
				logger.Warnf("chat read error for user %d: %v", userID, err)
			}
			return
		}
		if typ != websocket.MessageText {
			logger.Warnf("chat: non-text frame from user %d, ignoring", userID)
			continue
		}

		var ev chatEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Warnf("chat: invalid json from user %d: %v", userID, err)
			continue
		}

		switch ev.Type {
		case "send_message":
			msg := ev.Payload
			// The session, not the frame, decides who the sender is.
			msg.SenderID = userID
			if msg.CreatedAt.IsZero() {
				msg.CreatedAt = time.Now().UTC()
			}
			hub.Publish(msg)
		default:
			logger.Warnf("chat: unknown event %q from user %d", ev.Type, userID)
		}
	}
}

// chatWritePump forwards mailbox deliveries to the socket and keeps
// the connection alive with pings. Exits when the mailbox is closed,
// the context ends, or a write fails.
func chatWritePump(ctx context.Context, c *websocket.Conn, sub *broadcast.Subscriber, logger *logrus.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(chatEvent{Type: "receive_message", Payload: msg})
			if err != nil {
				logger.Warnf("chat: failed to marshal outgoing msg for user %d: %v", sub.UserID, err)
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.Warnf("chat: write failed for user %d: %v", sub.UserID, err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.Warnf("chat: ping failed for user %d, assuming disconnect: %v", sub.UserID, err)
				return
			}
		}
	}
}
