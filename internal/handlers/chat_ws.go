package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/autoagora/autoagora-backend/internal/models"
	"github.com/autoagora/autoagora-backend/internal/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsMaxMessage = 4096
	maxChatText  = 2000
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range cfg.AllowedOrigins {
			if strings.EqualFold(strings.TrimRight(origin, "/"), strings.TrimRight(allowed, "/")) {
				return true
			}
		}
		return false
	},
}

// inboundChatFrame is what clients send over the socket.
type inboundChatFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ChatWS upgrades to a WebSocket scoped to one conversation. Auth rides on
// the token query parameter since browsers cannot set headers on WebSocket
// dials. Buyers connect with listing_id; sellers join an existing thread
// with conversation_id.
func ChatWS(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid or expired session")
		return
	}
	user, err := users.GetByID(r.Context(), userID)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, false, "Account not found or inactive")
		return
	}

	conversationID := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	if conversationID == "" {
		if listingID, ok := parseUUIDParam(r, "listing_id"); ok {
			conversationID = services.ConversationID(listingID.String(), user.ID.String())
		}
	}
	if conversationID == "" {
		writeMessage(w, http.StatusBadRequest, false, "Missing conversation_id or listing_id")
		return
	}

	listing, allowed, err := conversationAccess(r.Context(), user, conversationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !allowed {
		writeServiceError(w, services.ErrForbidden)
		return
	}
	if listing.OwnerID == user.ID && conversationID == services.ConversationID(listing.ID.String(), user.ID.String()) {
		writeMessage(w, http.StatusBadRequest, false, "You cannot message your own listing")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	services.StartRedisChatSubscriber(context.Background())

	events, unsubscribe := services.SubscribeConversation(conversationID)
	defer unsubscribe()

	done := make(chan struct{})
	// outbound carries acks and errors from the reader; the writer goroutine
	// is the only one touching the socket.
	outbound := make(chan services.ChatEvent, 16)
	send := func(event services.ChatEvent) {
		select {
		case outbound <- event:
		default:
		}
	}

	// Writer: pushes fanned-out events, reader replies and keepalive pings.
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		defer conn.Close()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
					conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			case event := <-outbound:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteJSON(event); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Reader: handles inbound frames until the client goes away.
	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	defer close(done)
	for {
		var frame inboundChatFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Type {
		case services.EventTypeMessage:
			text := strings.TrimSpace(frame.Text)
			if text == "" || len(text) > maxChatText {
				send(services.ChatEvent{
					Type:  services.EventTypeError,
					Error: "Message must be 1-2000 characters",
				})
				continue
			}

			msg := &models.ChatMessage{
				ConversationID: conversationID,
				ListingID:      listing.ID.String(),
				SenderID:       user.ID.String(),
				SenderUsername: user.Username,
				Text:           text,
			}

			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			saved, err := services.SaveChatMessage(saveCtx, msg)
			cancel()
			if err != nil {
				log.Printf("failed to save chat message in %s: %v", conversationID, err)
				send(services.ChatEvent{
					Type:  services.EventTypeError,
					Error: "Message could not be delivered",
				})
				continue
			}

			event := services.ChatEvent{
				Type:           services.EventTypeMessage,
				ConversationID: conversationID,
				SenderID:       user.ID.String(),
				Username:       user.Username,
				Message:        saved,
			}
			if err := services.PublishChatEvent(context.Background(), event); err != nil {
				log.Printf("failed to publish chat event: %v", err)
			}

			send(services.ChatEvent{
				Type:           services.EventTypeMessageAck,
				ConversationID: conversationID,
				Message:        saved,
			})

		case services.EventTypeTypingStart, services.EventTypeTypingStop:
			// Ephemeral; broadcast without persisting.
			event := services.ChatEvent{
				Type:           frame.Type,
				ConversationID: conversationID,
				SenderID:       user.ID.String(),
				Username:       user.Username,
			}
			if err := services.PublishChatEvent(context.Background(), event); err != nil {
				log.Printf("failed to publish typing event: %v", err)
			}
		}
	}
}
