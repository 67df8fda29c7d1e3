package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/autoagora/autoagora-backend/internal/database"
	"github.com/autoagora/autoagora-backend/internal/models"
)

// Chat event types sent over Redis and WebSocket.
const (
	EventTypeMessage     = "message"
	EventTypeMessageAck  = "message_ack"
	EventTypeTypingStart = "typing_start"
	EventTypeTypingStop  = "typing_stop"
	EventTypeError       = "error"
)

// ChatEvent is the payload broadcast over Redis pub/sub and WebSocket.
type ChatEvent struct {
	Type           string              `json:"type"`
	ConversationID string              `json:"conversation_id,omitempty"`
	SenderID       string              `json:"sender_id,omitempty"`
	Username       string              `json:"username,omitempty"`
	Message        *models.ChatMessage `json:"message,omitempty"`
	Error          string              `json:"error,omitempty"`
	Timestamp      time.Time           `json:"timestamp,omitempty"`
}

// chatHub fans events out to local WebSocket subscribers per conversation.
// Cross-instance delivery rides on Redis pub/sub.
type chatHub struct {
	mu   sync.RWMutex
	subs map[string]map[chan ChatEvent]struct{} // conversationID -> subscribers
}

var (
	hub          = &chatHub{subs: make(map[string]map[chan ChatEvent]struct{})}
	redisStarted sync.Once
)

// SubscribeConversation registers a local subscriber for a conversation and
// returns the event channel plus an unsubscribe func that closes it.
func SubscribeConversation(conversationID string) (<-chan ChatEvent, func()) {
	ch := make(chan ChatEvent, 16)

	hub.mu.Lock()
	if hub.subs[conversationID] == nil {
		hub.subs[conversationID] = make(map[chan ChatEvent]struct{})
	}
	hub.subs[conversationID][ch] = struct{}{}
	hub.mu.Unlock()

	unsubscribe := func() {
		hub.mu.Lock()
		if set, ok := hub.subs[conversationID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(hub.subs, conversationID)
			}
		}
		hub.mu.Unlock()
	}
	return ch, unsubscribe
}

// fanOut delivers an event to every local subscriber of its conversation.
// Slow subscribers drop events rather than block the hub.
func fanOut(event ChatEvent) {
	if event.ConversationID == "" {
		return
	}

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for ch := range hub.subs[event.ConversationID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// StartRedisChatSubscriber ensures a single shared Redis listener per instance.
func StartRedisChatSubscriber(ctx context.Context) {
	redisStarted.Do(func() {
		go runRedisSubscriber(ctx)
	})
}

func runRedisSubscriber(ctx context.Context) {
	client := database.RedisClient
	if client == nil {
		log.Println("Redis client not initialized; chat subscriber not started")
		return
	}

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := client.PSubscribe(ctx, "chat:conv:*")
			defer pubsub.Close()

			log.Println("✅ Chat Redis subscriber started (pattern: chat:conv:*)")

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("Redis subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event ChatEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal chat event: %v", err)
					continue
				}

				fanOut(event)
			}
		}()
	}
}

// PublishChatEvent publishes an event to Redis so every instance (including
// this one) fans it out to its local WebSocket connections.
func PublishChatEvent(ctx context.Context, event ChatEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return database.RedisClient.Publish(ctx, "chat:conv:"+event.ConversationID, data).Err()
}
