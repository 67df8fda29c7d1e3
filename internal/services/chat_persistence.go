package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/autoagora/autoagora-backend/internal/database"
	"github.com/autoagora/autoagora-backend/internal/models"
)

// ConversationID builds the canonical thread key: one private thread per
// (listing, buyer) pair. The seller side is implied by the listing owner.
func ConversationID(listingID, buyerID string) string {
	return listingID + ":" + buyerID
}

// SplitConversationID is the inverse of ConversationID.
func SplitConversationID(conversationID string) (listingID, buyerID string, err error) {
	parts := strings.SplitN(conversationID, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed conversation id")
	}
	return parts[0], parts[1], nil
}

// EnsureChatIndexes configures indexes for the chat_messages collection.
// Called on startup from main after Mongo has connected.
func EnsureChatIndexes(ctx context.Context) error {
	col := database.MongoDB.Collection("chat_messages")

	// Compound index on (conversation_id, timestamp) for pagination, plus
	// per-participant lookups for the conversation list.
	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "conversation_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
			Options: options.Index().SetName("idx_conversation_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "sender_id", Value: 1}},
			Options: options.Index().SetName("idx_sender"),
		},
	}

	for _, m := range indexModels {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// SaveChatMessage persists a message and returns it with its assigned ID.
func SaveChatMessage(ctx context.Context, msg *models.ChatMessage) (*models.ChatMessage, error) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	if msg.Status == "" {
		msg.Status = models.MessageStatusSent
	}

	col := database.MongoDB.Collection("chat_messages")
	res, err := col.InsertOne(ctx, msg)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid
	}
	return msg, nil
}

// LoadChatMessages returns paginated history for a conversation.
// Newest-first scrolling: pass `before` from the oldest message you have.
func LoadChatMessages(ctx context.Context, conversationID string, before *time.Time, limit int64) ([]models.ChatMessage, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	col := database.MongoDB.Collection("chat_messages")

	filter := bson.M{"conversation_id": conversationID}
	if before != nil {
		filter["timestamp"] = bson.M{"$lt": before.UTC()}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit + 1)

	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, false, err
	}
	defer cur.Close(ctx)

	var msgs []models.ChatMessage
	for cur.Next(ctx) {
		var m models.ChatMessage
		if err := cur.Decode(&m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	if err := cur.Err(); err != nil {
		return nil, false, err
	}

	hasMore := int64(len(msgs)) > limit
	if hasMore {
		msgs = msgs[:len(msgs)-1]
	}

	// Reverse to oldest-first for the UI.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, hasMore, nil
}

// ListConversations returns the distinct conversation ids a user appears in,
// either as sender or as the buyer baked into the conversation key.
func ListConversations(ctx context.Context, userID string) ([]string, error) {
	col := database.MongoDB.Collection("chat_messages")

	raw, err := col.Distinct(ctx, "conversation_id", bson.M{
		"$or": []bson.M{
			{"sender_id": userID},
			{"conversation_id": bson.M{"$regex": ":" + userID + "$"}},
		},
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}
