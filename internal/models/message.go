package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message status values.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

// ChatMessage is one buyer/seller message, persisted in MongoDB.
// ConversationID is "<listing_id>:<buyer_id>" so every buyer gets a private
// thread per listing.
type ChatMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	ListingID      string             `bson:"listing_id" json:"listing_id"`
	SenderID       string             `bson:"sender_id" json:"sender_id"`
	SenderUsername string             `bson:"sender_username,omitempty" json:"sender_username,omitempty"`
	Text           string             `bson:"text" json:"text"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
	Status         string             `bson:"status" json:"status"`
}
