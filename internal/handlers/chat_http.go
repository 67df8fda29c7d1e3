package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autoagora/autoagora-backend/internal/models"
	"github.com/autoagora/autoagora-backend/internal/services"
)

// conversationAccess verifies the user participates in the conversation:
// either as the buyer named in the conversation id or as the listing owner.
// Returns the listing on success so callers can reuse it.
func conversationAccess(ctx context.Context, user *models.User, conversationID string) (*models.Listing, bool, error) {
	listingIDStr, buyerIDStr, err := services.SplitConversationID(conversationID)
	if err != nil {
		return nil, false, nil
	}

	listingID, err := uuid.Parse(listingIDStr)
	if err != nil {
		return nil, false, nil
	}

	listing, err := listings.GetByID(ctx, listingID)
	if err == services.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if buyerIDStr == user.ID.String() || listing.OwnerID == user.ID {
		return listing, true, nil
	}
	return nil, false, nil
}

// ChatHistory returns paginated messages for a conversation the caller
// participates in. Pass before (RFC3339) from the oldest loaded message to
// page backwards.
func ChatHistory(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	conversationID := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	if conversationID == "" {
		// Buyer shortcut: listing_id alone resolves to their own thread.
		if listingID, ok := parseUUIDParam(r, "listing_id"); ok {
			conversationID = services.ConversationID(listingID.String(), user.ID.String())
		}
	}
	if conversationID == "" {
		writeMessage(w, http.StatusBadRequest, false, "Missing conversation_id")
		return
	}

	_, allowed, err := conversationAccess(r.Context(), user, conversationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !allowed {
		writeServiceError(w, services.ErrForbidden)
		return
	}

	var before *time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("before")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, false, "before must be an RFC3339 timestamp")
			return
		}
		before = &t
	}

	limit := int64(50)
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			limit = n
		}
	}

	messages, hasMore, err := services.LoadChatMessages(r.Context(), conversationID, before, limit)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load messages")
		return
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"conversation_id": conversationID,
		"messages":        messages,
		"has_more":        hasMore,
	})
}

type conversationSummary struct {
	ConversationID string          `json:"conversation_id"`
	ListingID      string          `json:"listing_id"`
	BuyerID        string          `json:"buyer_id"`
	Listing        *models.Listing `json:"listing,omitempty"`
}

// MyConversations lists the caller's chat threads, as buyer and as seller,
// with the listing attached where it still resolves.
func MyConversations(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	ids, err := services.ListConversations(r.Context(), user.ID.String())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load conversations")
		return
	}

	summaries := []conversationSummary{}
	for _, conversationID := range ids {
		listingIDStr, buyerIDStr, err := services.SplitConversationID(conversationID)
		if err != nil {
			continue
		}
		summary := conversationSummary{
			ConversationID: conversationID,
			ListingID:      listingIDStr,
			BuyerID:        buyerIDStr,
		}
		if listingID, err := uuid.Parse(listingIDStr); err == nil {
			if listing, err := listings.GetByID(r.Context(), listingID); err == nil {
				// Seller sees every thread; a distinct-id scan can surface
				// threads on other sellers' listings where this user only
				// matched as sender. Keep participants only.
				if listing.OwnerID != user.ID && buyerIDStr != user.ID.String() {
					continue
				}
				summary.Listing = listing
			}
		}
		summaries = append(summaries, summary)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"conversations": summaries,
		"count":         len(summaries),
	})
}
