package handlers

import (
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/autoagora/autoagora-backend/internal/database"
	"github.com/autoagora/autoagora-backend/internal/models"
	"github.com/autoagora/autoagora-backend/internal/services"
)

// Prices in cents. The provider charges these; we only record them.
const (
	premiumUpgradePriceCents = 2999
	listingRenewalPriceCents = 499
	paymentCurrency          = "EUR"
)

type checkoutRequest struct {
	Purpose   string `json:"purpose"`
	ListingID string `json:"listing_id,omitempty"`
}

// CreateCheckout opens a pending payment for a premium upgrade or a listing
// renewal and returns the provider reference the frontend completes the
// charge with. The actual unlock happens in ConfirmPayment.
func CreateCheckout(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	purpose := models.PaymentPurpose(strings.TrimSpace(req.Purpose))
	var amount int
	var listingID *uuid.UUID

	switch purpose {
	case models.PaymentPremiumUpgrade:
		if user.IsPremium() {
			writeMessage(w, http.StatusBadRequest, false, "Account is already premium")
			return
		}
		amount = premiumUpgradePriceCents

	case models.PaymentListingRenewal:
		id, err := uuid.Parse(strings.TrimSpace(req.ListingID))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, false, "listing_id is required for a renewal checkout")
			return
		}
		listing, err := listings.GetByID(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if listing.OwnerID != user.ID {
			writeServiceError(w, services.ErrForbidden)
			return
		}
		if listing.Status == models.ListingDeleted || listing.Status == models.ListingSold {
			writeMessage(w, http.StatusBadRequest, false, "Only available or expired listings can be renewed")
			return
		}
		amount = listingRenewalPriceCents
		listingID = &id

	default:
		writeMessage(w, http.StatusBadRequest, false, "purpose must be premium_upgrade or listing_renewal")
		return
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		UserID:      user.ID,
		ListingID:   listingID,
		Purpose:     purpose,
		AmountCents: amount,
		Currency:    paymentCurrency,
		ProviderRef: "pay_" + uuid.NewString(),
		Status:      models.PaymentPending,
		CreatedAt:   now(),
	}

	var listingValue interface{}
	if payment.ListingID != nil {
		listingValue = *payment.ListingID
	}
	_, err := database.PostgresDB.ExecContext(r.Context(), `
		INSERT INTO payments (id, user_id, listing_id, purpose, amount_cents, currency, provider_ref, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, payment.ID, payment.UserID, listingValue, payment.Purpose, payment.AmountCents,
		payment.Currency, payment.ProviderRef, payment.Status, payment.CreatedAt)
	if err != nil {
		log.Printf("payment insert failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Internal error")
		return
	}

	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Message: "Checkout created", Data: payment})
}

type confirmPaymentRequest struct {
	ProviderRef string `json:"provider_ref"`
	Status      string `json:"status"` // "completed" or "failed"
}

// ConfirmPayment is the provider's webhook. A completed payment unlocks its
// purpose: premium_upgrade flips the payer's tier, listing_renewal resets the
// listing's expiry. Replayed confirmations are no-ops.
func ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get("X-Webhook-Secret")
	if cfg.PaymentWebhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(cfg.PaymentWebhookSecret)) != 1 {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid webhook secret")
		return
	}

	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if req.Status != string(models.PaymentCompleted) && req.Status != string(models.PaymentFailed) {
		writeMessage(w, http.StatusBadRequest, false, "status must be completed or failed")
		return
	}

	row := database.PostgresDB.QueryRowContext(r.Context(), `
		SELECT id, user_id, listing_id, purpose, status FROM payments WHERE provider_ref = $1
	`, strings.TrimSpace(req.ProviderRef))

	var payment models.Payment
	var listingID sql.NullString
	if err := row.Scan(&payment.ID, &payment.UserID, &listingID, &payment.Purpose, &payment.Status); err != nil {
		if err == sql.ErrNoRows {
			writeMessage(w, http.StatusNotFound, false, "Unknown payment reference")
			return
		}
		log.Printf("payment lookup failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Internal error")
		return
	}
	if payment.Status != models.PaymentPending {
		// Already settled; confirmations must be safe to replay.
		writeMessage(w, http.StatusOK, true, "Payment already settled")
		return
	}

	completedAt := now()
	res, err := database.PostgresDB.ExecContext(r.Context(), `
		UPDATE payments SET status = $1, completed_at = $2 WHERE id = $3 AND status = 'pending'
	`, req.Status, completedAt, payment.ID)
	if err != nil {
		log.Printf("payment update failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Internal error")
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeMessage(w, http.StatusOK, true, "Payment already settled")
		return
	}

	if req.Status == string(models.PaymentFailed) {
		writeMessage(w, http.StatusOK, true, "Payment marked as failed")
		return
	}

	switch payment.Purpose {
	case models.PaymentPremiumUpgrade:
		if err := users.UpgradeToPremium(r.Context(), payment.UserID); err != nil {
			log.Printf("premium upgrade failed for %s: %v", payment.UserID, err)
			writeMessage(w, http.StatusInternalServerError, false, "Payment recorded but upgrade failed")
			return
		}

	case models.PaymentListingRenewal:
		id, err := uuid.Parse(listingID.String)
		if err != nil {
			log.Printf("renewal payment %s has bad listing id %q", payment.ID, listingID.String)
			writeMessage(w, http.StatusInternalServerError, false, "Payment recorded but renewal failed")
			return
		}
		listing, err := listings.GetByID(r.Context(), id)
		if err == nil {
			err = renewListing(r.Context(), listing, completedAt)
		}
		if err != nil {
			log.Printf("paid renewal failed for listing %s: %v", id, err)
			writeMessage(w, http.StatusInternalServerError, false, "Payment recorded but renewal failed")
			return
		}
	}

	writeMessage(w, http.StatusOK, true, "Payment confirmed")
}

// MyPayments lists the caller's payment history, newest first.
func MyPayments(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	rows, err := database.PostgresDB.QueryContext(r.Context(), `
		SELECT id, user_id, listing_id, purpose, amount_cents, currency, provider_ref, status, created_at, completed_at
		FROM payments WHERE user_id = $1 ORDER BY created_at DESC
	`, user.ID)
	if err != nil {
		log.Printf("payment list failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Internal error")
		return
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		var p models.Payment
		var listingID sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.UserID, &listingID, &p.Purpose, &p.AmountCents,
			&p.Currency, &p.ProviderRef, &p.Status, &p.CreatedAt, &completedAt); err != nil {
			log.Printf("payment scan failed: %v", err)
			continue
		}
		if listingID.Valid {
			if id, err := uuid.Parse(listingID.String); err == nil {
				p.ListingID = &id
			}
		}
		if completedAt.Valid {
			t := completedAt.Time
			p.CompletedAt = &t
		}
		payments = append(payments, &p)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"payments": payments,
		"count":    len(payments),
	})
}
