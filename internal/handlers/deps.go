package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/autoagora/autoagora-backend/internal/config"
	"github.com/autoagora/autoagora-backend/internal/models"
	"github.com/autoagora/autoagora-backend/internal/services"
)

// Package-level dependencies, wired once from main. Follows the same
// pattern as the database package's global handles.
var (
	cfg      *config.Config
	listings services.ListingStore
	users    services.UserStore
	quota    *services.QuotaPolicy
	verifier *services.VerificationCodeIssuer
	sweeper  *services.ExpirationSweeper
	now      func() time.Time = time.Now
)

// Init wires the handler package's dependencies.
func Init(
	c *config.Config,
	listingStore services.ListingStore,
	userStore services.UserStore,
	quotaPolicy *services.QuotaPolicy,
	codeIssuer *services.VerificationCodeIssuer,
	expirationSweeper *services.ExpirationSweeper,
	clock func() time.Time,
) {
	cfg = c
	listings = listingStore
	users = userStore
	quota = quotaPolicy
	verifier = codeIssuer
	sweeper = expirationSweeper
	if clock != nil {
		now = clock
	}
}

// APIResponse is the generic success/message envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, APIResponse{Success: success, Message: message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case services.IsValidation(err):
		writeMessage(w, http.StatusBadRequest, false, err.Error())
	case err == services.ErrNotFound:
		writeMessage(w, http.StatusNotFound, false, "Not found")
	case err == services.ErrForbidden:
		writeMessage(w, http.StatusForbidden, false, "Forbidden")
	case err == services.ErrQuotaExceeded:
		writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
			"success":          false,
			"message":          "Free listing limit reached. Upgrade to premium to post more listings.",
			"payment_required": true,
		})
	default:
		writeMessage(w, http.StatusInternalServerError, false, "Internal error")
	}
}

// extractBearerToken pulls the token out of an Authorization header.
func extractBearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// sessionToken finds the caller's session token in the Authorization header
// or, for browser WebSocket clients, the token query parameter.
func sessionToken(r *http.Request) string {
	if token := extractBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// currentUser authenticates the request and loads the account.
// Writes a 401 and returns nil when the session is missing or invalid.
func currentUser(w http.ResponseWriter, r *http.Request) *models.User {
	token := sessionToken(r)
	if token == "" {
		writeMessage(w, http.StatusUnauthorized, false, "Missing session token")
		return nil
	}

	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid or expired session")
		return nil
	}

	user, err := users.GetByID(r.Context(), userID)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, false, "Account not found or inactive")
		return nil
	}
	return user
}

// parseUUIDParam reads a uuid from the query string.
func parseUUIDParam(r *http.Request, name string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
