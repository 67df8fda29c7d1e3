package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/autoagora/autoagora-backend/internal/middleware"
)

// requireAdmin checks the X-Admin-Token header. An empty configured token
// disables the admin surface entirely.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	token := r.Header.Get("X-Admin-Token")
	if cfg.AdminToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(cfg.AdminToken)) != 1 {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid admin token")
		return false
	}
	return true
}

// SweepNow runs one expiration sweep immediately instead of waiting for the
// next scheduled tick.
func SweepNow(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	expired, err := sweeper.Sweep(r.Context(), now())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Sweep failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"expired": expired,
	})
}

// UnblockIP lifts a rate-limit block from an IP address.
func UnblockIP(w http.ResponseWriter, r *http.Request) {
	if !requireAdmin(w, r) {
		return
	}

	ip := r.URL.Query().Get("ip")
	if ip == "" {
		writeMessage(w, http.StatusBadRequest, false, "Missing ip parameter")
		return
	}
	if err := middleware.UnblockIP(ip); err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to unblock IP")
		return
	}
	writeMessage(w, http.StatusOK, true, "IP unblocked")
}
