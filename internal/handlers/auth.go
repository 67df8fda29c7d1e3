package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/autoagora/autoagora-backend/internal/services"
	"github.com/autoagora/autoagora-backend/pkg/utils"
)

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	// Code is the verification code previously sent to Phone.
	Code string `json:"code"`
}

type signinRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message,omitempty"`
	SessionToken string      `json:"session_token,omitempty"`
	User         interface{} `json:"user,omitempty"`
}

// Signup registers an account. The phone must already hold a pending
// verification code; signup consumes it, so a replayed request fails.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := utils.ValidateUsername(req.Username); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}
	if len(req.Password) < 8 {
		writeMessage(w, http.StatusBadRequest, false, "Password must be at least 8 characters")
		return
	}
	if err := utils.ValidatePhone(req.Phone); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}
	phone := utils.NormalizePhone(req.Phone)

	if _, err := users.GetByUsername(r.Context(), req.Username); err == nil {
		writeMessage(w, http.StatusConflict, false, "Username is already taken")
		return
	} else if err != services.ErrNotFound {
		writeServiceError(w, err)
		return
	}

	verified, err := verifier.Confirm(r.Context(), phone, strings.TrimSpace(req.Code))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !verified {
		writeMessage(w, http.StatusBadRequest, false, "Invalid or expired verification code")
		return
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("password hash failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, false, "Internal error")
		return
	}

	user, err := users.Create(r.Context(), req.Username, passwordHash, phone)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := users.MarkPhoneVerified(r.Context(), user.ID); err != nil {
		log.Printf("failed to mark phone verified for %s: %v", user.ID, err)
	}
	user.PhoneVerified = true

	token, err := services.CreateSession(user.ID)
	if err != nil {
		log.Printf("session creation failed for %s: %v", user.ID, err)
		writeMessage(w, http.StatusInternalServerError, false, "Account created but sign-in failed. Please sign in.")
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Success:      true,
		Message:      "Account created",
		SessionToken: token,
		User:         user,
	})
}

// Signin authenticates username+password and mints a session.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}

	user, err := users.GetByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err == services.ErrNotFound {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid username or password")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ok, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid username or password")
		return
	}

	token, err := services.CreateSession(user.ID)
	if err != nil {
		log.Printf("session creation failed for %s: %v", user.ID, err)
		writeMessage(w, http.StatusInternalServerError, false, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Success:      true,
		SessionToken: token,
		User:         user,
	})
}

// Signout invalidates the caller's session.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeMessage(w, http.StatusBadRequest, false, "Missing session token")
		return
	}
	if err := services.InvalidateSession(token); err != nil {
		log.Printf("session invalidation failed: %v", err)
	}
	writeMessage(w, http.StatusOK, true, "Signed out")
}

// GetMe returns the authenticated account.
func GetMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: user})
}

type changePhoneRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// ChangePhone updates the account's phone number. The new number must have
// been verified first: the request carries the code sent to it.
func ChangePhone(w http.ResponseWriter, r *http.Request) {
	user := currentUser(w, r)
	if user == nil {
		return
	}

	var req changePhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if err := utils.ValidatePhone(req.Phone); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}
	phone := utils.NormalizePhone(req.Phone)

	verified, err := verifier.Confirm(r.Context(), phone, strings.TrimSpace(req.Code))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !verified {
		writeMessage(w, http.StatusBadRequest, false, "Invalid or expired verification code")
		return
	}

	if err := users.SetPhone(r.Context(), user.ID, phone); err != nil {
		writeServiceError(w, err)
		return
	}
	if err := users.MarkPhoneVerified(r.Context(), user.ID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeMessage(w, http.StatusOK, true, "Phone number updated")
}
