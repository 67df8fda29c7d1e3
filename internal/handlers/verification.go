package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/autoagora/autoagora-backend/pkg/utils"
)

type verifyRequestBody struct {
	Phone string `json:"phone"`
}

type verifyConfirmBody struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// RequestVerificationCode issues a 6-digit code for a phone number and sends
// it over SMS. Re-requesting replaces the pending code. The code itself never
// appears in the response outside of explicit local-development debugging.
func RequestVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req verifyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return
	}
	if err := utils.ValidatePhone(req.Phone); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}
	phone := utils.NormalizePhone(req.Phone)

	code, err := verifier.Issue(r.Context(), phone)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	body := map[string]interface{}{
		"success": true,
		"message": "Verification code sent",
	}
	if cfg.EchoVerificationCodes() {
		body["debug_code"] = code
	}
	writeJSON(w, http.StatusOK, body)
}

// ConfirmVerificationCode checks a code against the pending entry for the
// phone. Success consumes the code. The response does not distinguish a wrong
// code from an expired or missing one.
func ConfirmVerificationCode(w http.ResponseWriter, r *http.Request) {
	var req verifyConfirmBody
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

	writeMessage(w, http.StatusOK, true, "Phone number verified")
}
