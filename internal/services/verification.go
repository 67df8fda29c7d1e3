package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"
)

// CodeTTL is how long an issued verification code stays valid.
const CodeTTL = 10 * time.Minute

// PendingCode is a stored, not-yet-confirmed verification code.
type PendingCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CodeStore keeps at most one pending code per phone. Implementations:
// RedisCodeStore for production, MemoryCodeStore for tests.
type CodeStore interface {
	Get(ctx context.Context, phone string) (PendingCode, bool, error)
	// Set overwrites any prior pending code for the phone.
	Set(ctx context.Context, phone string, code PendingCode) error
	Delete(ctx context.Context, phone string) error
}

// VerificationCodeIssuer proves phone ownership with short-lived numeric
// codes. Codes are single-use and overwritten on re-issue.
type VerificationCodeIssuer struct {
	store CodeStore
	sms   SMSSender
	now   func() time.Time
	ttl   time.Duration
}

func NewVerificationCodeIssuer(store CodeStore, sms SMSSender, now func() time.Time) *VerificationCodeIssuer {
	if now == nil {
		now = time.Now
	}
	return &VerificationCodeIssuer{store: store, sms: sms, now: now, ttl: CodeTTL}
}

// Issue generates a fresh 6-digit code for the phone, replacing any pending
// one, and hands it to the SMS dispatcher. Dispatch is fire-and-forget: a
// delivery failure is logged, never surfaced to the caller.
func (v *VerificationCodeIssuer) Issue(ctx context.Context, phone string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	pending := PendingCode{Code: code, ExpiresAt: v.now().Add(v.ttl)}
	if err := v.store.Set(ctx, phone, pending); err != nil {
		return "", &TransientError{Op: "verification code store", Err: err}
	}

	if v.sms != nil {
		go func(phone, code string) {
			sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := v.sms.SendVerificationCode(sendCtx, phone, code); err != nil {
				log.Printf("failed to send verification SMS to %s: %v", phone, err)
			}
		}(phone, code)
	}

	return code, nil
}

// Confirm returns true and consumes the code when it matches and has not
// expired. A wrong code and an expired code both come back false without
// saying which; an expired entry is deleted even on mismatch so repeated
// attempts cannot stretch the window.
func (v *VerificationCodeIssuer) Confirm(ctx context.Context, phone, code string) (bool, error) {
	pending, ok, err := v.store.Get(ctx, phone)
	if err != nil {
		return false, &TransientError{Op: "verification code get", Err: err}
	}
	if !ok {
		return false, nil
	}

	if !v.now().Before(pending.ExpiresAt) {
		// Expired: clear state regardless of whether the code matched.
		if err := v.store.Delete(ctx, phone); err != nil {
			log.Printf("failed to clear expired code for %s: %v", phone, err)
		}
		return false, nil
	}

	if pending.Code != code {
		return false, nil
	}

	// Single-use: consume immediately so a replay fails.
	if err := v.store.Delete(ctx, phone); err != nil {
		return false, &TransientError{Op: "verification code consume", Err: err}
	}
	return true, nil
}

// generateCode draws a uniform random integer in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
