package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSMSSender struct {
	mu    sync.Mutex
	sent  []string
	ready chan struct{}
}

func newRecordingSMSSender() *recordingSMSSender {
	return &recordingSMSSender{ready: make(chan struct{}, 10)}
}

func (r *recordingSMSSender) SendVerificationCode(ctx context.Context, phone, code string) error {
	r.mu.Lock()
	r.sent = append(r.sent, phone+"="+code)
	r.mu.Unlock()
	r.ready <- struct{}{}
	return nil
}

func (r *recordingSMSSender) waitForSend(t *testing.T) {
	t.Helper()
	select {
	case <-r.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SMS dispatch")
	}
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

const testPhone = "+35799000000"

func newTestIssuer() (*VerificationCodeIssuer, *MemoryCodeStore, *recordingSMSSender, *fakeClock) {
	store := NewMemoryCodeStore()
	sms := newRecordingSMSSender()
	clock := &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	return NewVerificationCodeIssuer(store, sms, clock.Now), store, sms, clock
}

func TestIssueGeneratesSixDigitCode(t *testing.T) {
	issuer, _, sms, _ := newTestIssuer()

	code, err := issuer.Issue(context.Background(), testPhone)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), code)

	sms.waitForSend(t)
	sms.mu.Lock()
	defer sms.mu.Unlock()
	require.Len(t, sms.sent, 1)
	assert.Equal(t, testPhone+"="+code, sms.sent[0])
}

func TestConfirmConsumesMatchingCode(t *testing.T) {
	issuer, _, _, _ := newTestIssuer()

	code, err := issuer.Issue(context.Background(), testPhone)
	require.NoError(t, err)

	ok, err := issuer.Confirm(context.Background(), testPhone, code)
	require.NoError(t, err)
	assert.True(t, ok)

	// Single-use: the same code fails on replay.
	ok, err = issuer.Confirm(context.Background(), testPhone, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmWrongCodeKeepsPendingEntry(t *testing.T) {
	issuer, _, _, _ := newTestIssuer()

	code, err := issuer.Issue(context.Background(), testPhone)
	require.NoError(t, err)

	ok, err := issuer.Confirm(context.Background(), testPhone, "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	// The right code still works afterwards.
	ok, err = issuer.Confirm(context.Background(), testPhone, code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfirmExpiredCodeFailsAndClears(t *testing.T) {
	issuer, store, _, clock := newTestIssuer()

	code, err := issuer.Issue(context.Background(), testPhone)
	require.NoError(t, err)

	clock.Advance(CodeTTL + time.Second)

	ok, err := issuer.Confirm(context.Background(), testPhone, code)
	require.NoError(t, err)
	assert.False(t, ok)

	// The expired entry is gone, even though the code matched.
	_, found, err := store.Get(context.Background(), testPhone)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestConfirmExpiredMismatchAlsoClears(t *testing.T) {
	issuer, store, _, clock := newTestIssuer()

	_, err := issuer.Issue(context.Background(), testPhone)
	require.NoError(t, err)

	clock.Advance(CodeTTL + time.Minute)

	ok, err := issuer.Confirm(context.Background(), testPhone, "wrong!")
	require.NoError(t, err)
	assert.False(t, ok)

	_, found, err := store.Get(context.Background(), testPhone)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestConfirmAtExactExpiryFails(t *testing.T) {
	issuer, _, _, clock := newTestIssuer()

	code, err := issuer.Issue(context.Background(), testPhone)
	require.NoError(t, err)

	clock.Advance(CodeTTL)

	ok, err := issuer.Confirm(context.Background(), testPhone, code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReissueReplacesPendingCode(t *testing.T) {
	issuer, _, _, _ := newTestIssuer()

	first, err := issuer.Issue(context.Background(), testPhone)
	require.NoError(t, err)
	second, err := issuer.Issue(context.Background(), testPhone)
	require.NoError(t, err)

	if first != second {
		ok, err := issuer.Confirm(context.Background(), testPhone, first)
		require.NoError(t, err)
		assert.False(t, ok, "stale code must not confirm")
	}

	ok, err := issuer.Confirm(context.Background(), testPhone, second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestConfirmUnknownPhone(t *testing.T) {
	issuer, _, _, _ := newTestIssuer()

	ok, err := issuer.Confirm(context.Background(), "+35799999999", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}
