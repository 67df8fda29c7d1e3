package services

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSSender dispatches verification codes out of band. Delivery is
// fire-and-forget from the issuer's point of view.
type SMSSender interface {
	SendVerificationCode(ctx context.Context, phone, code string) error
}

// HTTPSMSSender posts messages to an SMS gateway as a form-encoded request.
type HTTPSMSSender struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	sender     string
}

func NewHTTPSMSSender(apiURL, apiKey, sender string) *HTTPSMSSender {
	return &HTTPSMSSender{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
		apiKey:     apiKey,
		sender:     sender,
	}
}

func (c *HTTPSMSSender) SendVerificationCode(ctx context.Context, phone, code string) error {
	message := fmt.Sprintf("Your AutoAgora verification code is %s. It expires in 10 minutes.", code)

	data := url.Values{}
	data.Set("api_key", c.apiKey)
	data.Set("to", phone)
	data.Set("from", c.sender)
	data.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("SMS gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// LogSMSSender logs codes instead of sending them. Used in development when
// no gateway is configured.
type LogSMSSender struct{}

func (LogSMSSender) SendVerificationCode(ctx context.Context, phone, code string) error {
	log.Printf("SMS (dev): verification code for %s is %s", phone, code)
	return nil
}
