package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Mailer delivers outbound mail through a Resend-shaped JSON API.
type Mailer struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

// NewMailer constructs a Mailer posting to the given endpoint.
func NewMailer(endpoint, apiKey, from string, client *http.Client) *Mailer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Mailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		from:     from,
		client:   client,
	}
}

type mailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send posts one message to the configured endpoint.
func (m *Mailer) Send(ctx context.Context, to []string, subject, html string) error {
	if m == nil || m.endpoint == "" {
		return fmt.Errorf("directory: mailer not configured")
	}
	if len(to) == 0 {
		return fmt.Errorf("directory: mail needs at least one recipient")
	}

	body, err := json.Marshal(mailRequest{
		From:    m.from,
		To:      to,
		Subject: strings.TrimSpace(subject),
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("directory: marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("directory: create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("directory: send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("directory: mail API error: status %d", resp.StatusCode)
	}
	return nil
}
