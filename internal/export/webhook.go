package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tewans-kitchen/pos/internal/auth"
	"github.com/tewans-kitchen/pos/internal/enum"
)

// WebhookExporter POSTs the JSON payload to a URL. When a secret is set the
// request carries a bearer token whose digest claim covers the body.
type WebhookExporter struct {
	url      string
	secret   string
	tokenTTL time.Duration
	client   *http.Client
}

// NewWebhookExporter creates a webhook sink. A nil client uses a client with
// a 10s timeout.
func NewWebhookExporter(url, secret string, tokenTTL time.Duration, client *http.Client) *WebhookExporter {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookExporter{url: url, secret: secret, tokenTTL: tokenTTL, client: client}
}

func (e *WebhookExporter) Name() string { return enum.SinkWebhook }

func (e *WebhookExporter) Export(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", p.ID)

	if e.secret != "" {
		token, err := auth.GenerateToken(e.secret, p.ID, p.TableID, auth.Digest(body), e.tokenTTL)
		if err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", e.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post %s: %w: %d", e.url, ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
