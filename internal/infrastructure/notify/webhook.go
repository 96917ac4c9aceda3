package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WebhookClient posts alert messages to a user-configured webhook, in the
// {"phone","msg"} shape WhatsApp gateway bridges expect.
type WebhookClient struct {
	httpClient *http.Client
}

func NewWebhookClient() *WebhookClient {
	return &WebhookClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send delivers one message to the given webhook URL.
func (c *WebhookClient) Send(ctx context.Context, url, phone, msg string) error {
	if c == nil {
		return fmt.Errorf("webhook client is nil")
	}
	if url == "" || phone == "" {
		return fmt.Errorf("webhook url or phone missing")
	}

	payload := map[string]string{
		"phone": phone,
		"msg":   msg,
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook send failed status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}
