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

// OneSignalClient pushes browser notifications through the OneSignal REST
// API. Targeted sends use external ids; an empty target list broadcasts to
// all subscribed users.
type OneSignalClient struct {
	appID      string
	apiKey     string
	appURL     string
	baseURL    string
	httpClient *http.Client
}

func NewOneSignalClient(appID, apiKey, appURL string) *OneSignalClient {
	return &OneSignalClient{
		appID:   appID,
		apiKey:  apiKey,
		appURL:  appURL,
		baseURL: "https://api.onesignal.com",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendToUsers pushes a notification to the given external ids.
func (c *OneSignalClient) SendToUsers(ctx context.Context, title, message string, userIDs []string) error {
	if c == nil {
		return fmt.Errorf("onesignal client is nil")
	}
	if c.appID == "" || c.apiKey == "" {
		return fmt.Errorf("onesignal app_id or api_key missing")
	}

	payload := map[string]interface{}{
		"app_id":   c.appID,
		"headings": map[string]string{"en": title, "pt": title},
		"contents": map[string]string{"en": message, "pt": message},
	}
	if c.appURL != "" {
		payload["url"] = c.appURL
	}
	if len(userIDs) > 0 {
		payload["include_aliases"] = map[string][]string{"external_id": userIDs}
		payload["target_channel"] = "push"
	} else {
		payload["included_segments"] = []string{"Subscribed Users"}
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/notifications", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Basic "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("onesignal send failed status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}
