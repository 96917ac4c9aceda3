package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWebhookClient_Send(t *testing.T) {
	t.Run("nil_client", func(t *testing.T) {
		var c *WebhookClient
		err := c.Send(context.Background(), "http://example.com", "5511999999999", "msg")
		if err == nil || err.Error() != "webhook client is nil" {
			t.Errorf("expected nil client error, got %v", err)
		}
	})

	t.Run("missing_config", func(t *testing.T) {
		c := NewWebhookClient()
		err := c.Send(context.Background(), "", "", "msg")
		if err == nil || err.Error() != "webhook url or phone missing" {
			t.Error("expected missing config error")
		}
	})

	t.Run("success", func(t *testing.T) {
		var got map[string]string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &got)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		c := NewWebhookClient()
		err := c.Send(context.Background(), ts.URL, "5511999999999", "🚀 alerta")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["phone"] != "5511999999999" || got["msg"] != "🚀 alerta" {
			t.Errorf("unexpected payload: %v", got)
		}
	})

	t.Run("server_error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"error":"down"}`))
		}))
		defer ts.Close()

		c := NewWebhookClient()
		if err := c.Send(context.Background(), ts.URL, "5511999999999", "msg"); err == nil {
			t.Error("expected error for 502 status")
		}
	})
}

func TestOneSignalClient_SendToUsers(t *testing.T) {
	t.Run("missing_config", func(t *testing.T) {
		c := NewOneSignalClient("", "", "")
		err := c.SendToUsers(context.Background(), "t", "m", nil)
		if err == nil || err.Error() != "onesignal app_id or api_key missing" {
			t.Error("expected missing config error")
		}
	})

	t.Run("targeted", func(t *testing.T) {
		var got map[string]interface{}
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "Basic key123" {
				t.Errorf("unexpected auth header: %s", auth)
			}
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &got)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		c := NewOneSignalClient("app123", "key123", "http://localhost:3000/dashboard")
		c.baseURL = ts.URL
		err := c.SendToUsers(context.Background(), "Alerta", "mensagem", []string{"user_1"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got["app_id"] != "app123" {
			t.Errorf("unexpected app_id: %v", got["app_id"])
		}
		if _, ok := got["include_aliases"]; !ok {
			t.Error("expected include_aliases for targeted send")
		}
		if _, ok := got["included_segments"]; ok {
			t.Error("targeted send must not broadcast")
		}
	})

	t.Run("broadcast", func(t *testing.T) {
		var got map[string]interface{}
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &got)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		c := NewOneSignalClient("app123", "key123", "")
		c.baseURL = ts.URL
		if err := c.SendToUsers(context.Background(), "Alerta", "mensagem", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := got["included_segments"]; !ok {
			t.Error("expected included_segments for broadcast")
		}
	})

	t.Run("server_error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer ts.Close()

		c := NewOneSignalClient("app123", "key123", "")
		c.baseURL = ts.URL
		if err := c.SendToUsers(context.Background(), "t", "m", nil); err == nil {
			t.Error("expected error for 403 status")
		}
	})
}
