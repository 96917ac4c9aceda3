package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/infrastructure/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{}
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	cfg.Scan.Timezone = "UTC"
	cfg.Scan.HeartbeatHours = []int{11, 16}
	return NewServer(cfg, nil, nil)
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func login(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	w := doJSON(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: status=%d body=%s", w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
}

func TestLoginAndMe(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "admin@example.com", "password123")

	w := doJSON(t, s, http.MethodGet, "/api/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		User struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.User.Email != "admin@example.com" || resp.User.Role != "admin" {
		t.Errorf("unexpected user: %+v", resp.User)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "admin@example.com",
		"password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/dashboard", "/api/settings", "/api/stocks", "/api/logs"} {
		w := doJSON(t, s, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, w.Code)
		}
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "user@example.com", "password123")

	// First read lazily creates defaults.
	w := doJSON(t, s, http.MethodGet, "/api/settings", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get settings failed: %d %s", w.Code, w.Body.String())
	}
	var got struct {
		Settings struct {
			WorkStart    string `json:"workStart"`
			ScanInterval int    `json:"scanInterval"`
		} `json:"settings"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Settings.WorkStart != "10:00" || got.Settings.ScanInterval != 15 {
		t.Errorf("unexpected defaults: %+v", got.Settings)
	}

	// Partial update keeps untouched fields.
	w = doJSON(t, s, http.MethodPut, "/api/settings", token, map[string]interface{}{
		"webhookUrl": "https://hook.example",
		"autoAlerts": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update settings failed: %d %s", w.Code, w.Body.String())
	}
	var updated struct {
		Settings struct {
			WebhookURL string `json:"webhookUrl"`
			AutoAlerts bool   `json:"autoAlerts"`
			WorkStart  string `json:"workStart"`
		} `json:"settings"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &updated)
	if updated.Settings.WebhookURL != "https://hook.example" || !updated.Settings.AutoAlerts || updated.Settings.WorkStart != "10:00" {
		t.Errorf("unexpected settings after update: %+v", updated.Settings)
	}
}

func TestSettingsRejectsBadWindow(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "user@example.com", "password123")

	w := doJSON(t, s, http.MethodPut, "/api/settings", token, map[string]interface{}{
		"workStart": "25:99",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", w.Code, w.Body.String())
	}
}

func TestSettingsReportsUnknownTokens(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "user@example.com", "password123")

	w := doJSON(t, s, http.MethodPut, "/api/settings", token, map[string]interface{}{
		"customMessage": "Olá {{alerts}} e {{naoexiste}}",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		UnknownTokens []string `json:"unknownTokens"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.UnknownTokens) != 1 || resp.UnknownTokens[0] != "{{naoexiste}}" {
		t.Errorf("unexpected unknown tokens: %v", resp.UnknownTokens)
	}
}

func TestStockCRUD(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "user@example.com", "password123")

	w := doJSON(t, s, http.MethodPost, "/api/stocks", token, map[string]interface{}{
		"symbol":       "petr4",
		"quantity":     100,
		"averagePrice": 30.5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create stock failed: %d %s", w.Code, w.Body.String())
	}
	var created struct {
		Stock struct {
			ID     int64  `json:"id"`
			Symbol string `json:"symbol"`
		} `json:"stock"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Stock.Symbol != "PETR4" {
		t.Errorf("symbol must be uppercased: %+v", created.Stock)
	}

	w = doJSON(t, s, http.MethodGet, "/api/stocks", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list stocks failed: %d", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/stocks/%d", created.Stock.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete stock failed: %d %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/stocks/%d", created.Stock.ID), token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for repeated delete, got %d", w.Code)
	}
}

func TestStockRejectsInvalid(t *testing.T) {
	s := newTestServer(t)
	token := login(t, s, "user@example.com", "password123")

	w := doJSON(t, s, http.MethodPost, "/api/stocks", token, map[string]interface{}{
		"symbol":   "",
		"quantity": 10,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAdminAllowedUsersFlow(t *testing.T) {
	s := newTestServer(t)
	adminToken := login(t, s, "admin@example.com", "password123")
	userToken := login(t, s, "user@example.com", "password123")

	// Regular users cannot touch the admin surface.
	w := doJSON(t, s, http.MethodGet, "/api/admin/allowed-users", userToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodPost, "/api/admin/allowed-users", adminToken, map[string]string{
		"email": "Bia@Example.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add allowed failed: %d %s", w.Code, w.Body.String())
	}

	// The allow-listed email can now register.
	w = doJSON(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "bia@example.com",
		"name":     "Bia",
		"password": "secret1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", w.Code, w.Body.String())
	}

	// Anyone else still cannot.
	w = doJSON(t, s, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "caio@example.com",
		"password": "secret1",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-allowed email, got %d", w.Code)
	}

	w = doJSON(t, s, http.MethodDelete, "/api/admin/allowed-users/bia@example.com", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("remove allowed failed: %d", w.Code)
	}
}

func TestAdminGlobalSettingsFlow(t *testing.T) {
	s := newTestServer(t)
	adminToken := login(t, s, "admin@example.com", "password123")
	userToken := login(t, s, "user@example.com", "password123")

	w := doJSON(t, s, http.MethodGet, "/api/admin/global-settings", userToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", w.Code)
	}

	// Before any settings row exists the view falls back to defaults.
	w = doJSON(t, s, http.MethodGet, "/api/admin/global-settings", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get global settings failed: %d %s", w.Code, w.Body.String())
	}
	var empty struct {
		WebhookURL   string `json:"webhookUrl"`
		ScanInterval int    `json:"scanInterval"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &empty)
	if empty.WebhookURL != "" || empty.ScanInterval != 15 {
		t.Errorf("unexpected empty view: %+v", empty)
	}

	// Create rows for both users, then push the global values onto them.
	for _, token := range []string{adminToken, userToken} {
		if w := doJSON(t, s, http.MethodGet, "/api/settings", token, nil); w.Code != http.StatusOK {
			t.Fatalf("get settings failed: %d", w.Code)
		}
	}
	w = doJSON(t, s, http.MethodPost, "/api/admin/global-settings", adminToken, map[string]interface{}{
		"webhookUrl":   "https://hook.example/global",
		"scanInterval": 30,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update global settings failed: %d %s", w.Code, w.Body.String())
	}

	// Both rows received the broadcast.
	w = doJSON(t, s, http.MethodGet, "/api/settings", userToken, nil)
	var got struct {
		Settings struct {
			WebhookURL   string `json:"webhookUrl"`
			ScanInterval int    `json:"scanInterval"`
		} `json:"settings"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.Settings.WebhookURL != "https://hook.example/global" || got.Settings.ScanInterval != 30 {
		t.Errorf("global update not applied: %+v", got.Settings)
	}

	w = doJSON(t, s, http.MethodPost, "/api/admin/global-settings", adminToken, map[string]interface{}{
		"webhookUrl":   "x",
		"scanInterval": 0,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-positive interval, got %d", w.Code)
	}
}

func TestTestPushUnconfigured(t *testing.T) {
	s := newTestServer(t)
	adminToken := login(t, s, "admin@example.com", "password123")

	w := doJSON(t, s, http.MethodPost, "/api/admin/test-push", adminToken, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without onesignal config, got %d %s", w.Code, w.Body.String())
	}
}
