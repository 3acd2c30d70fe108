package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/Pamod0/task-track/internal/config"
	"github.com/Pamod0/task-track/internal/serverapp"
)

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	res := app.request(http.MethodGet, "/api/tasks", nil, "")
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for /api/tasks, got %d", res.Code)
	}

	suggestRes := app.request(http.MethodPost, "/api/tags/suggest", strings.NewReader("{}"), "application/json")
	if suggestRes.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for /api/tags/suggest, got %d", suggestRes.Code)
	}
}

func TestServer_HealthAndReadinessExposeRequestID(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		res := app.request(http.MethodGet, path, nil, "")
		if res.Code != http.StatusOK {
			t.Fatalf("%s expected 200, got %d body=%s", path, res.Code, res.Body.String())
		}
		if rid := strings.TrimSpace(res.Header().Get("X-Request-Id")); rid == "" {
			t.Fatalf("%s missing X-Request-Id header", path)
		}
	}
}

func TestServer_OTPFlowAndTaskRoundTrip(t *testing.T) {
	app := newTestApp(t)
	app.login(t, "integration@example.com")

	createRes := app.json(http.MethodPost, "/api/tasks", map[string]any{
		"description": "Implemented the login page with validation",
		"date":        "2024-03-15",
		"progress":    60,
		"timeSpent":   2.5,
		"selfRating":  4,
	})
	if createRes.Code != http.StatusCreated {
		t.Fatalf("create task expected 201, got %d body=%s", createRes.Code, createRes.Body.String())
	}
	createBody := decodeBodyMap(t, createRes)
	if reset, _ := createBody["resetForm"].(bool); !reset {
		t.Fatalf("expected resetForm after create, body=%s", createRes.Body.String())
	}
	created := asMap(t, createBody["task"])
	taskID := asString(t, created["id"])
	if got := asString(t, created["period"]); got != "Week 11" {
		t.Fatalf("expected derived period Week 11, got %q", got)
	}

	listRes := app.request(http.MethodGet, "/api/tasks", nil, "")
	if listRes.Code != http.StatusOK {
		t.Fatalf("list tasks expected 200, got %d body=%s", listRes.Code, listRes.Body.String())
	}
	if !strings.Contains(listRes.Body.String(), taskID) {
		t.Fatalf("expected task list to include %s, body=%s", taskID, listRes.Body.String())
	}

	updateRes := app.json(http.MethodPut, "/api/tasks/"+taskID, map[string]any{
		"description": "Implemented the login page and fixed review notes",
		"date":        "2024-03-15",
		"progress":    90,
		"timeSpent":   3,
		"selfRating":  5,
	})
	if updateRes.Code != http.StatusOK {
		t.Fatalf("update task expected 200, got %d body=%s", updateRes.Code, updateRes.Body.String())
	}
	updated := decodeBodyMap(t, updateRes)
	if got := asString(t, updated["id"]); got != taskID {
		t.Fatalf("update should preserve record id, got %q want %q", got, taskID)
	}
}

func TestServer_ValidationErrorsReportAllFields(t *testing.T) {
	app := newTestApp(t)
	app.login(t, "fields@example.com")

	res := app.json(http.MethodPost, "/api/tasks", map[string]any{
		"description": "short",
		"date":        "not-a-date",
		"progress":    150,
		"timeSpent":   1,
		"selfRating":  3,
	})
	if res.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", res.Code, res.Body.String())
	}
	body := decodeBodyMap(t, res)
	fields, ok := body["fields"].([]any)
	if !ok || len(fields) < 3 {
		t.Fatalf("expected at least 3 field errors, body=%s", res.Body.String())
	}
}

func TestServer_AdminRoutesRequireAdminRole(t *testing.T) {
	app := newTestApp(t)
	app.login(t, "user@example.com")

	res := app.request(http.MethodGet, "/api/admin/tasks", nil, "")
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d body=%s", res.Code, res.Body.String())
	}

	admin := newTestApp(t)
	admin.login(t, "admin@example.com")

	adminRes := admin.request(http.MethodGet, "/api/admin/tasks", nil, "")
	if adminRes.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d body=%s", adminRes.Code, adminRes.Body.String())
	}
	eventsRes := admin.request(http.MethodGet, "/api/admin/events", nil, "")
	if eventsRes.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin events, got %d body=%s", eventsRes.Code, eventsRes.Body.String())
	}
}

func TestServer_SuggestionEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.login(t, "tags@example.com")

	res := app.json(http.MethodPost, "/api/tags/suggest", map[string]any{
		"description": "Wrote the backend review checklist",
		"tags":        []string{"backend"},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("suggest expected 200, got %d body=%s", res.Code, res.Body.String())
	}
	body := decodeBodyMap(t, res)
	suggestions, ok := body["suggestions"].([]any)
	if !ok {
		t.Fatalf("expected suggestions list, body=%s", res.Body.String())
	}
	for _, s := range suggestions {
		if asString(t, s) == "backend" {
			t.Fatalf("accepted tag must not be re-suggested, body=%s", res.Body.String())
		}
	}
}

type testApp struct {
	handler http.Handler
	logs    *bytes.Buffer
	cookies map[string]*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := config.Default()
	cfg.Server.DataDir = t.TempDir()
	cfg.Tasks.Store = "memory"
	cfg.Suggestions.Enabled = true
	cfg.AdminEmails = []string{"admin@example.com"}

	var logs bytes.Buffer
	logger := log.New(&logs, "", 0)

	app, err := serverapp.New(serverapp.Options{
		Config: cfg,
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("serverapp.New: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	return &testApp{
		handler: app.Handler,
		logs:    &logs,
		cookies: map[string]*http.Cookie{},
	}
}

func (a *testApp) json(method, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	return a.request(method, path, bytes.NewReader(b), "application/json")
}

func (a *testApp) request(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	a.captureCookies(rec.Result())
	return rec
}

func (a *testApp) captureCookies(res *http.Response) {
	for _, c := range res.Cookies() {
		if c == nil {
			continue
		}
		if c.MaxAge < 0 || strings.TrimSpace(c.Value) == "" {
			delete(a.cookies, c.Name)
			continue
		}
		cp := *c
		a.cookies[c.Name] = &cp
	}
}

func (a *testApp) login(t *testing.T, email string) {
	t.Helper()

	res := a.json(http.MethodPost, "/api/auth/request-otp", map[string]any{
		"email": email,
	})
	if res.Code != http.StatusOK {
		t.Fatalf("request otp expected 200, got %d body=%s", res.Code, res.Body.String())
	}

	code := otpCodeFromLogs(t, a.logs)
	verifyRes := a.json(http.MethodPost, "/api/auth/verify-otp", map[string]any{
		"email": email,
		"code":  code,
	})
	if verifyRes.Code != http.StatusOK {
		t.Fatalf("verify otp expected 200, got %d body=%s", verifyRes.Code, verifyRes.Body.String())
	}
}

func otpCodeFromLogs(t *testing.T, logs *bytes.Buffer) string {
	t.Helper()
	re := regexp.MustCompile(`OTP code for .* is ([0-9]{6})`)
	matches := re.FindAllStringSubmatch(logs.String(), -1)
	if len(matches) == 0 {
		t.Fatalf("no OTP code found in logs: %s", logs.String())
	}
	return matches[len(matches)-1][1]
}

func decodeBodyMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode json body failed: %v body=%s", err, rec.Body.String())
	}
	return out
}

func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	out, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T (%v)", v, v)
	}
	return out
}

func asString(t *testing.T, v any) string {
	t.Helper()
	s, ok := v.(string)
	if !ok {
		t.Fatalf("expected string, got %T (%v)", v, v)
	}
	return s
}
