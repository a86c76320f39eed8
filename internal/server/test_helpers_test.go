package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"baby-name-game/internal/auth"
	"baby-name-game/internal/backend"
	"baby-name-game/internal/config"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	srv   *Server
	ts    *httptest.Server
	store *backend.Memory
	auth  *auth.Service
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	store := backend.NewMemory(nil)
	authSvc := auth.New(store, "test-secret")
	cfg := config.Default()
	cfg.SummaryDelayMS = 10
	srv := New(store, authSvc, cfg)
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return &testApp{srv: srv, ts: ts, store: store, auth: authSvc}
}

// signUpParent registers a parent and returns a bearer token for it.
func (a *testApp) signUpParent(t *testing.T, email string) string {
	t.Helper()
	account, err := a.auth.SignUp(context.Background(), auth.SignUpInput{
		Email:    email,
		Password: "secret123",
		Username: "parent",
	})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	token, err := a.auth.IssueToken(account.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func gamePayload(title string, clues ...string) map[string]any {
	today := time.Now().UTC()
	return map[string]any{
		"baby_first_name": "Emma",
		"baby_last_name":  "Stone",
		"game_title":      title,
		"start_date":      today.AddDate(0, 0, -1).Format(time.DateOnly),
		"end_date":        today.AddDate(0, 0, 1).Format(time.DateOnly),
		"clues":           clues,
	}
}

// createGame creates an active game through the API and returns its code.
func (a *testApp) createGame(t *testing.T, token string, clues ...string) string {
	t.Helper()
	resp := doRequest(t, a.ts, http.MethodPost, "/api/games", token, gamePayload("Baby Stone", clues...))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	game := body["game"].(map[string]any)
	if game["status"] != backend.StatusActive {
		t.Fatalf("expected active game, got %v", game["status"])
	}
	return game["game_code"].(string)
}

func joinPlayer(t *testing.T, ts *httptest.Server, code, name string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/players", "", map[string]string{"name": name})
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		t.Fatalf("expected join to succeed, got %d", resp.StatusCode)
	}
	return decodeBody(t, resp)["id"].(string)
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return send(t, noRedirectClient(), req)
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// newBrowser returns a client that keeps cookies and follows redirects like a browser.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func browserGet(t *testing.T, client *http.Client, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return send(t, client, req)
}

func postForm(t *testing.T, client *http.Client, ts *httptest.Server, path string, values url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, ts.URL+path, strings.NewReader(values.Encode()))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return send(t, client, req)
}

func send(t *testing.T, client *http.Client, req *http.Request) *http.Response {
	t.Helper()
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func expectStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("expected status %d, got %d", status, resp.StatusCode)
	}
}

func expectContains(t *testing.T, body, want string) {
	t.Helper()
	if !strings.Contains(body, want) {
		t.Fatalf("expected body to contain %q, got:\n%s", want, body)
	}
}
