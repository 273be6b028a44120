package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func newWebTest(t *testing.T, adjust func(*GameConf)) (*testEnv, *httptest.Server) {
	t.Helper()
	e := newTestEnvWith(t, adjust)
	e.runLoop()
	ts := httptest.NewServer(NewWebServer(e.game).Handler())
	t.Cleanup(ts.Close)
	return e, ts
}

func wsURL(ts *httptest.Server, query string) string {
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	if query != "" {
		u += "?" + query
	}
	return u
}

// readUntil reads frames until one contains sub and returns everything read.
func readUntil(t *testing.T, conn *websocket.Conn, sub string) string {
	t.Helper()
	var got []string
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q: %v (got %q)", sub, err, got)
		}
		got = append(got, string(data))
		if strings.Contains(string(data), sub) {
			return strings.Join(got, "\n")
		}
	}
}

func TestWebSocketSession(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "motd.web.txt"), []byte("<b>Hi</b> & welcome\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, ts := newWebTest(t, func(c *GameConf) { c.TextDir = dir })

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	motd := readUntil(t, conn, "welcome")
	if motd != "&lt;b&gt;Hi&lt;/b&gt; &amp; welcome" {
		t.Errorf("MOTD frame = %q", motd)
	}

	// One frame may carry several lines.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("register carol pw1\nlogin carol pw1")); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}
	readUntil(t, conn, "Registered user &#34;carol&#34;.")
	readUntil(t, conn, "You are now logged in as &#34;carol&#34;.")

	var kinds map[TransportKind]int
	e.game.Loop.Call(func() { kinds = e.game.Router.CountByKind() })
	if kinds[TransportWebSocket] != 1 {
		t.Errorf("websocket sessions = %d, want 1", kinds[TransportWebSocket])
	}

	conn.WriteMessage(websocket.TextMessage, []byte("quit"))
	readUntil(t, conn, "Goodbye for now.")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after quit")
	}
}

func TestWebSocketColorStripped(t *testing.T) {
	e, ts := newWebTest(t, nil)
	e.addUser("alice", 0)
	e.db.UserByName("alice").Colors = true

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	readUntil(t, conn, "Welcome to Dennis!")

	conn.WriteMessage(websocket.TextMessage, []byte("login alice secret"))
	out := readUntil(t, conn, "No exits in this room.")
	if strings.Contains(out, "\x1b[") {
		t.Errorf("escape sequences sent to a browser: %q", out)
	}
}

func postLogin(t *testing.T, ts *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAuthLoginAndToken(t *testing.T) {
	e, ts := newWebTest(t, nil)
	e.addUser("alice", 0)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"wrong password", `{"name":"alice","password":"nope"}`, http.StatusUnauthorized},
		{"unknown user", `{"name":"zed","password":"secret"}`, http.StatusUnauthorized},
		{"bad body", `not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if resp := postLogin(t, ts, tt.body); resp.StatusCode != tt.code {
			t.Errorf("%s: status %d, want %d", tt.name, resp.StatusCode, tt.code)
		}
	}

	resp := postLogin(t, ts, `{"name":"Alice","password":"secret"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Token == "" {
		t.Fatalf("decoding token: %v (%+v)", err, body)
	}
	if name, err := e.game.Auth.Verify(body.Token); err != nil || name != "alice" {
		t.Fatalf("Verify = %q, %v", name, err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "token="+body.Token), nil)
	if err != nil {
		t.Fatalf("Dial with token: %v", err)
	}
	defer conn.Close()
	readUntil(t, conn, "You are now logged in as &#34;alice&#34;.")

	_, resp, err = websocket.DefaultDialer.Dial(wsURL(ts, "token=garbage"), nil)
	if err == nil {
		t.Fatal("Dial with a bad token succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token response = %v, want 401", resp)
	}
}

func TestTokenForDeletedUser(t *testing.T) {
	e, ts := newWebTest(t, nil)
	u := e.addUser("alice", 0)
	token, err := e.game.Auth.Login("alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	e.db.DeleteUser(u)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "token="+token), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	readUntil(t, conn, "The user for this token no longer exists.")
}

func TestHealth(t *testing.T) {
	_, ts := newWebTest(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["version"] != VersionString() {
		t.Errorf("health = %v", body)
	}
	if _, ok := body["uptime_seconds"].(float64); !ok {
		t.Errorf("uptime_seconds missing: %v", body)
	}
}

func TestMetricsRoute(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		code    int
	}{
		{"enabled", true, http.StatusOK},
		{"disabled", false, http.StatusNotFound},
	}
	for _, tt := range tests {
		_, ts := newWebTest(t, func(c *GameConf) { c.Web.Metrics = tt.enabled })
		resp, err := http.Get(ts.URL + "/metrics")
		if err != nil {
			t.Fatalf("%s: GET: %v", tt.name, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.code {
			t.Errorf("%s: status %d, want %d", tt.name, resp.StatusCode, tt.code)
		}
	}
}

func TestRateLimit(t *testing.T) {
	_, ts := newWebTest(t, func(c *GameConf) { c.Web.RateLimit = 2 })

	codes := make([]int, 0, 3)
	for range 3 {
		resp, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d: status %d, want %d", i+1, codes[i], want[i])
		}
	}
}

func TestCORS(t *testing.T) {
	_, ts := newWebTest(t, func(c *GameConf) { c.Web.CORSOrigins = []string{"https://play.example.com"} })

	tests := []struct {
		origin string
		method string
		allow  string
		code   int
	}{
		{"https://play.example.com", http.MethodGet, "https://play.example.com", http.StatusOK},
		{"https://evil.example.com", http.MethodGet, "", http.StatusOK},
		{"https://play.example.com", http.MethodOptions, "https://play.example.com", http.StatusNoContent},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(tt.method, ts.URL+"/health", nil)
		req.Header.Set("Origin", tt.origin)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", tt.method, tt.origin, err)
		}
		resp.Body.Close()
		if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.allow {
			t.Errorf("%s %s: allow origin %q, want %q", tt.method, tt.origin, got, tt.allow)
		}
		if resp.StatusCode != tt.code {
			t.Errorf("%s %s: status %d, want %d", tt.method, tt.origin, resp.StatusCode, tt.code)
		}
	}

	header := http.Header{"Origin": {"https://evil.example.com"}}
	if _, _, err := websocket.DefaultDialer.Dial(wsURL(ts, ""), header); err == nil {
		t.Error("websocket upgrade allowed from a foreign origin")
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"socket", nil, "192.0.2.1:1234"},
		{"forwarded", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "198.51.100.2"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.RemoteAddr = "192.0.2.1:1234"
		for k, v := range tt.headers {
			r.Header.Set(k, v)
		}
		if got := clientAddr(r); got != tt.want {
			t.Errorf("%s: clientAddr = %q, want %q", tt.name, got, tt.want)
		}
	}
}
