package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebServer serves the WebSocket transport and the small HTTP API next to
// the telnet listener.
type WebServer struct {
	game     *Game
	httpSrv  *http.Server
	mux      *http.ServeMux
	rl       *rateLimiter
	origins  originPolicy
	upgrader websocket.Upgrader
	handler  http.Handler
}

// NewWebServer creates a web server bound to the game.
func NewWebServer(game *Game) *WebServer {
	cfg := game.Conf.Web
	ws := &WebServer{
		game:    game,
		mux:     http.NewServeMux(),
		rl:      newRateLimiter(cfg.RateLimit),
		origins: newOriginPolicy(cfg.CORSOrigins),
	}
	ws.upgrader.CheckOrigin = ws.origins.checkOrigin
	ws.registerRoutes()
	return ws
}

// registerRoutes sets up all HTTP routes.
func (ws *WebServer) registerRoutes() {
	cfg := ws.game.Conf.Web

	ws.mux.HandleFunc("GET /ws", ws.handleWebSocket)
	ws.mux.HandleFunc("POST /api/v1/auth/login", ws.handleAuthLogin)
	ws.mux.HandleFunc("GET /health", ws.handleHealth)
	if cfg.Metrics {
		ws.mux.Handle("GET /metrics", ws.game.Metrics.Handler())
	}

	handler := ws.origins.wrap(ws.rl.wrap(ws.mux))
	ws.handler = handler
	ws.httpSrv = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, fmt.Sprint(cfg.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler returns the routed handler with middleware applied.
func (ws *WebServer) Handler() http.Handler {
	return ws.handler
}

// Listen opens the web listener.
func (ws *WebServer) Listen() (net.Listener, error) {
	return net.Listen("tcp", ws.httpSrv.Addr)
}

// Serve handles requests on ln until Stop. HTTPS is used when a certificate
// and key are configured.
func (ws *WebServer) Serve(ln net.Listener) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := ws.rl.sweep(); n > 0 {
					log.Printf("web: forgot %d idle rate-limit clients", n)
				}
			case <-stop:
				return
			}
		}
	}()

	cfg := ws.game.Conf.Web
	var err error
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		log.Printf("Web server listening on %s (HTTPS)", ln.Addr())
		err = ws.httpSrv.ServeTLS(ln, cfg.CertFile, cfg.KeyFile)
	} else {
		log.Printf("Web server listening on %s (HTTP)", ln.Addr())
		err = ws.httpSrv.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the web server.
func (ws *WebServer) Stop(ctx context.Context) error {
	return ws.httpSrv.Shutdown(ctx)
}

// wsTransport sends each message as one text frame. Color codes are
// stripped and markup is escaped for the browser.
type wsTransport struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (t *wsTransport) WriteText(msg string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return t.conn.WriteMessage(websocket.TextMessage, []byte(html.EscapeString(plain(msg))))
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

// clientAddr prefers proxy headers over the socket address.
func clientAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// handleWebSocket upgrades the request and runs the session. A valid
// ?token= binds the user immediately.
func (ws *WebServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	g := ws.game
	var username string
	if token := r.URL.Query().Get("token"); token != "" {
		var err error
		username, err = g.Auth.Verify(token)
		if err != nil {
			log.Printf("web: rejected token from %s: %v", clientAddr(r), err)
			http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
			return
		}
	}

	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	s := NewSession(TransportWebSocket, clientAddr(r), &wsTransport{conn: conn})
	g.Router.Add(s)
	log.Printf("[%s] New websocket connection from %s", s.ID, s.Addr)
	defer g.hangUp(s)

	g.Loop.Post(func() {
		s.Send(g.MOTD(TransportWebSocket))
		if username == "" {
			return
		}
		u := g.Store.UserByName(username)
		if u == nil {
			s.Send("The user for this token no longer exists.")
			return
		}
		g.login(s, u)
	})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[%s] read error: %v", s.ID, err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		for _, line := range bytes.Split(data, []byte("\n")) {
			if !g.submitLine(s, line) {
				return
			}
		}
	}
}

func (ws *WebServer) handleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	var token string
	var err error
	if !ws.game.Loop.Call(func() { token, err = ws.game.Auth.Login(req.Name, req.Password) }) {
		http.Error(w, `{"error":"server shutting down"}`, http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		log.Printf("web: failed login for %q from %s", req.Name, clientAddr(r))
		http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"version":        VersionString(),
		"uptime_seconds": time.Since(ws.game.StartTime).Seconds(),
		"sessions":       ws.game.Router.Count(),
	})
}
