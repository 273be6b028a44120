package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// originPolicy lists the browser origins allowed to use the web endpoints.
// An empty policy admits every origin.
type originPolicy map[string]bool

func newOriginPolicy(origins []string) originPolicy {
	p := make(originPolicy, len(origins))
	for _, o := range origins {
		p[strings.ToLower(strings.TrimSpace(o))] = true
	}
	return p
}

func (p originPolicy) allows(origin string) bool {
	return len(p) == 0 || p[strings.ToLower(origin)]
}

// checkOrigin is the WebSocket upgrade hook. Clients that send no Origin
// header are not browsers and are let through.
func (p originPolicy) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || p.allows(origin)
}

// wrap adds CORS headers for allowed origins and answers preflight requests.
func (p originPolicy) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && p.allows(origin) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimiter allows limit requests per client in each fixed window.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	clients map[string]*rateWindow
}

type rateWindow struct {
	start time.Time
	hits  int
}

func newRateLimiter(perMinute int) *rateLimiter {
	return &rateLimiter{
		limit:   perMinute,
		window:  time.Minute,
		now:     time.Now,
		clients: make(map[string]*rateWindow),
	}
}

func (rl *rateLimiter) allow(client string) bool {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.clients[client]
	if w == nil || now.Sub(w.start) >= rl.window {
		w = &rateWindow{start: now}
		rl.clients[client] = w
	}
	w.hits++
	return w.hits <= rl.limit
}

// sweep forgets clients whose window has closed and returns how many it
// dropped.
func (rl *rateLimiter) sweep() int {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for client, w := range rl.clients {
		if now.Sub(w.start) >= rl.window {
			delete(rl.clients, client)
			n++
		}
	}
	return n
}

// wrap rejects requests over the limit. A zero limit lets everything through.
func (rl *rateLimiter) wrap(next http.Handler) http.Handler {
	if rl == nil || rl.limit <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientHost(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientHost is clientAddr without a port.
func clientHost(r *http.Request) string {
	addr := clientAddr(r)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
