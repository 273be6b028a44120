package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metric descriptors for the game server. Each
// game owns its own registry so several games can live in one process.
type Metrics struct {
	game     *Game
	registry *prometheus.Registry

	sessions         *prometheus.GaugeVec
	usersOnline      prometheus.Gauge
	roomsTotal       prometheus.Gauge
	connectionsTotal *prometheus.CounterVec
	commandsTotal    *prometheus.CounterVec
	broadcastsTotal  *prometheus.CounterVec
	ticksTotal       prometheus.Counter
	relocationsTotal prometheus.Counter
	uptimeSeconds    prometheus.Gauge
	memoryHeapBytes  prometheus.Gauge
}

// NewMetrics creates and registers the game's metrics.
func NewMetrics(game *Game) *Metrics {
	m := &Metrics{
		game:     game,
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dennis_sessions",
			Help: "Number of live sessions by transport.",
		}, []string{"transport"}),
		usersOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dennis_users_online",
			Help: "Number of sessions bound to a user.",
		}),
		roomsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dennis_rooms_total",
			Help: "Number of rooms in the world.",
		}),
		connectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dennis_connections_total",
			Help: "Total connections since server start.",
		}, []string{"transport"}),
		commandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dennis_commands_total",
			Help: "Dispatched command lines by result.",
		}, []string{"result"}),
		broadcastsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dennis_broadcasts_total",
			Help: "Broadcasts by scope.",
		}, []string{"scope"}),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dennis_ticks_total",
			Help: "World ticks run since server start.",
		}),
		relocationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dennis_relocations_total",
			Help: "Users teleported by homing items.",
		}),
		uptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dennis_uptime_seconds",
			Help: "Server uptime in seconds.",
		}),
		memoryHeapBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dennis_memory_heap_bytes",
			Help: "Go heap memory allocated in bytes.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.sessions,
		m.usersOnline,
		m.roomsTotal,
		m.connectionsTotal,
		m.commandsTotal,
		m.broadcastsTotal,
		m.ticksTotal,
		m.relocationsTotal,
		m.uptimeSeconds,
		m.memoryHeapBytes,
	)
	return m
}

// Update refreshes all gauges from current game state.
func (m *Metrics) Update() {
	counts := m.game.Router.CountByKind()
	for _, kind := range []TransportKind{TransportTelnet, TransportWebSocket} {
		m.sessions.WithLabelValues(kind.String()).Set(float64(counts[kind]))
	}
	m.usersOnline.Set(float64(len(m.game.Router.Bound())))
	m.roomsTotal.Set(float64(len(m.game.Store.Rooms())))
	m.uptimeSeconds.Set(time.Since(m.game.StartTime).Seconds())

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.memoryHeapBytes.Set(float64(mem.HeapAlloc))
}

// Handler returns an http.Handler that updates metrics before serving them.
// Gauges read the world, so the refresh runs on the loop.
func (m *Metrics) Handler() http.Handler {
	serve := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.game.Loop.Call(m.Update) {
			m.Update()
		}
		serve.ServeHTTP(w, r)
	})
}

// The recorders below tolerate a nil receiver so a Router can run without
// metrics.

func (m *Metrics) connected(kind TransportKind) {
	if m != nil {
		m.connectionsTotal.WithLabelValues(kind.String()).Inc()
	}
}

func (m *Metrics) command(res Result) {
	if m != nil {
		m.commandsTotal.WithLabelValues(res.String()).Inc()
	}
}

func (m *Metrics) broadcast(scope string) {
	if m != nil {
		m.broadcastsTotal.WithLabelValues(scope).Inc()
	}
}

func (m *Metrics) tick() {
	if m != nil {
		m.ticksTotal.Inc()
	}
}

func (m *Metrics) relocated() {
	if m != nil {
		m.relocationsTotal.Inc()
	}
}
