// Package web serves the browser surfaces: the chat UI and the
// dashboard console. One server core carries both route sets; the mode
// picks which one is mounted.
//
// Sessions are cookie-based but the cookie only holds a signed session
// ID. The dashboard API key a user enters stays server-side in the
// session store, attached to that session's own API client.
package web

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/config"
	"github.com/packetintransit/meraki/internal/history"
	"github.com/packetintransit/meraki/internal/i18n"
	"github.com/packetintransit/meraki/internal/logging"
	"github.com/packetintransit/meraki/internal/meraki"
	"github.com/packetintransit/meraki/internal/metrics"
	"github.com/packetintransit/meraki/internal/ratelimit"
	"github.com/packetintransit/meraki/internal/stats"
)

//go:embed static/chat.html
var chatHTML []byte

//go:embed static/dashboard.html
var dashboardHTML []byte

// Mode selects which route set the server mounts.
type Mode string

const (
	ModeChat      Mode = "chat"
	ModeDashboard Mode = "dashboard"
)

// DefaultCommandLimit caps chat commands per client IP per minute.
const DefaultCommandLimit = 60

// ServerConfig holds the HTTP hardening knobs.
type ServerConfig struct {
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64
}

// DefaultServerConfig returns the default timeouts and size limits.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
		MaxBodyBytes:      1 << 20,
	}
}

// Options holds the dependencies for a web server.
type Options struct {
	Mode   Mode
	Config *config.Config
	Logger *logging.Logger

	// NewClient builds each session's dashboard client. Defaults to a
	// client configured from the api block, with no key set.
	NewClient func() *meraki.Client

	// History backs the analytics endpoints (dashboard mode).
	History *history.Store

	// Stats feeds the websocket overview pushes (dashboard mode).
	Stats *stats.Collector

	// Estate keeps the inventory gauges and the estate endpoint fresh
	// from the daemon's own API key (dashboard mode).
	Estate *metrics.Collector

	// CommandLimit overrides the per-IP chat command budget per minute.
	CommandLimit int

	ServerConfig *ServerConfig
}

// Server is the HTTP server behind `merakictl serve`.
type Server struct {
	mode      Mode
	cfg       *config.Config
	log       *logging.Logger
	sessions  *SessionStore
	registry  *metrics.Registry
	limiter   *ratelimit.Limiter
	history   *history.Store
	collector *stats.Collector
	estate    *metrics.Collector
	wsManager *WSManager
	srvCfg    *ServerConfig
	startTime time.Time

	mux      *http.ServeMux
	httpSrv  *http.Server
	bgCancel context.CancelFunc
}

// New creates a web server for the given mode.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	cfg.ApplyDefaults()

	log := opts.Logger
	if log == nil {
		log = logging.Default().WithComponent("web")
	}

	srvCfg := opts.ServerConfig
	if srvCfg == nil {
		srvCfg = DefaultServerConfig()
	}

	newClient := opts.NewClient
	if newClient == nil {
		api := cfg.API
		newClient = func() *meraki.Client {
			clientOpts := []meraki.Option{
				meraki.WithTimeout(api.Timeout()),
				meraki.WithCallInterval(api.CallInterval()),
			}
			if api.BaseURL != "" {
				clientOpts = append(clientOpts, meraki.WithBaseURL(api.BaseURL))
			}
			return meraki.New(clientOpts...)
		}
	}

	limit := opts.CommandLimit
	if limit <= 0 {
		limit = DefaultCommandLimit
	}

	s := &Server{
		mode:      opts.Mode,
		cfg:       cfg,
		log:       log,
		sessions:  NewSessionStore(cfg.Web.SessionSecret, newClient),
		registry:  metrics.Get(),
		limiter:   ratelimit.New(limit, time.Minute),
		history:   opts.History,
		collector: opts.Stats,
		estate:    opts.Estate,
		srvCfg:    srvCfg,
		startTime: clock.Now(),
	}
	if s.mode == ModeDashboard {
		s.wsManager = NewWSManager(opts.Stats)
	}

	s.initRoutes()
	return s
}

// Sessions exposes the session store, mainly for tests.
func (s *Server) Sessions() *SessionStore {
	return s.sessions
}

func (s *Server) initRoutes() {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	switch s.mode {
	case ModeDashboard:
		mux.HandleFunc("GET /{$}", s.handleDashboardIndex)
		mux.HandleFunc("GET /api/session", s.handleSessionStatus)
		mux.HandleFunc("POST /api/session", s.handleSetSessionKey)
		mux.HandleFunc("DELETE /api/session", s.handleClearSessionKey)

		mux.HandleFunc("GET /api/organizations", s.requireKey(s.handleOrganizations))
		mux.HandleFunc("GET /api/networks", s.requireKey(s.handleNetworks))
		mux.HandleFunc("GET /api/overview", s.requireKey(s.handleOverview))
		mux.HandleFunc("GET /api/devices", s.requireKey(s.handleDevices))
		mux.HandleFunc("GET /api/ssids", s.requireKey(s.handleSSIDs))
		mux.HandleFunc("GET /api/clients", s.requireKey(s.handleClients))
		mux.HandleFunc("GET /api/traffic", s.requireKey(s.handleTraffic))
		mux.HandleFunc("GET /api/vpn", s.requireKey(s.handleVPN))
		mux.HandleFunc("GET /api/shaping", s.requireKey(s.handleShaping))
		mux.HandleFunc("GET /api/analytics", s.requireKey(s.handleAnalytics))
		mux.HandleFunc("GET /api/estate", s.handleEstate)
		mux.HandleFunc("GET /api/logs", s.handleLogs)

		mux.HandleFunc("GET /api/ws", s.handleWS)
	default:
		mux.HandleFunc("GET /{$}", s.handleChatIndex)
		mux.HandleFunc("GET /session_status", s.handleSessionStatus)
		mux.HandleFunc("POST /process_command", s.handleProcessCommand)
		mux.HandleFunc("POST /clear_api_key", s.handleClearAPIKey)
	}

	s.mux = mux
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	corsMw := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.Web.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return s.accessLogger(corsMw.Handler(i18n.Middleware(maxBodyMiddleware(s.mux, s.srvCfg.MaxBodyBytes))))
}

// Start runs the server until it fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.srvCfg.ReadHeaderTimeout,
		ReadTimeout:       s.srvCfg.ReadTimeout,
		WriteTimeout:      s.srvCfg.WriteTimeout,
		IdleTimeout:       s.srvCfg.IdleTimeout,
		MaxHeaderBytes:    s.srvCfg.MaxHeaderBytes,
	}

	if s.collector != nil {
		s.collector.Start()
	}
	if s.estate != nil {
		s.estate.Start()
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel
	s.sessions.StartPruning(bgCtx, time.Hour)
	s.limiter.StartPruning(bgCtx, 10*time.Minute, time.Hour)

	s.log.Info("web server listening", "addr", addr, "mode", string(s.mode))
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops background loops and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.bgCancel != nil {
		s.bgCancel()
	}
	if s.collector != nil {
		s.collector.Stop()
	}
	if s.estate != nil {
		s.estate.Stop()
	}
	if s.wsManager != nil {
		s.wsManager.Close()
	}
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": clock.Since(s.startTime).Round(time.Second).String(),
	})
}
