package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/magfield/internal/config"
	"github.com/zeusync/magfield/internal/core/camera"
	"github.com/zeusync/magfield/internal/core/events/bus"
	"github.com/zeusync/magfield/internal/core/observability/log"
	"github.com/zeusync/magfield/internal/scene"
)

// Server serves one shared scene to websocket sessions, each with its own camera.
type Server struct {
	scene *scene.Scene

	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader

	// Session management
	sessions     sync.Map // map[string]*Session
	sessionCount int64    // atomic
	sessionGroup sync.WaitGroup

	// admitMu orders session admission against draining
	admitMu  sync.RWMutex
	draining bool

	subscriptions []bus.Subscription
	metrics       *Metrics

	// Server state
	running int32 // atomic bool
	closed  int32 // atomic bool

	config Config
	logger log.Log

	serveErr chan error
}

// Config holds server configuration
type Config struct {
	ListenAddr  string
	MaxSessions int

	// Message settings
	MaxMessageSize int64
	MessageTimeout time.Duration
	WriteTimeout   time.Duration
	SendBuffer     int

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	// Per-session request limit; a zero rate disables it
	RequestRate  float64
	RequestBurst int

	EnableMetrics bool

	// Viewport of a fresh session's camera, until the client sends resize
	Viewport camera.Viewport
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() Config {
	return Config{
		ListenAddr:        ":8080",
		MaxSessions:       0,
		MaxMessageSize:    64 << 10,
		MessageTimeout:    10 * time.Second,
		WriteTimeout:      10 * time.Second,
		SendBuffer:        64,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		RequestRate:       50,
		RequestBurst:      20,
		EnableMetrics:     true,
		Viewport:          camera.Viewport{Width: 800, Height: 600},
	}
}

// ConfigFrom maps runtime configuration onto server settings.
func ConfigFrom(cfg *config.Config) Config {
	c := DefaultServerConfig()
	c.ListenAddr = cfg.Server.Addr
	c.MaxSessions = cfg.Server.MaxSessions
	c.MaxMessageSize = cfg.Server.MaxMessageSize
	if cfg.Server.ReadTimeout > 0 {
		c.MessageTimeout = cfg.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout > 0 {
		c.WriteTimeout = cfg.Server.WriteTimeout
	}
	if cfg.Server.ShutdownTimeout > 0 {
		c.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}
	c.RequestRate = cfg.Server.RequestRate
	c.RequestBurst = cfg.Server.RequestBurst
	c.EnableMetrics = cfg.Server.Metrics
	c.Viewport = camera.Viewport{Width: float64(cfg.Display.Width), Height: float64(cfg.Display.Height)}
	return c
}

// NewServer creates a server for sc. Conductor changes on the scene bus are broadcast to
// every session.
func NewServer(config Config, sc *scene.Scene, logger log.Log) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = DefaultServerConfig().SendBuffer
	}

	s := &Server{
		scene:  sc,
		config: config,
		logger: logger.With(log.String("component", "server")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		serveErr: make(chan error, 1),
		metrics:  NewMetrics(sc),
	}

	if err := s.subscribe(); err != nil {
		s.logger.Error("Failed to subscribe to scene events", log.Error(err))
	}

	s.logger.Info("Server created",
		log.String("listen_addr", config.ListenAddr),
		log.Int("max_sessions", config.MaxSessions))

	return s
}

// Handler exposes /ws, /healthz and optionally /metrics, for embedding or httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.config.EnableMetrics {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return ErrServerClosed
	}

	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	s.logger.Info("Starting server")

	s.admitMu.Lock()
	s.draining = false
	s.admitMu.Unlock()

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		s.logger.Error("Failed to create listener", log.Error(err))
		return err
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	s.serveErr = serveErr
	go func() {
		err := s.httpServer.Serve(listener)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()

	s.logger.Info("Server listening", log.String("addr", listener.Addr().String()))

	return nil
}

// Stop shuts the HTTP server down and closes every session.
func (s *Server) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.drainSessions()

	s.logger.Info("Server stopped")

	return err
}

// Close stops the server if running and prevents restarts.
func (s *Server) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil
	}

	if atomic.LoadInt32(&s.running) == 1 {
		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		_ = s.Stop(ctx)
	}
	s.drainSessions()
	s.unsubscribe()

	s.logger.Info("Server closed")

	return nil
}

// drainSessions refuses new sessions, then closes and waits for the open ones. Hijacked
// connections are not tracked by http.Server, so Shutdown alone does not reach them.
func (s *Server) drainSessions() {
	s.admitMu.Lock()
	s.draining = true
	s.admitMu.Unlock()

	s.sessions.Range(func(_, value any) bool {
		value.(*Session).Close()
		return true
	})
	s.sessionGroup.Wait()
}

// Run serves until ctx is done or serving fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err := <-s.serveErr:
			return err
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.Stop(shutdownCtx); err != nil && !errors.Is(err, ErrServerNotRunning) {
			return err
		}
		return nil
	})
	return g.Wait()
}

// Addr is the bound address once started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Metrics exposes the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

// GetStats returns server statistics
func (s *Server) GetStats() Stats {
	return Stats{
		SessionCount:   atomic.LoadInt64(&s.sessionCount),
		ConductorCount: len(s.scene.Conductors()),
		Running:        atomic.LoadInt32(&s.running) == 1,
	}
}

// Stats contains server statistics
type Stats struct {
	SessionCount   int64 `json:"sessions"`
	ConductorCount int   `json:"conductors"`
	Running        bool  `json:"running"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// held until the session is registered, so draining waits for it
	s.admitMu.RLock()
	defer s.admitMu.RUnlock()
	if s.draining {
		http.Error(w, ErrServerDraining.Error(), http.StatusServiceUnavailable)
		return
	}

	// the slot is reserved before the upgrade
	if count := atomic.AddInt64(&s.sessionCount, 1); s.config.MaxSessions > 0 && int(count) > s.config.MaxSessions {
		atomic.AddInt64(&s.sessionCount, -1)
		s.logger.Warn("Maximum sessions reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxSessionsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	id := uuid.NewString()
	view, err := scene.NewView(id, s.scene, s.config.Viewport)
	if err != nil {
		atomic.AddInt64(&s.sessionCount, -1)
		s.logger.Error("Failed to create session view", log.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		atomic.AddInt64(&s.sessionCount, -1)
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	session := newSession(id, conn, view, s.config, s.metrics, s.logger)
	s.sessions.Store(id, session)
	s.sessionGroup.Add(1)
	s.metrics.Sessions.Inc()

	session.logger.Info("Session connected",
		log.String("remote_addr", r.RemoteAddr),
		log.Int64("total_sessions", atomic.LoadInt64(&s.sessionCount)))

	go func() {
		defer s.sessionGroup.Done()
		session.run(s.handleRequest)

		s.sessions.Delete(id)
		atomic.AddInt64(&s.sessionCount, -1)
		s.metrics.Sessions.Dec()
		session.logger.Info("Session disconnected",
			log.Int64("total_sessions", atomic.LoadInt64(&s.sessionCount)))
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.GetStats())
}

// subscribe forwards conductor changes to all sessions.
func (s *Server) subscribe() error {
	for _, typ := range []string{scene.EventConductorAdded, scene.EventConductorUpdated, scene.EventConductorRemoved} {
		sub, err := s.scene.Bus().Subscribe(typ, s.broadcastConductorEvent)
		if err != nil {
			s.unsubscribe()
			return err
		}
		s.subscriptions = append(s.subscriptions, sub)
	}
	return nil
}

func (s *Server) unsubscribe() {
	for _, sub := range s.subscriptions {
		_ = sub.Cancel()
	}
	s.subscriptions = nil
}

func (s *Server) broadcastConductorEvent(e bus.Event) error {
	payload, ok := e.Data.(scene.ConductorEvent)
	if !ok {
		return nil
	}
	conductor := payload.Conductor
	s.Broadcast(Response{
		Type:       TypeConductors,
		Event:      e.Type,
		Conductor:  &conductor,
		Conductors: s.scene.Conductors(),
	})
	return nil
}

// Broadcast queues resp on every session. Sessions with a full queue miss it.
func (s *Server) Broadcast(resp Response) {
	s.metrics.Broadcasts.Inc()
	s.sessions.Range(func(_, value any) bool {
		session := value.(*Session)
		if err := session.Send(resp); err != nil {
			s.metrics.Dropped.Inc()
			session.logger.Warn("Dropped broadcast", log.String("type", resp.Type), log.Error(err))
		}
		return true
	})
}
