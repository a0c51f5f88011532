// Package viewer serves collapse runs to browsers over websockets. Every
// connection gets its own engine, stepped by a single goroutine.
package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/tileset"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

// RunStore archives finished runs. *database.Database satisfies it.
type RunStore interface {
	SaveRun(run *database.Run, history []wfc.HistoryEntry) (int64, error)
}

// Server hosts viewer sessions.
type Server struct {
	cfg         config.ViewerConfig
	set         *tileset.Set
	catalog     *wfc.Catalog
	fingerprint string
	columns     int
	rows        int

	store   RunStore
	log     *slog.Logger
	limiter *ConnLimiter
	seed    atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithStore archives every finished run to store.
func WithStore(store RunStore) Option {
	return func(s *Server) {
		s.store = store
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSeed makes sessions deterministic: the first run is seeded with seed
// and every later run or reset with the next integer.
func WithSeed(seed int64) Option {
	return func(s *Server) {
		s.seed.Store(seed)
	}
}

// New creates a viewer for a tileset and grid size. The catalog is built
// once and shared read-only by all sessions.
func New(cfg config.ViewerConfig, set *tileset.Set, columns, rows int, opts ...Option) (*Server, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if columns <= 0 || rows <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", columns, rows, wfc.ErrInvalidSize)
	}

	s := &Server{
		cfg:         cfg,
		set:         set,
		catalog:     set.Catalog(),
		fingerprint: set.Fingerprint(),
		columns:     columns,
		rows:        rows,
		log:         slog.New(slog.DiscardHandler),
		limiter:     NewConnLimiter(cfg.MaxConnections, cfg.MaxPerIP),
	}
	s.seed.Store(time.Now().UnixNano())
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

// nextSeed hands out run seeds.
func (s *Server) nextSeed() int64 {
	return s.seed.Add(1) - 1
}

// Handler returns the HTTP routes: /ws for sessions and /healthz for stats.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then closes every session.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("Viewer shutdown incomplete", "error", err)
		}
		s.Close()
	}()

	s.log.Info("Viewer listening",
		"address", s.cfg.Address,
		"tileset", s.set.Name,
		"grid", fmt.Sprintf("%dx%d", s.columns, s.rows))

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

// Close ends every session and waits for them to finish.
func (s *Server) Close() {
	s.cancel()
	s.wg.Wait()
}

// handleWebSocketUpgrade upgrades a request and starts its session.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)

	if !s.limiter.TryAcquire(ip) {
		s.log.Warn("Viewer connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", ip)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.IsOriginAllowed(origin, r.Host)
			if !allowed {
				s.log.Warn("Viewer connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.log.Debug("Viewer upgrade failed", "error", err)
		s.limiter.Release(ip)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.limiter.Release(ip)

		c := newConn(ws, s.cfg.MaxMessageSize)
		defer c.Close()

		sess, err := s.newSession(c, ip)
		if err != nil {
			s.log.Error("Viewer session setup failed", "error", err)
			return
		}
		if err := sess.run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			sess.log.Warn("Viewer session ended", "error", err)
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, ips := s.limiter.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"tileset":     s.set.Name,
		"columns":     s.columns,
		"rows":        s.rows,
		"connections": total,
		"clients":     ips,
	})
}
