package adminhttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"tradepilot/internal/logger"

	"github.com/gin-gonic/gin"
)

// Server exposes the admin API: health, backend switching, decision history
// and positions. Everything it serves is read-only except the active-backend
// switch.
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig lists the collaborators the admin API reads from.
type ServerConfig struct {
	Addr      string
	Registry  BackendRegistry
	Decisions DecisionLister
	Trades    TradeLister
	Positions PositionReader
	Notifier  EventNotifier
	Symbols   []string
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("admin http server requires a backend registry")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9985"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handler{
		registry:  cfg.Registry,
		decisions: cfg.Decisions,
		trades:    cfg.Trades,
		positions: cfg.Positions,
		notifier:  cfg.Notifier,
		symbols:   cfg.Symbols,
	}
	h.register(router.Group("/api"))

	return &Server{addr: cfg.Addr, router: router}, nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		client := c.ClientIP()
		c.Next()
		dur := time.Since(start)
		status := c.Writer.Status()
		fullPath := path
		if query != "" {
			fullPath = path + "?" + query
		}
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s", method, fullPath, status, client, dur)
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
