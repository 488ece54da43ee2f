package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/breate/internal/api"
)

const (
	defaultTokenTTL = 24 * time.Hour
	shutdownTimeout = 5 * time.Second

	unavailableDetail = "Service temporarily unavailable"
)

// Options configures a Server.
type Options struct {
	// Secret signs access tokens. Blank uses a fixed development secret.
	Secret string
	// TokenTTL bounds access token lifetime. Zero means 24h.
	TokenTTL time.Duration
	// FailFirst makes the first N GET requests answer 503.
	FailFirst int
	// Latency delays every API request.
	Latency time.Duration
	// HashCost is the bcrypt cost for stored passwords. Zero means
	// bcrypt.DefaultCost.
	HashCost int
	Logger   *zap.Logger
	Now      func() time.Time
}

// Server is an in-memory rendition of the directory API.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	latency  time.Duration
	hashCost int
	logger   *zap.Logger
	now      func() time.Time
	router   *gin.Engine

	mu         sync.Mutex
	failFirst  int
	hits       map[string]int
	nextID     int64
	archetypes []api.Option
	tiers      []api.Option
	peers      []peer
	coalitions []api.Coalition
	projects   []api.Project
	circles    map[string][]api.CircleEntry
	accounts   map[string]*account
	profiles   map[string]api.Profile
}

// New builds a Server loaded with the seed directory.
func New(opts Options) (*Server, error) {
	s := &Server{
		secret:    []byte(opts.Secret),
		tokenTTL:  opts.TokenTTL,
		latency:   opts.Latency,
		hashCost:  opts.HashCost,
		logger:    opts.Logger,
		now:       opts.Now,
		failFirst: opts.FailFirst,
		hits:      make(map[string]int),
		circles:   make(map[string][]api.CircleEntry),
		accounts:  make(map[string]*account),
		profiles:  make(map[string]api.Profile),
	}
	if len(s.secret) == 0 {
		s.secret = []byte("breate-dev-secret")
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = defaultTokenTTL
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("devserver")
	if s.now == nil {
		s.now = time.Now
	}
	if err := s.seed(); err != nil {
		return nil, fmt.Errorf("seed directory: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.routes(router)
	s.router = router
	return s, nil
}

// Handler returns the HTTP handler serving /api/v1.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetFailFirst arms the next n GET requests to fail with 503.
func (s *Server) SetFailFirst(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failFirst = n
}

// Hits returns how many requests reached path, including injected failures.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	s.logger.Info("stopped")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Warn("request failed", fields...)
			return
		}
		s.logger.Debug("request served", fields...)
	}
}

// faults counts the request, applies the configured latency and fails armed
// GET requests.
func (s *Server) faults() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.hits[c.Request.URL.Path]++
		fail := c.Request.Method == http.MethodGet && s.failFirst > 0
		if fail {
			s.failFirst--
		}
		s.mu.Unlock()

		if s.latency > 0 {
			timer := time.NewTimer(s.latency)
			select {
			case <-timer.C:
			case <-c.Request.Context().Done():
				timer.Stop()
				c.Abort()
				return
			}
		}
		if fail {
			detail(c, http.StatusServiceUnavailable, unavailableDetail)
			return
		}
		c.Next()
	}
}

func detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

type fieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// invalid answers 422 with a validation detail list.
func invalid(c *gin.Context, err error) {
	var verr *api.ValidationError
	if errors.As(err, &verr) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": []fieldError{{
			Loc:  []string{"body", verr.Field},
			Msg:  verr.Error(),
			Type: "value_error",
		}}})
		return
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"detail": []fieldError{{
		Loc:  []string{"body"},
		Msg:  err.Error(),
		Type: "value_error.jsondecode",
	}}})
}
