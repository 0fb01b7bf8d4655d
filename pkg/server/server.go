package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-portal/pkg/core/services"
)

const shutdownTimeout = 10 * time.Second

// Portal is the set of portal operations the HTTP surface drives
type Portal interface {
	services.AchievementsClient
	services.StatusClient
	services.RatingClient
	services.FeedbackClient
	services.CertificateClient
	services.AuthClient
}

// Options configures a Server
type Options struct {
	// Sessions resolves the caller's bearer token to a portal client acting as them
	Sessions Sessions
	Guard    *services.Guard
	Logger *zap.Logger
	// Clock and Location decide "now" for classification; nil uses the wall clock and time.Local
	Clock    clock.Clock
	Location *time.Location
	// YearsBack and YearsAhead bound the events fetched for the event index
	YearsBack  int
	YearsAhead int
	// Gatherer backs /metrics; nil disables the route
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// Server is the backend-for-frontend used by the single-page app. Boards are
// cached per employee so in-flight guards hold across requests.
type Server struct {
	opts   Options
	logger *zap.Logger
	engine *gin.Engine

	mu     sync.Mutex
	boards map[string]*services.AchievementsResult
}

// New builds the gin engine and routes
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger.Named("server"),
		boards: make(map[string]*services.AchievementsResult),
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	})
	router.Use(corsMiddleware(opts.AllowedOrigins))

	s.routes(router)
	s.engine = router
	return s
}

func (s *Server) routes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api", s.authenticate())
	{
		employees := api.Group("/employees/:employeeId", s.requireOwner())
		{
			employees.GET("/achievements", s.getAchievements)

			volunteers := employees.Group("/volunteers/:volunteerId")
			volunteers.POST("/confirm", s.confirm)
			volunteers.POST("/reject", s.reject)
			volunteers.PUT("/rating", s.rate)
			volunteers.POST("/feedback", s.feedback)
		}

		api.GET("/volunteers/:volunteerId/certificate", s.certificate)
	}
}

// Handler returns the HTTP handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// board returns the cached board for an employee, loading it when absent or
// when refresh is set. A refresh never replaces a board with a transition in
// flight, so the in-flight guard keeps holding.
func (s *Server) board(ctx context.Context, portal Portal, employeeID string, refresh bool) (*services.AchievementsResult, error) {
	s.mu.Lock()
	cached, ok := s.boards[employeeID]
	s.mu.Unlock()
	if ok && (!refresh || cached.Board.HasInFlight()) {
		return cached, nil
	}

	loaded, err := services.LoadAchievements(ctx, portal, employeeID, services.LoadOptions{
		Clock:      s.opts.Clock,
		Location:   s.opts.Location,
		YearsBack:  s.opts.YearsBack,
		YearsAhead: s.opts.YearsAhead,
	}, s.logger)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.boards[employeeID]; ok && (!refresh || existing.Board.HasInFlight()) {
		return existing, nil
	}
	s.boards[employeeID] = loaded
	return loaded, nil
}

func (s *Server) now() time.Time {
	return s.opts.Clock.Now().In(s.opts.Location)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Request served",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

// corsMiddleware allows the configured origins; an empty list allows none
func corsMiddleware(allowed []string) gin.HandlerFunc {
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		origins[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && origins[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
