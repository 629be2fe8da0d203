package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/delorenj/vaultsync/internal/reconcile"
	"github.com/delorenj/vaultsync/internal/server/handlers/api"
	"github.com/delorenj/vaultsync/internal/server/middlewares"
	"github.com/delorenj/vaultsync/internal/version"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	DefaultAddr      = "127.0.0.1:3001"
	DefaultRateLimit = "30-M"
	shutdownTimeout  = 10 * time.Second
)

type Config struct {
	Addr string
	// Secret is the bearer token required on the trigger route, empty disables auth
	Secret    string
	RateLimit string
}

// Runner is the part of reconcile.Runner the webhook drives
type Runner interface {
	Run(ctx context.Context) (*reconcile.Report, error)
	LastReport() *reconcile.Report
	Running() bool
}

type Server struct {
	config *Config
	runner Runner
	server *http.Server

	// runs outlive their request, so they hang off this context
	runCtx    context.Context
	runCancel context.CancelFunc
	runs      sync.WaitGroup
	busy      atomic.Bool
	lastErr   atomic.Pointer[string]
	startedAt time.Time
}

func New(config *Config, runner Runner) (*Server, error) {
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.RateLimit == "" {
		config.RateLimit = DefaultRateLimit
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	s := &Server{
		config:    config,
		runner:    runner,
		runCtx:    runCtx,
		runCancel: runCancel,
		startedAt: time.Now(),
	}

	handler, err := s.routes()
	if err != nil {
		runCancel()
		return nil, err
	}

	s.server = &http.Server{
		Addr:              config.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() (http.Handler, error) {
	limiter, err := middlewares.RateLimiter(s.config.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	r := gin.New()
	r.Use(middlewares.Logger())
	r.Use(gin.Recovery())
	r.Use(limiter)

	r.GET("/health", s.health)
	r.POST("/webhook/sync", middlewares.BearerToken(s.config.Secret), s.trigger)

	r.NoRoute(func(ctx *gin.Context) {
		ctx.PureJSON(http.StatusNotFound, api.APIError{Code: api.CodeNotFound, Message: "not found"})
	})

	return r.Handler(), nil
}

// Start serves until ctx is cancelled, then waits for a run in flight
func (s *Server) Start(ctx context.Context) error {
	slog.Info("webhook start", "addr", s.config.Addr, "auth", s.config.Secret != "")

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.runCancel()
			return fmt.Errorf("webhook server: %w", err)
		}
	case <-ctx.Done():
	}

	return s.Stop()
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	s.runCancel()
	s.runs.Wait()
	slog.Info("webhook stop")
	return err
}

func (s *Server) trigger(ctx *gin.Context) {
	if s.runner.Running() || !s.busy.CompareAndSwap(false, true) {
		ctx.PureJSON(http.StatusConflict, api.APIError{Code: api.CodeConflict, Message: reconcile.ErrRunInProgress.Error()})
		return
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer s.busy.Store(false)
		s.runOnce()
	}()

	ctx.PureJSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (s *Server) runOnce() {
	report, err := s.runner.Run(s.runCtx)
	if err != nil {
		msg := err.Error()
		s.lastErr.Store(&msg)
		slog.Error("webhook sync", "error", err)
		return
	}
	s.lastErr.Store(nil)
	slog.Info("webhook sync", "run", report.RunID, "uploaded", report.Uploaded, "deleted", report.Deleted, "failed", report.Failed())
}

type lastRun struct {
	RunID     string    `json:"runId"`
	StartedAt time.Time `json:"startedAt"`
	Duration  string    `json:"duration"`
	Uploaded  int       `json:"uploaded"`
	Deleted   int       `json:"deleted"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
}

type healthResponse struct {
	Status    string   `json:"status"`
	Version   string   `json:"version"`
	Running   bool     `json:"running"`
	Uptime    string   `json:"uptime"`
	MemoryRSS uint64   `json:"memoryRss,omitempty"`
	LastRun   *lastRun `json:"lastRun,omitempty"`
	LastError string   `json:"lastError,omitempty"`
}

func (s *Server) health(ctx *gin.Context) {
	resp := healthResponse{
		Status:    "ok",
		Version:   version.Version,
		Running:   s.busy.Load() || s.runner.Running(),
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		MemoryRSS: processRSS(),
	}

	if report := s.runner.LastReport(); report != nil {
		resp.LastRun = &lastRun{
			RunID:     report.RunID,
			StartedAt: report.StartedAt,
			Duration:  report.Duration.Round(time.Millisecond).String(),
			Uploaded:  report.Uploaded,
			Deleted:   report.Deleted,
			Skipped:   report.Skipped,
			Failed:    report.Failed(),
		}
	}
	if msg := s.lastErr.Load(); msg != nil {
		resp.LastError = *msg
	}

	ctx.PureJSON(http.StatusOK, resp)
}

func processRSS() uint64 {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return 0
	}
	return mem.RSS
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
