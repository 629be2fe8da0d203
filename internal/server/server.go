package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/delorenj/vaultsync/internal/db"
	"github.com/delorenj/vaultsync/internal/utils"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	config *Config
	server *http.Server
	svc    *Services
}

func New(config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dbPath := db.MemoryPath
	if config.DataDir != "" {
		if err := utils.EnsureDir(config.DataDir); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dbPath = config.IndexPath()
	}

	database, err := db.NewSqliteDB(db.WithPath(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}

	svc, err := NewServices(config, database)
	if err != nil {
		database.Close()
		return nil, err
	}

	handler, err := SetupRoutes(config, svc)
	if err != nil {
		database.Close()
		return nil, err
	}

	return &Server{
		config: config,
		svc:    svc,
		server: &http.Server{
			Addr:              config.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Start runs the server until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	slog.Info("server start", "addr", s.config.HTTP.Addr, "blob", s.config.Blob.Driver, "bucket", s.config.Blob.BucketName)
	defer slog.Info("server stop")

	if err := s.svc.Start(ctx); err != nil {
		return err
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := s.runHttpServer(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		return s.Stop()
	})

	return eg.Wait()
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	httpErr := s.server.Shutdown(ctx)
	svcErr := s.svc.Shutdown(ctx)
	return errors.Join(httpErr, svcErr)
}

func (s *Server) runHttpServer() error {
	if s.config.HTTP.TLS() {
		slog.Info("server listen tls", "addr", s.config.HTTP.Addr, "cert", s.config.HTTP.CertFile)
		return s.server.ListenAndServeTLS(s.config.HTTP.CertFile, s.config.HTTP.KeyFile)
	}
	slog.Info("server listen", "addr", s.config.HTTP.Addr)
	return s.server.ListenAndServe()
}
