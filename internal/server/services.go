package server

import (
	"context"
	"fmt"

	"github.com/delorenj/vaultsync/internal/server/blob"
	"github.com/jmoiron/sqlx"
)

type Services struct {
	Blob *blob.BlobService
}

func NewServices(config *Config, db *sqlx.DB) (*Services, error) {
	backend, err := blob.NewBackend(&config.Blob)
	if err != nil {
		return nil, fmt.Errorf("blob backend: %w", err)
	}

	blobSvc, err := blob.NewBlobService(backend, db, config.IndexInterval)
	if err != nil {
		return nil, err
	}

	return &Services{Blob: blobSvc}, nil
}

func (s *Services) Start(ctx context.Context) error {
	if err := s.Blob.Start(ctx); err != nil {
		return fmt.Errorf("start blob service: %w", err)
	}
	return nil
}

func (s *Services) Shutdown(ctx context.Context) error {
	if err := s.Blob.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop blob service: %w", err)
	}
	return nil
}
