package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fewx/gfsproc/internal/config"
	"github.com/fewx/gfsproc/internal/models"
	"github.com/fewx/gfsproc/types"
	"github.com/rs/zerolog"
)

// ObjectStore uploads opaque objects. Put overwrites any existing object at key.
type ObjectStore interface {
	Put(ctx context.Context, container, key string, body []byte) error
}

// NewObjectStore builds the backend named by cfg.Backend and returns the
// container the parameters go to.
func NewObjectStore(ctx context.Context, cfg types.Storage) (ObjectStore, string, error) {
	switch cfg.Backend {
	case "azblob":
		creds, err := config.LoadStorageCredentials(cfg.CredentialsFile)
		if err != nil {
			return nil, "", err
		}
		store, err := NewAzureBlobStore(creds.ConnectionString)
		if err != nil {
			return nil, "", err
		}
		container := creds.ContainerName
		if cfg.Container != "" {
			container = cfg.Container
		}
		return store, container, nil

	case "s3":
		store, err := NewS3Store(ctx)
		if err != nil {
			return nil, "", err
		}
		return store, cfg.Container, nil
	}

	return nil, "", fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// Uploader writes the parameter record locally and publishes it.
type Uploader struct {
	store     ObjectStore
	container string
	key       string
	localPath string
	logger    zerolog.Logger
}

func NewUploader(store ObjectStore, container string, cfg types.Storage, logger zerolog.Logger) *Uploader {
	return &Uploader{
		store:     store,
		container: container,
		key:       cfg.Key,
		localPath: cfg.LocalPath,
		logger:    logger.With().Str("component", "storage").Logger(),
	}
}

// UploadParameters serializes {date, cycle}, writes it to the local path and
// uploads the written file to container/key. Concurrent writers race; the
// last upload wins.
func (u *Uploader) UploadParameters(ctx context.Context, req models.ProcessingRequest) error {
	data, err := json.Marshal(req.Parameters())
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	if dir := filepath.Dir(u.localPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(u.localPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", u.localPath, err)
	}

	body, err := os.ReadFile(u.localPath)
	if err != nil {
		return fmt.Errorf("failed to read back %s: %w", u.localPath, err)
	}

	u.logger.Info().Str("container", u.container).Str("key", u.key).Msgf("Uploading parameters %s", string(body))

	if err := u.store.Put(ctx, u.container, u.key, body); err != nil {
		return fmt.Errorf("failed to upload %s to %s/%s: %w", u.localPath, u.container, u.key, err)
	}

	u.logger.Info().Msg("✓ Parameters uploaded")
	return nil
}
