package cmd

import (
	"context"

	"github.com/fewx/gfsproc/internal/azcli"
	"github.com/fewx/gfsproc/internal/remote"
	"github.com/fewx/gfsproc/internal/storage"
	"github.com/fewx/gfsproc/types"
	"github.com/rs/zerolog"
)

// AppDependencies holds the constructors for everything that talks to the
// outside world, so commands can be exercised against fakes.
type AppDependencies struct {
	Runner       azcli.Runner
	NewTransport func(cfg types.Remote, logger zerolog.Logger) (remote.Transport, error)
	NewStore     func(ctx context.Context, cfg types.Storage) (storage.ObjectStore, string, error)
}

var appDependencies *AppDependencies

// DefaultDependencies wires the Azure CLI, SSH and the configured object store.
func DefaultDependencies() *AppDependencies {
	return &AppDependencies{
		Runner: azcli.ExecRunner{},
		NewTransport: func(cfg types.Remote, logger zerolog.Logger) (remote.Transport, error) {
			return remote.NewSSHTransport(cfg, logger)
		},
		NewStore: storage.NewObjectStore,
	}
}

// SetDependencies allows for injecting application dependencies
func SetDependencies(deps *AppDependencies) {
	if deps == nil || deps.Runner == nil || deps.NewTransport == nil || deps.NewStore == nil {
		panic("critical error: attempted to set nil dependencies")
	}
	appDependencies = deps
}

// GetDependencies provides access to the dependencies.
// Panics if dependencies haven't been set (indicates setup error).
func GetDependencies() *AppDependencies {
	if appDependencies == nil {
		panic("critical error: application dependencies not set before access")
	}
	return appDependencies
}
