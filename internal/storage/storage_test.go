package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fewx/gfsproc/internal/models"
	"github.com/fewx/gfsproc/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Put(ctx context.Context, container, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.err != nil {
		return m.err
	}
	m.objects[container+"/"+key] = append([]byte(nil), body...)
	return nil
}

func storageConfig(t *testing.T) types.Storage {
	return types.Storage{
		Backend:   "azblob",
		Key:       "parameters.json",
		LocalPath: filepath.Join(t.TempDir(), "parameters.json"),
	}
}

func mustRequest(t *testing.T, cycle, date string) models.ProcessingRequest {
	t.Helper()
	req, err := models.NewProcessingRequest(cycle, date)
	require.NoError(t, err)
	return req
}

func TestUploadParametersStoresTypedRecord(t *testing.T) {
	store := newMemoryStore()
	cfg := storageConfig(t)
	uploader := NewUploader(store, "gfs", cfg, zerolog.Nop())

	require.NoError(t, uploader.UploadParameters(context.Background(), mustRequest(t, "6", "20240101")))

	stored, ok := store.objects["gfs/parameters.json"]
	require.True(t, ok)
	assert.JSONEq(t, `{"date": "20240101", "cycle": 6}`, string(stored))

	local, err := os.ReadFile(cfg.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, stored, local)
}

func TestUploadParametersOverwrites(t *testing.T) {
	store := newMemoryStore()
	store.objects["gfs/parameters.json"] = []byte(`{"date":"19990101","cycle":18,"stale":true}`)
	uploader := NewUploader(store, "gfs", storageConfig(t), zerolog.Nop())

	require.NoError(t, uploader.UploadParameters(context.Background(), mustRequest(t, "12", "20240315")))
	require.NoError(t, uploader.UploadParameters(context.Background(), mustRequest(t, "6", "20240101")))

	var got map[string]any
	require.NoError(t, json.Unmarshal(store.objects["gfs/parameters.json"], &got))
	assert.Equal(t, map[string]any{"date": "20240101", "cycle": float64(6)}, got)
	assert.Len(t, store.objects, 1)
}

func TestUploadParametersStoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("AuthenticationFailed")
	uploader := NewUploader(store, "gfs", storageConfig(t), zerolog.Nop())

	err := uploader.UploadParameters(context.Background(), mustRequest(t, "0", "20240101"))
	assert.ErrorContains(t, err, "AuthenticationFailed")
	assert.Equal(t, 1, store.puts)
}

func TestUploadParametersCreatesLocalDirectory(t *testing.T) {
	cfg := storageConfig(t)
	cfg.LocalPath = filepath.Join(t.TempDir(), "nested", "out", "parameters.json")
	uploader := NewUploader(newMemoryStore(), "gfs", cfg, zerolog.Nop())

	require.NoError(t, uploader.UploadParameters(context.Background(), mustRequest(t, "18", "20231231")))
	assert.FileExists(t, cfg.LocalPath)
}

func TestNewObjectStoreUnknownBackend(t *testing.T) {
	_, _, err := NewObjectStore(context.Background(), types.Storage{Backend: "gcs"})
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestNewObjectStoreAzureContainerFromCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "azure_storage_info.json")
	creds := `{"azure_storage_connection_string":"DefaultEndpointsProtocol=https;AccountName=fewx;AccountKey=a2V5;EndpointSuffix=core.windows.net","container_name":"gfs-params"}`
	require.NoError(t, os.WriteFile(path, []byte(creds), 0600))

	store, container, err := NewObjectStore(context.Background(), types.Storage{Backend: "azblob", CredentialsFile: path})
	require.NoError(t, err)
	assert.IsType(t, &AzureBlobStore{}, store)
	assert.Equal(t, "gfs-params", container)
}
