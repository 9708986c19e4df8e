package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// AzureBlobStore writes block blobs through a connection-string client.
type AzureBlobStore struct {
	client *azblob.Client
}

func NewAzureBlobStore(connectionString string) (*AzureBlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return &AzureBlobStore{client: client}, nil
}

// Put uploads body as a block blob. Block blob uploads replace existing blobs.
func (s *AzureBlobStore) Put(ctx context.Context, container, key string, body []byte) error {
	contentType := "application/json"
	_, err := s.client.UploadBuffer(ctx, container, key, body, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("blob upload failed: %w", err)
	}
	return nil
}
