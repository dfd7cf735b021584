package storage

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/jobrunner/picta/internal/domain"
	"github.com/jobrunner/picta/internal/ports/output"
)

// azureAPI is the subset of the blob client used by AzureStore.
type azureAPI interface {
	UploadBuffer(ctx context.Context, containerName, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// AzureStore implements ObjectStore for Azure Blob Storage.
// Anonymous read access is a container setting, so PutObjectInput.Public
// has no per-blob effect.
type AzureStore struct {
	client    azureAPI
	container string
	prefix    string
	baseURL   string
}

// AzureConfig holds Azure Blob Storage configuration.
type AzureConfig struct {
	Container        string
	AccountName      string
	AccountKey       string
	ConnectionString string
	Prefix           string
	PublicBaseURL    string
}

// NewAzureStore creates a new Azure Blob Storage adapter.
func NewAzureStore(cfg AzureConfig) (*AzureStore, error) {
	var client *azblob.Client

	if cfg.ConnectionString != "" {
		c, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, err
		}
		client = c
	} else {
		serviceURL := "https://" + cfg.AccountName + ".blob.core.windows.net/"
		cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
		if err != nil {
			return nil, err
		}
		c, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
		if err != nil {
			return nil, err
		}
		client = c
	}

	return newAzureStore(client, client.URL(), cfg), nil
}

func newAzureStore(client azureAPI, serviceURL string, cfg AzureConfig) *AzureStore {
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = joinURL(serviceURL, cfg.Container)
	}

	return &AzureStore{
		client:    client,
		container: cfg.Container,
		prefix:    cfg.Prefix,
		baseURL:   baseURL,
	}
}

// Name returns the container name.
func (s *AzureStore) Name() string {
	return s.container
}

// URL returns the public URL for a key.
func (s *AzureStore) URL(key string) string {
	return joinURL(s.baseURL, joinKey(s.prefix, key))
}

// Put uploads a block blob.
func (s *AzureStore) Put(ctx context.Context, in output.PutObjectInput) (domain.StoredObject, error) {
	headers := &blob.HTTPHeaders{
		BlobContentType: &in.ContentType,
	}
	if in.ContentDisposition != "" {
		headers.BlobContentDisposition = &in.ContentDisposition
	}

	_, err := s.client.UploadBuffer(ctx, s.container, joinKey(s.prefix, in.Key), in.Body, &azblob.UploadBufferOptions{
		HTTPHeaders: headers,
	})
	if err != nil {
		return domain.StoredObject{}, err
	}

	return domain.StoredObject{
		Key:         in.Key,
		URL:         s.URL(in.Key),
		ContentType: in.ContentType,
		Size:        int64(len(in.Body)),
	}, nil
}
