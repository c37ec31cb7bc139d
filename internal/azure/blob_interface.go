package azure

import "context"

// BlobStorage defines the interface for report storage operations, allowing
// mock implementations in tests
type BlobStorage interface {
	UploadReport(ctx context.Context, filename string, data []byte) (string, error)
	DownloadReport(ctx context.Context, blobName string) ([]byte, error)
}

// Ensure BlobStorageClient implements BlobStorage interface
var _ BlobStorage = (*BlobStorageClient)(nil)
