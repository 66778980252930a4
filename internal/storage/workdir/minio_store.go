package workdir

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"

	platformstore "github.com/PNOGillespie/aiidalab-qe/internal/platform/objectstore"
)

type MinioStore struct {
	client *minio.Client
}

func NewMinioStore(cfg platformstore.Config) (*MinioStore, error) {
	client, err := platformstore.NewMinIOClient(cfg)
	if err != nil {
		return nil, err
	}
	return &MinioStore{client: client}, nil
}

func NewMinioStoreWithClient(client *minio.Client) (*MinioStore, error) {
	if client == nil {
		return nil, fmt.Errorf("minio client is required")
	}
	return &MinioStore{client: client}, nil
}

// Clean removes every object under the folder prefix. A folder with no
// objects reports ErrFolderNotFound so callers can tell an already-clean
// directory apart from a removal failure.
func (s *MinioStore) Clean(ctx context.Context, folder Folder) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("workdir store not initialized")
	}
	if err := folder.Validate(); err != nil {
		return err
	}

	prefix := folder.Prefix
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	objects := s.client.ListObjects(ctx, folder.Bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	removed := 0
	for object := range objects {
		if object.Err != nil {
			return fmt.Errorf("list %s/%s: %w", folder.Bucket, prefix, object.Err)
		}
		if err := s.client.RemoveObject(ctx, folder.Bucket, object.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s/%s: %w", folder.Bucket, object.Key, err)
		}
		removed++
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s/%s", ErrFolderNotFound, folder.Bucket, prefix)
	}
	return nil
}
