package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/bizsync/internal/blobstore"
	"github.com/dmitrijs2005/bizsync/internal/config"
	"github.com/dmitrijs2005/bizsync/internal/docstore"
)

const memoryBlobURL = "memory://blobs"

// openPostgres and newS3Store are seams for tests.
var (
	openPostgres = func(ctx context.Context, dsn string) (docstore.Store, io.Closer, error) {
		s, err := docstore.OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
	newS3Store = func(ctx context.Context, c blobstore.S3Config) (blobstore.Store, error) {
		return blobstore.NewS3Store(ctx, c)
	}
)

func openRemote(ctx context.Context, c *config.Config) (docstore.Store, io.Closer, error) {
	switch c.RemoteDriver {
	case "postgres":
		return openPostgres(ctx, c.RemoteDSN)
	case "memory":
		return docstore.NewMemoryStore(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown remote driver %q", c.RemoteDriver)
}

func openBlobs(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	switch c.BlobDriver {
	case "s3":
		return newS3Store(ctx, blobstore.S3Config{
			Bucket:        c.S3.Bucket,
			Region:        c.S3.Region,
			Endpoint:      c.S3.Endpoint,
			AccessKey:     c.S3.AccessKey,
			SecretKey:     c.S3.SecretKey,
			PublicBaseURL: c.S3.PublicBaseURL,
			PathStyle:     c.S3.PathStyle,
		})
	case "memory":
		return blobstore.NewMemoryStore(memoryBlobURL), nil
	}
	return nil, fmt.Errorf("unknown blob driver %q", c.BlobDriver)
}
