// ============================================================================
// External Object-Store Fetcher
// ============================================================================
//
// Package: internal/fetcher
// File: fetcher.go
// Purpose: Materialise a bucket's objects to local files, with small bounded
//          concurrency, and remove them again once the orchestrator has
//          loaded them. An external collaborator (§6): the core depends only
//          on the Fetcher interface it exposes here, not on AWS types.
//
// ============================================================================

package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"
)

// Fetcher downloads a batch of object-store keys to local files and can
// remove a previously downloaded file once it's no longer needed.
type Fetcher interface {
	// Fetch downloads each key in keys from bucket into outputDir, returning
	// a map from key to local path. Fails entirely if any key is missing,
	// invalid, or the download errors - partial batches are not returned.
	Fetch(ctx context.Context, bucket string, keys []string, outputDir string) (map[string]string, error)

	// Delete removes a single previously fetched local file.
	Delete(localPath string) error
}

// S3Fetcher is the production Fetcher, backed by aws-sdk-go-v2's managed
// downloader.
type S3Fetcher struct {
	client      *s3.Client
	concurrency int
	log         *slog.Logger
}

// NewS3Fetcher builds a Fetcher over client, bounding concurrent downloads
// to concurrency (§6: "MAY fetch with bounded concurrency (e.g. 5)").
func NewS3Fetcher(client *s3.Client, concurrency int, log *slog.Logger) *S3Fetcher {
	if concurrency <= 0 {
		concurrency = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &S3Fetcher{client: client, concurrency: concurrency, log: log}
}

// localPathFor maps a key to its destination path under outputDir,
// preserving any "/" separators in the key as nested directories.
func localPathFor(outputDir, key string) string {
	return filepath.Join(outputDir, filepath.FromSlash(key))
}

func validateKeys(keys []string) error {
	for _, k := range keys {
		if strings.HasSuffix(k, "/") {
			return fmt.Errorf("%w: %q", ErrTrailingSlashKey, k)
		}
	}
	return nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, bucket string, keys []string, outputDir string) (map[string]string, error) {
	if err := validateKeys(keys); err != nil {
		return nil, err
	}

	downloader := manager.NewDownloader(f.client)

	grp, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, f.concurrency)

	paths := make(map[string]string, len(keys))
	for _, key := range keys {
		key := key
		localPath := localPathFor(outputDir, key)
		paths[key] = localPath

		grp.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			defer func() { <-sem }()

			if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
				return fmt.Errorf("fetcher: creating parent dir for %q: %w", key, err)
			}

			out, err := os.Create(localPath)
			if err != nil {
				return fmt.Errorf("fetcher: creating local file for %q: %w", key, err)
			}
			defer out.Close()

			n, err := downloader.Download(gctx, out, &s3.GetObjectInput{
				Bucket: &bucket,
				Key:    &key,
			})
			if err != nil {
				return fmt.Errorf("%w: bucket %q key %q: %v", ErrObjectMissing, bucket, key, err)
			}
			f.log.Debug("fetched object", "bucket", bucket, "key", key, "bytes", n, "local_path", localPath)
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (f *S3Fetcher) Delete(localPath string) error {
	if err := os.Remove(localPath); err != nil {
		return fmt.Errorf("fetcher: deleting %q: %w", localPath, err)
	}
	return nil
}
