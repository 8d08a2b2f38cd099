package s3Cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	"encode-portal/cache"
	"encode-portal/config"
)

// ErrIncompleteS3Config is returned when the S3 configuration is incomplete
var ErrIncompleteS3Config = errors.New("incomplete S3 configuration")

const (
	metadataPrefix = "metadata"
	listingKey     = "experiments.json"
	entrySuffix    = ".json"
)

// Cache implements the metadata and listing store interfaces against an
// s3 bucket, using the same key scheme as the filesystem layout.
type Cache struct {
	S3Client *s3.Client
	Timeout  time.Duration
	Bucket   string
}

// New creates an s3-backed cache from the given configuration.
func New(cfg config.S3Config) (*Cache, error) {
	// check for required S3 configuration
	if strings.TrimSpace(cfg.AccessKey) == "" ||
		strings.TrimSpace(cfg.KeyID) == "" ||
		strings.TrimSpace(cfg.Endpoint) == "" ||
		strings.TrimSpace(cfg.Region) == "" ||
		strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("%w", ErrIncompleteS3Config)
	}

	s3Client := s3.New(s3.Options{
		UsePathStyle: true,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Region:       cfg.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				cfg.KeyID,
				cfg.AccessKey,
				"",
			),
		),
	})

	return &Cache{
		S3Client: s3Client,
		Timeout:  cfg.Timeout,
		Bucket:   cfg.Bucket,
	}, nil
}

// Put uploads a document to its hierarchical object key.
func (c *Cache) Put(accession string, doc []byte) error {
	key, err := entryKey(accession)
	if err != nil {
		return err
	}

	return c.upload(key, doc)
}

// Get retrieves the cached document for an accession. Missing objects read
// as cache.ErrNotCached.
func (c *Cache) Get(accession string) ([]byte, error) {
	key, err := entryKey(accession)
	if err != nil {
		return nil, err
	}

	return c.download(key)
}

// Delete removes one cache entry.
func (c *Cache) Delete(accession string) error {
	key, err := entryKey(accession)
	if err != nil {
		return err
	}

	// check the object exists so a missing entry reads as a miss
	if _, err := c.download(key); err != nil {
		return err
	}

	return c.remove(key)
}

// DeleteAll removes every object under the metadata prefix.
func (c *Cache) DeleteAll() error {
	keys, err := c.listMetadata(func(key string, size int64) {})
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := c.remove(key); err != nil {
			return err
		}
	}

	return nil
}

// Stats lists the metadata prefix and reports entry counts and sizes.
func (c *Cache) Stats() (cache.Stats, error) {
	stats := cache.Stats{Buckets: map[string]int{}}

	_, err := c.listMetadata(func(key string, size int64) {
		segments := strings.Split(key, "/")
		//nolint:mnd // metadata/{bucket}/{accession}.json
		if len(segments) != 3 || !strings.HasSuffix(key, entrySuffix) {
			return
		}

		stats.Entries++
		stats.TotalBytes += size
		stats.Buckets[segments[1]]++
	})
	if err != nil {
		return stats, err
	}

	return stats, nil
}

// SaveListing uploads the bulk listing document.
func (c *Cache) SaveListing(doc []byte) error {
	return c.upload(listingKey, doc)
}

// LoadListing retrieves the bulk listing document.
func (c *Cache) LoadListing() ([]byte, error) {
	return c.download(listingKey)
}

// ClearListing removes the bulk listing document.
func (c *Cache) ClearListing() error {
	if _, err := c.download(listingKey); err != nil {
		return err
	}

	return c.remove(listingKey)
}

func (c *Cache) upload(key string, doc []byte) error {
	uploader := manager.NewUploader(c.S3Client)

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	result, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(doc),
	})
	if err != nil {
		var mu manager.MultiUploadFailure
		if errors.As(err, &mu) {
			log.Error().
				Msgf("multi-upload failure (upload_id: %s): %v", mu.UploadID(), mu)

			return fmt.Errorf(
				"multi-upload failure (upload_id: %s): %w",
				mu.UploadID(),
				mu,
			)
		}

		return fmt.Errorf("upload failure: %w", err)
	}

	log.Debug().
		Str("location", result.Location).
		Msg("uploaded cache entry to s3 bucket")

	return nil
}

func (c *Cache) download(key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	object, err := c.S3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFoundErr *types.NoSuchKey
		if errors.As(err, &notFoundErr) {
			return nil, cache.ErrNotCached
		}

		return nil, fmt.Errorf("failed to get cache entry from S3: %w", err)
	}

	var content []byte
	if object.Body != nil {
		defer func() {
			if cerr := object.Body.Close(); cerr != nil {
				log.Error().Err(cerr).Msg("failed to close S3 object body")
			}
		}()
		content, err = io.ReadAll(object.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read cache entry content: %w", err)
		}
	} else {
		content = []byte{}
	}

	return content, nil
}

func (c *Cache) remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	_, err := c.S3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete cache entry from S3: %w", err)
	}

	return nil
}

// listMetadata pages through the metadata prefix, invoking visit per object
// and returning the full key list.
func (c *Cache) listMetadata(visit func(key string, size int64)) ([]string, error) {
	keys := []string{}
	var continuation *string

	for {
		ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
		page, err := c.S3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(c.Bucket),
			Prefix:            aws.String(metadataPrefix + "/"),
			ContinuationToken: continuation,
		})
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to list cache entries in S3: %w", err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			keys = append(keys, key)
			visit(key, aws.ToInt64(object.Size))
		}

		if page.NextContinuationToken == nil {
			break
		}
		continuation = page.NextContinuationToken
	}

	return keys, nil
}

// entryKey returns the object key for an accession's cache entry.
func entryKey(accession string) (string, error) {
	bucket, err := cache.Bucket(accession)
	if err != nil {
		return "", err
	}

	return path.Join(metadataPrefix, bucket, accession+entrySuffix), nil
}
