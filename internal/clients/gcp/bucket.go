package gcp

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	pkgerrors "github.com/notelab/notebook-backend/internal/pkg/errors"
	"github.com/notelab/notebook-backend/internal/pkg/logger"
)

type BucketCategory string

const (
	BucketCategoryDocument BucketCategory = "document"
	BucketCategoryAudio    BucketCategory = "audio"
	BucketCategoryPublic   BucketCategory = "public"
)

type bucketConfig struct {
	name         string
	cdnDomain    string
	maxSizeBytes int64
	contentTypes map[string]bool
}

var documentContentTypes = map[string]bool{
	"application/pdf": true,
	"text/plain":      true,
	"text/csv":        true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

var audioContentTypes = map[string]bool{
	"audio/mpeg": true,
	"audio/wav":  true,
	"audio/mp4":  true,
	"audio/m4a":  true,
	"audio/x-m4a": true,
}

var publicImageContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

type ObjectAttrs struct {
	Size        int64
	ContentType string
	Updated     time.Time
}

type BucketService interface {
	// UploadFile validates size and content type against the category's
	// allow-list before writing anything.
	UploadFile(ctx context.Context, category BucketCategory, key, contentType string, size int64, file io.Reader) error
	DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, category BucketCategory, key string) error
	// DeletePrefix removes every object under a notebook's namespace.
	DeletePrefix(ctx context.Context, category BucketCategory, prefix string) error
	GetObjectAttrs(ctx context.Context, category BucketCategory, key string) (*ObjectAttrs, error)
	GetPublicURL(category BucketCategory, key string) string
}

type bucketService struct {
	log            *logger.Logger
	storageClient  *storage.Client
	documentBucket bucketConfig
	audioBucket    bucketConfig
	publicBucket   bucketConfig
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	documentBucketName := os.Getenv("DOCUMENT_GCS_BUCKET_NAME")
	audioBucketName := os.Getenv("AUDIO_GCS_BUCKET_NAME")
	publicBucketName := os.Getenv("PUBLIC_GCS_BUCKET_NAME")
	if documentBucketName == "" {
		return nil, fmt.Errorf("missing env var DOCUMENT_GCS_BUCKET_NAME")
	}
	if audioBucketName == "" {
		return nil, fmt.Errorf("missing env var AUDIO_GCS_BUCKET_NAME")
	}
	if publicBucketName == "" {
		return nil, fmt.Errorf("missing env var PUBLIC_GCS_BUCKET_NAME")
	}

	saPath := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")
	ctx := context.Background()
	var stClient *storage.Client
	var err error
	if saPath != "" {
		stClient, err = storage.NewClient(ctx, option.WithCredentialsFile(saPath), option.WithScopes(storage.ScopeReadWrite))
	} else {
		stClient, err = storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	}
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		documentBucket: bucketConfig{
			name:         documentBucketName,
			cdnDomain:    os.Getenv("DOCUMENT_CDN_DOMAIN"),
			maxSizeBytes: 50 << 20,
			contentTypes: documentContentTypes,
		},
		audioBucket: bucketConfig{
			name:         audioBucketName,
			cdnDomain:    os.Getenv("AUDIO_CDN_DOMAIN"),
			maxSizeBytes: 100 << 20,
			contentTypes: audioContentTypes,
		},
		publicBucket: bucketConfig{
			name:         publicBucketName,
			cdnDomain:    os.Getenv("PUBLIC_CDN_DOMAIN"),
			maxSizeBytes: 10 << 20,
			contentTypes: publicImageContentTypes,
		},
	}, nil
}

func (bs *bucketService) getBucketConfig(category BucketCategory) (bucketConfig, error) {
	switch category {
	case BucketCategoryDocument:
		return bs.documentBucket, nil
	case BucketCategoryAudio:
		return bs.audioBucket, nil
	case BucketCategoryPublic:
		return bs.publicBucket, nil
	default:
		return bucketConfig{}, fmt.Errorf("unknown bucket category: %s", category)
	}
}

// ValidateObject enforces a category's size cap and content-type
// allow-list without touching storage. Exposed so request handlers can
// reject before streaming any bytes.
func ValidateObject(category BucketCategory, contentType string, size int64) error {
	var cfg bucketConfig
	switch category {
	case BucketCategoryDocument:
		cfg = bucketConfig{maxSizeBytes: 50 << 20, contentTypes: documentContentTypes}
	case BucketCategoryAudio:
		cfg = bucketConfig{maxSizeBytes: 100 << 20, contentTypes: audioContentTypes}
	case BucketCategoryPublic:
		cfg = bucketConfig{maxSizeBytes: 10 << 20, contentTypes: publicImageContentTypes}
	default:
		return fmt.Errorf("unknown bucket category: %s", category)
	}
	if size > cfg.maxSizeBytes {
		return fmt.Errorf("%w: object of %d bytes exceeds %d byte limit for %s bucket",
			pkgerrors.ErrInvalidArgument, size, cfg.maxSizeBytes, category)
	}
	base := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	if !cfg.contentTypes[base] {
		return fmt.Errorf("%w: content type %q not allowed in %s bucket",
			pkgerrors.ErrInvalidArgument, contentType, category)
	}
	return nil
}

func (bs *bucketService) UploadFile(ctx context.Context, category BucketCategory, key, contentType string, size int64, file io.Reader) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty storage key", pkgerrors.ErrInvalidArgument)
	}
	if err := ValidateObject(category, contentType, size); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	w := bs.storageClient.Bucket(cfg.name).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object writer %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) DownloadFile(ctx context.Context, category BucketCategory, key string) (io.ReadCloser, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	r, err := bs.storageClient.Bucket(cfg.name).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %q: %w", key, err)
	}
	return r, nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, category BucketCategory, key string) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.storageClient.Bucket(cfg.name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	return nil
}

func (bs *bucketService) DeletePrefix(ctx context.Context, category BucketCategory, prefix string) error {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return err
	}
	if strings.TrimSpace(prefix) == "" {
		return fmt.Errorf("%w: empty prefix", pkgerrors.ErrInvalidArgument)
	}
	it := bs.storageClient.Bucket(cfg.name).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list objects under %q: %w", prefix, err)
		}
		if err := bs.storageClient.Bucket(cfg.name).Object(attrs.Name).Delete(ctx); err != nil {
			return fmt.Errorf("delete object %q: %w", attrs.Name, err)
		}
	}
}

func (bs *bucketService) GetObjectAttrs(ctx context.Context, category BucketCategory, key string) (*ObjectAttrs, error) {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return nil, err
	}
	attrs, err := bs.storageClient.Bucket(cfg.name).Object(key).Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("object attrs %q: %w", key, err)
	}
	return &ObjectAttrs{
		Size:        attrs.Size,
		ContentType: attrs.ContentType,
		Updated:     attrs.Updated,
	}, nil
}

func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	cfg, err := bs.getBucketConfig(category)
	if err != nil {
		return ""
	}
	if cfg.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", cfg.cdnDomain, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.name, key)
}
