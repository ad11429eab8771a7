package blobStore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/pkg/logger_i"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectTooLarge = errors.New("object exceeds size limit")
)

// ObjectReader fetches the raw bytes of a stored file.
type ObjectReader interface {
	ReadObject(ctx context.Context, bucket, key string) ([]byte, error)
}

type MinioStore struct {
	client  *minio.Client
	maxSize int64
	logger  *logger_i.Logger
}

var _ ObjectReader = (*MinioStore)(nil)

type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Region skips the bucket location lookup when set.
	Region  string
	MaxSize int64
}

func NewMinioStore(opts Options) (*MinioStore, error) {
	c, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: minio client for %s: %w", config.ErrConfig, opts.Endpoint, err)
	}
	maxSize := opts.MaxSize
	if maxSize <= 0 {
		maxSize = config.MaxUploadSize
	}
	return &MinioStore{
		client:  c,
		maxSize: maxSize,
		logger:  logger_i.NewLogger("minio").With("endpoint", opts.Endpoint),
	}, nil
}

// ReadObject reads the whole object into memory, refusing anything larger
// than the configured limit.
func (s *MinioStore) ReadObject(ctx context.Context, bucket, key string) ([]byte, error) {
	log := s.logger.With("traceId", utils.GetTraceId(ctx), "bucket", bucket, "key", key)

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.classify(bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, s.maxSize+1))
	if err != nil {
		log.Error("reading object failed", "error", err)
		return nil, s.classify(bucket, key, err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: %s/%s is larger than %d bytes", ErrObjectTooLarge, bucket, key, s.maxSize)
	}

	log.Debug("read object", "bytes", len(data))
	return data, nil
}

func (s *MinioStore) classify(bucket, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey", resp.Code == "NoSuchBucket", resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s/%s: %w", ErrObjectNotFound, bucket, key, err)
	default:
		return fmt.Errorf("reading %s/%s: %w", bucket, key, err)
	}
}
