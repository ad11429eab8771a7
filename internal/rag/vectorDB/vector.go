package vectorDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Index is the external search index. Upsert takes one file's chunks as a
// single batch and reports how many the index accepted.
type Index interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, chunks []commonModels.Chunk) (int, error)
}

var ErrUpload = errors.New("index upload failed")

// UploadError wraps the backend failure. errors.Is(err, ErrUpload) holds for it.
type UploadError struct {
	Backend   string
	Retryable bool
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Backend, ErrUpload, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) Is(target error) bool { return target == ErrUpload }

// NewUploadError marks grpc unavailability, deadlines and throttling as retryable.
func NewUploadError(backend string, err error) error {
	if err == nil {
		return nil
	}
	retryable := errors.Is(err, context.DeadlineExceeded)
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
			retryable = true
		}
	}
	return &UploadError{Backend: backend, Retryable: retryable, Err: err}
}

// IsRetryable reports whether redelivering the file may succeed.
func IsRetryable(err error) bool {
	var up *UploadError
	if errors.As(err, &up) {
		return up.Retryable
	}
	return false
}

// CheckBatch rejects chunks the backends cannot store.
func CheckBatch(chunks []commonModels.Chunk, dimension int) error {
	for _, c := range chunks {
		if c.Id == "" {
			return fmt.Errorf("chunk without id")
		}
		if dimension > 0 && len(c.Embedding) != dimension {
			return fmt.Errorf("chunk %s: embedding has %d dimensions, collection expects %d", c.Id, len(c.Embedding), dimension)
		}
	}
	return nil
}
