package blobStore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const noSuchKey = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message><Key>missing.csv</Key><BucketName>uploads</BucketName><RequestId>1</RequestId></Error>`

func newFakeS3(t *testing.T, objects map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			if r.Method != http.MethodHead {
				_, _ = w.Write([]byte(noSuchKey))
			}
			return
		}
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("ETag", `"abc123"`)
		w.Header().Set("Content-Type", "application/octet-stream")
		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestStore(t *testing.T, srv *httptest.Server, maxSize int64) *MinioStore {
	t.Helper()
	s, err := NewMinioStore(Options{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Region:    "us-east-1",
		MaxSize:   maxSize,
	})
	require.NoError(t, err)
	return s
}

func TestReadObject(t *testing.T) {
	srv := newFakeS3(t, map[string]string{"/uploads/people.csv": "name,age\nAnn,30\n"})
	s := newTestStore(t, srv, 0)

	data, err := s.ReadObject(context.Background(), "uploads", "people.csv")
	require.NoError(t, err)
	assert.Equal(t, "name,age\nAnn,30\n", string(data))
}

func TestReadObjectNotFound(t *testing.T) {
	srv := newFakeS3(t, map[string]string{})
	s := newTestStore(t, srv, 0)

	_, err := s.ReadObject(context.Background(), "uploads", "missing.csv")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestReadObjectTooLarge(t *testing.T) {
	srv := newFakeS3(t, map[string]string{"/uploads/big.csv": strings.Repeat("x", 64)})
	s := newTestStore(t, srv, 16)

	_, err := s.ReadObject(context.Background(), "uploads", "big.csv")
	assert.ErrorIs(t, err, ErrObjectTooLarge)
}
