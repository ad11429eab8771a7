package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

var ErrMalformedEvent = errors.New("malformed storage notification")

const objectCreatedPrefix = "s3:ObjectCreated:"

// BlobEvent is one created object taken from a storage notification.
type BlobEvent struct {
	EventName string
	Bucket    string
	Key       string
	Size      int64
}

// FileName is the last segment of the object key.
func (e BlobEvent) FileName() string {
	return path.Base(e.Key)
}

// notification is the S3 event format MinIO publishes to kafka.
type notification struct {
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key  string `json:"key"`
				Size int64  `json:"size"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseBlobEvents returns the object-created records of a notification.
// Other event kinds are dropped, so a valid message may yield no events.
func ParseBlobEvents(data []byte) ([]BlobEvent, error) {
	var n notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if len(n.Records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrMalformedEvent)
	}

	var out []BlobEvent
	for i, r := range n.Records {
		if !strings.HasPrefix(r.EventName, objectCreatedPrefix) {
			continue
		}
		// keys are form encoded, spaces arrive as '+'
		key, err := url.QueryUnescape(r.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d key %q: %w", ErrMalformedEvent, i, r.S3.Object.Key, err)
		}
		if r.S3.Bucket.Name == "" || key == "" || strings.HasSuffix(key, "/") {
			return nil, fmt.Errorf("%w: record %d has no bucket or object key", ErrMalformedEvent, i)
		}
		out = append(out, BlobEvent{
			EventName: r.EventName,
			Bucket:    r.S3.Bucket.Name,
			Key:       key,
			Size:      r.S3.Object.Size,
		})
	}
	return out, nil
}
