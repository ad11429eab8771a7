package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/GoIngest/internal/domain/jobModel"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createdEvent = `{
  "EventName": "s3:ObjectCreated:Put",
  "Key": "uploads/reports/q1+summary.csv",
  "Records": [{
    "eventName": "s3:ObjectCreated:Put",
    "s3": {
      "bucket": {"name": "uploads"},
      "object": {"key": "reports/q1+summary.csv", "size": 42}
    }
  }]
}`

const deletedEvent = `{"Records":[{"eventName":"s3:ObjectRemoved:Delete","s3":{"bucket":{"name":"uploads"},"object":{"key":"a.csv"}}}]}`

func TestParseBlobEvents(t *testing.T) {
	evts, err := ParseBlobEvents([]byte(createdEvent))
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, "uploads", evts[0].Bucket)
	assert.Equal(t, "reports/q1 summary.csv", evts[0].Key)
	assert.Equal(t, "q1 summary.csv", evts[0].FileName())
	assert.Equal(t, int64(42), evts[0].Size)

	evts, err = ParseBlobEvents([]byte(deletedEvent))
	require.NoError(t, err)
	assert.Empty(t, evts)
}

func TestParseBlobEvents_Malformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   `{"Records": [`,
		"no records": `{"Records": []}`,
		"no key":     `{"Records":[{"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"b"},"object":{"key":""}}}]}`,
		"folder":     `{"Records":[{"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"b"},"object":{"key":"dir/"}}}]}`,
		"bad escape": `{"Records":[{"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"b"},"object":{"key":"a%zz.csv"}}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBlobEvents([]byte(body))
			assert.ErrorIs(t, err, ErrMalformedEvent)
		})
	}
}

type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []int64
	fetchErr  error
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if f.fetchErr != nil {
		err := f.fetchErr
		f.fetchErr = nil
		f.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(f.messages) > 0 {
		m := f.messages[0]
		f.messages = f.messages[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func (f *fakeReader) commits() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

type fakeSubmitter struct {
	mu       sync.Mutex
	jobs     []jobModel.Job
	OnSubmit func(ctx context.Context, j jobModel.Job) error
}

func (f *fakeSubmitter) Submit(ctx context.Context, j jobModel.Job) error {
	if f.OnSubmit != nil {
		if err := f.OnSubmit(ctx, j); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, j)
	return nil
}

func runUntil(t *testing.T, c *Consumer, done func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(finished)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for !done() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-finished
}

func TestConsumer_SubmitsAndCommits(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Offset: 1, Value: []byte(createdEvent)},
		{Offset: 2, Value: []byte(deletedEvent)},
		{Offset: 3, Value: []byte("garbage")},
	}}
	sub := &fakeSubmitter{}
	c := newConsumer(reader, sub)

	runUntil(t, c, func() bool { return len(reader.commits()) == 3 })

	assert.Equal(t, []int64{1, 2, 3}, reader.commits())
	require.Len(t, sub.jobs, 1)
	j := sub.jobs[0]
	assert.Equal(t, jobModel.OriginEvent, j.Origin)
	assert.Equal(t, "uploads", j.JobPayload.Bucket)
	assert.Equal(t, "reports/q1 summary.csv", j.JobPayload.Key)
	assert.Equal(t, "q1 summary.csv", j.JobPayload.FileName)
	assert.NotEmpty(t, j.TraceId)
}

func TestConsumer_RecoversFromFetchError(t *testing.T) {
	reader := &fakeReader{
		fetchErr: errors.New("broker went away"),
		messages: []kafka.Message{{Offset: 7, Value: []byte(createdEvent)}},
	}
	sub := &fakeSubmitter{}
	c := newConsumer(reader, sub)

	runUntil(t, c, func() bool { return len(reader.commits()) == 1 })

	assert.Equal(t, []int64{7}, reader.commits())
}

func TestConsumer_DoesNotCommitUnqueuedMessage(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{{Offset: 9, Value: []byte(createdEvent)}}}
	submitted := make(chan struct{})
	sub := &fakeSubmitter{OnSubmit: func(ctx context.Context, j jobModel.Job) error {
		close(submitted)
		<-ctx.Done()
		return ctx.Err()
	}}
	c := newConsumer(reader, sub)

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(finished)
	}()
	<-submitted
	cancel()
	<-finished

	assert.Empty(t, reader.commits())
}
