package events

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/domain/jobModel"
	"github.com/akolanti/GoIngest/internal/job"
	"github.com/akolanti/GoIngest/internal/metrics"
	"github.com/akolanti/GoIngest/pkg/logger_i"
	"github.com/segmentio/kafka-go"
)

const fetchRetryDelay = time.Second

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Submitter queues ingestion jobs, *job.Service satisfies it.
type Submitter interface {
	Submit(ctx context.Context, job jobModel.Job) error
}

// Consumer turns object-created notifications into ingestion jobs.
// A message is committed only after all of its jobs were queued.
type Consumer struct {
	reader    messageReader
	submitter Submitter
	logger    *logger_i.Logger
}

func NewConsumer(settings config.KafkaSettings, submitter Submitter) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  settings.Brokers,
		GroupID:  settings.GroupID,
		Topic:    settings.Topic,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		MaxWait:  time.Second,
	})
	return newConsumer(reader, submitter)
}

func newConsumer(reader messageReader, submitter Submitter) *Consumer {
	return &Consumer{
		reader:    reader,
		submitter: submitter,
		logger:    logger_i.NewLogger("BlobEvents"),
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("Blob event consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Stopping blob event consumer")
				return
			}
			c.logger.Error("Error fetching message from Kafka", "error", err)
			if !sleep(ctx, fetchRetryDelay) {
				return
			}
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			// not committed, the message is redelivered after restart
			c.logger.Warn("Stopped before message was queued", "offset", msg.Offset, "error", err)
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit Kafka message", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// handle only fails when a job could not be queued.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	log := c.logger.With("topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)

	evts, err := ParseBlobEvents(msg.Value)
	if err != nil {
		metrics.CaptureBlobEvent("malformed")
		log.Error("Dropping unreadable notification", "error", err)
		return nil
	}
	if len(evts) == 0 {
		metrics.CaptureBlobEvent("ignored")
		log.Debug("Notification has no created objects")
		return nil
	}

	for _, e := range evts {
		j := job.NewJob(ctx, jobModel.OriginEvent, jobModel.JobPayload{
			FileName: e.FileName(),
			Bucket:   e.Bucket,
			Key:      e.Key,
			Size:     e.Size,
		})
		if err := c.submitter.Submit(ctx, j); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			metrics.CaptureBlobEvent("failed")
			log.Error("Could not queue blob", "bucket", e.Bucket, "key", e.Key, "error", err)
			continue
		}
		metrics.CaptureBlobEvent("submitted")
		log.Info("Queued blob for ingestion", "jobId", j.Id, "traceId", j.TraceId, "bucket", e.Bucket, "key", e.Key)
	}
	return nil
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
