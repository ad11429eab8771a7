package job

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/internal/domain/jobModel"
	"github.com/akolanti/GoIngest/internal/metrics"
	"github.com/akolanti/GoIngest/pkg/logger_i"
)

var ErrQueueClosed = errors.New("job queue is not accepting work")

type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	logger            *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		logger:            logger_i.NewLogger("JobService"),
	}
}

// NewJob builds a queued job. The trace id comes from ctx when present.
func NewJob(ctx context.Context, origin jobModel.JobOrigin, payload jobModel.JobPayload) jobModel.Job {
	traceId := utils.GetTraceId(ctx)
	if traceId == "" {
		traceId = utils.GetNewUUID()
	}
	return jobModel.Job{
		Id:          utils.GetNewUUID(),
		TraceId:     traceId,
		Origin:      origin,
		JobPayload:  payload,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
	}
}

// Submit records the job as queued and hands it to the workers. The send
// blocks while the buffer is full so producers slow down instead of dropping
// files; ctx bounds that wait.
func (s *Service) Submit(ctx context.Context, job jobModel.Job) error {
	log := s.logger.With("traceId", job.TraceId, "jobId", job.Id)

	if err := s.JobStore.SaveJob(ctx, job); err != nil {
		log.Error("Failed to record queued job", "error", err)
	}

	select {
	case s.JobChannel <- job:
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrQueueClosed, ctx.Err())
	}
	metrics.IncrementJobsInQueue()
	log.Info("Queued ingestion job", "file", job.JobPayload.FileName, "origin", job.Origin)

	// every ingest job asks for a worker, the pool caps itself at MaxWorkerCount
	count := atomic.AddInt64(&s.RequestCount, 1)
	select {
	case s.DispatcherChannel <- true:
		metrics.StartDispatcherSignalCount()
		log.Debug("Signalled dispatcher", "requestCount", count)
	default:
	}
	return nil
}
