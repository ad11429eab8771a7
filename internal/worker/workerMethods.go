package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/akolanti/GoIngest/internal/config"
	jobmodel "github.com/akolanti/GoIngest/internal/domain/jobModel"
	"github.com/akolanti/GoIngest/internal/metrics"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, jobTimeout)
	defer cancel()
	log := logger.With("traceId", job.TraceId, "jobId", job.Id)
	log.Debug("Processing job", "file", job.JobPayload.FileName, "origin", job.Origin)

	job.Status = jobmodel.JobStatusRunning
	job.CurrentStep = jobmodel.IngestRunning
	saveJobState(ctxTrace, job)

	job = _ragService.IngestDocument(ctx, job)
	job.EndTime = time.Now()
	saveJobState(ctxTrace, job)
	log.Info("Job finished", "status", job.Status, "state", job.Result.State, "elapsed", time.Since(start))
}

// removeWorker expects the worker to be off currentWorkerCount already.
func removeWorker(reason string) {
	workerWaitGroup.Done()
	logger.Info("Removed worker", "reason", reason, "workerCount", atomic.LoadInt64(&currentWorkerCount))
	metrics.DecrementActiveWorkerCount()
}

// saveJobState writes with its own deadline so a job that ran out of time
// still records its outcome.
func saveJobState(ctx context.Context, job jobmodel.Job) {
	ctx, cancel := context.WithTimeout(ctx, config.RedisPingTimeout)
	defer cancel()
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update job status", "jobId", job.Id, "status", job.Status, "err", err)
	}
}
