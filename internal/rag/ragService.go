package rag

import (
	"context"
	"time"

	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/internal/data/blobStore"
	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/akolanti/GoIngest/internal/domain/jobModel"
	"github.com/akolanti/GoIngest/internal/metrics"
	"github.com/akolanti/GoIngest/internal/rag/ingest"
	"github.com/akolanti/GoIngest/pkg/logger_i"
)

/*
Service is the only thing the worker talks to. The private service struct
holds the pipeline and the blob store so the worker never reaches the
embedding client or the index directly, and tests can swap either for mocks.
*/

// Service runs one ingestion job to a terminal status.
type Service interface {
	IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job
}

// Ingester is satisfied by *ingest.Pipeline.
type Ingester interface {
	Ingest(ctx context.Context, in commonModels.RawInput) (commonModels.IngestionResult, error)
}

type service struct {
	pipeline Ingester
	blobs    blobStore.ObjectReader
	logger   *logger_i.Logger
}

// NewService constructor. blobs may be nil when only uploads are accepted.
func NewService(pipeline Ingester, blobs blobStore.ObjectReader) Service {
	return &service{
		pipeline: pipeline,
		blobs:    blobs,
		logger:   logger_i.NewLogger("Ingestion Service"),
	}
}

func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) jobModel.Job {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()

	log := s.logger.With("traceId", utils.GetTraceId(ctx), "jobId", job.Id, "file", job.JobPayload.FileName)

	data := job.JobPayload.Data
	// unsupported objects are never downloaded, the pipeline skips them by name
	if job.Origin == jobModel.OriginEvent && ingest.DetectFormat(job.JobPayload.FileName) != commonModels.Unsupported {
		job = logOutput(job, jobModel.BlobFetch, log)
		fetched, err := s.fetch(ctx, job)
		if err != nil {
			return s.jobError(job, err, "BLOB_FETCH_FAILURE")
		}
		data = fetched
	}
	// the bytes are not needed once handed to the pipeline
	job.JobPayload.Data = nil

	job = logOutput(job, jobModel.IngestRunning, log)
	result, err := s.pipeline.Ingest(ctx, commonModels.RawInput{Path: s.path(job), Data: data})
	job.Result = result
	if err != nil {
		return s.jobError(job, err, "INGESTION_FAILURE")
	}

	return returnOutput(job, result)
}

func (s *service) fetch(ctx context.Context, job jobModel.Job) ([]byte, error) {
	if s.blobs == nil {
		return nil, errNoBlobStore
	}
	return s.blobs.ReadObject(ctx, job.JobPayload.Bucket, job.JobPayload.Key)
}

func (s *service) path(job jobModel.Job) string {
	if job.Origin == jobModel.OriginEvent && job.JobPayload.Key != "" {
		return job.JobPayload.Bucket + "/" + job.JobPayload.Key
	}
	return job.JobPayload.FileName
}
