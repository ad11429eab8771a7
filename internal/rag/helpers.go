package rag

import (
	"context"
	"errors"
	"net/http"

	"github.com/akolanti/GoIngest/internal/data/blobStore"
	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/akolanti/GoIngest/internal/domain/jobModel"
	"github.com/akolanti/GoIngest/internal/rag/embedding"
	"github.com/akolanti/GoIngest/internal/rag/ingest"
	"github.com/akolanti/GoIngest/internal/rag/vectorDB"
	"github.com/akolanti/GoIngest/pkg/logger_i"
)

var errNoBlobStore = errors.New("no blob store configured for event jobs")

func returnOutput(job jobModel.Job, result commonModels.IngestionResult) jobModel.Job {
	job.Result = result
	job.CurrentStep = jobModel.Complete
	switch result.State {
	case commonModels.StateUnsupported, commonModels.StateNoValidChunks:
		job.Status = jobModel.JobStatusSkipped
	default:
		job.Status = jobModel.JobStatusComplete
	}
	return job
}

func logOutput(job jobModel.Job, status jobModel.InternalStatus, log *logger_i.Logger) jobModel.Job {
	job.CurrentStep = status
	log.Debug("IngestDocument", "Current Status", job.CurrentStep)
	return job
}

func (s *service) jobError(job jobModel.Job, err error, message string) jobModel.Job {
	code, msg, canRetry := classify(err)
	if code >= http.StatusInternalServerError && !canRetry {
		s.logger.Error(message, "jobId", job.Id, "error", err)
	} else {
		s.logger.Warn(message, "jobId", job.Id, "error", err)
	}

	job.Error = jobModel.JobError{
		Code:    code,
		Message: msg,
		Retry:   canRetry,
	}
	job.CurrentStep = jobModel.Error
	job.Status = jobModel.JobStatusError
	return job
}

// classify maps a pipeline failure onto the status shown to API callers and
// whether resubmitting the same file may succeed.
func classify(err error) (int, string, bool) {
	switch {
	case errors.Is(err, ingest.ErrParse):
		return http.StatusUnprocessableEntity, "Document could not be parsed", false
	case errors.Is(err, blobStore.ErrObjectNotFound):
		return http.StatusNotFound, "Object not found in storage", false
	case errors.Is(err, blobStore.ErrObjectTooLarge):
		return http.StatusRequestEntityTooLarge, "Object too large", false
	case errors.Is(err, embedding.ErrTransient):
		return http.StatusServiceUnavailable, "Embedding service unavailable", true
	case embedding.IsFatal(err):
		return http.StatusInternalServerError, "Embedding service misconfigured", false
	case errors.Is(err, embedding.ErrRejected), errors.Is(err, embedding.ErrEmptyText):
		return http.StatusUnprocessableEntity, "Embedding service rejected the document", false
	case errors.Is(err, vectorDB.ErrUpload):
		return http.StatusBadGateway, "Search index upload failed", vectorDB.IsRetryable(err)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Ingestion timed out", true
	case errors.Is(err, errNoBlobStore):
		return http.StatusInternalServerError, "Blob storage not configured", false
	default:
		return http.StatusInternalServerError, "Internal Server Error", true
	}
}
