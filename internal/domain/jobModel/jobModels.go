package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/GoIngest/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

type JobOrigin string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusSkipped  JobStatus = "SKIPPED"
	JobStatusError    JobStatus = "Error"

	IngestInit    InternalStatus = "IngestInit"
	BlobFetch     InternalStatus = "BlobFetch"
	IngestRunning InternalStatus = "IngestRunning"
	RedisCall     InternalStatus = "Redis"
	Error         InternalStatus = "Error"
	Complete      InternalStatus = "Complete"

	OriginUpload JobOrigin = "upload"
	OriginEvent  JobOrigin = "event"
)

type Job struct {
	Id          string                       `json:"id"`
	TraceId     string                       `json:"trace_id"`
	Origin      JobOrigin                    `json:"origin"`
	JobPayload  JobPayload                   `json:"job_payload"`
	Result      commonModels.IngestionResult `json:"result"`
	Error       JobError                     `json:"error,omitempty"`
	CreatedTime time.Time                    `json:"created_time"`
	EndTime     time.Time                    `json:"end_time,omitempty"`
	Status      JobStatus                    `json:"status"`
	CurrentStep InternalStatus               `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

// JobPayload points at the file to ingest. Upload jobs carry the bytes
// in memory; event jobs carry the bucket and key and are fetched by the worker.
type JobPayload struct {
	FileName string `json:"file_name"`
	Bucket   string `json:"bucket,omitempty"`
	Key      string `json:"key,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Data     []byte `json:"-"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
