package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

type JobResponse struct {
	Id        string            `json:"id" example:"job_cz109"`
	FileName  string            `json:"file_name" example:"people.csv"`
	Origin    string            `json:"origin" example:"upload"`
	Result    Result            `json:"result"`
	Error     *JobOutgoingError `json:"error,omitempty"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Job not found"`
	Retry   bool   `json:"can_retry" example:"false"`
}

type IngestionOutcome struct {
	Type           string `json:"type,omitempty" example:"csv"`
	State          string `json:"state" example:"Done"`
	ChunksProduced int    `json:"chunks_produced"`
	ChunksAccepted int    `json:"chunks_accepted"`
	Reason         string `json:"reason,omitempty"`
}

type Result struct {
	Status    string            `json:"status"`
	Ingestion *IngestionOutcome `json:"ingestion,omitempty"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	JobStore string `json:"job_store"`
	Workers  int64  `json:"workers"`
}
