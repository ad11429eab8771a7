package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/GoIngest/internal/api"
	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/akolanti/GoIngest/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("status/%s", id), //pass "status/job.Id"
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:    string(job.Status),
		Ingestion: ToIngestionOutcome(job.Result),
	}

	return api.JobResponse{
		Id:        job.Id,
		FileName:  job.JobPayload.FileName,
		Origin:    string(job.Origin),
		StartTime: job.CreatedTime,
		EndTime:   job.EndTime,
		Error:     errorPtr,
		Result:    result,
	}
}

// ToIngestionOutcome is nil until the pipeline reached a terminal state.
func ToIngestionOutcome(res commonModels.IngestionResult) *api.IngestionOutcome {
	if res.State == "" {
		return nil
	}

	return &api.IngestionOutcome{
		Type:           string(res.Type),
		State:          string(res.State),
		ChunksProduced: res.ChunksProduced,
		ChunksAccepted: res.ChunksAccepted,
		Reason:         res.Reason,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}
