package handlers

import (
	"context"
	"sync"

	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/domain/jobModel"
	"github.com/akolanti/GoIngest/internal/job"
	"github.com/akolanti/GoIngest/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("JobHandler")
	logRH           = logger_i.NewLogger("RequestHandler")
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

// CreateNewJob queues an uploaded file and returns the job id.
func CreateNewJob(ctx context.Context, fileName string, data []byte) (string, error) {
	newJob := job.NewJob(ctx, jobModel.OriginUpload, jobModel.JobPayload{
		FileName: fileName,
		Size:     int64(len(data)),
		Data:     data,
	})
	logJH.Info("Creating upload job", "traceId", newJob.TraceId, "jobId", newJob.Id, "file", fileName)
	if err := handlerInstance.service.Submit(ctx, newJob); err != nil {
		return "", err
	}
	return newJob.Id, nil
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

type pinger interface {
	Ping(ctx context.Context) error
}

// jobStoreHealth is "ok" or "unavailable" for stores that can be pinged,
// "memory" for the in-process fallback.
func jobStoreHealth(ctx context.Context) string {
	if handlerInstance == nil {
		return "unavailable"
	}
	p, ok := handlerInstance.service.JobStore.(pinger)
	if !ok {
		return "memory"
	}
	ctx, cancel := context.WithTimeout(ctx, config.RedisPingTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		logJH.Warn("Job store ping failed", "error", err)
		return "unavailable"
	}
	return "ok"
}
