package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akolanti/GoIngest/internal/adapter"
	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/internal/domain/jobModel"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already sent
		logRH.Error("Error encoding response", "error", err)
	}
}

func validateId(id string, traceId string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty Job ID", "traceId", traceId)
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, traceId)
}

func validateContext(r *http.Request) bool {
	ctx := r.Context()
	if ctx.Err() != nil {
		logRH.Warn("context error", "traceId", utils.GetTraceId(ctx), "error", ctx.Err(), "remote", r.RemoteAddr)
		return false
	}
	return true
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}
