package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"github.com/akolanti/GoIngest/internal/adapter"
	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/internal/api"
	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/worker"
)

// multipart framing on top of the file itself
const formOverhead = 1 << 20

// GetHandler reports liveness, job store reachability and worker count.
func GetHandler(w http.ResponseWriter, r *http.Request) {
	res := api.HealthResponse{
		Status:   "ok",
		JobStore: jobStoreHealth(r.Context()),
		Workers:  worker.ActiveWorkers(),
	}
	code := http.StatusOK
	if res.JobStore == "unavailable" {
		res.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJsonResponse(w, code, res)
}

// GetStatusHandler returns the job and, once finished, its ingestion result.
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if validateContext(r) {
		idString := utils.GetChiURLParam(r, "id")
		result, isFound := validateId(idString, utils.GetTraceId(r.Context()))

		logRH.Debug("Get Status Request", "path", r.URL.Path)
		if !isFound {
			WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
			return
		}

		writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
	}
}

// PostIngestHandler accepts a multipart upload in the "document" field and
// queues it. The format is decided from the uploaded file name.
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.MaxUploadSize+formOverhead)
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, http.StatusRequestEntityTooLarge, "", "File too large")
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad multipart request")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "document file is required")
		return
	}
	defer fileReader.Close()

	fileName := filepath.Base(fileMetadata.Filename)
	if fileName == "." || fileName == string(filepath.Separator) {
		WriteErrorResponse(w, http.StatusBadRequest, "", "document file name is required")
		return
	}
	if fileMetadata.Size > config.MaxUploadSize {
		WriteErrorResponse(w, http.StatusRequestEntityTooLarge, fileName, "File too large")
		return
	}

	data, err := io.ReadAll(io.LimitReader(fileReader, config.MaxUploadSize+1))
	if err != nil {
		logRH.Error("Could not read upload", "file", fileName, "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, fileName, "Could not read file")
		return
	}
	if int64(len(data)) > config.MaxUploadSize {
		WriteErrorResponse(w, http.StatusRequestEntityTooLarge, fileName, "File too large")
		return
	}

	id, err := CreateNewJob(r.Context(), fileName, data)
	if err != nil {
		logRH.Error("Could not queue upload", "file", fileName, "error", err)
		WriteErrorResponse(w, http.StatusServiceUnavailable, fileName, "Ingestion queue unavailable")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(id))
}
