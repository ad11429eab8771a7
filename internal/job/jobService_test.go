package job

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/data/store"
	"github.com/akolanti/GoIngest/internal/domain/jobModel"
)

func TestNewJob_UsesTraceFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "trace-1")
	j := NewJob(ctx, jobModel.OriginUpload, jobModel.JobPayload{FileName: "a.csv"})

	if j.TraceId != "trace-1" {
		t.Errorf("TraceId got %q, want trace-1", j.TraceId)
	}
	if j.Id == "" || j.Status != jobModel.JobStatusQueued || j.CurrentStep != jobModel.IngestInit {
		t.Errorf("unexpected job %+v", j)
	}

	other := NewJob(context.Background(), jobModel.OriginEvent, jobModel.JobPayload{})
	if other.TraceId == "" {
		t.Error("expected a generated trace id")
	}
}

func TestSubmit(t *testing.T) {
	jobStore := store.InitInMemoryJobStore()
	s := InitJobService(ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 1),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          jobStore,
	})

	j := NewJob(context.Background(), jobModel.OriginUpload, jobModel.JobPayload{FileName: "a.csv"})
	if err := s.Submit(context.Background(), j); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if got := <-s.JobChannel; got.Id != j.Id {
		t.Errorf("queued job %s, want %s", got.Id, j.Id)
	}
	if _, found := jobStore.GetJob(context.Background(), j.Id); !found {
		t.Error("queued job was not recorded")
	}
	select {
	case <-s.DispatcherChannel:
	default:
		t.Error("dispatcher was not signalled")
	}
}

func TestSubmit_FullQueueHonoursContext(t *testing.T) {
	s := InitJobService(ServiceConfig{
		JobChannel:        make(chan jobModel.Job),
		DispatcherChannel: make(chan bool, 1),
		JobStore:          store.InitInMemoryJobStore(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Submit(ctx, NewJob(ctx, jobModel.OriginEvent, jobModel.JobPayload{}))
	if !errors.Is(err, ErrQueueClosed) || !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want ErrQueueClosed wrapping context.Canceled", err)
	}
}
