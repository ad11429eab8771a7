package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/data/redisStore"
	"github.com/akolanti/GoIngest/internal/data/store"
	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/akolanti/GoIngest/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testJob(id string) jobModel.Job {
	return jobModel.Job{
		Id:     id,
		Origin: jobModel.OriginUpload,
		Status: jobModel.JobStatusComplete,
		JobPayload: jobModel.JobPayload{
			FileName: "people.csv",
			Data:     []byte("name\nAnn\n"),
		},
		Result: commonModels.IngestionResult{
			FileName:       "people.csv",
			Type:           commonModels.CSV,
			State:          commonModels.StateDone,
			ChunksProduced: 1,
			ChunksAccepted: 1,
		},
	}
}

func TestRedisJobStore_Lifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.NewRedisJobStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		if err := jobStore.SaveJob(ctx, testJob(jobID)); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}
		if retrievedJob.Result.State != commonModels.StateDone || retrievedJob.Result.ChunksAccepted != 1 {
			t.Errorf("Result mismatch! Got %+v", retrievedJob.Result)
		}
		if retrievedJob.JobPayload.Data != nil {
			t.Error("document bytes must not be persisted")
		}
	})

	t.Run("Key carries TTL", func(t *testing.T) {
		if ttl := mr.TTL("ingest:job:" + jobID); ttl != config.RedisJobStoreTTL {
			t.Errorf("TTL got %v, want %v", ttl, config.RedisJobStoreTTL)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		if _, found := jobStore.GetJob(ctx, "ghost-id"); found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Corrupt entry is not found", func(t *testing.T) {
		_ = mr.Set("ingest:job:corrupt", "{not json")
		if _, found := jobStore.GetJob(ctx, "corrupt"); found {
			t.Error("Expected found=false for corrupt entry")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)
		if mr.Exists("ingest:job:" + jobID) {
			t.Error("Job still exists in Redis after DeleteJob call")
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := jobStore.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})
}

func TestRedisJobStore_Concurrent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	jobStore := store.NewRedisJobStore(redisStore.NewTestStore(client))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "race-trace")

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jobStore.SaveJob(ctx, testJob("race-job"))
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
	wg.Wait()

	if _, found := jobStore.GetJob(ctx, "race-job"); !found {
		t.Error("Expected race-job to be stored")
	}
}

func TestInMemoryJobStore(t *testing.T) {
	jobStore := store.InitInMemoryJobStore()
	ctx := context.Background()

	if err := jobStore.SaveJob(ctx, testJob("mem-1")); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}
	got, found := jobStore.GetJob(ctx, "mem-1")
	if !found || got.Result.State != commonModels.StateDone {
		t.Fatalf("GetJob got %+v found=%v", got, found)
	}
	if got.JobPayload.Data != nil {
		t.Error("document bytes must not be retained")
	}

	jobStore.DeleteJob(ctx, "mem-1")
	if _, found := jobStore.GetJob(ctx, "mem-1"); found {
		t.Error("Job still present after DeleteJob")
	}
}
