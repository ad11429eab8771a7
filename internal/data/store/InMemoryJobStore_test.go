package store

import (
	"context"
	"testing"
	"time"

	"github.com/akolanti/GoIngest/internal/domain/jobModel"
)

func TestInMemoryJobStore_Expiry(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := InitInMemoryJobStore()
	s.ttl = time.Hour
	s.now = func() time.Time { return clock }

	_ = s.SaveJob(context.Background(), jobModel.Job{Id: "old"})

	clock = clock.Add(30 * time.Minute)
	if _, found := s.GetJob(context.Background(), "old"); !found {
		t.Fatal("job expired before its TTL")
	}

	clock = clock.Add(time.Hour)
	if _, found := s.GetJob(context.Background(), "old"); found {
		t.Fatal("job still visible after its TTL")
	}

	_ = s.SaveJob(context.Background(), jobModel.Job{Id: "new"})
	if _, ok := s.jobMap["old"]; ok {
		t.Error("expired job was not evicted on save")
	}
}
