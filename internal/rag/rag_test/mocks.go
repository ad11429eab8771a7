package rag_test

import (
	"context"

	"github.com/akolanti/GoIngest/internal/domain/commonModels"
)

// MockIngester implements rag.Ingester
type MockIngester struct {
	OnIngest func(ctx context.Context, in commonModels.RawInput) (commonModels.IngestionResult, error)
	Inputs   []commonModels.RawInput
}

func (m *MockIngester) Ingest(ctx context.Context, in commonModels.RawInput) (commonModels.IngestionResult, error) {
	m.Inputs = append(m.Inputs, in)
	if m.OnIngest != nil {
		return m.OnIngest(ctx, in)
	}
	return commonModels.IngestionResult{
		FileName:       in.FileName(),
		Type:           commonModels.CSV,
		State:          commonModels.StateDone,
		ChunksProduced: 1,
		ChunksAccepted: 1,
	}, nil
}

// MockObjectReader implements blobStore.ObjectReader
type MockObjectReader struct {
	OnReadObject func(ctx context.Context, bucket, key string) ([]byte, error)
}

func (m *MockObjectReader) ReadObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if m.OnReadObject != nil {
		return m.OnReadObject(ctx, bucket, key)
	}
	return []byte("name,age\nAnn,30\n"), nil
}
