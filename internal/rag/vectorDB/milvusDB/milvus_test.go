package milvusDB

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/akolanti/GoIngest/internal/rag/vectorDB"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMilvus struct {
	exists     bool
	created    *entity.Schema
	indexField string
	loaded     bool
	columns    []entity.Column
	upsertErr  error
}

func (f *fakeMilvus) HasCollection(ctx context.Context, collName string) (bool, error) {
	return f.exists, nil
}

func (f *fakeMilvus) CreateCollection(ctx context.Context, schema *entity.Schema, shardsNum int32, opts ...client.CreateCollectionOption) error {
	f.created = schema
	return nil
}

func (f *fakeMilvus) CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error {
	f.indexField = fieldName
	return nil
}

func (f *fakeMilvus) LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error {
	f.loaded = true
	return nil
}

func (f *fakeMilvus) Upsert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error) {
	f.columns = columns
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return columns[0], nil
}

func (f *fakeMilvus) Close() error { return nil }

func pageChunk(id string, page int) commonModels.Chunk {
	return commonModels.Chunk{
		Id:        id,
		Content:   "page text",
		Embedding: []float32{0.5, 0.5},
		Metadata:  commonModels.ChunkMetadata{Source: "r.pdf", Type: commonModels.PDF, Page: &page},
	}
}

func column(t *testing.T, cols []entity.Column, name string) entity.Column {
	t.Helper()
	for _, c := range cols {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("column %s missing", name)
	return nil
}

func TestUpsertColumns(t *testing.T) {
	fake := &fakeMilvus{}
	idx := newIndex(fake, Config{Collection: "documents", Dimension: 2})

	n, err := idx.Upsert(context.Background(), []commonModels.Chunk{pageChunk("r.pdf_page_0", 0), pageChunk("r.pdf_page_2", 2)})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, fake.columns, 7)

	ids := column(t, fake.columns, FieldID).(*entity.ColumnVarChar)
	assert.Equal(t, []string{"r.pdf_page_0", "r.pdf_page_2"}, ids.Data())

	units := column(t, fake.columns, FieldUnit).(*entity.ColumnVarChar)
	assert.Equal(t, []string{"page", "page"}, units.Data())

	positions := column(t, fake.columns, FieldPosition).(*entity.ColumnInt64)
	assert.Equal(t, []int64{0, 2}, positions.Data())
}

func TestUpsertErrorIsUploadError(t *testing.T) {
	fake := &fakeMilvus{upsertErr: errors.New("collection not loaded")}
	idx := newIndex(fake, Config{Collection: "documents", Dimension: 2})

	_, err := idx.Upsert(context.Background(), []commonModels.Chunk{pageChunk("r.pdf_page_0", 0)})
	assert.ErrorIs(t, err, vectorDB.ErrUpload)
}

func TestUpsertRejectsOversizedContent(t *testing.T) {
	fake := &fakeMilvus{}
	idx := newIndex(fake, Config{Collection: "documents", Dimension: 2})

	big := pageChunk("r.pdf_page_1", 1)
	big.Content = strings.Repeat("x", contentMaxLength+1)
	_, err := idx.Upsert(context.Background(), []commonModels.Chunk{pageChunk("r.pdf_page_0", 0), big})

	require.ErrorIs(t, err, vectorDB.ErrUpload)
	assert.False(t, vectorDB.IsRetryable(err))
	assert.Contains(t, err.Error(), "r.pdf_page_1")
	assert.Nil(t, fake.columns, "nothing is sent to milvus")
}

func TestEnsureCollectionCreatesSchemaAndIndex(t *testing.T) {
	fake := &fakeMilvus{}
	idx := newIndex(fake, Config{Collection: "documents", Dimension: 1536})

	require.NoError(t, idx.EnsureCollection(context.Background()))
	require.NotNil(t, fake.created)
	assert.Equal(t, "documents", fake.created.CollectionName)
	assert.Len(t, fake.created.Fields, 7)
	assert.Equal(t, FieldEmbedding, fake.indexField)
	assert.True(t, fake.loaded)
}

func TestEnsureCollectionExisting(t *testing.T) {
	fake := &fakeMilvus{exists: true}
	idx := newIndex(fake, Config{Collection: "documents", Dimension: 1536})

	require.NoError(t, idx.EnsureCollection(context.Background()))
	assert.Nil(t, fake.created)
	assert.True(t, fake.loaded)
}
