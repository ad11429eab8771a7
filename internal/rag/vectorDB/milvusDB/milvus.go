package milvusDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/akolanti/GoIngest/internal/rag/vectorDB"
	"github.com/akolanti/GoIngest/pkg/logger_i"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const backendName = "milvus"

const (
	FieldID        = "id"
	FieldContent   = "content"
	FieldSource    = "source"
	FieldType      = "type"
	FieldUnit      = "unit"
	FieldPosition  = "position"
	FieldEmbedding = "embedding"

	idMaxLength      = 1024
	contentMaxLength = 65535
	sourceMaxLength  = 1024
	shortMaxLength   = 16
)

// milvusAPI is the part of client.Client the index uses.
type milvusAPI interface {
	HasCollection(ctx context.Context, collName string) (bool, error)
	CreateCollection(ctx context.Context, schema *entity.Schema, shardsNum int32, opts ...client.CreateCollectionOption) error
	CreateIndex(ctx context.Context, collName string, fieldName string, idx entity.Index, async bool, opts ...client.IndexOption) error
	LoadCollection(ctx context.Context, collName string, async bool, opts ...client.LoadCollectionOption) error
	Upsert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error)
	Close() error
}

type Config struct {
	Address    string
	APIKey     string
	Collection string
	Dimension  int
}

type MilvusIndex struct {
	client     milvusAPI
	collection string
	dimension  int
	logger     *logger_i.Logger
}

var _ vectorDB.Index = (*MilvusIndex)(nil)

func NewMilvusIndex(ctx context.Context, cfg Config) (*MilvusIndex, error) {
	c, err := client.NewClient(ctx, client.Config{Address: cfg.Address, APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", cfg.Address, err)
	}
	idx := newIndex(c, cfg)
	go func() {
		<-ctx.Done()
		idx.logger.Info("Shutting down Milvus")
		if err := c.Close(); err != nil {
			idx.logger.Error("could not close Milvus", "error", err)
		}
	}()
	return idx, nil
}

func newIndex(api milvusAPI, cfg Config) *MilvusIndex {
	return &MilvusIndex{
		client:     api,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		logger:     logger_i.NewLogger("Milvus").With("collection", cfg.Collection),
	}
}

func (m *MilvusIndex) schema() *entity.Schema {
	return entity.NewSchema().
		WithName(m.collection).
		WithDescription("document chunks").
		WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).WithIsPrimaryKey(true).WithMaxLength(idMaxLength)).
		WithField(entity.NewField().WithName(FieldContent).WithDataType(entity.FieldTypeVarChar).WithMaxLength(contentMaxLength)).
		WithField(entity.NewField().WithName(FieldSource).WithDataType(entity.FieldTypeVarChar).WithMaxLength(sourceMaxLength)).
		WithField(entity.NewField().WithName(FieldType).WithDataType(entity.FieldTypeVarChar).WithMaxLength(shortMaxLength)).
		WithField(entity.NewField().WithName(FieldUnit).WithDataType(entity.FieldTypeVarChar).WithMaxLength(shortMaxLength)).
		WithField(entity.NewField().WithName(FieldPosition).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(m.dimension)))
}

func (m *MilvusIndex) EnsureCollection(ctx context.Context) error {
	if m.collection == "" {
		return errors.New("empty collection name")
	}
	exists, err := m.client.HasCollection(ctx, m.collection)
	if err != nil {
		return fmt.Errorf("checking milvus collection: %w", err)
	}
	if !exists {
		m.logger.Info("Creating collection", "dimension", m.dimension)
		if err := m.client.CreateCollection(ctx, m.schema(), config.MilvusShardNumber); err != nil {
			return fmt.Errorf("creating milvus collection: %w", err)
		}
		idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
		if err != nil {
			return err
		}
		if err := m.client.CreateIndex(ctx, m.collection, FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("creating milvus index on %s: %w", FieldEmbedding, err)
		}
	}
	if err := m.client.LoadCollection(ctx, m.collection, false); err != nil {
		return fmt.Errorf("loading milvus collection: %w", err)
	}
	return nil
}

func (m *MilvusIndex) Upsert(ctx context.Context, chunks []commonModels.Chunk) (int, error) {
	loggr := m.logger.With("traceId", utils.GetTraceId(ctx))
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := vectorDB.CheckBatch(chunks, m.dimension); err != nil {
		return 0, vectorDB.NewUploadError(backendName, err)
	}
	if err := checkLengths(chunks); err != nil {
		loggr.Warn("batch exceeds milvus varchar limits", "rows", len(chunks), "error", err)
		return 0, vectorDB.NewUploadError(backendName, err)
	}

	cols := toColumns(chunks, m.dimension)
	ids, err := m.client.Upsert(ctx, m.collection, "", cols...)
	if err != nil {
		loggr.Error("milvus upsert failed", "rows", len(chunks), "error", err)
		return 0, vectorDB.NewUploadError(backendName, err)
	}

	accepted := len(chunks)
	if ids != nil {
		accepted = ids.Len()
	}
	loggr.Debug("milvus upsert done", "rows", accepted)
	return accepted, nil
}

// checkLengths rejects values longer than the schema's VarChar limits, which
// are counted in bytes.
func checkLengths(chunks []commonModels.Chunk) error {
	for _, c := range chunks {
		switch {
		case len(c.Id) > idMaxLength:
			return fmt.Errorf("chunk id is %d bytes, limit is %d", len(c.Id), idMaxLength)
		case len(c.Content) > contentMaxLength:
			return fmt.Errorf("chunk %s: content is %d bytes, limit is %d", c.Id, len(c.Content), contentMaxLength)
		case len(c.Metadata.Source) > sourceMaxLength:
			return fmt.Errorf("chunk %s: source is %d bytes, limit is %d", c.Id, len(c.Metadata.Source), sourceMaxLength)
		}
	}
	return nil
}

func toColumns(chunks []commonModels.Chunk, dimension int) []entity.Column {
	n := len(chunks)
	ids := make([]string, n)
	contents := make([]string, n)
	sources := make([]string, n)
	types := make([]string, n)
	units := make([]string, n)
	positions := make([]int64, n)
	vectors := make([][]float32, n)

	for i, c := range chunks {
		ids[i] = c.Id
		contents[i] = c.Content
		sources[i] = c.Metadata.Source
		types[i] = string(c.Metadata.Type)
		units[i] = c.Metadata.Unit()
		positions[i] = int64(c.Metadata.Position())
		vectors[i] = c.Embedding
	}

	return []entity.Column{
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldContent, contents),
		entity.NewColumnVarChar(FieldSource, sources),
		entity.NewColumnVarChar(FieldType, types),
		entity.NewColumnVarChar(FieldUnit, units),
		entity.NewColumnInt64(FieldPosition, positions),
		entity.NewColumnFloatVector(FieldEmbedding, dimension, vectors),
	}
}
