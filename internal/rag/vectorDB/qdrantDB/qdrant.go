package qdrantDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/akolanti/GoIngest/internal/rag/vectorDB"
	"github.com/akolanti/GoIngest/pkg/logger_i"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const backendName = "qdrant"

// chunk ids are arbitrary strings, qdrant only takes uuids or integers
var pointNamespace = uuid.MustParse("6f3c1e4a-2b8d-5c7e-9a10-4d2f8b6e1c35")

// qdrantAPI is the part of *qdrant.Client the index uses.
type qdrantAPI interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Close() error
}

type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Dimension  int
}

type ClientHolder struct {
	QObj       qdrantAPI
	collection string
	dimension  int
	logger     *logger_i.Logger
}

var _ vectorDB.Index = (*ClientHolder)(nil)

// GetQuadrantClient dials qdrant and closes the connection when ctx ends.
func GetQuadrantClient(ctx context.Context, cfg Config) (*ClientHolder, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		APIKey:   cfg.APIKey,
		UseTLS:   cfg.UseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		return nil, fmt.Errorf("could not instantiate qdrant client: %w", err)
	}

	holder := newHolder(client, cfg)
	go closeQdrant(ctx, holder)
	return holder, nil
}

func newHolder(api qdrantAPI, cfg Config) *ClientHolder {
	return &ClientHolder{
		QObj:       api,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		logger:     logger_i.NewLogger("Qdrant").With("collection", cfg.Collection),
	}
}

func closeQdrant(ctx context.Context, db *ClientHolder) {
	<-ctx.Done()
	db.logger.Info("Shutting down Qdrant")
	err := db.QObj.Close()
	if err != nil {
		db.logger.Error("could not close Qdrant: ", "error:", err)
	}
	db.logger.Info("Closed Qdrant")
}

func (db *ClientHolder) EnsureCollection(ctx context.Context) error {
	if db.collection == "" {
		return errors.New("empty collection name")
	}

	exists, err := db.QObj.CollectionExists(ctx, db.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	db.logger.Info("Creating collection", "dimension", db.dimension)
	return db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: db.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(db.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *ClientHolder) Upsert(ctx context.Context, chunks []commonModels.Chunk) (int, error) {
	loggr := db.logger.With("traceId", utils.GetTraceId(ctx))
	if len(chunks) == 0 {
		return 0, nil
	}
	if err := vectorDB.CheckBatch(chunks, db.dimension); err != nil {
		return 0, vectorDB.NewUploadError(backendName, err)
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		p, err := toPoint(chunk)
		if err != nil {
			return 0, vectorDB.NewUploadError(backendName, err)
		}
		points[i] = p
	}

	result, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		loggr.Error("qdrant upsert failed", "points", len(points), "error", err)
		return 0, vectorDB.NewUploadError(backendName, err)
	}
	if result.GetStatus() != qdrant.UpdateStatus_Completed {
		return 0, vectorDB.NewUploadError(backendName, fmt.Errorf("upsert finished with status %s", result.GetStatus()))
	}

	loggr.Debug("qdrant upsert done", "points", len(points))
	return len(points), nil
}

// PointId maps a chunk id onto a stable UUIDv5.
func PointId(chunkId string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkId)).String()
}

func toPoint(chunk commonModels.Chunk) (*qdrant.PointStruct, error) {
	payload := map[string]any{
		"chunk_id": chunk.Id,
		"content":  chunk.Content,
		"source":   chunk.Metadata.Source,
		"type":     string(chunk.Metadata.Type),
	}
	if chunk.Metadata.Page != nil {
		payload["page"] = int64(*chunk.Metadata.Page)
	}
	if chunk.Metadata.Row != nil {
		payload["row"] = int64(*chunk.Metadata.Row)
	}

	values, err := qdrant.TryValueMap(payload)
	if err != nil {
		return nil, fmt.Errorf("chunk %s payload: %w", chunk.Id, err)
	}

	return &qdrant.PointStruct{
		Id:      qdrant.NewID(PointId(chunk.Id)),
		Vectors: qdrant.NewVectors(chunk.Embedding...),
		Payload: values,
	}, nil
}
