package ingest

import (
	"context"
	"fmt"

	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/akolanti/GoIngest/internal/rag/embedding"
)

// Assembler turns a raw unit into a Chunk with exactly one embedding call.
type Assembler struct {
	embedder embedding.Embedder
}

func NewAssembler(e embedding.Embedder) *Assembler {
	return &Assembler{embedder: e}
}

// ChunkId is "<file>_<row|page>_<position>", stable across re-ingestion.
func ChunkId(fileName string, docType commonModels.DocType, position int) string {
	return fmt.Sprintf("%s_%s_%d", fileName, docType.Kind().UnitLabel(), position)
}

// Assemble returns embedding errors unchanged and never a partial Chunk.
func (a *Assembler) Assemble(ctx context.Context, fileName string, docType commonModels.DocType, unit commonModels.RawUnit) (commonModels.Chunk, error) {
	vector, err := a.embedder.GetEmbedding(ctx, unit.Content)
	if err != nil {
		return commonModels.Chunk{}, err
	}

	position := unit.Position
	meta := commonModels.ChunkMetadata{Source: fileName, Type: docType}
	if docType.Kind() == commonModels.KindPagedDocument {
		meta.Page = &position
	} else {
		meta.Row = &position
	}

	return commonModels.Chunk{
		Id:        ChunkId(fileName, docType, unit.Position),
		Content:   unit.Content,
		Embedding: vector,
		Metadata:  meta,
	}, nil
}
