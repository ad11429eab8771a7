package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/akolanti/GoIngest/internal/adapter/utils"
	"github.com/akolanti/GoIngest/internal/config"
	"github.com/akolanti/GoIngest/internal/domain/commonModels"
	"github.com/akolanti/GoIngest/internal/metrics"
	"github.com/akolanti/GoIngest/internal/rag/embedding"
	"github.com/akolanti/GoIngest/internal/rag/vectorDB"
	"github.com/akolanti/GoIngest/pkg/logger_i"
	"github.com/panjf2000/ants/v2"
)

// Pipeline drives one file through detect, chunk, embed and upsert.
// It keeps no per-file state, so one Pipeline serves every worker.
type Pipeline struct {
	assembler   *Assembler
	index       vectorDB.Index
	concurrency int
	pool        *ants.Pool
	pageTimeout time.Duration
	logger      *logger_i.Logger
}

type Option func(*Pipeline)

// WithConcurrency bounds parallel embedding calls across all files.
// 1 keeps the calls strictly sequential.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

func WithPageTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.pageTimeout = d
	}
}

func NewPipeline(e embedding.Embedder, index vectorDB.Index, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		assembler:   NewAssembler(e),
		index:       index,
		concurrency: 1,
		pageTimeout: config.PageExtractTimeout,
		logger:      logger_i.NewLogger("Document Ingestion"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.concurrency > 1 {
		pool, err := ants.NewPool(p.concurrency)
		if err != nil {
			return nil, fmt.Errorf("creating embedding pool: %w", err)
		}
		p.pool = pool
	}
	return p, nil
}

// Release frees the embedding pool.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}

// Ingest runs one file to a terminal state. Unsupported files and files with
// no valid chunks return a nil error. Any failure before the upload leaves the
// index untouched.
func (p *Pipeline) Ingest(ctx context.Context, in commonModels.RawInput) (commonModels.IngestionResult, error) {
	fileName := in.FileName()
	log := p.logger.With("traceId", utils.GetTraceId(ctx), "file", fileName)

	result := commonModels.IngestionResult{FileName: fileName}
	docType := DetectFormat(fileName)
	result.Type = docType
	if docType.Kind() == commonModels.KindUnsupported {
		result.State = commonModels.StateUnsupported
		result.Reason = "unsupported file type"
		log.Info("Skipping file with unsupported type", "path", in.Path)
		return p.finish(result), nil
	}

	if detected, mismatch := SniffMismatch(docType, in.Data); mismatch {
		log.Warn("Content does not look like its extension", "type", docType, "detected", detected)
	}

	units, err := p.chunk(docType, in.Data)
	if err != nil {
		result.State = commonModels.StateParseFailed
		result.Reason = err.Error()
		log.Error("Error extracting document content", "error", err)
		return p.finish(result), fmt.Errorf("ingesting %s: %w", fileName, err)
	}
	log.Debug("Processing document", "type", docType, "units", len(units))

	chunks, err := p.embedAll(ctx, fileName, docType, units)
	if err != nil {
		result.State = commonModels.StateEmbeddingFailed
		result.Reason = err.Error()
		log.Error("Embedding failed, nothing uploaded", "units", len(units), "error", err)
		return p.finish(result), fmt.Errorf("ingesting %s: %w", fileName, err)
	}

	result.ChunksProduced = len(chunks)
	if len(chunks) == 0 {
		result.State = commonModels.StateNoValidChunks
		result.Reason = "no valid chunks"
		log.Info("No valid chunks produced", "type", docType)
		return p.finish(result), nil
	}

	start := time.Now()
	accepted, err := p.index.Upsert(ctx, chunks)
	metrics.CaptureExecutionMetrics("index_upsert", time.Since(start))
	if err != nil {
		result.State = commonModels.StateUploadFailed
		result.Reason = err.Error()
		log.Error("Upload to index failed", "chunks", len(chunks), "error", err)
		return p.finish(result), fmt.Errorf("ingesting %s: %w", fileName, err)
	}

	result.State = commonModels.StateDone
	result.ChunksAccepted = accepted
	log.Info("Indexed document", "type", docType, "chunks", len(chunks), "accepted", accepted)
	return p.finish(result), nil
}

func (p *Pipeline) finish(result commonModels.IngestionResult) commonModels.IngestionResult {
	metrics.CaptureIngestionOutcome(string(result.Type), string(result.State), result.ChunksProduced, result.ChunksAccepted)
	return result
}

func (p *Pipeline) chunk(docType commonModels.DocType, data []byte) ([]commonModels.RawUnit, error) {
	switch docType {
	case commonModels.CSV:
		return chunkCSV(data)
	case commonModels.XLSX:
		return chunkXLSX(data)
	case commonModels.PDF:
		return p.extractPDF(data)
	default:
		return nil, fmt.Errorf("unsupported content type: %q", docType)
	}
}

// embedAll keeps source order. The first failure stops the remaining units.
func (p *Pipeline) embedAll(ctx context.Context, fileName string, docType commonModels.DocType, units []commonModels.RawUnit) ([]commonModels.Chunk, error) {
	if p.pool == nil || len(units) < 2 {
		chunks := make([]commonModels.Chunk, 0, len(units))
		for _, u := range units {
			c, err := p.assemble(ctx, fileName, docType, u)
			if err != nil {
				return nil, err
			}
			chunks = append(chunks, c)
		}
		return chunks, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks := make([]commonModels.Chunk, len(units))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, u := range units {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			c, err := p.assemble(ctx, fileName, docType, u)
			if err != nil {
				fail(err)
				return
			}
			chunks[i] = c
		})
		if err != nil {
			wg.Done()
			fail(fmt.Errorf("submitting embedding task: %w", err))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return chunks, nil
}

func (p *Pipeline) assemble(ctx context.Context, fileName string, docType commonModels.DocType, u commonModels.RawUnit) (commonModels.Chunk, error) {
	start := time.Now()
	c, err := p.assembler.Assemble(ctx, fileName, docType, u)
	metrics.CaptureExecutionMetrics("embedding", time.Since(start))
	if err != nil {
		return commonModels.Chunk{}, fmt.Errorf("%s unit %d: %w", docType.Kind().UnitLabel(), u.Position, err)
	}
	return c, nil
}
