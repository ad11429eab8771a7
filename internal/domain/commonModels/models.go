package commonModels

import "strings"

// RawInput is one file handed to the pipeline. Path is whatever the trigger
// reported (an upload name or an object key).
type RawInput struct {
	Path string
	Data []byte
}

// FileName is the final path segment; both separators are accepted since
// uploads from windows clients keep backslashes.
func (r RawInput) FileName() string {
	name := r.Path
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

type DocType string

const (
	CSV  DocType = "csv"
	XLSX DocType = "xlsx"
	PDF  DocType = "pdf"
	// Unsupported is the zero value
	Unsupported DocType = ""
)

type FormatKind int

const (
	KindUnsupported FormatKind = iota
	KindTabular
	KindPagedDocument
)

func (k FormatKind) String() string {
	switch k {
	case KindTabular:
		return "tabular"
	case KindPagedDocument:
		return "paged"
	default:
		return "unsupported"
	}
}

func (d DocType) Kind() FormatKind {
	switch d {
	case CSV, XLSX:
		return KindTabular
	case PDF:
		return KindPagedDocument
	default:
		return KindUnsupported
	}
}

// UnitLabel is the positional discriminator used in chunk ids and metadata.
func (k FormatKind) UnitLabel() string {
	if k == KindPagedDocument {
		return "page"
	}
	return "row"
}

// RawUnit is one row or page before embedding.
type RawUnit struct {
	Position int
	Content  string
}

type Chunk struct {
	Id        string        `json:"id"`
	Content   string        `json:"content"`
	Embedding []float32     `json:"embedding"`
	Metadata  ChunkMetadata `json:"metadata"`
}

// ChunkMetadata carries provenance. Exactly one of Row and Page is set.
type ChunkMetadata struct {
	Source string  `json:"source"`
	Type   DocType `json:"type"`
	Row    *int    `json:"row,omitempty"`
	Page   *int    `json:"page,omitempty"`
}

// Position returns the row or page index, whichever is set.
func (m ChunkMetadata) Position() int {
	if m.Page != nil {
		return *m.Page
	}
	if m.Row != nil {
		return *m.Row
	}
	return -1
}

func (m ChunkMetadata) Unit() string {
	if m.Page != nil {
		return "page"
	}
	return "row"
}

type IngestionState string

const (
	StateUnsupported     IngestionState = "Unsupported"
	StateNoValidChunks   IngestionState = "NoValidChunks"
	StateDone            IngestionState = "Done"
	StateParseFailed     IngestionState = "ParseFailed"
	StateEmbeddingFailed IngestionState = "EmbeddingFailed"
	StateUploadFailed    IngestionState = "UploadFailed"
)

// Failed reports whether the state is one of the error outcomes.
func (s IngestionState) Failed() bool {
	switch s {
	case StateParseFailed, StateEmbeddingFailed, StateUploadFailed:
		return true
	}
	return false
}

type IngestionResult struct {
	FileName       string         `json:"file_name"`
	Type           DocType        `json:"type,omitempty"`
	State          IngestionState `json:"state"`
	ChunksProduced int            `json:"chunks_produced"`
	ChunksAccepted int            `json:"chunks_accepted"`
	Reason         string         `json:"reason,omitempty"`
}
