package models

import (
	"time"
)

// DocumentFormat identifies the source format of an ingested document
type DocumentFormat string

const (
	// FormatText is a plain text document (.txt)
	FormatText DocumentFormat = "text"
	// FormatMarkdown is a markdown document (.md, .markdown)
	FormatMarkdown DocumentFormat = "markdown"
	// FormatPDF is a PDF document (.pdf)
	FormatPDF DocumentFormat = "pdf"
)

// Document represents a normalized policy document loaded from disk.
// Immutable once loaded; ID is derived from the source path so
// re-ingesting the same file always produces the same identity.
type Document struct {
	ID         string         `json:"id"`          // doc_{sha256(source_path) prefix}
	SourcePath string         `json:"source_path"` // Path the document was loaded from
	Title      string         `json:"title"`       // File name without extension
	RawText    string         `json:"raw_text"`    // Extracted plain text content
	Format     DocumentFormat `json:"format"`      // text, markdown, pdf
	LoadedAt   time.Time      `json:"loaded_at"`
}

// Chunk is a bounded contiguous fragment of a document's text, the unit
// of embedding and retrieval. ChunkID is derived from (DocumentID,
// CharOffset) so chunking the same document twice yields identical ids.
type Chunk struct {
	ChunkID    string `json:"chunk_id"` // {document_id}_{char_offset}
	DocumentID string `json:"document_id"`
	SourcePath string `json:"source_path"`
	Text       string `json:"text"`
	CharOffset int    `json:"char_offset"` // Rune offset of the first character in the document
	Length     int    `json:"length"`      // Length of Text in runes
}

// EmbeddedChunk pairs a chunk with its embedding vector. Owned by the
// vector index after upsert; the pipeline keeps no copy past ingest.
type EmbeddedChunk struct {
	Chunk
	Vector []float32 `json:"vector"`
}

// ScoredPassage is a retrieval hit: a chunk's text plus its similarity
// score for one query. Transient, never persisted.
type ScoredPassage struct {
	ChunkID    string  `json:"chunk_id"`
	SourcePath string  `json:"source_path"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"` // Cosine similarity, descending within one retrieval
}

// ContextBlock is the rendered, citation-tagged context handed to the
// answer generator. Passages preserve retrieval order; Text is the
// rendered block with one citation marker per passage.
type ContextBlock struct {
	Passages  []ScoredPassage `json:"passages"`
	Text      string          `json:"text"`
	Chars     int             `json:"chars"`     // Rendered length of Text in runes
	Truncated bool            `json:"truncated"` // True when at least one passage was dropped for budget
}

// IsEmpty reports whether the block carries no usable context.
func (b ContextBlock) IsEmpty() bool {
	return len(b.Passages) == 0
}

// Sources returns the unique source paths of the included passages,
// in first-appearance order.
func (b ContextBlock) Sources() []string {
	seen := make(map[string]bool, len(b.Passages))
	sources := make([]string, 0, len(b.Passages))
	for _, p := range b.Passages {
		if !seen[p.SourcePath] {
			seen[p.SourcePath] = true
			sources = append(sources, p.SourcePath)
		}
	}
	return sources
}

// IngestFailure records one file the ingest could not process. Failures
// are collected and reported per document; they never abort the batch.
type IngestFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// IngestStats summarizes one ingest run for logging and the CLI.
type IngestStats struct {
	Documents      int             `json:"documents"`
	Chunks         int             `json:"chunks"`
	Upserted       int             `json:"upserted"`
	Failures       []IngestFailure `json:"failures,omitempty"` // Unreadable, unsupported, or unembeddable files
	StartedAt      time.Time       `json:"started_at"`
	DurationMillis int64           `json:"duration_millis"`
}
