package chunker

import (
	"unicode"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/models"
)

// Service splits documents into bounded, overlapping chunks. Offsets and
// sizes are measured in runes so multi-byte text never splits mid-character.
type Service struct {
	size    int
	overlap int
	logger  arbor.ILogger
}

// Compile-time interface assertion
var _ interfaces.ChunkerService = (*Service)(nil)

// NewService creates a new chunking service
func NewService(config *common.ChunkingConfig, logger arbor.ILogger) *Service {
	return &Service{
		size:    config.Size,
		overlap: config.Overlap,
		logger:  logger,
	}
}

// Split divides a document into chunks of at most the configured size,
// carrying the configured overlap between adjacent chunks. Splitting is
// deterministic: the same document always produces the same chunks with
// the same IDs.
//
// Boundaries prefer whitespace: when a chunk would end mid-word, the cut
// moves back to the nearest newline (first choice) or space within the
// final fifth of the window.
func (s *Service) Split(doc *models.Document) []models.Chunk {
	runes := []rune(doc.RawText)
	if len(runes) == 0 {
		return nil
	}

	if len(runes) <= s.size {
		return []models.Chunk{s.newChunk(doc, runes, 0, len(runes))}
	}

	var chunks []models.Chunk
	start := 0

	for start < len(runes) {
		end := start + s.size
		if end >= len(runes) {
			chunks = append(chunks, s.newChunk(doc, runes, start, len(runes)))
			break
		}

		end = softBoundary(runes, start, end)
		chunks = append(chunks, s.newChunk(doc, runes, start, end))

		// Rewind by the overlap, guaranteeing forward progress
		next := end - s.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	s.logger.Debug().
		Str("document_id", doc.ID).
		Int("chars", len(runes)).
		Int("chunks", len(chunks)).
		Msg("Split document into chunks")

	return chunks
}

// softBoundary moves a cut point back to the nearest whitespace within
// the final fifth of the window. Newlines win over spaces; a window with
// neither is cut at the hard limit.
func softBoundary(runes []rune, start, end int) int {
	minEnd := end - (end-start)/5
	if minEnd <= start {
		return end
	}

	for i := end - 1; i >= minEnd; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i >= minEnd; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

func (s *Service) newChunk(doc *models.Document, runes []rune, start, end int) models.Chunk {
	return models.Chunk{
		ChunkID:    common.NewChunkID(doc.ID, start),
		DocumentID: doc.ID,
		SourcePath: doc.SourcePath,
		Text:       string(runes[start:end]),
		CharOffset: start,
		Length:     end - start,
	}
}
