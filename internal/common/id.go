package common

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// NewDocumentID derives a stable document ID from the source path.
// Format: doc_<sha256 prefix>. Re-ingesting the same file yields the
// same ID, so index upserts overwrite rather than duplicate.
func NewDocumentID(sourcePath string) string {
	normalized := strings.ToLower(filepath.ToSlash(filepath.Clean(sourcePath)))
	sum := sha256.Sum256([]byte(normalized))
	return "doc_" + hex.EncodeToString(sum[:])[:16]
}

// NewChunkID derives a stable chunk ID from its document and position.
// Format: <document_id>_<char_offset>
func NewChunkID(documentID string, charOffset int) string {
	return fmt.Sprintf("%s_%d", documentID, charOffset)
}

// NewReportID generates a unique evaluation report ID with the "eval_" prefix
// Format: eval_<uuid>
func NewReportID() string {
	return "eval_" + uuid.New().String()
}
