package documents

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/models"
)

func newTestDocuments() *Service {
	config := common.NewDefaultConfig()
	return NewService(&config.Documents, arbor.NewLogger())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeTestPDF generates a single-page PDF fixture.
func writeTestPDF(t *testing.T, dir, name, line string) string {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 10, line)

	path := filepath.Join(dir, name)
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

func TestLoadFile_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "refund_policy.txt", "Refunds are accepted within 30 days.\n")

	doc, err := newTestDocuments().LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, models.FormatText, doc.Format)
	assert.Equal(t, "refund_policy", doc.Title)
	assert.Equal(t, path, doc.SourcePath)
	assert.Contains(t, doc.RawText, "30 days")
	assert.Equal(t, common.NewDocumentID(path), doc.ID)
}

func TestLoadFile_MarkdownStripped(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "leave_policy.md", "# Leave Policy\n\nEmployees accrue **20 days** of leave.\n\n- Submit requests [here](https://hr.example)\n")

	doc, err := newTestDocuments().LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, models.FormatMarkdown, doc.Format)
	assert.Contains(t, doc.RawText, "Leave Policy")
	assert.Contains(t, doc.RawText, "20 days")
	// Markup syntax does not survive extraction
	assert.NotContains(t, doc.RawText, "**")
	assert.NotContains(t, doc.RawText, "](")
}

func TestLoadFile_PDF(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPDF(t, dir, "policy.pdf", "Refunds are accepted within 30 days.")

	doc, err := newTestDocuments().LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, models.FormatPDF, doc.Format)
	assert.NotEmpty(t, doc.RawText)
	assert.Contains(t, doc.RawText, "30 days")
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "logo.png", "not a document")

	_, err := newTestDocuments().LoadFile(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestLoadFile_StableID(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "policy.txt", "content")
	svc := newTestDocuments()

	first, err := svc.LoadFile(context.Background(), path)
	require.NoError(t, err)
	second, err := svc.LoadFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestLoadDirectory_CollectsFailuresAndContinues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_policy.txt", "Policy A content.")
	writeFile(t, dir, "b_policy.md", "# Policy B\n\nContent.")
	writeFile(t, dir, "image.png", "binary junk")
	writeFile(t, dir, "broken.pdf", "this is not a pdf")
	writeFile(t, dir, "empty.txt", "   \n")

	docs, failures, err := newTestDocuments().LoadDirectory(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	// Name order keeps repeated ingests deterministic
	assert.Equal(t, "a_policy", docs[0].Title)
	assert.Equal(t, "b_policy", docs[1].Title)

	require.Len(t, failures, 3)
	failedPaths := make(map[string]bool)
	for _, f := range failures {
		failedPaths[filepath.Base(f.Path)] = true
		assert.NotEmpty(t, f.Reason)
	}
	assert.True(t, failedPaths["image.png"])
	assert.True(t, failedPaths["broken.pdf"])
	assert.True(t, failedPaths["empty.txt"])
}

func TestLoadDirectory_MissingDirectory(t *testing.T) {
	_, _, err := newTestDocuments().LoadDirectory(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestSupported(t *testing.T) {
	svc := newTestDocuments()

	assert.True(t, svc.Supported("a.txt"))
	assert.True(t, svc.Supported("a.MD"))
	assert.True(t, svc.Supported("a.pdf"))
	assert.False(t, svc.Supported("a.png"))
	assert.False(t, svc.Supported("a"))
}
