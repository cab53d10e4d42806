package documents

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var blankLinesPattern = regexp.MustCompile(`\n{3,}`)

// markdownToText converts markdown to plain text by walking the parsed
// AST and keeping textual content only. Headings, paragraphs, and list
// items become newline-separated blocks so chunk boundaries stay close
// to semantic boundaries.
func markdownToText(source []byte) string {
	md := goldmark.New(
		goldmark.WithExtensions(extension.Table, extension.Strikethrough, extension.Linkify),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	doc := md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Text:
			if entering {
				b.Write(node.Text(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					b.WriteByte('\n')
				}
			}

		case *ast.Heading:
			if !entering {
				b.WriteString("\n\n")
			}

		case *ast.Paragraph:
			if !entering {
				b.WriteString("\n\n")
			}

		case *ast.ListItem:
			if entering {
				b.WriteString("- ")
			}

		case *ast.FencedCodeBlock:
			if entering {
				writeCodeLines(&b, node, source)
			}

		case *ast.CodeBlock:
			if entering {
				writeCodeLines(&b, node, source)
			}

		case *extast.TableCell:
			if !entering {
				b.WriteByte(' ')
			}

		case *extast.TableRow, *extast.TableHeader:
			if !entering {
				b.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})

	collapsed := blankLinesPattern.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(collapsed)
}

// writeCodeLines copies the raw lines of a code block node
func writeCodeLines(b *strings.Builder, node ast.Node, source []byte) {
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		b.Write(segment.Value(source))
	}
	b.WriteByte('\n')
}
