package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/revyard/quizgest/internal/doctree"
)

// MarkdownParser handles Markdown files using goldmark. The source renders
// to HTML and feeds through the HTML parser, so Markdown quiz dumps share
// one extraction path with native HTML. Raw HTML blocks pass through
// unsanitized: exported quizzes embed img tags and styled spans that the
// extraction rules depend on.
type MarkdownParser struct {
	ContentSelector string
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New(
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	hp := &HTMLParser{ContentSelector: p.ContentSelector}
	return hp.Parse(&buf, filename)
}
