package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/revyard/quizgest/internal/doctree"
)

// Parser converts raw document bytes into a markup tree the extraction
// engine can walk. Non-HTML formats synthesize an HTML-shaped tree so the
// engine stays format-agnostic.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// Options tune format-specific parsing. The zero value is usable.
type Options struct {
	// ContentSelector narrows HTML documents to a content root before
	// extraction, e.g. "div.entry-content". Empty means whole document.
	ContentSelector string
	// PDFTextFallback enables shelling out to pdftotext when the native
	// PDF reader yields no text.
	PDFTextFallback bool
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{ContentSelector: opts.ContentSelector}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{ContentSelector: opts.ContentSelector}, nil
	case ".pdf":
		return &PDFParser{TextFallback: opts.PDFTextFallback}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
