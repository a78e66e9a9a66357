package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/revyard/quizgest/internal/doctree"
)

// HTMLParser handles HTML files. The whole markup tree is preserved, not
// just headings and text: the extraction engine needs tags, classes and
// inline styles to locate question markers, choices and answer highlights.
type HTMLParser struct {
	// ContentSelector optionally narrows the document to a content root
	// before extraction, e.g. "div.entry-content". Empty keeps the whole
	// document.
	ContentSelector string
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	cr, err := charset.NewReader(r, "")
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	root, err := html.Parse(cr)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := findTitle(root)
	if title == "" {
		title = strings.TrimSuffix(filename, filepath.Ext(filename))
	}

	content := root
	if p.ContentSelector != "" {
		sel := goquery.NewDocumentFromNode(root).Find(p.ContentSelector)
		if len(sel.Nodes) == 0 {
			return nil, fmt.Errorf("content selector %q matched nothing in %s", p.ContentSelector, filename)
		}
		content = sel.Nodes[0]
	}

	return &doctree.Document{Title: title, Root: convertTree(content)}, nil
}

// convertTree maps an x/net/html subtree onto the neutral doctree form.
// Script, style and similar non-content elements are dropped here so the
// extraction engine never sees them.
func convertTree(src *html.Node) *doctree.Node {
	if src.Type == html.DocumentNode {
		var first *html.Node
		for c := src.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				first = c
				break
			}
		}
		if first == nil {
			return doctree.NewElement("html", nil)
		}
		src = first
	}
	dst := doctree.NewElement(src.Data, attrMap(src.Attr))
	copyChildren(src, dst)
	return dst
}

var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
}

func copyChildren(src *html.Node, dst *doctree.Node) {
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			dst.AppendChild(doctree.NewText(c.Data))
		case html.ElementNode:
			if skipElements[c.Data] {
				continue
			}
			el := doctree.NewElement(c.Data, attrMap(c.Attr))
			dst.AppendChild(el)
			copyChildren(c, el)
		}
	}
}

func attrMap(attrs []html.Attribute) map[string]string {
	if len(attrs) == 0 {
		return nil
	}
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Val
	}
	return m
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(rawText(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func rawText(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}
