package parser

import (
	"strings"
	"testing"

	"github.com/revyard/quizgest/internal/doctree"
)

func TestTextParser_QuestionLayout(t *testing.T) {
	input := "Chapter exam dump\n\n1. What does X do?\nchoice a\nchoice b\n\n2. Second question?\nonly choice\n"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "exam.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "exam" {
		t.Errorf("expected title %q, got %q", "exam", doc.Title)
	}

	paras := doc.Root.Children("p")
	if len(paras) != 3 {
		t.Fatalf("expected 3 paragraphs (preamble + 2 questions), got %d", len(paras))
	}

	// Preamble stays its own paragraph with no bold marker.
	if got := paras[0].FindFirst("strong", "b"); got != nil {
		t.Errorf("preamble paragraph has bold child %v, want none", got.Tag)
	}

	q1 := paras[1]
	bold := q1.FirstChild
	if bold == nil || !bold.Is("strong") {
		t.Fatalf("first question paragraph starts with %+v, want strong", bold)
	}
	if got := bold.Text(); got != "1. What does X do?" {
		t.Errorf("marker text = %q, want %q", got, "1. What does X do?")
	}

	// Choice lines sit after the marker as br-separated text siblings.
	var texts []string
	for s := bold.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == doctree.TextNode {
			texts = append(texts, s.Data)
		} else if !s.Is("br") {
			t.Errorf("unexpected element sibling %q inside question paragraph", s.Tag)
		}
	}
	if len(texts) != 2 || texts[0] != "choice a" || texts[1] != "choice b" {
		t.Errorf("choice text siblings = %v, want [choice a choice b]", texts)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if doc.Root.FirstChild != nil {
		t.Errorf("expected empty tree, got first child %+v", doc.Root.FirstChild)
	}
}

func TestTextParser_BlankAndWhitespaceLines(t *testing.T) {
	input := "1. Q?\n   \n\nchoice\n"
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	paras := doc.Root.Children("p")
	if len(paras) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paras))
	}
	// Blank lines vanish; the choice still attaches to the question.
	if got := paras[0].Text(); !strings.Contains(got, "choice") {
		t.Errorf("paragraph text = %q, want it to contain the choice line", got)
	}
}
