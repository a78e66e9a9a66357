package parser

import (
	"regexp"
	"strings"

	"github.com/revyard/quizgest/internal/doctree"
)

// questionLine matches lines that open a question, e.g. "12. What does ...".
// The same numbering convention the extraction engine keys on.
var questionLine = regexp.MustCompile(`^\d+\.\s`)

// quizTreeBuilder synthesizes a quiz-shaped markup tree from flat content.
// Question lines become bold marker paragraphs; continuation lines become
// br-separated sibling text inside the same paragraph, the layout the
// extraction engine's sibling fallback consumes; explicit list items become
// a ul following the question paragraph, the layout its primary strategy
// consumes.
type quizTreeBuilder struct {
	body   *doctree.Node
	marker *doctree.Node // bold node of the current question paragraph
	list   *doctree.Node // open ul, nil when none
}

func newQuizTreeBuilder() *quizTreeBuilder {
	return &quizTreeBuilder{body: doctree.NewElement("body", nil)}
}

// AddLine feeds one line of flat text. Blank lines are ignored.
func (b *quizTreeBuilder) AddLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	b.list = nil
	if questionLine.MatchString(line) {
		p := doctree.NewElement("p", nil)
		bold := doctree.NewElement("strong", nil)
		bold.AppendChild(doctree.NewText(line))
		p.AppendChild(bold)
		b.body.AppendChild(p)
		b.marker = bold
		return
	}
	if b.marker == nil {
		// Preamble before the first question keeps its own paragraph.
		p := doctree.NewElement("p", nil)
		p.AppendChild(doctree.NewText(line))
		b.body.AppendChild(p)
		return
	}
	para := b.marker.Parent
	para.AppendChild(doctree.NewElement("br", nil))
	para.AppendChild(doctree.NewText(line))
}

// AddListItem appends a choice to the list following the current question,
// opening the list if needed. Correct items carry the class token the
// extraction engine recognizes.
func (b *quizTreeBuilder) AddListItem(text string, correct bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if b.list == nil {
		b.list = doctree.NewElement("ul", nil)
		b.body.AppendChild(b.list)
	}
	var attr map[string]string
	if correct {
		attr = map[string]string{"class": "correct_answer"}
	}
	li := doctree.NewElement("li", attr)
	li.AppendChild(doctree.NewText(text))
	b.list.AppendChild(li)
}

// Document finalizes the tree.
func (b *quizTreeBuilder) Document(title string) *doctree.Document {
	return &doctree.Document{Title: title, Root: b.body}
}

// treeFromLines builds a quiz tree from flat text lines. Text formats carry
// no correctness signal, so records extracted from them surface Unknown
// answers for the validation pass to flag.
func treeFromLines(title string, lines []string) *doctree.Document {
	b := newQuizTreeBuilder()
	for _, line := range lines {
		b.AddLine(line)
	}
	return b.Document(title)
}

// splitLines breaks raw text into lines, tolerating \r\n endings and form
// feeds (PDF page separators).
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")
	return strings.Split(text, "\n")
}
