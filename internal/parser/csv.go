package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/revyard/quizgest/internal/doctree"
)

// CSVParser handles CSV quiz exports. Each row is one question:
//
//	number, question, choice..., answer
//
// The answer cell names the correct choice(s) by text, semicolon-separated
// when there are several. Rows shorter than four cells carry no choices.
// The synthesized tree marks matching list items with the correctness class,
// so the one extraction engine serves this format too.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := newQuizTreeBuilder()
	seq := 0
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		numCell := strings.TrimSpace(row[0])
		num, numErr := strconv.Atoi(numCell)
		if numErr != nil {
			// A non-numeric first cell on the first row is a header.
			if i == 0 {
				continue
			}
			seq++
			num = seq
		} else {
			seq = num
		}

		question := strings.TrimSpace(row[1])
		if question == "" {
			continue
		}
		b.AddLine(fmt.Sprintf("%d. %s", num, question))

		if len(row) < 4 {
			continue
		}
		choices := row[2 : len(row)-1]
		answers := splitAnswerCell(row[len(row)-1])
		for _, choice := range choices {
			choice = strings.TrimSpace(choice)
			if choice == "" {
				continue
			}
			b.AddListItem(choice, answers[strings.ToLower(choice)])
		}
	}

	title := strings.TrimSuffix(filename, filepath.Ext(filename))
	return b.Document(title), nil
}

func splitAnswerCell(cell string) map[string]bool {
	answers := make(map[string]bool)
	for _, a := range strings.Split(cell, ";") {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			answers[a] = true
		}
	}
	return answers
}
