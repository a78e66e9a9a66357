package extract

import (
	"strings"

	"github.com/revyard/quizgest/internal/doctree"
)

// Extract runs the whole engine over a parsed document: discover markers,
// associate each with an image, choices and a pre block, and assemble
// records. Output order is the ascending question-number order of the
// markers. Unrecognized layouts drop out silently; the validation pass
// reports on what remains.
func Extract(doc *doctree.Document) []Record {
	return ExtractTree(doc.Root)
}

// ExtractTree is Extract over a bare tree.
func ExtractTree(root *doctree.Node) []Record {
	markers := DiscoverMarkers(root)
	records := make([]Record, 0, len(markers))
	for _, m := range markers {
		img, _ := FindImage(m)
		res := ExtractChoices(m, m.Number+1)
		if rec, ok := Assemble(m, img, res); ok {
			records = append(records, rec)
		}
	}
	return records
}

// Assemble folds one marker's findings into a record. Markers with choices
// become regular records. Markers without choices become special records
// when the question says the answer lives in an image (matching and
// as-presented layouts), and are dropped otherwise.
func Assemble(m Marker, img string, res ChoiceResult) (Record, bool) {
	rec := Record{
		Question: m.Text,
		Image:    img,
		Pre:      res.Pre,
	}

	if len(res.Choices) > 0 {
		rec.Choices = make([]string, 0, len(res.Choices))
		var correct []string
		for _, c := range res.Choices {
			rec.Choices = append(rec.Choices, c.Text)
			if c.Correct {
				correct = append(correct, c.Text)
			}
		}
		rec.Answer = Answer{Values: correct}
		return rec, true
	}

	lower := strings.ToLower(m.Text)
	if strings.Contains(lower, "match") || strings.Contains(lower, "question as presented") {
		rec.Special = true
		rec.Choices = []string{}
		rec.Answer = Answer{Values: []string{SpecialAnswer}}
		return rec, true
	}
	return Record{}, false
}
