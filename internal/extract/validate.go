package extract

import (
	"fmt"
	"net/url"
	"strings"
)

// Finding is the validation outcome for one record. Index is 1-based over
// the record sequence; Number is the question number parsed from the
// question text, 0 when absent.
type Finding struct {
	Index    int      `json:"index"`
	Number   int      `json:"number,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Report is the result of a validation pass.
type Report struct {
	Findings   []Finding `json:"findings,omitempty"`
	ErrorCount int       `json:"error_count"`
	WarnCount  int       `json:"warning_count"`
}

// OK reports whether the pass found no errors. Warnings alone still pass.
func (r Report) OK() bool {
	return r.ErrorCount == 0
}

// Validate runs the consumer quality contract over a record sequence and
// never mutates it. Errors mark records a quiz player cannot present
// faithfully; warnings mark suspicious but usable records.
func Validate(records []Record) Report {
	var rep Report
	seen := make(map[string]bool)

	for i, rec := range records {
		f := Finding{Index: i + 1}
		if num, ok := parseMarkerNumber(rec.Question); ok {
			f.Number = num
		}

		question := strings.TrimSpace(rec.Question)
		if len(question) <= 5 {
			f.Errors = append(f.Errors, fmt.Sprintf("question too short (%d chars)", len(question)))
		}
		// Duplicates compare on the lowered 100-char prefix: re-exported
		// dumps repeat questions with trailing edits.
		prefix := strings.ToLower(question)
		if len(prefix) > 100 {
			prefix = prefix[:100]
		}
		if seen[prefix] {
			f.Errors = append(f.Errors, "duplicate question")
		}
		seen[prefix] = true

		validateChoices(rec, &f)

		lower := strings.ToLower(rec.Question)
		if (strings.Contains(lower, "refer to the exhibit") || strings.Contains(lower, "refer to exhibit")) && rec.Image == "" {
			f.Warnings = append(f.Warnings, "refers to an exhibit but no image found")
		}
		if rec.Image != "" && !validImageURL(rec.Image) {
			f.Errors = append(f.Errors, "invalid image URL")
		}
		if rec.Special && rec.Image == "" {
			f.Warnings = append(f.Warnings, "special/match question without image")
		}

		if len(f.Errors) > 0 || len(f.Warnings) > 0 {
			rep.ErrorCount += len(f.Errors)
			rep.WarnCount += len(f.Warnings)
			rep.Findings = append(rep.Findings, f)
		}
	}
	return rep
}

func validateChoices(rec Record, f *Finding) {
	if len(rec.Choices) == 0 {
		if !rec.Special {
			f.Errors = append(f.Errors, "no choices and not marked as special")
		}
		return
	}

	switch {
	case len(rec.Choices) == 1:
		f.Warnings = append(f.Warnings, "only 1 choice")
	case len(rec.Choices) == 2 && !isTrueFalse(rec.Choices):
		f.Warnings = append(f.Warnings, "only 2 choices (not true/false)")
	}

	choiceSet := make(map[string]bool, len(rec.Choices))
	for _, c := range rec.Choices {
		if choiceSet[c] {
			f.Errors = append(f.Errors, "duplicate choices found")
			break
		}
		choiceSet[c] = true
	}

	if rec.Answer.Unknown() {
		f.Errors = append(f.Errors, "answer is unknown")
		return
	}
	if rec.Special {
		return
	}
	for _, ans := range rec.Answer.Values {
		if !choiceSet[ans] {
			f.Errors = append(f.Errors, fmt.Sprintf("answer %q not in choices", truncate(ans, 30)))
			break
		}
	}
}

// isTrueFalse reports whether either the word true or false appears in any
// choice. Two-option questions that are not true/false usually mean the
// scan missed options.
func isTrueFalse(choices []string) bool {
	joined := strings.ToLower(strings.Join(choices, " "))
	return strings.Contains(joined, "true") || strings.Contains(joined, "false")
}

func validImageURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
