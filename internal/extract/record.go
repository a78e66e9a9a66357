package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AnswerUnknown is the serialized answer for records where no choice was
// marked correct.
const AnswerUnknown = "Unknown"

// SpecialAnswer is the placeholder answer for questions that cannot be
// answered from text alone (matching and drag-and-drop layouts).
const SpecialAnswer = "See image for the answer"

// Answer holds the correct choice texts of a record, in choice order.
// Empty means no correctness signal was found. The JSON form is a union:
// a bare string for one value, an array for several, "Unknown" for none.
type Answer struct {
	Values []string
}

// Unknown reports whether no correct choice was identified.
func (a Answer) Unknown() bool {
	return len(a.Values) == 0
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch len(a.Values) {
	case 0:
		return json.Marshal(AnswerUnknown)
	case 1:
		return marshalNoEscape(a.Values[0])
	default:
		return marshalNoEscape(a.Values)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == AnswerUnknown {
			a.Values = nil
		} else {
			a.Values = []string{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		a.Values = list
		return nil
	}
	return fmt.Errorf("answer must be a string or an array of strings")
}

// Record is one extracted quiz question in its output shape.
type Record struct {
	Question string
	Image    string // empty when no image was associated
	Pre      string // empty when no pre block was captured
	Choices  []string
	Answer   Answer
	Special  bool
}

// recordJSON fixes the key order and presence rules of the output format:
// img and pre appear only when found, type only for special records, and
// choices is always present even when empty.
type recordJSON struct {
	Question string   `json:"question"`
	Image    string   `json:"img,omitempty"`
	Pre      string   `json:"pre,omitempty"`
	Type     string   `json:"type,omitempty"`
	Choices  []string `json:"choices"`
	Answer   Answer   `json:"answer"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Question: r.Question,
		Image:    r.Image,
		Pre:      r.Pre,
		Choices:  r.Choices,
		Answer:   r.Answer,
	}
	if r.Special {
		out.Type = "special"
	}
	if out.Choices == nil {
		out.Choices = []string{}
	}
	return marshalNoEscape(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Record{
		Question: raw.Question,
		Image:    raw.Image,
		Pre:      raw.Pre,
		Choices:  raw.Choices,
		Answer:   raw.Answer,
		Special:  raw.Type == "special",
	}
	return nil
}

// marshalNoEscape marshals without HTML escaping so URLs and question text
// keep their raw ampersands and angle brackets, the way the records are
// written to disk.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// EncodeRecords writes the record array as the tool's on-disk JSON: two
// space indent, HTML escaping off, trailing newline.
func EncodeRecords(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRecords parses a record array produced by EncodeRecords.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}
