package extract

import (
	"strings"

	"github.com/revyard/quizgest/internal/doctree"
)

// Choice is one answer option with its correctness signal.
type Choice struct {
	Text    string
	Correct bool
}

// ChoiceResult carries everything the choice scan found for one marker.
type ChoiceResult struct {
	Choices []Choice
	Pre     string
}

// ExtractChoices finds the ordered choices for a marker. nextNumber is the
// question number that terminates the scan; callers pass m.Number+1.
//
// The primary strategy walks forward from the marker in element document
// order, taking the first list that yields items as the choices and the
// first pre block on the way. When that yields nothing, the fallback reads
// br-separated inline runs and bare text laid out as raw siblings of the
// marker.
func ExtractChoices(m Marker, nextNumber int) ChoiceResult {
	res := primaryScan(m, nextNumber)
	if len(res.Choices) == 0 {
		res.Choices = siblingScan(m)
	}
	return res
}

func primaryScan(m Marker, nextNumber int) ChoiceResult {
	var res ChoiceResult
	for cur := m.node.NextElementInDoc(); cur != nil; cur = cur.NextElementInDoc() {
		if cur.Is("strong", "b") {
			if num, ok := parseMarkerNumber(CleanText(cur.Text())); ok && num >= nextNumber {
				break
			}
		}
		if cur.Is("div") && cur.ClassContains("message_box") {
			break
		}
		if cur.Is("ul") {
			if choices := listChoices(cur); len(choices) > 0 {
				res.Choices = choices
				break
			}
			// A list with no usable items is treated as absent.
			continue
		}
		if cur.Is("pre") && res.Pre == "" {
			res.Pre = normalizePre(cur.Text())
		}
	}
	return res
}

// listChoices reads the direct li children of a list. Items with no text
// are skipped. An item is correct when a span/strong descendant carries a
// color style, or when the item itself has the correct_answer class token.
func listChoices(ul *doctree.Node) []Choice {
	var out []Choice
	for _, li := range ul.Children("li") {
		text := CleanText(li.Text())
		if text == "" {
			continue
		}
		correct := findColored(li) != nil || li.HasClass("correct_answer")
		out = append(out, Choice{Text: text, Correct: correct})
	}
	return out
}

// findColored returns the first span/strong descendant whose inline style
// declares a color, or nil.
func findColored(n *doctree.Node) *doctree.Node {
	for _, el := range n.FindAll("span", "strong") {
		if strings.Contains(el.Style(), "color:") {
			return el
		}
	}
	return nil
}

// siblingScan reads choices laid out as raw siblings of the marker, text
// nodes included. Inline spans and bold runs become choices with color
// styling as the correctness signal; bare text becomes a choice that is
// never correct. br separators are skipped; any other element is ignored
// without ending the walk.
func siblingScan(m Marker) []Choice {
	var out []Choice
	for sib := m.node.NextSibling; sib != nil; sib = sib.NextSibling {
		if sib.Type == doctree.TextNode {
			if text := CleanText(sib.Data); text != "" {
				out = append(out, Choice{Text: text})
			}
			continue
		}
		if sib.Is("div") && sib.ClassContains("message_box") {
			break
		}
		if sib.Is("strong", "b") && markerPattern.MatchString(CleanText(sib.Text())) {
			break
		}
		if sib.Is("br") {
			continue
		}
		if sib.Is("span", "strong", "b", "i") {
			text := CleanText(sib.Text())
			if text == "" {
				continue
			}
			correct := strings.Contains(sib.Style(), "color:") || findColored(sib) != nil
			out = append(out, Choice{Text: text, Correct: correct})
		}
	}
	return out
}

// normalizePre trims each line of a pre block, drops blank lines and joins
// the rest with newlines.
func normalizePre(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
