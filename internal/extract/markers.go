package extract

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/revyard/quizgest/internal/doctree"
)

// markerPattern matches question-opening text like "12. Which ...".
var markerPattern = regexp.MustCompile(`^\d+\.\s`)

// markerNumber captures the declared question number. Looser than
// markerPattern: bold text like "17.Something" still terminates a choice
// scan even though it would not open a question.
var markerNumber = regexp.MustCompile(`^(\d+)\.`)

// Marker is one question heading found in the tree: its declared number,
// its cleaned text and the bold element it lives in. The tree stays owned
// by the caller.
type Marker struct {
	Number int
	Text   string
	node   *doctree.Node
}

// NewMarker builds a marker directly on a node. Tests and synthetic
// callers use it; extraction goes through DiscoverMarkers.
func NewMarker(number int, text string, node *doctree.Node) Marker {
	return Marker{Number: number, Text: text, node: node}
}

// DiscoverMarkers scans the tree for question markers. Two passes: every
// strong and b element in document order, then every p element's first
// bold descendant (strong preferred over b). The first marker seen for a
// number wins across both passes. The result is sorted ascending by
// declared number, not by document position.
func DiscoverMarkers(root *doctree.Node) []Marker {
	var markers []Marker
	seen := make(map[int]bool)

	consider := func(n *doctree.Node) {
		text := CleanText(n.Text())
		if !markerPattern.MatchString(text) {
			return
		}
		num, ok := parseMarkerNumber(text)
		if !ok || seen[num] {
			return
		}
		seen[num] = true
		markers = append(markers, Marker{Number: num, Text: text, node: n})
	}

	for _, n := range root.FindAll("strong", "b") {
		consider(n)
	}
	for _, p := range root.FindAll("p") {
		bold := p.FindFirst("strong")
		if bold == nil {
			bold = p.FindFirst("b")
		}
		if bold != nil {
			consider(bold)
		}
	}

	sort.Slice(markers, func(i, j int) bool {
		return markers[i].Number < markers[j].Number
	})
	return markers
}

func parseMarkerNumber(text string) (int, bool) {
	m := markerNumber.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
