package extract

import "github.com/revyard/quizgest/internal/doctree"

// FindImage locates the image associated with a marker, if any. Phase 1
// walks the marker's own element siblings; phase 2, only when phase 1 found
// nothing, walks the marker's parent's element siblings. Both phases stop
// at a choices list or an explanation box; phase 2 also stops at the next
// question paragraph.
func FindImage(m Marker) (string, bool) {
	if url := scanImageSiblings(m.node, false); url != "" {
		return url, true
	}
	parent := m.node.Parent
	if parent == nil {
		return "", false
	}
	if url := scanImageSiblings(parent, true); url != "" {
		return url, true
	}
	return "", false
}

func scanImageSiblings(start *doctree.Node, stopAtNextQuestion bool) string {
	for sib := start.NextElement(); sib != nil; sib = sib.NextElement() {
		if stopAtNextQuestion && sib.Is("p") {
			if bold := sib.FindFirst("strong", "b"); bold != nil && markerPattern.MatchString(CleanText(bold.Text())) {
				return ""
			}
		}
		if sib.Is("div") && sib.ClassContains("wp-caption") {
			if img := sib.FindFirst("img"); img != nil && img.AttrVal("src") != "" {
				return img.AttrVal("src")
			}
		}
		if sib.Is("img") && sib.AttrVal("src") != "" {
			return sib.AttrVal("src")
		}
		if sib.Is("ul") {
			return ""
		}
		if sib.Is("div") && sib.ClassContains("message_box") {
			return ""
		}
	}
	return ""
}
