package doctree

import "strings"

// NodeType distinguishes element nodes from text nodes.
type NodeType uint8

const (
	TextNode NodeType = iota
	ElementNode
)

// Node is one node of a parsed markup document. Parsers build the tree;
// everything downstream only reads it. The link structure mirrors an HTML
// node (parent, first/last child, prev/next sibling) so forward walks are
// cheap, but the type is deliberately neutral: the extraction engine never
// sees the parsing library that produced it.
type Node struct {
	Type NodeType
	Tag  string            // lowercase tag name, empty for text nodes
	Attr map[string]string // attribute name -> value, nil for text nodes
	Data string            // text content, empty for element nodes

	Parent      *Node
	FirstChild  *Node
	LastChild   *Node
	PrevSibling *Node
	NextSibling *Node
}

// Document is the root of a parsed document.
type Document struct {
	Title string // from document metadata or the source filename
	Root  *Node
}

// NewElement returns a detached element node.
func NewElement(tag string, attr map[string]string) *Node {
	return &Node{Type: ElementNode, Tag: tag, Attr: attr}
}

// NewText returns a detached text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// AppendChild adds c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	c.Parent = n
	c.PrevSibling = n.LastChild
	if n.LastChild != nil {
		n.LastChild.NextSibling = c
	} else {
		n.FirstChild = c
	}
	n.LastChild = c
}

// Is reports whether n is an element with one of the given tags.
func (n *Node) Is(tags ...string) bool {
	if n == nil || n.Type != ElementNode {
		return false
	}
	for _, t := range tags {
		if n.Tag == t {
			return true
		}
	}
	return false
}

// AttrVal returns the value of the named attribute, or "" when absent.
func (n *Node) AttrVal(key string) string {
	if n == nil || n.Attr == nil {
		return ""
	}
	return n.Attr[key]
}

// HasClass reports whether the class attribute contains token as an exact
// whitespace-separated entry.
func (n *Node) HasClass(token string) bool {
	for _, c := range strings.Fields(n.AttrVal("class")) {
		if c == token {
			return true
		}
	}
	return false
}

// ClassContains reports whether sub occurs anywhere in the class attribute.
// Looser than HasClass on purpose: authors write variants like
// "wp-caption alignnone" or "message_box warning", and the original
// conventions match on the fragment, not the exact token.
func (n *Node) ClassContains(sub string) bool {
	return strings.Contains(n.AttrVal("class"), sub)
}

// Style returns the inline style attribute, or "".
func (n *Node) Style() string {
	return n.AttrVal("style")
}

// Text returns the concatenated raw text of the subtree rooted at n.
// No cleaning is applied; callers normalize.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	if n.Type == TextNode {
		return n.Data
	}
	var sb strings.Builder
	var walk func(*Node)
	walk = func(cur *Node) {
		if cur.Type == TextNode {
			sb.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// NextElement returns the next sibling that is an element, skipping text
// nodes, or nil.
func (n *Node) NextElement() *Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == ElementNode {
			return s
		}
	}
	return nil
}

// NextInDoc returns the successor of n in document order: the first child if
// any, otherwise the next sibling of the nearest ancestor that has one. Nil
// at the end of the document.
func (n *Node) NextInDoc() *Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.NextSibling != nil {
			return cur.NextSibling
		}
	}
	return nil
}

// NextElementInDoc returns the next element in document order, skipping text
// nodes.
func (n *Node) NextElementInDoc() *Node {
	for cur := n.NextInDoc(); cur != nil; cur = cur.NextInDoc() {
		if cur.Type == ElementNode {
			return cur
		}
	}
	return nil
}

// FindAll returns every descendant element of n whose tag is one of tags, in
// document order. n itself is not considered.
func (n *Node) FindAll(tags ...string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Is(tags...) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// FindFirst returns the first descendant element of n (document order) whose
// tag is one of tags, or nil.
func (n *Node) FindFirst(tags ...string) *Node {
	var find func(*Node) *Node
	find = func(cur *Node) *Node {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Is(tags...) {
				return c
			}
			if hit := find(c); hit != nil {
				return hit
			}
		}
		return nil
	}
	return find(n)
}

// Children returns the direct child elements of n with the given tag.
// Non-recursive: grandchildren are not considered.
func (n *Node) Children(tag string) []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Is(tag) {
			out = append(out, c)
		}
	}
	return out
}
