package doctree

import (
	"reflect"
	"testing"
)

// buildSample constructs:
//
//	<div>
//	  <p class="intro">hello <strong>world</strong></p>
//	  text-between
//	  <ul><li>a</li><li class="correct_answer">b</li></ul>
//	</div>
func buildSample() *Node {
	div := NewElement("div", nil)
	p := NewElement("p", map[string]string{"class": "intro"})
	p.AppendChild(NewText("hello "))
	strong := NewElement("strong", nil)
	strong.AppendChild(NewText("world"))
	p.AppendChild(strong)
	div.AppendChild(p)
	div.AppendChild(NewText("text-between"))
	ul := NewElement("ul", nil)
	li1 := NewElement("li", nil)
	li1.AppendChild(NewText("a"))
	li2 := NewElement("li", map[string]string{"class": "correct_answer"})
	li2.AppendChild(NewText("b"))
	ul.AppendChild(li1)
	ul.AppendChild(li2)
	div.AppendChild(ul)
	return div
}

func TestAppendChildLinks(t *testing.T) {
	div := buildSample()

	if div.FirstChild == nil || !div.FirstChild.Is("p") {
		t.Fatalf("FirstChild = %+v, want p element", div.FirstChild)
	}
	if div.LastChild == nil || !div.LastChild.Is("ul") {
		t.Fatalf("LastChild = %+v, want ul element", div.LastChild)
	}
	if got := div.FirstChild.NextSibling; got == nil || got.Type != TextNode {
		t.Errorf("p.NextSibling = %+v, want text node", got)
	}
	if got := div.LastChild.PrevSibling; got == nil || got.Data != "text-between" {
		t.Errorf("ul.PrevSibling = %+v, want text-between", got)
	}
	for c := div.FirstChild; c != nil; c = c.NextSibling {
		if c.Parent != div {
			t.Errorf("child %v has Parent %v, want div", c.Tag, c.Parent)
		}
	}
}

func TestText(t *testing.T) {
	div := buildSample()
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"paragraph", div.FirstChild, "hello world"},
		{"whole tree", div, "hello worldtext-betweenab"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassMatching(t *testing.T) {
	n := NewElement("div", map[string]string{"class": "wp-caption alignnone"})

	if !n.HasClass("wp-caption") {
		t.Error("HasClass(wp-caption) = false, want true")
	}
	if n.HasClass("caption") {
		t.Error("HasClass(caption) = true, want false")
	}
	if !n.ClassContains("caption") {
		t.Error("ClassContains(caption) = false, want true")
	}
	if n.ClassContains("message_box") {
		t.Error("ClassContains(message_box) = true, want false")
	}
}

func TestNextElementSkipsText(t *testing.T) {
	div := buildSample()
	p := div.FirstChild

	next := p.NextElement()
	if next == nil || !next.Is("ul") {
		t.Fatalf("NextElement() = %+v, want ul", next)
	}
	if got := next.NextElement(); got != nil {
		t.Errorf("ul.NextElement() = %+v, want nil", got)
	}
}

func TestNextElementInDocOrder(t *testing.T) {
	div := buildSample()

	var tags []string
	for n := div.NextElementInDoc(); n != nil; n = n.NextElementInDoc() {
		tags = append(tags, n.Tag)
	}
	want := []string{"p", "strong", "ul", "li", "li"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("document-order walk = %v, want %v", tags, want)
	}
}

func TestFindAll(t *testing.T) {
	div := buildSample()

	lis := div.FindAll("li")
	if len(lis) != 2 {
		t.Fatalf("FindAll(li) returned %d nodes, want 2", len(lis))
	}
	if got := lis[0].Text(); got != "a" {
		t.Errorf("first li text = %q, want %q", got, "a")
	}

	mixed := div.FindAll("strong", "li")
	if len(mixed) != 3 {
		t.Errorf("FindAll(strong, li) returned %d nodes, want 3", len(mixed))
	}
	if !mixed[0].Is("strong") {
		t.Errorf("first match tag = %q, want strong (document order)", mixed[0].Tag)
	}
}

func TestFindFirst(t *testing.T) {
	div := buildSample()

	if got := div.FindFirst("strong", "b"); got == nil || !got.Is("strong") {
		t.Errorf("FindFirst(strong, b) = %+v, want strong element", got)
	}
	if got := div.FindFirst("table"); got != nil {
		t.Errorf("FindFirst(table) = %+v, want nil", got)
	}
}

func TestChildrenDirectOnly(t *testing.T) {
	div := buildSample()

	// li nodes are grandchildren of div, so Children must not see them.
	if got := div.Children("li"); len(got) != 0 {
		t.Errorf("div.Children(li) returned %d nodes, want 0", len(got))
	}
	ul := div.LastChild
	if got := ul.Children("li"); len(got) != 2 {
		t.Errorf("ul.Children(li) returned %d nodes, want 2", len(got))
	}
}
