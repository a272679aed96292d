package outline

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ParseMarkdown reads a nested-list outline from a Markdown document. The
// first item of the first top-level list is the root. An item whose text
// is a link takes its label and href from the link.
func ParseMarkdown(src []byte) (*Document, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		list, ok := n.(*ast.List)
		if !ok {
			continue
		}
		li, ok := list.FirstChild().(*ast.ListItem)
		if !ok {
			break
		}
		return &Document{Root: markdownItem(li, src)}, nil
	}
	return nil, errNoRoot
}

func markdownItem(li *ast.ListItem, src []byte) *Item {
	it := &Item{}
	for c := li.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.List:
			for gc := c.FirstChild(); gc != nil; gc = gc.NextSibling() {
				if child, ok := gc.(*ast.ListItem); ok {
					it.Children = append(it.Children, markdownItem(child, src))
				}
			}
		case *ast.Paragraph, *ast.TextBlock:
			if it.Label == "" && it.Href == "" {
				it.Label, it.Href = inlineLabel(c, src)
			}
		}
	}
	return it
}

// inlineLabel returns the text of a block and the destination of its first
// link, preferring the link text when there is one.
func inlineLabel(block ast.Node, src []byte) (label, href string) {
	var all, linked strings.Builder
	var link *ast.Link

	_ = ast.Walk(block, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n == link {
				return ast.WalkStop, nil
			}
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Link:
			if link == nil {
				link = n
				href = string(n.Destination)
			}
		case *ast.Text:
			seg := n.Segment.Value(src)
			all.Write(seg)
			if link != nil {
				linked.Write(seg)
			}
			if n.SoftLineBreak() {
				all.WriteByte(' ')
			}
		case *ast.CodeSpan:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					all.Write(t.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	if link != nil {
		return collapseSpace(linked.String()), href
	}
	return collapseSpace(all.String()), ""
}
