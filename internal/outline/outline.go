// Package outline lists the headings of a stored markdown message.
package outline

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

var parser = goldmark.New().Parser()

// maxLevel is the deepest heading the message renderer shows as a heading.
const maxLevel = 4

// Build returns the headings of markdown in document order. Only top-level
// ATX headings up to maxLevel count, matching what a rendered message shows.
// Headings inside fenced code are not headings and are skipped by the parser.
func Build(markdown string) []Heading {
	src := []byte(markdown)
	doc := parser.Parse(text.NewReader(src))

	var out []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if !shown(h, src) {
			return ast.WalkSkipChildren, nil
		}
		title := strings.Join(strings.Fields(headingText(h, src)), " ")
		if title != "" {
			out = append(out, Heading{Level: h.Level, Text: title})
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

func shown(h *ast.Heading, src []byte) bool {
	if h.Level > maxLevel || h.Parent() == nil || h.Parent().Kind() != ast.KindDocument {
		return false
	}
	if h.Lines().Len() == 0 {
		return false
	}
	// Setext headings have no marker; ATX ones start their line with '#'.
	start := h.Lines().At(0).Start
	lineStart := bytes.LastIndexByte(src[:start], '\n') + 1
	return src[lineStart] == '#'
}

func headingText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.CodeSpan:
			b.WriteString(headingText(v, src))
		default:
			b.WriteString(headingText(c, src))
		}
	}
	return b.String()
}
