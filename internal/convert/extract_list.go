package convert

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// extractList emits one line per item, indented indentWidth spaces per level.
// Nested lists are extracted with Indent+1 directly after their item line.
func extractList(list *html.Node, ctx Context) string {
	ordered := list.DataAtom == atom.Ol
	num := 1
	if ordered {
		if start, err := strconv.Atoi(strings.TrimSpace(attr(list, "start"))); err == nil {
			num = start
		}
	}

	var b strings.Builder
	for c := list.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case isElement(c, atom.Li):
			marker := "-"
			if ordered {
				marker = strconv.Itoa(num) + "."
				num++
			}
			b.WriteString(extractItem(c, marker, ctx))
		case isList(c):
			// A list placed directly inside a list belongs to the previous item.
			b.WriteString(extractList(c, Context{Indent: ctx.Indent + 1}))
		}
	}

	out := b.String()
	if out != "" && ctx.Indent == 0 && !ctx.Inline {
		return "\n" + out + "\n"
	}
	return out
}

func extractItem(li *html.Node, marker string, ctx Context) string {
	var text, nested strings.Builder
	collectItem(li, ctx, &text, &nested)
	prefix := strings.Repeat(" ", indentWidth*ctx.Indent)
	return prefix + marker + " " + strings.TrimSpace(flattenInline(text.String())) + "\n" + nested.String()
}

// collectItem splits item children into inline text and nested list output,
// looking through plain containers that wrap a nested list.
func collectItem(n *html.Node, ctx Context, text, nested *strings.Builder) {
	itemCtx := ctx.inline()
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case isList(c):
			nested.WriteString(extractList(c, Context{Indent: ctx.Indent + 1}))
		case isContainer(c) && containsList(c) && !isNonContent(c):
			collectItem(c, ctx, text, nested)
		default:
			writeChild(text, c, extractNode(c, itemCtx), itemCtx)
		}
	}
}

func isList(n *html.Node) bool {
	return isElement(n, atom.Ul) || isElement(n, atom.Ol)
}

func isContainer(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Span, atom.P:
		return true
	}
	return false
}

func containsList(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isList(c) {
			return true
		}
		if isContainer(c) && containsList(c) {
			return true
		}
	}
	return false
}
