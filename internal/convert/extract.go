package convert

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var ErrInvalidInput = errors.New("invalid input")

// indentWidth is the number of spaces per list nesting level in extracted markdown.
const indentWidth = 2

// Context is passed by value; recursion builds a new one instead of mutating it.
type Context struct {
	Inline bool
	Indent int
}

func (c Context) inline() Context {
	return Context{Inline: true, Indent: c.Indent}
}

func (c Context) block() Context {
	return Context{Indent: c.Indent}
}

type Options struct {
	IncludeHTML bool
}

type Extraction struct {
	Content     string `json:"content"`
	ContentHTML string `json:"contentHtml,omitempty"`
}

// Extract converts the subtree rooted at root to markdown. Block mode output is
// normalized; inline mode output is returned as produced.
func Extract(root *html.Node, ctx Context) (string, error) {
	if root == nil {
		return "", fmt.Errorf("%w: nil root", ErrInvalidInput)
	}
	out := extractNode(root, ctx)
	if ctx.Inline {
		return out, nil
	}
	return Normalize(out), nil
}

// ExtractHTML parses an HTML fragment and extracts it in block mode.
func ExtractHTML(fragment string) (string, error) {
	root, err := ParseFragment(fragment)
	if err != nil {
		return "", err
	}
	return Extract(root, Context{})
}

// ExtractMessage extracts markdown and, when requested, a sanitized HTML copy of
// the subtree. The source tree is never modified.
func ExtractMessage(root *html.Node, opts Options) (Extraction, error) {
	content, err := Extract(root, Context{})
	if err != nil {
		return Extraction{}, err
	}
	out := Extraction{Content: content}
	if opts.IncludeHTML {
		pruned := pruneClone(root)
		var b bytes.Buffer
		for c := pruned.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&b, c); err != nil {
				return Extraction{}, fmt.Errorf("render message html: %w", err)
			}
		}
		out.ContentHTML = Sanitize(b.String())
	}
	return out, nil
}

// ParseFragment parses raw HTML in a body context and returns a detached div
// holding the parsed nodes.
func ParseFragment(raw string) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(raw), body)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		root.AppendChild(n)
	}
	return root, nil
}

func extractNode(n *html.Node, ctx Context) string {
	switch n.Type {
	case html.TextNode:
		return n.Data
	case html.ElementNode:
		return extractElement(n, ctx)
	case html.DocumentNode:
		return extractChildren(n, ctx)
	default:
		return ""
	}
}

func extractElement(n *html.Node, ctx Context) string {
	if isNonContent(n) {
		return ""
	}
	switch n.DataAtom {
	case atom.Pre:
		return extractCodeBlock(n)
	case atom.Code:
		return "`" + textContent(n) + "`"
	case atom.Br:
		if ctx.Inline {
			return " "
		}
		return "\n"
	case atom.P:
		if ctx.Inline {
			return extractChildren(n, ctx)
		}
		return "\n" + extractChildren(n, ctx) + "\n"
	case atom.Div, atom.Section, atom.Article, atom.Main, atom.Span:
		return extractChildren(n, ctx)
	case atom.Ul, atom.Ol:
		return extractList(n, ctx)
	case atom.Li:
		return extractItem(n, "-", ctx)
	case atom.Strong, atom.B:
		return wrapInline(extractChildren(n, ctx.inline()), "**")
	case atom.Em, atom.I:
		return wrapInline(extractChildren(n, ctx.inline()), "*")
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		text := strings.TrimSpace(flattenInline(extractChildren(n, ctx.inline())))
		return "\n\n" + strings.Repeat("#", level) + " " + text + "\n\n"
	case atom.A:
		return extractLink(n, ctx)
	case atom.Blockquote:
		return extractQuote(n, ctx)
	case atom.Table:
		return extractTable(n, ctx)
	case atom.Img:
		return extractImage(n)
	case atom.Hr:
		return "\n\n---\n\n"
	default:
		return extractChildren(n, ctx)
	}
}

func extractChildren(n *html.Node, ctx Context) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeChild(&b, c, extractNode(c, ctx), ctx)
	}
	return b.String()
}

// writeChild separates inline paragraphs from preceding text with a single space.
func writeChild(b *strings.Builder, c *html.Node, part string, ctx Context) {
	if part == "" {
		return
	}
	if ctx.Inline && isElement(c, atom.P) && b.Len() > 0 && !endsWithSpace(b.String()) {
		b.WriteByte(' ')
	}
	b.WriteString(part)
}

func wrapInline(inner, marker string) string {
	if strings.TrimSpace(inner) == "" {
		return inner
	}
	return marker + inner + marker
}

func extractCodeBlock(pre *html.Node) string {
	code := findFirst(pre, atom.Code)
	if code == nil {
		code = pre
	}
	lang := languageOf(code)
	if lang == "" && code != pre {
		lang = languageOf(pre)
	}
	return "\n```" + lang + "\n" + strings.TrimSpace(textContent(code)) + "\n```\n"
}

func extractLink(n *html.Node, ctx Context) string {
	text := extractChildren(n, ctx.inline())
	href := strings.TrimSpace(attr(n, "href"))
	if !isNavigableURL(href) {
		return text
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return "[" + text + "](" + href + ")"
}

func extractQuote(n *html.Node, ctx Context) string {
	inner := Normalize(extractChildren(n, ctx.block()))
	if inner == "" {
		return ""
	}
	lines := strings.Split(inner, "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return "\n" + strings.Join(lines, "\n") + "\n"
}

func extractTable(n *html.Node, ctx Context) string {
	var b strings.Builder
	first := true
	for _, row := range tableRows(n) {
		var cells []string
		for c := row.FirstChild; c != nil; c = c.NextSibling {
			if !isElement(c, atom.Th) && !isElement(c, atom.Td) {
				continue
			}
			text := flattenInline(extractChildren(c, ctx.inline()))
			text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
			cells = append(cells, strings.ReplaceAll(text, "|", `\|`))
		}
		if len(cells) == 0 {
			continue
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		if first {
			sep := make([]string, len(cells))
			for i := range sep {
				sep[i] = "---"
			}
			b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
			first = false
		}
	}
	return b.String()
}

// tableRows collects rows in document order without entering nested tables.
func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Tr:
				rows = append(rows, c)
			case atom.Table:
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return rows
}

func extractImage(n *html.Node) string {
	src := strings.TrimSpace(attr(n, "src"))
	if src == "" || !isSafeURL(src, "img", "src") {
		return ""
	}
	alt := strings.TrimSpace(attr(n, "alt"))
	if alt == "" {
		alt = "image"
	}
	return "![" + alt + "](" + src + ")"
}

var nonContentTags = map[atom.Atom]struct{}{
	atom.Svg:      {},
	atom.Button:   {},
	atom.Nav:      {},
	atom.Style:    {},
	atom.Script:   {},
	atom.Noscript: {},
	atom.Template: {},
	atom.Canvas:   {},
}

var nonContentRoles = map[string]struct{}{
	"button":     {},
	"navigation": {},
	"toolbar":    {},
}

func isNonContent(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if _, ok := nonContentTags[n.DataAtom]; ok {
		return true
	}
	// svg children parse into the svg namespace with no atom.
	if strings.EqualFold(n.Data, "svg") {
		return true
	}
	if _, ok := nonContentRoles[strings.ToLower(attr(n, "role"))]; ok {
		return true
	}
	return strings.EqualFold(attr(n, "aria-hidden"), "true")
}

// pruneClone deep-copies n without non-content elements and comments.
func pruneClone(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:      n.Type,
		Data:      n.Data,
		DataAtom:  n.DataAtom,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode || isNonContent(c) {
			continue
		}
		clone.AppendChild(pruneClone(c))
	}
	return clone
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case isElement(n, atom.Br):
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, a) {
			return c
		}
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func isElement(n *html.Node, a atom.Atom) bool {
	return n != nil && n.Type == html.ElementNode && n.DataAtom == a
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func languageOf(n *html.Node) string {
	for _, token := range strings.Fields(attr(n, "class")) {
		if lang, ok := strings.CutPrefix(token, "language-"); ok && lang != "" {
			return lang
		}
	}
	return ""
}

func endsWithSpace(s string) bool {
	if s == "" {
		return false
	}
	switch s[len(s)-1] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}
