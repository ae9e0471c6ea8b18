package convert

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var allowedTags = []string{
	"p", "br", "strong", "b", "em", "i", "u", "s",
	"a", "h1", "h2", "h3", "h4", "h5", "h6",
	"ul", "ol", "li", "code", "pre", "blockquote",
	"table", "thead", "tbody", "tfoot", "tr", "th", "td",
	"hr", "img", "span", "div", "sup", "sub",
}

var allowedTagSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(allowedTags))
	for _, t := range allowedTags {
		m[t] = struct{}{}
	}
	return m
}()

var allowedAttrs = map[string]struct{}{
	"href":   {},
	"src":    {},
	"alt":    {},
	"class":  {},
	"target": {},
	"rel":    {},
}

var languageClassPattern = regexp.MustCompile(`^language-[A-Za-z0-9_+#.-]+$`)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedTags...)
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowAttrs("class").Matching(languageClassPattern).OnElements("code")
	classed := make([]string, 0, len(allowedTags))
	for _, t := range allowedTags {
		if t != "code" {
			classed = append(classed, t)
		}
	}
	p.AllowAttrs("class").OnElements(classed...)
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.AllowDataURIImages()
	return p
}

// Sanitize restricts an HTML fragment to the allow-listed tags and attributes.
// Disallowed elements are replaced by their children rather than dropped.
func Sanitize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader("<body>" + raw + "</body>"))
	if err != nil {
		return policy.Sanitize(raw)
	}

	body := findBodyNode(doc)
	if body == nil {
		return policy.Sanitize(raw)
	}

	var b strings.Builder
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		for _, n := range sanitizeNode(c) {
			_ = html.Render(&b, n)
		}
	}
	return strings.TrimSpace(policy.Sanitize(b.String()))
}

func findBodyNode(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, "body") {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBodyNode(c); b != nil {
			return b
		}
	}
	return nil
}

// sanitizeNode returns fresh nodes: one clone for an allowed element, the
// sanitized children for a disallowed one.
func sanitizeNode(n *html.Node) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{{Type: html.TextNode, Data: n.Data}}
	case html.ElementNode:
		tag := strings.ToLower(strings.TrimSpace(n.Data))
		if _, ok := allowedTagSet[tag]; !ok || n.Namespace != "" {
			return sanitizeChildren(n)
		}
		clone := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: n.DataAtom}
		for _, a := range n.Attr {
			k := strings.ToLower(strings.TrimSpace(a.Key))
			if _, ok := allowedAttrs[k]; !ok || a.Namespace != "" {
				continue
			}
			if isURLAttr(k) && !isSafeURL(a.Val, tag, k) {
				continue
			}
			if k == "class" && tag == "code" {
				lang := languageOf(n)
				if lang == "" {
					continue
				}
				a.Val = "language-" + lang
			}
			clone.Attr = append(clone.Attr, html.Attribute{Key: k, Val: a.Val})
		}
		for _, child := range sanitizeChildren(n) {
			clone.AppendChild(child)
		}
		return []*html.Node{clone}
	default:
		return nil
	}
}

func sanitizeChildren(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, sanitizeNode(c)...)
	}
	return out
}
