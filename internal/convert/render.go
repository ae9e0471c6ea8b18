package convert

import (
	"regexp"
	"strings"

	"github.com/odysseus0/chatvault/internal/model"
)

var (
	headingPattern  = regexp.MustCompile(`^(#{1,4}) (.+)$`)
	rulePattern     = regexp.MustCompile(`^-{3,}$`)
	listLinePattern = regexp.MustCompile(`^([ \t]*)([-*]|\d+\.) (.*)$`)
)

const lineBreak = "<br>"

// headingTags maps markdown heading depth to the rendered element. Rendered
// messages sit below a page-level h1, so depths are shifted and compressed.
var headingTags = map[int]string{
	1: "h2",
	2: "h3",
	3: "h3",
	4: "h4",
}

// Render converts markdown produced by Extract back into an HTML fragment.
func Render(markdown string) string {
	src := strings.ReplaceAll(markdown, "\r\n", "\n")
	spans := newSpanTable(src)
	src = spans.liftQuotedFences(src)
	src = spans.liftFences(src)
	src = spans.liftInlineCode(src)
	return spans.renderBlocks(strings.Split(src, "\n"))
}

func (t *spanTable) renderBlocks(lines []string) string {
	var blocks []string
	for i := 0; i < len(lines); {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if sp, ok := t.fenceAt(trimmed); ok {
			blocks = append(blocks, renderCodeBlock(sp))
			i++
			continue
		}
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			tag := headingTags[len(m[1])]
			blocks = append(blocks, "<"+tag+">"+t.inline(strings.TrimSpace(m[2]))+"</"+tag+">")
			i++
			continue
		}
		if rulePattern.MatchString(trimmed) {
			blocks = append(blocks, "<hr>")
			i++
			continue
		}
		if isQuoteLine(line) {
			var quoted []string
			for i < len(lines) && isQuoteLine(lines[i]) {
				quoted = append(quoted, stripQuote(lines[i]))
				i++
			}
			if t.holdsFence(quoted) {
				blocks = append(blocks, "<blockquote>"+t.renderBlocks(quoted)+"</blockquote>")
			} else {
				blocks = append(blocks, "<blockquote>"+t.inline(strings.Join(quoted, lineBreak))+"</blockquote>")
			}
			continue
		}
		if _, ok := parseListLine(line); ok {
			var items []listLine
			items, i = collectListRegion(lines, i)
			for pos := 0; pos < len(items); {
				var out string
				out, pos = t.buildList(items, pos)
				blocks = append(blocks, out)
			}
			continue
		}
		if trimmed == "" {
			i++
			continue
		}

		var para []string
		for i < len(lines) && !endsParagraph(lines[i], t) {
			para = append(para, lines[i])
			i++
		}
		blocks = append(blocks, "<p>"+t.inline(strings.Join(para, lineBreak))+"</p>")
	}
	return strings.Join(blocks, "\n")
}

// MessageHTML returns the cached sanitized HTML of m, or renders its content
// when no cached form was stored.
func MessageHTML(m model.Message) string {
	if strings.TrimSpace(m.ContentHTML) != "" {
		return m.ContentHTML
	}
	return Render(m.Content)
}

func endsParagraph(line string, spans *spanTable) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true
	}
	if _, ok := spans.fenceAt(trimmed); ok {
		return true
	}
	if headingPattern.MatchString(line) || rulePattern.MatchString(trimmed) || isQuoteLine(line) {
		return true
	}
	_, ok := parseListLine(line)
	return ok
}

func isQuoteLine(line string) bool {
	return strings.HasPrefix(line, "> ") || line == ">"
}

func stripQuote(line string) string {
	if line == ">" {
		return ""
	}
	return strings.TrimPrefix(line, "> ")
}

func renderCodeBlock(sp span) string {
	label := sp.lang
	if label == "" {
		label = "plaintext"
	}
	var b strings.Builder
	b.WriteString(`<div class="code-block"><div class="code-header"><span class="code-lang">`)
	b.WriteString(escapeText(label))
	b.WriteString(`</span><button class="copy-btn" type="button">Copy</button></div><pre><code`)
	if sp.lang != "" {
		b.WriteString(` class="language-` + escapeAttr(sp.lang) + `"`)
	}
	b.WriteString(">")
	b.WriteString(escapeText(sp.code))
	b.WriteString("</code></pre></div>")
	return b.String()
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&#34;", "'", "&#39;")
)

// escapeText escapes element content. Quotes are left alone so code bodies keep
// their literal text.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

func escapeAttr(s string) string {
	return attrEscaper.Replace(s)
}
