package convert

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type spanKind byte

const (
	spanFence  spanKind = 'F'
	spanInline spanKind = 'C'
)

type span struct {
	kind spanKind
	lang string
	code string
}

// spanTable holds the code spans lifted out of a document during one Render
// call. Tokens carry a per-call nonce that is absent from the source text.
type spanTable struct {
	prefix  string
	spans   []span
	pattern *regexp.Regexp

	// targets holds link and image destinations lifted while inline
	// formatting runs, keyed by their index in targetPattern tokens.
	targets       []string
	targetPattern *regexp.Regexp
}

const (
	tokenStart = "\uE000"
	tokenEnd   = "\uE001"
)

var inlineCodePattern = regexp.MustCompile("`([^`\n]+)`")

func newSpanTable(src string) *spanTable {
	for {
		prefix := tokenStart + strings.ReplaceAll(uuid.NewString(), "-", "")
		if strings.Contains(src, prefix) {
			continue
		}
		return &spanTable{
			prefix:        prefix,
			pattern:       regexp.MustCompile(regexp.QuoteMeta(prefix) + `([FC])(\d+)` + tokenEnd),
			targetPattern: regexp.MustCompile(regexp.QuoteMeta(prefix) + `U(\d+)` + tokenEnd),
		}
	}
}

func (t *spanTable) add(s span) string {
	t.spans = append(t.spans, s)
	return t.prefix + string(rune(s.kind)) + strconv.Itoa(len(t.spans)-1) + tokenEnd
}

// liftFences replaces fenced code blocks with a token on a line of its own.
func (t *spanTable) liftFences(src string) string {
	return fencePattern.ReplaceAllStringFunc(src, func(m string) string {
		sub := fencePattern.FindStringSubmatch(m)
		lang := ""
		if fields := strings.Fields(sub[1]); len(fields) > 0 {
			lang = fields[0]
		}
		code := strings.TrimRight(sub[2], " \t\r\n")
		return "\n" + t.add(span{kind: spanFence, lang: lang, code: code}) + "\n"
	})
}

// liftQuotedFences lifts fenced code that sits inside a quote. The quote
// prefixes are stripped before matching and put back on the token lines, so
// the code body keeps its text. Quote-like lines inside top-level fences are
// left alone.
func (t *spanTable) liftQuotedFences(src string) string {
	if !strings.Contains(src, "```") {
		return src
	}
	lines := strings.Split(src, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	for i := 0; i < len(lines); {
		if inFence || !isQuoteLine(lines[i]) {
			if strings.Count(lines[i], "```")%2 == 1 {
				inFence = !inFence
			}
			out = append(out, lines[i])
			i++
			continue
		}
		var quoted []string
		for i < len(lines) && isQuoteLine(lines[i]) {
			quoted = append(quoted, stripQuote(lines[i]))
			i++
		}
		inner := strings.Join(quoted, "\n")
		if strings.Contains(inner, "```") {
			inner = t.liftFences(t.liftQuotedFences(inner))
		}
		for _, l := range strings.Split(inner, "\n") {
			if l == "" {
				out = append(out, ">")
			} else {
				out = append(out, "> "+l)
			}
		}
	}
	return strings.Join(out, "\n")
}

// holdsFence reports whether any of lines is a lifted code block.
func (t *spanTable) holdsFence(lines []string) bool {
	for _, l := range lines {
		if _, ok := t.fenceAt(strings.TrimSpace(l)); ok {
			return true
		}
	}
	return false
}

func (t *spanTable) liftInlineCode(src string) string {
	return inlineCodePattern.ReplaceAllStringFunc(src, func(m string) string {
		return t.add(span{kind: spanInline, code: m[1 : len(m)-1]})
	})
}

// fenceAt returns the fence span a line consists of, if any.
func (t *spanTable) fenceAt(line string) (span, bool) {
	m := t.pattern.FindStringSubmatchIndex(line)
	if m == nil || m[0] != 0 || m[1] != len(line) {
		return span{}, false
	}
	s, ok := t.lookup(line[m[2]:m[3]], line[m[4]:m[5]])
	if !ok || s.kind != spanFence {
		return span{}, false
	}
	return s, true
}

func (t *spanTable) lookup(kind, index string) (span, bool) {
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 || i >= len(t.spans) {
		return span{}, false
	}
	s := t.spans[i]
	if string(rune(s.kind)) != kind {
		return span{}, false
	}
	return s, true
}

// restore replaces any remaining tokens with inline code elements.
func (t *spanTable) restore(s string) string {
	if len(t.spans) == 0 {
		return s
	}
	return t.pattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := t.pattern.FindStringSubmatch(m)
		sp, ok := t.lookup(sub[1], sub[2])
		if !ok {
			return ""
		}
		return "<code>" + escapeText(sp.code) + "</code>"
	})
}
