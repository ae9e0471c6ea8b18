package convert

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var (
	boldPattern  = regexp.MustCompile(`\*\*(.+?)\*\*`)
	imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
	linkPattern  = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	destPattern  = regexp.MustCompile(`\]\(([^)\s]+)\)`)
)

// inline escapes text and applies bold, italic, image and link formatting.
// Code span tokens are restored last so their contents are never formatted.
func (t *spanTable) inline(text string) string {
	s := t.liftTargets(escapeText(text))
	s = boldPattern.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicize(s)
	s = t.restoreTargets(s)
	s = imagePattern.ReplaceAllStringFunc(s, renderImage)
	s = linkPattern.ReplaceAllStringFunc(s, renderLink)
	s = strings.ReplaceAll(s, escapeText(lineBreak), lineBreak)
	return t.restore(s)
}

// liftTargets swaps link destinations for tokens so emphasis markers inside a
// URL are left as they are.
func (t *spanTable) liftTargets(s string) string {
	if !strings.Contains(s, "](") {
		return s
	}
	return destPattern.ReplaceAllStringFunc(s, func(m string) string {
		t.targets = append(t.targets, m[2:len(m)-1])
		return "](" + t.prefix + "U" + strconv.Itoa(len(t.targets)-1) + tokenEnd + ")"
	})
}

func (t *spanTable) restoreTargets(s string) string {
	if len(t.targets) == 0 {
		return s
	}
	return t.targetPattern.ReplaceAllStringFunc(s, func(m string) string {
		i, err := strconv.Atoi(t.targetPattern.FindStringSubmatch(m)[1])
		if err != nil || i >= len(t.targets) {
			return ""
		}
		return t.targets[i]
	})
}

func renderLink(m string) string {
	sub := linkPattern.FindStringSubmatch(m)
	href := html.UnescapeString(sub[2])
	if !isNavigableURL(href) {
		return sub[1]
	}
	return `<a href="` + escapeAttr(href) + `" target="_blank" rel="noopener noreferrer">` + sub[1] + `</a>`
}

func renderImage(m string) string {
	sub := imagePattern.FindStringSubmatch(m)
	src := html.UnescapeString(sub[2])
	alt := html.UnescapeString(sub[1])
	if !isSafeURL(src, "img", "src") {
		return escapeText(alt)
	}
	return `<img src="` + escapeAttr(src) + `" alt="` + escapeAttr(alt) + `">`
}

// italicize wraps single-asterisk spans in <em>. An asterisk next to another
// asterisk never opens or closes a span, and span text may not start or end
// with whitespace.
func italicize(s string) string {
	if !strings.Contains(s, "*") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if isSingleStar(s, i) {
			if j := closingStar(s, i+1); j > 0 {
				b.WriteString("<em>")
				b.WriteString(s[i+1 : j])
				b.WriteString("</em>")
				i = j + 1
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func isSingleStar(s string, i int) bool {
	if s[i] != '*' {
		return false
	}
	if i > 0 && s[i-1] == '*' {
		return false
	}
	return i+1 >= len(s) || s[i+1] != '*'
}

func closingStar(s string, from int) int {
	if from >= len(s) || isSpaceByte(s[from]) {
		return -1
	}
	for j := from; j < len(s); j++ {
		if s[j] == '\n' {
			return -1
		}
		if isSingleStar(s, j) && !isSpaceByte(s[j-1]) {
			return j
		}
	}
	return -1
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
