package convert

import (
	"regexp"
	"strings"
)

var (
	fencePattern     = regexp.MustCompile("(?s)```([^\n`]*)\n(.*?)```")
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
	lineBreakPattern = regexp.MustCompile(`[ \t]*\n\s*`)
)

// Normalize collapses runs of three or more newlines to two, empties
// whitespace-only lines and trims surrounding newlines. Fenced code bodies are
// left untouched. Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	out := mapOutsideFences(s, func(text string) string {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			if strings.TrimSpace(line) == "" {
				lines[i] = ""
			}
		}
		return blankRunPattern.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	})
	return strings.Trim(out, "\n")
}

// flattenInline turns line breaks outside fenced code into single spaces so a
// list item, heading or table cell stays on one line.
func flattenInline(s string) string {
	return mapOutsideFences(s, func(text string) string {
		return lineBreakPattern.ReplaceAllString(text, " ")
	})
}

func mapOutsideFences(s string, fn func(string) string) string {
	locs := fencePattern.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return fn(s)
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(fn(s[last:loc[0]]))
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(fn(s[last:]))
	return b.String()
}
