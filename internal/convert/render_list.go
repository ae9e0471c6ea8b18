package convert

import (
	"strconv"
	"strings"
)

type listLine struct {
	indent  int
	ordered bool
	number  int
	text    string
}

func parseListLine(line string) (listLine, bool) {
	m := listLinePattern.FindStringSubmatch(line)
	if m == nil {
		return listLine{}, false
	}
	l := listLine{indent: indentWidthOf(m[1]), text: m[3]}
	if strings.HasSuffix(m[2], ".") {
		l.ordered = true
		l.number, _ = strconv.Atoi(strings.TrimSuffix(m[2], "."))
	}
	return l, true
}

// indentWidthOf counts leading whitespace, a tab counting as four spaces.
func indentWidthOf(ws string) int {
	n := 0
	for _, r := range ws {
		if r == '\t' {
			n += 4
		} else {
			n++
		}
	}
	return n
}

// collectListRegion consumes contiguous list lines starting at lines[start].
// Blank lines are absorbed when another list line follows them.
func collectListRegion(lines []string, start int) ([]listLine, int) {
	var items []listLine
	i := start
	for i < len(lines) {
		if l, ok := parseListLine(lines[i]); ok {
			items = append(items, l)
			i++
			continue
		}
		if strings.TrimSpace(lines[i]) != "" {
			break
		}
		j := i
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j == len(lines) {
			break
		}
		if _, ok := parseListLine(lines[j]); !ok {
			break
		}
		i = j
	}
	return items, i
}

// buildList renders items[pos:] as one list whose base indent and kind come
// from items[pos]. Lines at the base indent are siblings, deeper lines open a
// nested list inside the current item, and a shallower line ends the list and
// is handed back to the caller through the returned position.
//
// A deeper line with no open item gets a synthetic empty item so nothing is
// dropped. After a nested list closes, further deeper lines attach to the same
// item as another nested list.
func (t *spanTable) buildList(items []listLine, pos int) (string, int) {
	first := items[pos]
	base := first.indent
	tag := "ul"
	if first.ordered {
		tag = "ol"
	}

	var b strings.Builder
	b.WriteString("<" + tag)
	if first.ordered && first.number > 1 {
		b.WriteString(` start="` + strconv.Itoa(first.number) + `"`)
	}
	b.WriteString(">")

	open := false
	i := pos
	for i < len(items) {
		it := items[i]
		if it.indent < base {
			break
		}
		if it.indent == base {
			if open {
				b.WriteString("</li>")
			}
			b.WriteString("<li>" + t.inline(strings.TrimSpace(it.text)))
			open = true
			i++
			continue
		}
		if !open {
			b.WriteString("<li>")
			open = true
		}
		var child string
		child, i = t.buildList(items, i)
		b.WriteString(child)
	}
	if open {
		b.WriteString("</li>")
	}
	b.WriteString("</" + tag + ">")
	return b.String(), i
}
