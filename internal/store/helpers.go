package store

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

func parseDBTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported time format %q", v)
}

// dbTimeLayout keeps a fixed fraction width so stored values sort as text.
const dbTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timeToDBString(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

// truncate shortens v to at most max runes, marking the cut with an ellipsis.
func truncate(v string, max int) string {
	if max <= 0 || utf8.RuneCountInString(v) <= max {
		return v
	}
	r := []rune(v)
	return string(r[:max-1]) + "…"
}

// ftsQuery quotes every term so user input is matched literally instead of
// being parsed as FTS5 query syntax.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
