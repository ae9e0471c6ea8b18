package convert

import "strings"

// isNavigableURL reports whether href can be followed as a link target.
func isNavigableURL(href string) bool {
	u := normalizeURL(href)
	if u == "" {
		return false
	}
	for _, scheme := range []string{"javascript:", "vbscript:", "data:"} {
		if strings.HasPrefix(u, scheme) {
			return false
		}
	}
	return true
}

func isURLAttr(k string) bool {
	switch k {
	case "href", "src":
		return true
	default:
		return false
	}
}

func isSafeURL(v, tag, attr string) bool {
	u := normalizeURL(v)
	if u == "" {
		return true
	}
	if strings.HasPrefix(u, "javascript:") || strings.HasPrefix(u, "vbscript:") {
		return false
	}
	if strings.HasPrefix(u, "data:") {
		if tag == "img" && attr == "src" {
			return strings.HasPrefix(u, "data:image/")
		}
		return false
	}
	return true
}

// normalizeURL lowercases v and drops the whitespace and control characters
// browsers ignore when resolving a scheme, so "java\tscript:" is caught.
func normalizeURL(v string) string {
	return strings.Map(func(r rune) rune {
		if r <= ' ' || r == 0x7f {
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(v)))
}
