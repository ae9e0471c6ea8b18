package convert

import (
	"strings"
	"testing"
)

func TestRoundTrip_NestedList(t *testing.T) {
	md := mustExtract(t, `<ul><li>Item<ol><li>One</li><li>Two</li></ol></li></ul>`)
	got := Render(md)
	want := "<ul><li>Item<ol><li>One</li><li>Two</li></ol></li></ul>"
	if got != want {
		t.Fatalf("round trip\n  md: %q\n got: %s\nwant: %s", md, got, want)
	}
}

func TestRoundTrip_CodeBody(t *testing.T) {
	body := "func main() {\n\tfmt.Println(\"hi\") // *not* `md`\n}"
	md := mustExtract(t, `<pre><code class="language-go">`+escapeText(body)+`</code></pre>`)
	if md != "```go\n"+body+"\n```" {
		t.Fatalf("extracted = %q", md)
	}
	got := Render(md)
	if !strings.Contains(got, `<code class="language-go">`+escapeText(body)+`</code>`) {
		t.Fatalf("rendered = %s", got)
	}
	if Render(md) != got {
		t.Fatal("render is not stable")
	}
}

func TestRoundTrip_HeadingShift(t *testing.T) {
	md := mustExtract(t, `<h1>Top</h1><p>x</p>`)
	if got := Render(md); got != "<h2>Top</h2>\n<p>x</p>" {
		t.Fatalf("rendered = %s", got)
	}
}

func TestRoundTrip_QuotedCodeBlock(t *testing.T) {
	md := mustExtract(t, `<blockquote><pre><code class="language-py">x = 1`+"\n"+`y = 2</code></pre></blockquote>`)
	got := Render(md)
	if !strings.Contains(got, `<code class="language-py">x = 1`+"\n"+`y = 2</code>`) {
		t.Fatalf("code body lost\n  md: %q\n got: %s", md, got)
	}
	if !strings.HasPrefix(got, "<blockquote>") || strings.Contains(got, "<blockquote></blockquote>") {
		t.Fatalf("code block not inside the quote: %s", got)
	}
	if strings.Contains(got, "&gt; ") {
		t.Fatalf("quote prefixes leaked into output: %s", got)
	}
}
