package convert

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func mustParse(t *testing.T, fragment string) *html.Node {
	t.Helper()
	root, err := ParseFragment(fragment)
	if err != nil {
		t.Fatalf("parse fragment: %v", err)
	}
	return root
}

func mustExtract(t *testing.T, fragment string) string {
	t.Helper()
	out, err := Extract(mustParse(t, fragment), Context{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return out
}

func TestExtract_Cases(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "heading and paragraphs",
			in:   `<h2>Title</h2><p>One <strong>bold</strong> and <em>it</em>.</p><p>Two</p>`,
			want: "## Title\n\nOne **bold** and *it*.\n\nTwo",
		},
		{
			name: "nested list",
			in:   `<ul><li>Fruits<ol><li>Apple</li><li>Banana</li></ol></li><li>Veg</li></ul>`,
			want: "- Fruits\n  1. Apple\n  2. Banana\n- Veg",
		},
		{
			name: "three levels",
			in:   `<ol><li>a<ul><li>b<ul><li>c</li></ul></li></ul></li></ol>`,
			want: "1. a\n  - b\n    - c",
		},
		{
			name: "ordered start attribute",
			in:   `<ol start="3"><li>c</li><li>d</li></ol>`,
			want: "3. c\n4. d",
		},
		{
			name: "paragraphs inside item are joined inline",
			in:   `<ul><li><p>first</p><p>second</p></li></ul>`,
			want: "- first second",
		},
		{
			name: "nested list behind wrapper div",
			in:   `<ul><li><div>outer<ul><li>inner</li></ul></div></li></ul>`,
			want: "- outer\n  - inner",
		},
		{
			name: "pretty printed list item",
			in:   "<ul>\n  <li>\n    <strong>a</strong>\n    <em>b</em>\n  </li>\n</ul>",
			want: "- **a** *b*",
		},
		{
			name: "bare item",
			in:   `<li>solo</li>`,
			want: "- solo",
		},
		{
			name: "line break in block and inline mode",
			in:   `<p>a<br>b</p><ul><li>c<br>d</li></ul>`,
			want: "a\nb\n\n- c d",
		},
		{
			name: "inline code keeps backticks literal",
			in:   `<p>use <code>go test</code> now</p>`,
			want: "use `go test` now",
		},
		{
			name: "blockquote",
			in:   `<blockquote><p>a</p><p>b</p></blockquote>`,
			want: "> a\n> \n> b",
		},
		{
			name: "image with and without alt",
			in:   `<p><img src="https://x.dev/a.png" alt="chart"> <img src="https://x.dev/b.png"></p>`,
			want: "![chart](https://x.dev/a.png) ![image](https://x.dev/b.png)",
		},
		{
			name: "rule",
			in:   `<p>a</p><hr><p>b</p>`,
			want: "a\n\n---\n\nb",
		},
		{
			name: "chrome is dropped",
			in:   `<div><button>Copy</button><svg><path d="M0 0"></path></svg><span aria-hidden="true">x</span><div role="toolbar">tools</div>text</div>`,
			want: "text",
		},
		{
			name: "unknown tags are transparent",
			in:   `<custom-el><p>inside</p></custom-el>`,
			want: "inside",
		},
		{
			name: "empty emphasis is not wrapped",
			in:   `<p>a<strong> </strong>b</p>`,
			want: "a b",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mustExtract(t, tc.in); got != tc.want {
				t.Fatalf("Extract = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtract_Table(t *testing.T) {
	root := mustParse(t, `<table><thead><tr><th>Name</th><th>Age</th></tr></thead><tbody><tr><td>Ann</td><td>30</td></tr></tbody></table>`)
	table := root.FirstChild
	want := "| Name | Age |\n| --- | --- |\n| Ann | 30 |\n"
	if got := extractNode(table, Context{}); got != want {
		t.Fatalf("table = %q, want %q", got, want)
	}
	got, err := Extract(table, Context{})
	if err != nil {
		t.Fatalf("extract table: %v", err)
	}
	if got != strings.TrimSuffix(want, "\n") {
		t.Fatalf("normalized table = %q", got)
	}
}

func TestExtract_TablePipeInCell(t *testing.T) {
	root := mustParse(t, `<table><tr><td>a|b</td><td>c</td></tr></table>`)
	got := extractNode(root.FirstChild, Context{})
	want := "| a\\|b | c |\n| --- | --- |\n"
	if got != want {
		t.Fatalf("table = %q, want %q", got, want)
	}
}

func TestExtract_LinkSafety(t *testing.T) {
	if got := mustExtract(t, `<p><a href="javascript:evil()">click</a></p>`); got != "click" {
		t.Fatalf("javascript link = %q, want plain text", got)
	}
	if got := mustExtract(t, `<p><a href="java&#09;script:evil()">click</a></p>`); got != "click" {
		t.Fatalf("obfuscated javascript link = %q, want plain text", got)
	}
	if got := mustExtract(t, `<p><a href="https://go.dev/doc">docs</a></p>`); got != "[docs](https://go.dev/doc)" {
		t.Fatalf("https link = %q", got)
	}
	if got := mustExtract(t, `<p><a>anchor</a></p>`); got != "anchor" {
		t.Fatalf("missing href = %q", got)
	}
}

func TestExtract_CodeBlock(t *testing.T) {
	in := `<pre><div>python</div><button>Copy code</button><code class="hljs language-python">def f():
    return "a` + "`" + `b"
</code></pre>`
	got := mustExtract(t, in)
	want := "```python\ndef f():\n    return \"a`b\"\n```"
	if got != want {
		t.Fatalf("code block = %q, want %q", got, want)
	}
}

func TestExtract_CodeBlockLanguageFallbacks(t *testing.T) {
	if got := mustExtract(t, `<pre class="language-sh"><code>ls</code></pre>`); got != "```sh\nls\n```" {
		t.Fatalf("pre language = %q", got)
	}
	if got := mustExtract(t, `<pre>plain</pre>`); got != "```\nplain\n```" {
		t.Fatalf("bare pre = %q", got)
	}
}

func TestExtract_NormalizeKeepsCodeBlankLines(t *testing.T) {
	in := "<div><p>a</p>\n\n\n\n<div>\n\n</div><pre><code>x\n\n\n\ny</code></pre><p>b</p></div>"
	got := mustExtract(t, in)
	if !strings.Contains(got, "x\n\n\n\ny") {
		t.Fatalf("code body was altered: %q", got)
	}
	outside := fencePattern.ReplaceAllString(got, "X")
	if strings.Contains(outside, "\n\n\n") {
		t.Fatalf("unexpected blank run outside code: %q", got)
	}
	if Normalize(got) != got {
		t.Fatalf("Normalize is not idempotent on %q", got)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"\n\n\na\n\n\n\nb\n\n",
		"  \n \t\nx\n   \n   \n\ny",
		"a\n\n\n```go\n\n\n\nfunc(){}\n```\n\n\n\nb",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize(%q): once=%q twice=%q", in, once, twice)
		}
	}
}

func TestExtract_InlineModeIsRaw(t *testing.T) {
	root := mustParse(t, `<p>a</p><p>b</p>`)
	got, err := Extract(root, Context{Inline: true})
	if err != nil {
		t.Fatalf("extract inline: %v", err)
	}
	if got != "a b" {
		t.Fatalf("inline extract = %q, want %q", got, "a b")
	}
}

func TestExtract_NilRoot(t *testing.T) {
	_, err := Extract(nil, Context{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := ExtractMessage(nil, Options{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ExtractMessage: expected ErrInvalidInput, got %v", err)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	got, err := ExtractHTML("")
	if err != nil {
		t.Fatalf("extract empty: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestExtractMessage_IncludeHTML(t *testing.T) {
	root := mustParse(t, `<div data-id="m1" onclick="x()"><p>Hi <em>there</em></p><script>alert(1)</script><button>Copy</button></div>`)
	before := renderForTest(t, root)

	got, err := ExtractMessage(root, Options{IncludeHTML: true})
	if err != nil {
		t.Fatalf("extract message: %v", err)
	}
	if got.Content != "Hi *there*" {
		t.Fatalf("content = %q", got.Content)
	}
	for _, bad := range []string{"<script", "alert(1)", "Copy", "onclick", "data-id"} {
		if strings.Contains(got.ContentHTML, bad) {
			t.Fatalf("content html contains %q: %s", bad, got.ContentHTML)
		}
	}
	if !strings.Contains(got.ContentHTML, "<p>Hi <em>there</em></p>") {
		t.Fatalf("content html lost markup: %s", got.ContentHTML)
	}
	if after := renderForTest(t, root); after != before {
		t.Fatalf("source tree was modified:\n%s\n%s", before, after)
	}

	plain, err := ExtractMessage(root, Options{})
	if err != nil {
		t.Fatalf("extract message without html: %v", err)
	}
	if plain.ContentHTML != "" {
		t.Fatalf("expected no content html, got %q", plain.ContentHTML)
	}
}

func renderForTest(t *testing.T, n *html.Node) string {
	t.Helper()
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		t.Fatalf("render: %v", err)
	}
	return b.String()
}
