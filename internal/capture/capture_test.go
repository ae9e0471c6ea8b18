package capture

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/odysseus0/chatvault/internal/model"
)

const chatgptPage = `<html><head><title>Goroutine basics</title>
<link rel="canonical" href="https://chat.example/c/42"></head><body>
<nav>sidebar</nav>
<div data-message-author-role="user"><div class="whitespace-pre-wrap">How do I start a goroutine?</div></div>
<div data-message-author-role="assistant"><div class="markdown">
<p>Use the <code>go</code> keyword:</p>
<pre><div>go</div><button>Copy code</button><code class="language-go">go work()</code></pre>
<ul><li>cheap<ul><li>few KB stack</li></ul></li></ul>
</div><button>Regenerate</button></div>
<div data-message-author-role="assistant"><div class="markdown"> </div></div>
</body></html>`

func TestCapture_ChatGPTProfileIsDetected(t *testing.T) {
	c := NewCapturer(nil)
	conv, err := c.Capture(context.Background(), strings.NewReader(chatgptPage), Request{IncludeHTML: true})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if conv.Source != "chatgpt" {
		t.Fatalf("source = %q", conv.Source)
	}
	if conv.ID == "" {
		t.Fatal("expected generated id")
	}
	if conv.Title != "Goroutine basics" || conv.URL != "https://chat.example/c/42" {
		t.Fatalf("title/url = %q %q", conv.Title, conv.URL)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("messages = %d, want 2 (empty one dropped)", len(conv.Messages))
	}
	user, bot := conv.Messages[0], conv.Messages[1]
	if user.Role != model.RoleUser || user.Content != "How do I start a goroutine?" || user.Index != 0 {
		t.Fatalf("user message = %+v", user)
	}
	want := "Use the `go` keyword:\n\n```go\ngo work()\n```\n\n- cheap\n  - few KB stack"
	if bot.Role != model.RoleAssistant || bot.Content != want || bot.Index != 1 {
		t.Fatalf("assistant message = %q", bot.Content)
	}
	if !strings.Contains(bot.ContentHTML, `<code class="language-go">go work()</code>`) {
		t.Fatalf("content html = %s", bot.ContentHTML)
	}
	if strings.Contains(bot.ContentHTML, "Regenerate") {
		t.Fatalf("chrome leaked into content html: %s", bot.ContentHTML)
	}
}

func TestCapture_ClaudeSelectorsAndRequestOverrides(t *testing.T) {
	page := `<html><body>
<div data-testid="user-message"><p>Summarize this</p></div>
<div class="font-claude-response"><h2>Summary</h2><p>Short.</p></div>
</body></html>`
	c := NewCapturer(nil)
	conv, err := c.Capture(context.Background(), strings.NewReader(page), Request{ID: "fixed", Source: "claude", Title: "Mine", URL: "https://x.dev/chat"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if conv.ID != "fixed" || conv.Title != "Mine" || conv.URL != "https://x.dev/chat" || conv.Source != "claude" {
		t.Fatalf("request overrides ignored: %+v", conv)
	}
	if len(conv.Messages) != 2 || conv.Messages[1].Content != "## Summary\n\nShort." {
		t.Fatalf("messages = %+v", conv.Messages)
	}
	if conv.Messages[1].ContentHTML != "" {
		t.Fatalf("content html stored without IncludeHTML")
	}
}

func TestCapture_TitleFromFirstUserMessage(t *testing.T) {
	page := `<body><div data-role="human">first line here
second line</div><div data-role="ai">answer</div></body>`
	conv, err := NewCapturer(nil).Capture(context.Background(), strings.NewReader(page), Request{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if conv.Source != "generic" || conv.Title != "first line here" {
		t.Fatalf("source/title = %q %q", conv.Source, conv.Title)
	}
}

func TestCapture_FallbackConvertsBody(t *testing.T) {
	page := `<html><head><title>Export</title></head><body><script>x()</script><h1>Notes</h1><p>Some <strong>text</strong>.</p></body></html>`
	conv, err := NewCapturer(nil).Capture(context.Background(), strings.NewReader(page), Request{IncludeHTML: true})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(conv.Messages) != 1 {
		t.Fatalf("messages = %d", len(conv.Messages))
	}
	m := conv.Messages[0]
	if m.Role != model.RoleAssistant || m.ContentHTML != "" {
		t.Fatalf("fallback message = %+v", m)
	}
	if !strings.Contains(m.Content, "# Notes") || !strings.Contains(m.Content, "**text**") || strings.Contains(m.Content, "x()") {
		t.Fatalf("fallback content = %q", m.Content)
	}
}

func TestCapture_Errors(t *testing.T) {
	c := NewCapturer(nil)
	if _, err := c.Capture(context.Background(), strings.NewReader("<body></body>"), Request{}); !errors.Is(err, ErrNoMessages) {
		t.Fatalf("empty page: expected ErrNoMessages, got %v", err)
	}
	if _, err := c.Capture(context.Background(), strings.NewReader(chatgptPage), Request{Source: "nope"}); !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("unknown profile: expected ErrUnknownProfile, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Capture(ctx, strings.NewReader(chatgptPage), Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled: got %v", err)
	}
}

func TestNewCapturer_ExtraProfiles(t *testing.T) {
	c := NewCapturer(nil,
		Profile{Name: "gemini", MessageSelector: "message-content", AssistantSelector: "message-content"},
		Profile{Name: "generic", MessageSelector: ".turn", RoleAttr: "data-who"},
		Profile{Name: "", MessageSelector: "x"},
	)
	names := strings.Join(c.Profiles(), ",")
	if names != "chatgpt,claude,generic,gemini" {
		t.Fatalf("profiles = %s", names)
	}
	page := `<body><div class="turn" data-who="user">hi</div></body>`
	conv, err := c.Capture(context.Background(), strings.NewReader(page), Request{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if conv.Source != "generic" || len(conv.Messages) != 1 || conv.Messages[0].Role != model.RoleUser {
		t.Fatalf("override not used: %+v", conv)
	}
}

func TestNewCapturer_OverrideInheritsBuiltinSelectors(t *testing.T) {
	c := NewCapturer(nil, Profile{Name: "chatgpt", MessageSelector: "article [data-message-author-role]"})
	page := `<body><article>
<div data-message-author-role="user"><div class="whitespace-pre-wrap">hi</div></div>
<div data-message-author-role="assistant"><div class="markdown"><p>hello</p></div><button>Regenerate</button></div>
</article></body>`
	conv, err := c.Capture(context.Background(), strings.NewReader(page), Request{Source: "chatgpt"})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(conv.Messages))
	}
	if conv.Messages[0].Role != model.RoleUser || conv.Messages[1].Role != model.RoleAssistant {
		t.Fatalf("roles not taken from the built-in role attribute: %+v", conv.Messages)
	}
	if got := conv.Messages[1].Content; got != "hello" {
		t.Fatalf("assistant content = %q, want built-in content selector applied", got)
	}
}
