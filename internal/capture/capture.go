// Package capture turns a saved chat page into a conversation record.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	markdown "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/odysseus0/chatvault/internal/convert"
	"github.com/odysseus0/chatvault/internal/model"
)

var (
	ErrNoMessages     = errors.New("no messages found")
	ErrUnknownProfile = errors.New("unknown profile")
)

const (
	titleLength  = 80
	defaultTitle = "Untitled conversation"
)

type Request struct {
	ID          string
	Source      string
	Title       string
	URL         string
	IncludeHTML bool
}

type Capturer struct {
	logger    *slog.Logger
	profiles  []Profile
	converter *markdown.Converter
}

// NewCapturer returns a Capturer knowing the built-in profiles plus extra.
// An extra profile replaces a built-in one of the same name and takes the
// built-in's value for any optional selector it leaves empty.
func NewCapturer(logger *slog.Logger, extra ...Profile) *Capturer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	profiles := make([]Profile, 0, len(builtinProfiles)+len(extra))
	overridden := make(map[string]Profile, len(extra))
	for _, p := range extra {
		if p.valid() {
			overridden[p.Name] = p
		}
	}
	for _, p := range builtinProfiles {
		if o, ok := overridden[p.Name]; ok {
			p = o.inherit(p)
			delete(overridden, p.Name)
		}
		profiles = append(profiles, p)
	}
	for _, p := range extra {
		if o, ok := overridden[p.Name]; ok {
			profiles = append(profiles, o)
			delete(overridden, p.Name)
		}
	}
	return &Capturer{
		logger:    logger,
		profiles:  profiles,
		converter: markdown.NewConverter("", true, nil),
	}
}

// Profiles lists the known profile names in detection order.
func (c *Capturer) Profiles() []string {
	names := make([]string, 0, len(c.profiles))
	for _, p := range c.profiles {
		names = append(names, p.Name)
	}
	return names
}

// Capture parses page and extracts its messages. With an empty req.Source the
// first profile whose message selector matches is used.
func (c *Capturer) Capture(ctx context.Context, page io.Reader, req Request) (model.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return model.Conversation{}, err
	}
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return model.Conversation{}, fmt.Errorf("parse page: %w", err)
	}

	profile, err := c.pick(doc, req.Source)
	if err != nil {
		return model.Conversation{}, err
	}

	messages, err := c.extractMessages(ctx, doc, profile, req.IncludeHTML)
	if err != nil {
		return model.Conversation{}, err
	}
	fallback := false
	if len(messages) == 0 {
		m, err := c.fallback(doc)
		if err != nil {
			return model.Conversation{}, err
		}
		messages = []model.Message{m}
		fallback = true
	}

	conv := model.Conversation{
		ID:       strings.TrimSpace(req.ID),
		Source:   profile.Name,
		Title:    c.title(doc, profile, req.Title, messages),
		URL:      pageURL(doc, req.URL),
		Messages: messages,
	}
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}

	c.logger.Debug("captured conversation",
		"id", conv.ID,
		"source", conv.Source,
		"messages", len(conv.Messages),
		"fallback", fallback,
	)
	return conv, nil
}

func (c *Capturer) pick(doc *goquery.Document, name string) (Profile, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		for _, p := range c.profiles {
			if p.Name == name {
				return p, nil
			}
		}
		return Profile{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownProfile, name, strings.Join(c.Profiles(), ", "))
	}
	for _, p := range c.profiles {
		if p.locate(doc).Length() > 0 {
			return p, nil
		}
	}
	for _, p := range c.profiles {
		if p.Name == genericProfile {
			return p, nil
		}
	}
	return builtinProfiles[len(builtinProfiles)-1], nil
}

func (c *Capturer) extractMessages(ctx context.Context, doc *goquery.Document, p Profile, includeHTML bool) ([]model.Message, error) {
	var (
		out  []model.Message
		ferr error
	)
	p.locate(doc).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if err := ctx.Err(); err != nil {
			ferr = err
			return false
		}
		role, ok := p.role(s)
		if !ok {
			c.logger.Debug("skipping message without role", "profile", p.Name, "position", i)
			return true
		}
		node := p.content(s).Get(0)
		ex, err := convert.ExtractMessage(node, convert.Options{IncludeHTML: includeHTML})
		if err != nil {
			ferr = fmt.Errorf("extract message %d: %w", i, err)
			return false
		}
		if strings.TrimSpace(ex.Content) == "" {
			return true
		}
		out = append(out, model.Message{
			Role:        role,
			Content:     ex.Content,
			ContentHTML: ex.ContentHTML,
			Index:       len(out),
		})
		return true
	})
	return out, ferr
}

// fallback converts the whole page body into a single assistant message. No
// HTML form is kept; the viewer renders the markdown instead.
func (c *Capturer) fallback(doc *goquery.Document) (model.Message, error) {
	body := doc.Find("body").First()
	body.Find("script, style, noscript, template, svg, nav, button").Remove()
	raw, err := body.Html()
	if err != nil {
		return model.Message{}, fmt.Errorf("read page body: %w", err)
	}
	md, err := c.converter.ConvertString(raw)
	if err != nil {
		return model.Message{}, fmt.Errorf("convert page body: %w", err)
	}
	md = convert.Normalize(md)
	if md == "" {
		return model.Message{}, ErrNoMessages
	}
	return model.Message{Role: model.RoleAssistant, Content: md}, nil
}

func (c *Capturer) title(doc *goquery.Document, p Profile, requested string, messages []model.Message) string {
	candidates := []string{requested}
	if p.TitleSelector != "" {
		candidates = append(candidates, doc.Find(p.TitleSelector).First().Text())
	}
	candidates = append(candidates, doc.Find("title").First().Text())
	for _, m := range messages {
		if m.Role == model.RoleUser {
			first, _, _ := strings.Cut(strings.TrimSpace(m.Content), "\n")
			candidates = append(candidates, first)
			break
		}
	}
	for _, t := range candidates {
		if t = strings.Join(strings.Fields(t), " "); t != "" {
			return clip(t, titleLength)
		}
	}
	return defaultTitle
}

func pageURL(doc *goquery.Document, requested string) string {
	if u := strings.TrimSpace(requested); u != "" {
		return u
	}
	if href, ok := doc.Find("link[rel='canonical']").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		return strings.TrimSpace(href)
	}
	if u, ok := doc.Find("meta[property='og:url']").First().Attr("content"); ok {
		return strings.TrimSpace(u)
	}
	return ""
}

func clip(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max-1])) + "…"
}
