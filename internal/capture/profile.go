package capture

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/odysseus0/chatvault/internal/model"
)

// Profile locates messages in the saved markup of one chat application.
//
// Role comes from RoleAttr when set, otherwise from whichever of UserSelector
// and AssistantSelector the message element matches. ContentSelector narrows
// the extracted subtree within a message element.
type Profile struct {
	Name              string
	MessageSelector   string
	RoleAttr          string
	UserSelector      string
	AssistantSelector string
	ContentSelector   string
	TitleSelector     string
}

const genericProfile = "generic"

var builtinProfiles = []Profile{
	{
		Name:            "chatgpt",
		MessageSelector: "[data-message-author-role]",
		RoleAttr:        "data-message-author-role",
		ContentSelector: ".markdown, .whitespace-pre-wrap",
	},
	{
		Name:              "claude",
		MessageSelector:   "[data-testid='user-message'], .font-claude-response, .font-claude-message",
		UserSelector:      "[data-testid='user-message']",
		AssistantSelector: ".font-claude-response, .font-claude-message",
	},
	{
		Name:            genericProfile,
		MessageSelector: "[data-role]",
		RoleAttr:        "data-role",
	},
}

// inherit fills the empty optional selectors of p from base.
func (p Profile) inherit(base Profile) Profile {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&p.RoleAttr, base.RoleAttr)
	fill(&p.UserSelector, base.UserSelector)
	fill(&p.AssistantSelector, base.AssistantSelector)
	fill(&p.ContentSelector, base.ContentSelector)
	fill(&p.TitleSelector, base.TitleSelector)
	return p
}

// role classifies a located message element. ok is false when the element
// carries no recognizable role.
func (p Profile) role(s *goquery.Selection) (model.Role, bool) {
	if p.RoleAttr != "" {
		if v, exists := s.Attr(p.RoleAttr); exists {
			r, err := model.ParseRole(v)
			return r, err == nil
		}
	}
	if p.UserSelector != "" && s.Is(p.UserSelector) {
		return model.RoleUser, true
	}
	if p.AssistantSelector != "" && s.Is(p.AssistantSelector) {
		return model.RoleAssistant, true
	}
	return "", false
}

// content returns the subtree to extract for a message element.
func (p Profile) content(s *goquery.Selection) *goquery.Selection {
	if p.ContentSelector == "" {
		return s
	}
	if inner := s.Find(p.ContentSelector).First(); inner.Length() > 0 {
		return inner
	}
	return s
}

// locate returns the outermost elements matching MessageSelector.
func (p Profile) locate(doc *goquery.Document) *goquery.Selection {
	return doc.Find(p.MessageSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.ParentsFiltered(p.MessageSelector).Length() == 0
	})
}

func (p Profile) valid() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.MessageSelector) != ""
}
