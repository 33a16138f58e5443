package policy

import "github.com/AryanVBW/focus-sub000/internal/domain"

// FacebookPolicy recognises Reels and Stories in Facebook. Facebook ships
// obfuscated view ids, so detection leans on text, URLs and structure.
type FacebookPolicy struct{}

// NewFacebookPolicy creates the Facebook detection policy.
func NewFacebookPolicy() *FacebookPolicy {
	return &FacebookPolicy{}
}

func (p *FacebookPolicy) ID() string {
	return "facebook"
}

func (p *FacebookPolicy) Name() string {
	return "Facebook"
}

func (p *FacebookPolicy) Packages() []string {
	return []string{"com.facebook.katana", "com.facebook.lite"}
}

func (p *FacebookPolicy) TextRules() []domain.TextRule {
	return []domain.TextRule{
		{Text: "Reels", ContentType: domain.ContentReels},
		{Text: "Reels and short videos", Partial: true, ContentType: domain.ContentReels},
		{Text: "Stories", ContentType: domain.ContentStories},
	}
}

func (p *FacebookPolicy) IDRules() []domain.IDRule {
	return nil
}

func (p *FacebookPolicy) URLRules() []domain.URLRule {
	return []domain.URLRule{
		{Segment: "/reel/", ContentType: domain.ContentReels},
		{Segment: "/stories/", ContentType: domain.ContentStories},
	}
}

func (p *FacebookPolicy) WebViewIDs() []string {
	return []string{"url_bar_text"}
}

func (p *FacebookPolicy) StructuralType() domain.ContentType {
	return domain.ContentReels
}

func (p *FacebookPolicy) SafeTargets() []domain.NavTarget {
	return []domain.NavTarget{
		{Label: "Home"},
	}
}

func (p *FacebookPolicy) HighEngagement() bool {
	return false
}

// Ensure FacebookPolicy implements AppPolicy.
var _ AppPolicy = (*FacebookPolicy)(nil)
