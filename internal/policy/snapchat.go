package policy

import "github.com/AryanVBW/focus-sub000/internal/domain"

// SnapchatPolicy recognises Spotlight and Stories in Snapchat.
type SnapchatPolicy struct{}

// NewSnapchatPolicy creates the Snapchat detection policy.
func NewSnapchatPolicy() *SnapchatPolicy {
	return &SnapchatPolicy{}
}

func (p *SnapchatPolicy) ID() string {
	return "snapchat"
}

func (p *SnapchatPolicy) Name() string {
	return "Snapchat"
}

func (p *SnapchatPolicy) Packages() []string {
	return []string{"com.snapchat.android"}
}

func (p *SnapchatPolicy) TextRules() []domain.TextRule {
	return []domain.TextRule{
		{Text: "Spotlight", ContentType: domain.ContentSpotlight},
		{Text: "Stories", ContentType: domain.ContentStories},
	}
}

func (p *SnapchatPolicy) IDRules() []domain.IDRule {
	return []domain.IDRule{
		{ViewID: "spotlight_container", ContentType: domain.ContentSpotlight},
		{ViewID: "spotlight_feed", ContentType: domain.ContentSpotlight},
		{ViewID: "story_viewer", ContentType: domain.ContentStories},
		{ViewID: "discover_feed", ContentType: domain.ContentStories},
	}
}

func (p *SnapchatPolicy) URLRules() []domain.URLRule {
	return []domain.URLRule{
		{Segment: "/spotlight/", ContentType: domain.ContentSpotlight},
	}
}

func (p *SnapchatPolicy) WebViewIDs() []string {
	return nil
}

func (p *SnapchatPolicy) StructuralType() domain.ContentType {
	return domain.ContentSpotlight
}

// SafeTargets returns the camera tab, the least distracting Snapchat surface.
func (p *SnapchatPolicy) SafeTargets() []domain.NavTarget {
	return []domain.NavTarget{
		{ViewID: "ngs_camera_icon_container", Label: "Camera"},
	}
}

func (p *SnapchatPolicy) HighEngagement() bool {
	return false
}

// Ensure SnapchatPolicy implements AppPolicy.
var _ AppPolicy = (*SnapchatPolicy)(nil)
