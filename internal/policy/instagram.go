package policy

import "github.com/AryanVBW/focus-sub000/internal/domain"

// InstagramPolicy recognises Reels, Stories and Explore in Instagram.
type InstagramPolicy struct{}

// NewInstagramPolicy creates the Instagram detection policy.
func NewInstagramPolicy() *InstagramPolicy {
	return &InstagramPolicy{}
}

func (p *InstagramPolicy) ID() string {
	return "instagram"
}

func (p *InstagramPolicy) Name() string {
	return "Instagram"
}

func (p *InstagramPolicy) Packages() []string {
	return []string{"com.instagram.android", "com.instagram.lite"}
}

func (p *InstagramPolicy) TextRules() []domain.TextRule {
	return []domain.TextRule{
		{Text: "Reels", ContentType: domain.ContentReels},
		{Text: "Reel by", Partial: true, ContentType: domain.ContentReels},
		{Text: "Story", ContentType: domain.ContentStories},
		{Text: "'s story", Partial: true, ContentType: domain.ContentStories},
		{Text: "Explore", ContentType: domain.ContentExplore},
	}
}

// IDRules returns Instagram view ids. Instagram internally calls stories
// "reels", hence the reel_viewer_* ids map to Stories.
func (p *InstagramPolicy) IDRules() []domain.IDRule {
	return []domain.IDRule{
		{ViewID: "clips_viewer_view_pager", ContentType: domain.ContentReels},
		{ViewID: "clips_video_container", ContentType: domain.ContentReels},
		{ViewID: "clips_viewer_container", ContentType: domain.ContentReels},
		{ViewID: "reel_viewer_root", ContentType: domain.ContentStories},
		{ViewID: "reel_viewer_media_container", ContentType: domain.ContentStories},
		{ViewID: "explore_action_bar_container", ContentType: domain.ContentExplore},
	}
}

func (p *InstagramPolicy) URLRules() []domain.URLRule {
	return []domain.URLRule{
		{Segment: "/reels/", ContentType: domain.ContentReels},
		{Segment: "/reel/", ContentType: domain.ContentReels},
		{Segment: "/stories/", ContentType: domain.ContentStories},
		{Segment: "/explore/", ContentType: domain.ContentExplore},
	}
}

func (p *InstagramPolicy) WebViewIDs() []string {
	return []string{"ig_browser_text_title", "browser_url"}
}

func (p *InstagramPolicy) StructuralType() domain.ContentType {
	return domain.ContentReels
}

func (p *InstagramPolicy) SafeTargets() []domain.NavTarget {
	return []domain.NavTarget{
		{ViewID: "feed_tab", Label: "Home"},
		{ViewID: "profile_tab", Label: "Profile"},
	}
}

func (p *InstagramPolicy) HighEngagement() bool {
	return false
}

// Ensure InstagramPolicy implements AppPolicy.
var _ AppPolicy = (*InstagramPolicy)(nil)
