package policy

import "github.com/AryanVBW/focus-sub000/internal/domain"

// TikTokPolicy recognises the TikTok video feed. The whole app is a
// short-video feed, so its feed is labelled Reels.
type TikTokPolicy struct{}

// NewTikTokPolicy creates the TikTok detection policy.
func NewTikTokPolicy() *TikTokPolicy {
	return &TikTokPolicy{}
}

func (p *TikTokPolicy) ID() string {
	return "tiktok"
}

func (p *TikTokPolicy) Name() string {
	return "TikTok"
}

// Packages returns the global and regional TikTok builds.
func (p *TikTokPolicy) Packages() []string {
	return []string{"com.zhiliaoapp.musically", "com.ss.android.ugc.trill", "com.zhiliaoapp.musically.go"}
}

func (p *TikTokPolicy) TextRules() []domain.TextRule {
	return []domain.TextRule{
		{Text: "For You", ContentType: domain.ContentReels},
	}
}

func (p *TikTokPolicy) IDRules() []domain.IDRule {
	return []domain.IDRule{
		{ViewID: "main_feed_view_pager", ContentType: domain.ContentReels},
		{ViewID: "video_feed_container", ContentType: domain.ContentReels},
	}
}

func (p *TikTokPolicy) URLRules() []domain.URLRule {
	return []domain.URLRule{
		{Segment: "/video/", ContentType: domain.ContentReels},
	}
}

func (p *TikTokPolicy) WebViewIDs() []string {
	return nil
}

func (p *TikTokPolicy) StructuralType() domain.ContentType {
	return domain.ContentReels
}

func (p *TikTokPolicy) SafeTargets() []domain.NavTarget {
	return nil
}

func (p *TikTokPolicy) HighEngagement() bool {
	return true
}

// Ensure TikTokPolicy implements AppPolicy.
var _ AppPolicy = (*TikTokPolicy)(nil)
