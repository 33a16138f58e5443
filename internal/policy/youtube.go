package policy

import "github.com/AryanVBW/focus-sub000/internal/domain"

// YouTubePolicy recognises the Shorts player in YouTube.
type YouTubePolicy struct{}

// NewYouTubePolicy creates the YouTube detection policy.
func NewYouTubePolicy() *YouTubePolicy {
	return &YouTubePolicy{}
}

func (p *YouTubePolicy) ID() string {
	return "youtube"
}

func (p *YouTubePolicy) Name() string {
	return "YouTube"
}

func (p *YouTubePolicy) Packages() []string {
	return []string{"com.google.android.youtube", "app.revanced.android.youtube"}
}

func (p *YouTubePolicy) TextRules() []domain.TextRule {
	return []domain.TextRule{
		{Text: "Shorts", ContentType: domain.ContentShorts},
		{Text: "#shorts", Partial: true, ContentType: domain.ContentShorts},
	}
}

func (p *YouTubePolicy) IDRules() []domain.IDRule {
	return []domain.IDRule{
		{ViewID: "reel_player_page_container", ContentType: domain.ContentShorts},
		{ViewID: "reel_recycler", ContentType: domain.ContentShorts},
		{ViewID: "reel_watch_player", ContentType: domain.ContentShorts},
		{ViewID: "shorts_container", ContentType: domain.ContentShorts},
	}
}

func (p *YouTubePolicy) URLRules() []domain.URLRule {
	return []domain.URLRule{
		{Segment: "/shorts/", ContentType: domain.ContentShorts},
	}
}

func (p *YouTubePolicy) WebViewIDs() []string {
	return nil
}

func (p *YouTubePolicy) StructuralType() domain.ContentType {
	return domain.ContentShorts
}

func (p *YouTubePolicy) SafeTargets() []domain.NavTarget {
	return []domain.NavTarget{
		{ViewID: "pivot_home", Label: "Home"},
		{ViewID: "pivot_subscriptions", Label: "Subscriptions"},
	}
}

func (p *YouTubePolicy) HighEngagement() bool {
	return false
}

// Ensure YouTubePolicy implements AppPolicy.
var _ AppPolicy = (*YouTubePolicy)(nil)
