package policy

import "github.com/AryanVBW/focus-sub000/internal/domain"

// DefaultBrowsers returns the browsers whose address bar is inspected for
// adult content.
func DefaultBrowsers() []domain.BrowserProfile {
	return []domain.BrowserProfile{
		{Package: "com.android.chrome", Name: "Chrome", URLBarID: []string{"url_bar", "search_box_text"}},
		{Package: "com.chrome.beta", Name: "Chrome Beta", URLBarID: []string{"url_bar"}},
		{Package: "org.mozilla.firefox", Name: "Firefox", URLBarID: []string{"mozac_browser_toolbar_url_view", "url_bar_title"}},
		{Package: "org.mozilla.focus", Name: "Firefox Focus", URLBarID: []string{"display_url", "mozac_browser_toolbar_url_view"}},
		{Package: "com.brave.browser", Name: "Brave", URLBarID: []string{"url_bar"}},
		{Package: "com.microsoft.emmx", Name: "Edge", URLBarID: []string{"url_bar"}},
		{Package: "com.sec.android.app.sbrowser", Name: "Samsung Internet", URLBarID: []string{"location_bar_edit_text"}},
		{Package: "com.opera.browser", Name: "Opera", URLBarID: []string{"url_field"}},
		{Package: "com.duckduckgo.mobile.android", Name: "DuckDuckGo", URLBarID: []string{"omnibarTextInput"}},
		{Package: "com.kiwibrowser.browser", Name: "Kiwi", URLBarID: []string{"url_bar"}},
	}
}

// DefaultAdultKeywords are matched against the address bar text and host.
func DefaultAdultKeywords() []string {
	return []string{
		"porn", "xxx", "xvideos", "xnxx", "pornhub", "xhamster", "redtube",
		"youporn", "hentai", "nsfw", "onlyfans", "chaturbate", "brazzers",
	}
}

// DefaultAdultDomains are matched against the host and its parent domains.
func DefaultAdultDomains() []string {
	return []string{
		"pornhub.com", "xvideos.com", "xnxx.com", "xhamster.com", "redtube.com",
		"youporn.com", "onlyfans.com", "chaturbate.com", "brazzers.com",
	}
}
