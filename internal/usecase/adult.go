package usecase

import (
	"net/url"
	"strings"

	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/uitree"
)

// AddressBarText returns the text of the browser's visible address bar, or
// "" when none of its known bar ids is on screen.
func AddressBarText(root domain.Node, browser domain.BrowserProfile) string {
	for _, id := range browser.URLBarID {
		for _, n := range uitree.FindByID(root, id) {
			if !uitree.Visible(n) {
				continue
			}
			if t := strings.TrimSpace(uitree.Text(n)); t != "" {
				return t
			}
			if d := strings.TrimSpace(uitree.Description(n)); d != "" {
				return d
			}
		}
	}
	return ""
}

// MatchAdult checks address bar text against blocked domains and keywords.
// Domains match the host or any subdomain of it; keywords match anywhere in
// the text, which also covers search queries typed into the bar. The matched
// term is returned.
func MatchAdult(text string, keywords, domains []string) (string, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return "", false
	}

	if host := hostOf(text); host != "" {
		for _, d := range domains {
			d = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(d), "www."))
			if d == "" {
				continue
			}
			if host == d || strings.HasSuffix(host, "."+d) {
				return d, true
			}
		}
	}

	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(text, k) {
			return k, true
		}
	}
	return "", false
}

func hostOf(text string) string {
	if strings.ContainsAny(text, " \t") {
		return ""
	}
	raw := text
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if !strings.Contains(host, ".") {
		return ""
	}
	return host
}
