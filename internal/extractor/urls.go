package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/IshaanNene/newsrelay/internal/types"
)

// parseBase validates the listing URL used to resolve article links.
func parseBase(baseURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", types.ErrInvalidURL, baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w %q: need an absolute http(s) URL", types.ErrInvalidURL, baseURL)
	}
	return u, nil
}

// siteRoot returns scheme://host of base.
func siteRoot(base *url.URL) string {
	return base.Scheme + "://" + base.Host
}

// NormalizeURL turns an href found on the listing into an absolute URL.
// Absolute links pass through, protocol-relative links take the site's
// scheme, and everything else is joined to the site root.
func NormalizeURL(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return href
	case strings.HasPrefix(href, "//"):
		return base.Scheme + ":" + href
	case strings.HasPrefix(href, "/"):
		return siteRoot(base) + href
	default:
		return siteRoot(base) + "/" + href
	}
}
