package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/newsrelay/internal/pipeline"
)

// FieldRule resolves one candidate field from an article container.
// Selectors are tried in priority order; within a selector, matches are
// tried in document order. The first non-empty value wins.
type FieldRule struct {
	Selectors []string

	// Attrs are read before the element text, e.g. datetime on <time>.
	Attrs []string
}

// From returns the first non-empty value found under sel.
func (r FieldRule) From(sel *goquery.Selection) (string, bool) {
	for _, selector := range r.Selectors {
		var value string
		sel.Find(selector).EachWithBreak(func(_ int, m *goquery.Selection) bool {
			for _, attr := range r.Attrs {
				if v, ok := m.Attr(attr); ok && strings.TrimSpace(v) != "" {
					value = strings.TrimSpace(v)
					return false
				}
			}
			if v := pipeline.CollapseSpace(m.Text()); v != "" {
				value = v
				return false
			}
			return true
		})
		if value != "" {
			return value, true
		}
	}
	return "", false
}

// Rules groups the field rules applied to every container.
type Rules struct {
	Title    FieldRule
	Excerpt  FieldRule
	Date     FieldRule
	Category FieldRule
}

// DefaultRules returns the selectors used for common Indonesian and English
// news listing markup.
func DefaultRules() Rules {
	return Rules{
		Title: FieldRule{Selectors: []string{
			".title", ".news-title", ".judul", ".entry-title", "h2", "h3", "h4", "h1", ".headline",
		}},
		Excerpt: FieldRule{Selectors: []string{
			".excerpt", ".summary", ".description", ".desc", ".ringkasan", "p",
		}},
		Date: FieldRule{
			Selectors: []string{"time", ".date", ".tanggal", ".published", ".post-date", ".meta-date"},
			Attrs:     []string{"datetime"},
		},
		Category: FieldRule{Selectors: []string{
			".category", ".kategori", ".tag", ".label", ".badge",
		}},
	}
}

// firstLink returns the container itself when it is an anchor with an
// href, else its first descendant anchor with a usable href.
func firstLink(sel *goquery.Selection) (*goquery.Selection, string) {
	if goquery.NodeName(sel) == "a" {
		if href, ok := usableHref(sel); ok {
			return sel, href
		}
	}
	var (
		link *goquery.Selection
		href string
	)
	sel.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if h, ok := usableHref(a); ok {
			link, href = a, h
			return false
		}
		return true
	})
	return link, href
}

func usableHref(a *goquery.Selection) (string, bool) {
	href, ok := a.Attr("href")
	if !ok {
		return "", false
	}
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if href == "" ||
		strings.HasPrefix(lower, "#") ||
		strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return "", false
	}
	return href, true
}
