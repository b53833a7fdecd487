package pipeline

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/IshaanNene/newsrelay/internal/types"
)

// HTMLSanitizeMiddleware strips stray tags and decodes entities that survive
// text extraction (double-encoded titles are common on CMS listings).
type HTMLSanitizeMiddleware struct {
	stripRe *regexp.Regexp
}

func NewHTMLSanitizeMiddleware() *HTMLSanitizeMiddleware {
	return &HTMLSanitizeMiddleware{
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

func (m *HTMLSanitizeMiddleware) Name() string { return "html_sanitize" }

func (m *HTMLSanitizeMiddleware) Process(c *types.Candidate) (*types.Candidate, error) {
	clean := func(s string) string {
		if s == "" {
			return s
		}
		return html.UnescapeString(m.stripRe.ReplaceAllString(s, ""))
	}
	c.Title = clean(c.Title)
	c.Excerpt = clean(c.Excerpt)
	c.Category = clean(c.Category)
	return c, nil
}

// TrimMiddleware trims and collapses whitespace in text fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(c *types.Candidate) (*types.Candidate, error) {
	c.Title = CollapseSpace(c.Title)
	c.Excerpt = CollapseSpace(c.Excerpt)
	c.Category = CollapseSpace(c.Category)
	c.URL = strings.TrimSpace(c.URL)
	c.PublishedDate = strings.TrimSpace(c.PublishedDate)
	return c, nil
}

// RequiredFieldsMiddleware drops candidates without a title or URL.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(c *types.Candidate) (*types.Candidate, error) {
	if c.Title == "" || c.URL == "" {
		return nil, nil
	}
	return c, nil
}

// MinTitleLengthMiddleware drops candidates whose title is not longer than
// MinLength runes. Short titles are usually navigation labels.
type MinTitleLengthMiddleware struct {
	MinLength int
}

func (m *MinTitleLengthMiddleware) Name() string { return "min_title_length" }

func (m *MinTitleLengthMiddleware) Process(c *types.Candidate) (*types.Candidate, error) {
	if utf8.RuneCountInString(c.Title) <= m.MinLength {
		return nil, nil
	}
	return c, nil
}

// TruncateMiddleware caps title and excerpt lengths in runes.
type TruncateMiddleware struct {
	MaxTitle   int
	MaxExcerpt int
}

func (m *TruncateMiddleware) Name() string { return "truncate" }

func (m *TruncateMiddleware) Process(c *types.Candidate) (*types.Candidate, error) {
	c.Title = Truncate(c.Title, m.MaxTitle)
	c.Excerpt = Truncate(c.Excerpt, m.MaxExcerpt)
	return c, nil
}

// DefaultValueMiddleware fills in the category and published date when the
// listing did not provide them.
type DefaultValueMiddleware struct {
	Category string
	Date     func() string
}

func (m *DefaultValueMiddleware) Name() string { return "default_values" }

func (m *DefaultValueMiddleware) Process(c *types.Candidate) (*types.Candidate, error) {
	if c.Category == "" {
		c.Category = m.Category
		if c.Category == "" {
			c.Category = types.DefaultCategory
		}
	}
	if c.PublishedDate == "" && m.Date != nil {
		c.PublishedDate = m.Date()
	}
	return c, nil
}

// CollapseSpace trims s and replaces internal whitespace runs with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns the first n runes of s. n <= 0 disables truncation.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
