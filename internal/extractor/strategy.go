package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is a listing page parsed once and shared by the CSS and XPath
// strategies.
type Document struct {
	Root  *html.Node
	Query *goquery.Document
	Base  *url.URL
}

// NewDocument parses body. base is used to resolve relative links.
func NewDocument(body []byte, base *url.URL) (*Document, error) {
	root, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{
		Root:  root,
		Query: goquery.NewDocumentFromNode(root),
		Base:  base,
	}, nil
}

// Strategy finds the elements of a listing page that each hold one article.
type Strategy interface {
	// Name identifies the strategy in results and logs.
	Name() string

	// Match returns the article containers in document order.
	Match(doc *Document) []*goquery.Selection
}

// CSSStrategy matches containers with a goquery selector.
type CSSStrategy struct {
	name     string
	selector string
}

// NewCSSStrategy creates a strategy for selector.
func NewCSSStrategy(name, selector string) *CSSStrategy {
	return &CSSStrategy{name: name, selector: selector}
}

func (s *CSSStrategy) Name() string { return s.name }

func (s *CSSStrategy) Match(doc *Document) []*goquery.Selection {
	var out []*goquery.Selection
	doc.Query.Find(s.selector).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, sel)
	})
	return out
}

// XPathStrategy matches containers with an XPath expression evaluated by
// htmlquery against the same node tree.
type XPathStrategy struct {
	name string
	expr string
}

// NewXPathStrategy creates a strategy for expr.
func NewXPathStrategy(name, expr string) *XPathStrategy {
	return &XPathStrategy{name: name, expr: expr}
}

func (s *XPathStrategy) Name() string { return s.name }

func (s *XPathStrategy) Match(doc *Document) []*goquery.Selection {
	nodes, err := htmlquery.QueryAll(doc.Root, s.expr)
	if err != nil {
		return nil
	}
	out := make([]*goquery.Selection, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, doc.Query.FindNodes(n))
	}
	return out
}

// DefaultStrategies returns the container heuristics in priority order.
// The first one that matches anything wins.
func DefaultStrategies() []Strategy {
	return []Strategy{
		NewCSSStrategy("news-item", ".news-item, .berita-item, .item-berita, .post-news"),
		NewCSSStrategy("article", "article, .article-item, .post-item"),
		NewCSSStrategy("card", ".card, .post, .entry"),
		NewXPathStrategy("class-contains", "//*[contains(@class,'news') or contains(@class,'article')]"),
	}
}

// newsLinkXPath selects anchors whose href contains any of fragments.
func newsLinkXPath(fragments []string) string {
	if len(fragments) == 0 {
		return ""
	}
	conds := make([]string, 0, len(fragments))
	for _, f := range fragments {
		conds = append(conds, fmt.Sprintf("contains(@href,%s)", xpathLiteral(f)))
	}
	return "//a[" + strings.Join(conds, " or ") + "]"
}

// xpathLiteral quotes s for use inside an XPath expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	return "concat('" + strings.Join(parts, `', "'", '`) + "')"
}
