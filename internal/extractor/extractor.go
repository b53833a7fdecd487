// Package extractor turns a news listing page into article candidates using
// an ordered cascade of container heuristics and a news-link fallback.
package extractor

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"

	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/pipeline"
	"github.com/IshaanNene/newsrelay/internal/types"
)

// FallbackStrategy names results produced by the news-link scan.
const FallbackStrategy = "fallback"

// Result is the outcome of extracting one listing page.
type Result struct {
	Candidates []types.Candidate
	// Strategy is the winning strategy, or FallbackStrategy.
	Strategy string
	// Matched is the number of containers (or links) the strategy found.
	Matched int
	// Rejected counts containers dropped by the acceptance filter.
	Rejected int
	Failures []*types.ExtractionError
}

// Extractor parses listing pages.
type Extractor struct {
	cfg        config.ExtractorConfig
	strategies []Strategy
	rules      Rules
	linkXPath  string
	pipeline   *pipeline.Pipeline
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the time source for the default published date.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithStrategies replaces the default container strategies.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Extractor) { e.strategies = strategies }
}

// New creates an Extractor.
func New(cfg config.ExtractorConfig, logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		cfg:        cfg,
		strategies: DefaultStrategies(),
		rules:      DefaultRules(),
		linkXPath:  newsLinkXPath(cfg.NewsPathFragments),
		now:        time.Now,
		logger:     logger.With("component", "extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.pipeline = pipeline.NewCandidatePipeline(cfg, e.today, logger)
	return e
}

func (e *Extractor) today() string {
	return e.now().Format(isoDate)
}

// Extract parses body and returns the accepted candidates. It fails only
// when the page cannot be parsed or baseURL is not an absolute http(s) URL.
func (e *Extractor) Extract(body []byte, baseURL string) (*Result, error) {
	base, err := parseBase(baseURL)
	if err != nil {
		return nil, err
	}
	doc, err := NewDocument(body, base)
	if err != nil {
		return nil, err
	}

	for _, s := range e.strategies {
		matches := s.Match(doc)
		if len(matches) == 0 {
			continue
		}
		res := &Result{Strategy: s.Name(), Matched: len(matches)}
		for i, sel := range matches {
			c, err := e.extractElement(doc, sel)
			if err != nil {
				e.recordFailure(res, i, err)
				continue
			}
			e.accept(res, i, c)
		}
		e.logger.Debug("extraction complete",
			"strategy", res.Strategy,
			"matched", res.Matched,
			"accepted", len(res.Candidates),
			"rejected", res.Rejected,
		)
		return res, nil
	}

	return e.fallback(doc), nil
}

// extractElement resolves every field of one container. A panic while
// walking the container is returned as an error.
func (e *Extractor) extractElement(doc *Document, sel *goquery.Selection) (c *types.Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	link, href := firstLink(sel)

	title, ok := e.rules.Title.From(sel)
	if !ok && link != nil {
		title = pipeline.CollapseSpace(link.Text())
	}

	excerpt, ok := e.rules.Excerpt.From(sel)
	if !ok {
		excerpt = e.excerptFromText(sel, title)
	}

	published := ""
	if raw, ok := e.rules.Date.From(sel); ok {
		published, _ = ParseDate(raw)
	}

	category, _ := e.rules.Category.From(sel)

	return &types.Candidate{
		Title:         title,
		Excerpt:       excerpt,
		URL:           NormalizeURL(href, doc.Base),
		Category:      category,
		PublishedDate: published,
	}, nil
}

// excerptFromText derives an excerpt from the container text minus the title.
func (e *Extractor) excerptFromText(sel *goquery.Selection, title string) string {
	text := pipeline.CollapseSpace(sel.Text())
	if title != "" {
		text = strings.Replace(text, title, "", 1)
	}
	return pipeline.Truncate(pipeline.CollapseSpace(text), e.cfg.ExcerptFallbackLength)
}

func (e *Extractor) accept(res *Result, index int, c *types.Candidate) {
	out, err := e.pipeline.Process(c)
	if err != nil {
		e.recordFailure(res, index, err)
		return
	}
	if out == nil {
		res.Rejected++
		return
	}
	res.Candidates = append(res.Candidates, *out)
}

func (e *Extractor) recordFailure(res *Result, index int, err error) {
	fe := &types.ExtractionError{Index: index, Strategy: res.Strategy, Err: err}
	res.Failures = append(res.Failures, fe)
	e.logger.Warn("skipping listing element", "index", index, "strategy", res.Strategy, "error", err)
}

// fallback scans anchors that point into a news section. Their text is the
// title; the other fields take defaults.
func (e *Extractor) fallback(doc *Document) *Result {
	res := &Result{Strategy: FallbackStrategy}
	if e.linkXPath == "" {
		return res
	}
	nodes, err := htmlquery.QueryAll(doc.Root, e.linkXPath)
	if err != nil {
		e.logger.Warn("invalid news link xpath", "xpath", e.linkXPath, "error", err)
		return res
	}
	res.Matched = len(nodes)

	for i, n := range nodes {
		c := &types.Candidate{
			Title:         pipeline.CollapseSpace(htmlquery.InnerText(n)),
			URL:           NormalizeURL(htmlquery.SelectAttr(n, "href"), doc.Base),
			Category:      e.cfg.DefaultCategory,
			PublishedDate: e.today(),
		}
		e.accept(res, i, c)
	}

	e.logger.Debug("fallback extraction complete",
		"links", res.Matched,
		"accepted", len(res.Candidates),
	)
	return res
}
