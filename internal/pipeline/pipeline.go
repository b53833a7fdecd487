package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/newsrelay/internal/config"
	"github.com/IshaanNene/newsrelay/internal/types"
)

// Middleware processes a candidate and returns the (possibly modified)
// candidate. Return nil to drop the candidate from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms a candidate. Return nil to drop it.
	Process(c *types.Candidate) (*types.Candidate, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// NewCandidatePipeline builds the chain every extracted candidate passes
// through before it is handed to ingestion.
func NewCandidatePipeline(cfg config.ExtractorConfig, today func() string, logger *slog.Logger) *Pipeline {
	p := New(logger)
	p.Use(NewHTMLSanitizeMiddleware())
	p.Use(&TrimMiddleware{})
	p.Use(&RequiredFieldsMiddleware{})
	p.Use(&MinTitleLengthMiddleware{MinLength: cfg.MinTitleLength})
	p.Use(&TruncateMiddleware{MaxTitle: cfg.MaxTitleLength, MaxExcerpt: cfg.MaxExcerptLength})
	p.Use(&DefaultValueMiddleware{Category: cfg.DefaultCategory, Date: today})
	return p
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs a copy of the candidate through all middleware in order.
// A nil result with a nil error means the candidate was dropped.
func (p *Pipeline) Process(c *types.Candidate) (*types.Candidate, error) {
	current := c.Clone()

	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, fmt.Errorf("pipeline stage %s: %w", mw.Name(), err)
		}
		if result == nil {
			p.logger.Debug("candidate dropped", "stage", mw.Name(), "url", c.URL, "title", c.Title)
			return nil, nil
		}
		current = result
	}

	return current, nil
}
