package fetcher

import (
	"context"

	"github.com/IshaanNene/newsrelay/internal/types"
)

// Fetcher retrieves the listing page for a scrape run.
type Fetcher interface {
	// Fetch retrieves the content at the given request's URL. Any non-2xx
	// status is reported as a *types.FetchError.
	Fetch(ctx context.Context, req *types.Request) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error
}
