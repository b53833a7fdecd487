package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrDuplicate     = errors.New("duplicate URL")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrEmptyResponse = errors.New("empty response body")
	ErrBodyTooLarge  = errors.New("response body exceeds size limit")
)

// ErrorKind tags the failure classes of a scrape run.
type ErrorKind string

const (
	KindUnknown     ErrorKind = "unknown"
	KindFetch       ErrorKind = "fetch"
	KindExtraction  ErrorKind = "extraction"
	KindPersistence ErrorKind = "persistence"
)

// KindOf reports the kind of the first typed error in err's chain.
func KindOf(err error) ErrorKind {
	var kinded interface{ Kind() ErrorKind }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return KindUnknown
}

// FetchError wraps errors that occur while fetching the source page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Kind() ErrorKind { return KindFetch }

// ExtractionError records a listing element that could not be turned into a candidate.
type ExtractionError struct {
	Index    int
	Strategy string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error at element %d (strategy=%q): %v", e.Index, e.Strategy, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Kind() ErrorKind { return KindExtraction }

// PersistenceError wraps errors returned by a storage backend.
type PersistenceError struct {
	Backend string
	Op      string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("storage error (%s %s): %v", e.Backend, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Kind() ErrorKind { return KindPersistence }
